package services

import (
	"io"
	"time"

	"gestion-proyectos/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateProjectRequest struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	StartDate   *time.Time           `json:"startDate"`
	EndDate     *time.Time           `json:"endDate"`
	Status      models.Status        `json:"status"`
	Budget      float64              `json:"budget"`
	Currency    string               `json:"currency"`
	Priority    models.Priority      `json:"priority"`
	ManagerID   primitive.ObjectID   `json:"managerId"`
	TeamMembers []primitive.ObjectID `json:"teamMembers"`
}

// UpdateProjectRequest changes only the fields that are set.
type UpdateProjectRequest struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	StartDate   *time.Time            `json:"startDate"`
	EndDate     *time.Time            `json:"endDate"`
	Status      *models.Status        `json:"status"`
	Budget      *float64              `json:"budget"`
	Currency    *string               `json:"currency"`
	Priority    *models.Priority      `json:"priority"`
	ManagerID   *primitive.ObjectID   `json:"managerId"`
	TeamMembers *[]primitive.ObjectID `json:"teamMembers"`
}

type CreateTaskRequest struct {
	ProjectID    primitive.ObjectID   `json:"projectId"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Status       models.Status        `json:"status"`
	AssigneeID   *primitive.ObjectID  `json:"assigneeId"`
	StartDate    *time.Time           `json:"startDate"`
	EndDate      *time.Time           `json:"endDate"`
	Dependencies []primitive.ObjectID `json:"dependencies"`
}

// UpdateTaskRequest changes only the fields that are set. Dependencies, when
// present, replace the whole list.
type UpdateTaskRequest struct {
	Title         *string               `json:"title"`
	Description   *string               `json:"description"`
	Status        *models.Status        `json:"status"`
	AssigneeID    *primitive.ObjectID   `json:"assigneeId"`
	ClearAssignee bool                  `json:"clearAssignee"`
	StartDate     *time.Time            `json:"startDate"`
	EndDate       *time.Time            `json:"endDate"`
	Dependencies  *[]primitive.ObjectID `json:"dependencies"`
}

type CreateExpenseRequest struct {
	ProjectID   primitive.ObjectID     `json:"projectId"`
	Description string                 `json:"description"`
	Amount      float64                `json:"amount"`
	Category    models.ExpenseCategory `json:"category"`
	Date        *time.Time             `json:"date"`
	DoneBy      string                 `json:"doneBy"`
}

type UpdateExpenseRequest struct {
	Description *string                 `json:"description"`
	Amount      *float64                `json:"amount"`
	Category    *models.ExpenseCategory `json:"category"`
	Date        *time.Time              `json:"date"`
	DoneBy      *string                 `json:"doneBy"`
}

// Upload is one attachment file received with an expense.
type Upload struct {
	Name   string
	Reader io.Reader
}

type CreateUserRequest struct {
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// DeleteCheck reports whether a task can be deleted and which tasks hold it.
type DeleteCheck struct {
	CanDelete  bool     `json:"canDelete"`
	Dependents []string `json:"dependents"`
}
