package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Task struct {
	ID           primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	ProjectID    primitive.ObjectID   `json:"projectId" bson:"project_id"`
	Title        string               `json:"title" bson:"title"`
	Description  string               `json:"description" bson:"description"`
	Status       Status               `json:"status" bson:"status"`
	AssigneeID   *primitive.ObjectID  `json:"assigneeId,omitempty" bson:"assignee_id,omitempty"`
	StartDate    time.Time            `json:"startDate" bson:"start_date,omitempty"`
	EndDate      time.Time            `json:"endDate" bson:"end_date,omitempty"`
	Dependencies []primitive.ObjectID `json:"dependencies" bson:"dependencies"`
	CreatedAt    time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time            `json:"updatedAt" bson:"updated_at"`
}

func (t *Task) DependsOn(id primitive.ObjectID) bool {
	for _, d := range t.Dependencies {
		if d == id {
			return true
		}
	}
	return false
}

// TaskView is a task plus the fields derived from its dependencies.
type TaskView struct {
	Task
	Blocked   bool     `json:"blocked"`
	BlockedBy []string `json:"blockedBy"`
}
