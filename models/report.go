package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type ProjectSummary struct {
	ProjectID          primitive.ObjectID          `json:"projectId"`
	Name               string                      `json:"name"`
	Status             Status                      `json:"status"`
	Progress           int                         `json:"progress"`
	TotalTasks         int                         `json:"totalTasks"`
	TasksByStatus      map[Status]int              `json:"tasksByStatus"`
	BlockedTasks       int                         `json:"blockedTasks"`
	OverdueTasks       int                         `json:"overdueTasks"`
	Budget             float64                     `json:"budget"`
	Spent              float64                     `json:"spent"`
	Remaining          float64                     `json:"remaining"`
	Currency           string                      `json:"currency"`
	ExpensesByCategory map[ExpenseCategory]float64 `json:"expensesByCategory"`
}

type Dashboard struct {
	TotalProjects       int              `json:"totalProjects"`
	ProjectsByStatus    map[Status]int   `json:"projectsByStatus"`
	UnreadNotifications int              `json:"unreadNotifications"`
	OverBudget          []ProjectSummary `json:"overBudget"`
}
