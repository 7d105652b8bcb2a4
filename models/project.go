package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Project struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name        string               `json:"name" bson:"name"`
	Description string               `json:"description" bson:"description"`
	StartDate   time.Time            `json:"startDate" bson:"start_date,omitempty"`
	EndDate     time.Time            `json:"endDate" bson:"end_date,omitempty"`
	Status      Status               `json:"status" bson:"status"`
	Budget      float64              `json:"budget" bson:"budget"`
	Currency    string               `json:"currency" bson:"currency"`
	Priority    Priority             `json:"priority" bson:"priority"`
	ManagerID   primitive.ObjectID   `json:"managerId" bson:"manager_id"`
	TeamMembers []primitive.ObjectID `json:"teamMembers" bson:"team_members"`
	Progress    int                  `json:"progress" bson:"progress"`
	OwnerID     primitive.ObjectID   `json:"ownerId" bson:"owner_id"`
	CreatedAt   time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time            `json:"updatedAt" bson:"updated_at"`
}

// Involves reports whether the user manages, owns or works on the project.
func (p *Project) Involves(userID primitive.ObjectID) bool {
	if p.ManagerID == userID || p.OwnerID == userID {
		return true
	}
	for _, m := range p.TeamMembers {
		if m == userID {
			return true
		}
	}
	return false
}

// Contains reports whether [start, end] lies within the project's schedule.
// Unset bounds on either side are not checked.
func (p *Project) Contains(start, end time.Time) bool {
	if !p.StartDate.IsZero() && !start.IsZero() && start.Before(p.StartDate) {
		return false
	}
	if !p.EndDate.IsZero() && !end.IsZero() && end.After(p.EndDate) {
		return false
	}
	return true
}
