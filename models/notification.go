package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubjectType string

const (
	SubjectProject SubjectType = "Project"
	SubjectTask    SubjectType = "Task"
)

// NotificationKind is the condition a notification reports. Together with the
// subject it forms the idempotence key of generated alerts.
type NotificationKind string

const (
	KindProjectNotStarted  NotificationKind = "project_not_started"
	KindProjectNotFinished NotificationKind = "project_not_finished"
	KindTaskNotStarted     NotificationKind = "task_not_started"
	KindTaskNotFinished    NotificationKind = "task_not_finished"
)

type Notification struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	SubjectType SubjectType         `json:"subjectType" bson:"subject_type"`
	SubjectID   primitive.ObjectID  `json:"subjectId" bson:"subject_id"`
	ProjectID   primitive.ObjectID  `json:"projectId" bson:"project_id"`
	Kind        NotificationKind    `json:"kind" bson:"kind"`
	Message     string              `json:"message" bson:"message"`
	CreatedAt   time.Time           `json:"createdAt" bson:"created_at"`
	IsRead      bool                `json:"isRead" bson:"is_read"`
	UserID      *primitive.ObjectID `json:"userId,omitempty" bson:"user_id,omitempty"`
}
