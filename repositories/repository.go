package repositories

import (
	"context"
	"errors"
	"time"

	"gestion-proyectos/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNoDocument is returned by FindByID, UpdateByID and DeleteByID when no
// record matches.
var ErrNoDocument = errors.New("document not found")

type ProjectQuery struct {
	IDs      []primitive.ObjectID
	Statuses []models.Status
	// Member matches projects the user manages, owns or works on.
	Member *primitive.ObjectID
}

type TaskQuery struct {
	ProjectID *primitive.ObjectID
	IDs       []primitive.ObjectID
	Statuses  []models.Status
	DependsOn *primitive.ObjectID
}

type ExpenseQuery struct {
	ProjectID *primitive.ObjectID
}

type NotificationQuery struct {
	SubjectType models.SubjectType
	SubjectID   *primitive.ObjectID
	ProjectID   *primitive.ObjectID
	Kind        models.NotificationKind
	UserID      *primitive.ObjectID
	IsRead      *bool
}

type UserQuery struct {
	IDs  []primitive.ObjectID
	Role models.Role
}

type ProjectRepository interface {
	Insert(ctx context.Context, p *models.Project) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	Find(ctx context.Context, q ProjectQuery) ([]models.Project, error)
	Count(ctx context.Context, q ProjectQuery) (int64, error)
	UpdateByID(ctx context.Context, p *models.Project) error
	SetProgress(ctx context.Context, id primitive.ObjectID, progress int) error
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
	Ping(ctx context.Context) error
}

type TaskRepository interface {
	Insert(ctx context.Context, t *models.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	Find(ctx context.Context, q TaskQuery) ([]models.Task, error)
	Count(ctx context.Context, q TaskQuery) (int64, error)
	UpdateByID(ctx context.Context, t *models.Task) error
	// SetStatus changes only the status and the update time.
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.Status, at time.Time) error
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
	DeleteMany(ctx context.Context, q TaskQuery) (int64, error)
}

type ExpenseRepository interface {
	Insert(ctx context.Context, e *models.Expense) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Expense, error)
	Find(ctx context.Context, q ExpenseQuery) ([]models.Expense, error)
	UpdateByID(ctx context.Context, e *models.Expense) error
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}

type NotificationRepository interface {
	Insert(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	Find(ctx context.Context, q NotificationQuery) ([]models.Notification, error)
	Count(ctx context.Context, q NotificationQuery) (int64, error)
	MarkRead(ctx context.Context, id primitive.ObjectID) error
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
	DeleteMany(ctx context.Context, q NotificationQuery) (int64, error)
}

type UserRepository interface {
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Find(ctx context.Context, q UserQuery) ([]models.User, error)
}

// Store groups the collections the services work with.
type Store struct {
	Projects      ProjectRepository
	Tasks         TaskRepository
	Expenses      ExpenseRepository
	Notifications NotificationRepository
	Users         UserRepository
}
