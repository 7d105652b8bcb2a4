package services

import (
	"context"
	"fmt"
	"time"

	"gestion-proyectos/backend/logging"
	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService struct {
	store *repositories.Store
	now   Clock
}

func NewNotificationService(store *repositories.Store, now Clock) *NotificationService {
	return &NotificationService{store: store, now: now}
}

// alert is a notification the scan wants to exist.
type alert struct {
	subjectType models.SubjectType
	subjectID   primitive.ObjectID
	projectID   primitive.ObjectID
	kind        models.NotificationKind
	message     string
	userID      *primitive.ObjectID
}

// projectAlert applies the schedule rules to a project.
func projectAlert(p models.Project, today time.Time) (alert, bool) {
	a := alert{subjectType: models.SubjectProject, subjectID: p.ID, projectID: p.ID}
	if !p.ManagerID.IsZero() {
		manager := p.ManagerID
		a.userID = &manager
	}
	switch {
	case p.Status == models.StatusPending && !p.StartDate.IsZero() && p.StartDate.Before(today):
		a.kind = models.KindProjectNotStarted
		a.message = fmt.Sprintf("Project %q was due to start on %s and has not started", p.Name, p.StartDate.Format(time.DateOnly))
	case p.Status == models.StatusInProgress && !p.EndDate.IsZero() && p.EndDate.Before(today):
		a.kind = models.KindProjectNotFinished
		a.message = fmt.Sprintf("Project %q was due to finish on %s and is still in progress", p.Name, p.EndDate.Format(time.DateOnly))
	default:
		return alert{}, false
	}
	return a, true
}

// taskAlert applies the schedule rules to a task.
func taskAlert(t models.Task, today time.Time) (alert, bool) {
	a := alert{subjectType: models.SubjectTask, subjectID: t.ID, projectID: t.ProjectID}
	if t.AssigneeID != nil {
		assignee := *t.AssigneeID
		a.userID = &assignee
	}
	switch {
	case t.Status == models.StatusPending && !t.StartDate.IsZero() && t.StartDate.Before(today):
		a.kind = models.KindTaskNotStarted
		a.message = fmt.Sprintf("Task %q was due to start on %s and has not started", t.Title, t.StartDate.Format(time.DateOnly))
	case t.Status == models.StatusInProgress && !t.EndDate.IsZero() && t.EndDate.Before(today):
		a.kind = models.KindTaskNotFinished
		a.message = fmt.Sprintf("Task %q was due to finish on %s and is still in progress", t.Title, t.EndDate.Format(time.DateOnly))
	default:
		return alert{}, false
	}
	return a, true
}

// Scan checks every project and task for schedule slippage as of now's day
// and creates the notifications that do not exist yet as unread. It returns
// only the newly created ones. A failure on one subject is logged and the
// scan moves on.
func (s *NotificationService) Scan(ctx context.Context, now time.Time) ([]models.Notification, error) {
	today := StartOfDay(now)

	projects, err := s.store.Projects.Find(ctx, repositories.ProjectQuery{})
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	tasks, err := s.store.Tasks.Find(ctx, repositories.TaskQuery{
		Statuses: []models.Status{models.StatusPending, models.StatusInProgress},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	halted := make(map[primitive.ObjectID]bool, len(projects))
	var alerts []alert
	for _, p := range projects {
		halted[p.ID] = p.Status.Halted()
		if a, ok := projectAlert(p, today); ok {
			alerts = append(alerts, a)
		}
	}
	for _, t := range tasks {
		if halted[t.ProjectID] {
			continue
		}
		if a, ok := taskAlert(t, today); ok {
			alerts = append(alerts, a)
		}
	}

	created := []models.Notification{}
	for _, a := range alerts {
		n, err := s.emit(ctx, a)
		if err != nil {
			logging.Logger.Errorf("Event ID: NOTIFICATION_SCAN_SUBJECT_FAILED, Description: %s %s: %v", a.subjectType, a.subjectID.Hex(), err)
			continue
		}
		if n != nil {
			created = append(created, *n)
		}
	}

	logging.Logger.Infof("Event ID: NOTIFICATION_SCAN_COMPLETED, Description: scanned %d projects and %d tasks for %s, %d new notifications", len(projects), len(tasks), today.Format(time.DateOnly), len(created))
	return created, nil
}

// emit inserts the alert unless an unread one with the same key exists.
func (s *NotificationService) emit(ctx context.Context, a alert) (*models.Notification, error) {
	unread := false
	existing, err := s.store.Notifications.Count(ctx, repositories.NotificationQuery{
		SubjectType: a.subjectType,
		SubjectID:   &a.subjectID,
		Kind:        a.kind,
		IsRead:      &unread,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check existing notifications: %w", err)
	}
	if existing > 0 {
		return nil, nil
	}

	n := &models.Notification{
		SubjectType: a.subjectType,
		SubjectID:   a.subjectID,
		ProjectID:   a.projectID,
		Kind:        a.kind,
		Message:     a.message,
		CreatedAt:   s.now(),
		UserID:      a.userID,
	}
	if err := s.store.Notifications.Insert(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

// ListNotifications returns all notifications for identities that can view
// all, otherwise the ones assigned to the user.
func (s *NotificationService) ListNotifications(ctx context.Context, who models.Identity, unreadOnly bool) ([]models.Notification, error) {
	q := s.scope(who)
	if unreadOnly {
		unread := false
		q.IsRead = &unread
	}
	notes, err := s.store.Notifications.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notes, nil
}

// UnreadCount counts the unread notifications visible to the identity.
func (s *NotificationService) UnreadCount(ctx context.Context, who models.Identity) (int64, error) {
	q := s.scope(who)
	unread := false
	q.IsRead = &unread
	return s.store.Notifications.Count(ctx, q)
}

func (s *NotificationService) scope(who models.Identity) repositories.NotificationQuery {
	if who.Can(models.CapViewAll) {
		return repositories.NotificationQuery{}
	}
	return repositories.NotificationQuery{UserID: &who.UserID}
}

func (s *NotificationService) load(ctx context.Context, who models.Identity, id primitive.ObjectID) (*models.Notification, error) {
	n, err := s.store.Notifications.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "notification", id)
	}
	if !who.Can(models.CapViewAll) && (n.UserID == nil || *n.UserID != who.UserID) {
		return nil, models.Forbiddenf("notification %s is not assigned to this user", id.Hex())
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, who models.Identity, id primitive.ObjectID) error {
	if _, err := s.load(ctx, who, id); err != nil {
		return err
	}
	if err := s.store.Notifications.MarkRead(ctx, id); err != nil {
		return lookupErr(err, "notification", id)
	}
	return nil
}

func (s *NotificationService) DeleteNotification(ctx context.Context, who models.Identity, id primitive.ObjectID) error {
	if _, err := s.load(ctx, who, id); err != nil {
		return err
	}
	if err := s.store.Notifications.DeleteByID(ctx, id); err != nil {
		return lookupErr(err, "notification", id)
	}
	return nil
}

// DeleteRead removes every read notification in the identity's scope.
func (s *NotificationService) DeleteRead(ctx context.Context, who models.Identity) (int64, error) {
	q := s.scope(who)
	read := true
	q.IsRead = &read
	n, err := s.store.Notifications.DeleteMany(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("failed to delete read notifications: %w", err)
	}
	logging.Logger.Infof("Event ID: NOTIFICATIONS_PURGED, Description: %d read notifications deleted by %s", n, who.UserID.Hex())
	return n, nil
}
