package services

import (
	"context"
	"errors"
	"testing"

	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNotificationService_Scan(t *testing.T) {
	t.Run("pending project that started yesterday", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, func(r *CreateProjectRequest) {
			r.Status = models.StatusPending
			r.StartDate = day(-1)
		})

		created, err := f.notifications.Scan(f.ctx, testNow)
		require.NoError(t, err)
		require.Len(t, created, 1)
		n := created[0]
		assert.Equal(t, models.KindProjectNotStarted, n.Kind)
		assert.Equal(t, models.SubjectProject, n.SubjectType)
		assert.Equal(t, p.ID, n.SubjectID)
		assert.False(t, n.IsRead)
		require.NotNil(t, n.UserID)
		assert.Equal(t, f.manager.UserID, *n.UserID)

		again, err := f.notifications.Scan(f.ctx, testNow)
		require.NoError(t, err)
		assert.Empty(t, again)

		count, err := f.store.Notifications.Count(f.ctx, repositories.NotificationQuery{SubjectID: &p.ID})
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("start date today does not trigger", func(t *testing.T) {
		f := newFixture(t)
		f.project(t, func(r *CreateProjectRequest) {
			r.Status = models.StatusPending
			r.StartDate = day(0)
		})
		created, err := f.notifications.Scan(f.ctx, testNow)
		require.NoError(t, err)
		assert.Empty(t, created)
	})

	t.Run("read notification does not suppress a new one", func(t *testing.T) {
		f := newFixture(t)
		f.project(t, func(r *CreateProjectRequest) {
			r.Status = models.StatusPending
			r.StartDate = day(-3)
		})
		created, err := f.notifications.Scan(f.ctx, testNow)
		require.NoError(t, err)
		require.Len(t, created, 1)
		require.NoError(t, f.notifications.MarkRead(f.ctx, f.manager, created[0].ID))

		created, err = f.notifications.Scan(f.ctx, testNow)
		require.NoError(t, err)
		assert.Len(t, created, 1)
	})

	t.Run("overdue in-progress project and tasks", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, func(r *CreateProjectRequest) {
			r.StartDate = day(-30)
			r.EndDate = day(-1)
		})
		late, err := f.tasks.CreateTask(f.ctx, f.manager, CreateTaskRequest{
			ProjectID: p.ID, Title: "late", Status: models.StatusInProgress,
			StartDate: day(-20), EndDate: day(-2), AssigneeID: &f.member.UserID,
		})
		require.NoError(t, err)
		notStarted, err := f.tasks.CreateTask(f.ctx, f.manager, CreateTaskRequest{
			ProjectID: p.ID, Title: "idle", StartDate: day(-5),
		})
		require.NoError(t, err)
		_, err = f.tasks.CreateTask(f.ctx, f.manager, CreateTaskRequest{
			ProjectID: p.ID, Title: "undated", Status: models.StatusInProgress,
		})
		require.NoError(t, err)

		created, err := f.notifications.Scan(f.ctx, testNow)
		require.NoError(t, err)

		kinds := map[primitive.ObjectID]models.NotificationKind{}
		for _, n := range created {
			kinds[n.SubjectID] = n.Kind
		}
		assert.Equal(t, map[primitive.ObjectID]models.NotificationKind{
			p.ID:          models.KindProjectNotFinished,
			late.ID:       models.KindTaskNotFinished,
			notStarted.ID: models.KindTaskNotStarted,
		}, kinds)

		mine, err := f.notifications.ListNotifications(f.ctx, f.member, false)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, late.ID, mine[0].SubjectID)
	})

	t.Run("tasks of halted projects are skipped", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t)
		waiting := f.task(t, p.ID, "waiting", models.StatusPending)
		_, err := f.tasks.UpdateTask(f.ctx, f.manager, waiting.ID, UpdateTaskRequest{StartDate: day(-2)})
		require.NoError(t, err)

		suspended := models.StatusSuspended
		_, err = f.projects.UpdateProject(f.ctx, f.manager, p.ID, UpdateProjectRequest{Status: &suspended})
		require.NoError(t, err)

		created, err := f.notifications.Scan(f.ctx, testNow)
		require.NoError(t, err)
		assert.Empty(t, created)
	})

	t.Run("scan does not touch projects or tasks", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, func(r *CreateProjectRequest) {
			r.Status = models.StatusPending
			r.StartDate = day(-1)
		})
		before, err := f.store.Projects.FindByID(f.ctx, p.ID)
		require.NoError(t, err)

		_, err = f.notifications.Scan(f.ctx, testNow)
		require.NoError(t, err)

		after, err := f.store.Projects.FindByID(f.ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("failure on one subject does not abort the scan", func(t *testing.T) {
		for _, failOn := range []string{"count", "insert"} {
			t.Run(failOn, func(t *testing.T) {
				f := newFixture(t)
				pending := func(name string) func(*CreateProjectRequest) {
					return func(r *CreateProjectRequest) {
						r.Name = name
						r.Status = models.StatusPending
						r.StartDate = day(-1)
					}
				}
				broken := f.project(t, pending("Broken"))
				healthy := f.project(t, pending("Healthy"))

				failing := &failingNotifications{NotificationRepository: f.store.Notifications, subject: broken.ID}
				if failOn == "count" {
					failing.failCount = true
				} else {
					failing.failInsert = true
				}
				f.store.Notifications = failing

				created, err := f.notifications.Scan(f.ctx, testNow)
				require.NoError(t, err)
				require.Len(t, created, 1)
				assert.Equal(t, healthy.ID, created[0].SubjectID)
			})
		}
	})
}

// failingNotifications fails Count or Insert for one subject and passes
// everything else through.
type failingNotifications struct {
	repositories.NotificationRepository
	subject    primitive.ObjectID
	failCount  bool
	failInsert bool
}

func (r *failingNotifications) Count(ctx context.Context, q repositories.NotificationQuery) (int64, error) {
	if r.failCount && q.SubjectID != nil && *q.SubjectID == r.subject {
		return 0, errors.New("connection reset")
	}
	return r.NotificationRepository.Count(ctx, q)
}

func (r *failingNotifications) Insert(ctx context.Context, n *models.Notification) error {
	if r.failInsert && n.SubjectID == r.subject {
		return errors.New("connection reset")
	}
	return r.NotificationRepository.Insert(ctx, n)
}

func TestNotificationService_Access(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, func(r *CreateProjectRequest) {
		r.Status = models.StatusPending
		r.StartDate = day(-1)
	})
	created, err := f.notifications.Scan(f.ctx, testNow)
	require.NoError(t, err)
	require.Len(t, created, 1)
	id := created[0].ID

	t.Run("others cannot touch it", func(t *testing.T) {
		assert.ErrorIs(t, f.notifications.MarkRead(f.ctx, f.member, id), models.ErrForbidden)
		assert.ErrorIs(t, f.notifications.DeleteNotification(f.ctx, f.member, id), models.ErrForbidden)

		list, err := f.notifications.ListNotifications(f.ctx, f.member, false)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		list, err := f.notifications.ListNotifications(f.ctx, f.admin, true)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("mark read then delete read", func(t *testing.T) {
		require.NoError(t, f.notifications.MarkRead(f.ctx, f.manager, id))
		unread, err := f.notifications.UnreadCount(f.ctx, f.manager)
		require.NoError(t, err)
		assert.Zero(t, unread)

		n, err := f.notifications.DeleteRead(f.ctx, f.manager)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		assert.ErrorIs(t, f.notifications.MarkRead(f.ctx, f.manager, id), models.ErrNotFound)
	})

	t.Run("project delete cascades", func(t *testing.T) {
		_, err := f.notifications.Scan(f.ctx, testNow)
		require.NoError(t, err)
		require.NoError(t, f.projects.DeleteProject(f.ctx, f.manager, p.ID))

		count, err := f.store.Notifications.Count(f.ctx, repositories.NotificationQuery{})
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestStartOfDay(t *testing.T) {
	got := StartOfDay(testNow)
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, testNow.Day(), got.Day())
}
