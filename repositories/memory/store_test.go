package memory

import (
	"context"
	"testing"
	"time"

	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTaskRepo(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	project := primitive.NewObjectID()

	a := &models.Task{ProjectID: project, Title: "A", Status: models.StatusPending}
	require.NoError(t, store.Tasks.Insert(ctx, a))
	require.False(t, a.ID.IsZero())

	b := &models.Task{ProjectID: project, Title: "B", Status: models.StatusPending, Dependencies: []primitive.ObjectID{a.ID}}
	require.NoError(t, store.Tasks.Insert(ctx, b))

	t.Run("find by dependency", func(t *testing.T) {
		found, err := store.Tasks.Find(ctx, repositories.TaskQuery{DependsOn: &a.ID})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "B", found[0].Title)
	})

	t.Run("returned copies are detached", func(t *testing.T) {
		got, err := store.Tasks.FindByID(ctx, b.ID)
		require.NoError(t, err)
		got.Dependencies[0] = primitive.NewObjectID()

		again, err := store.Tasks.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, again.Dependencies[0])
	})

	t.Run("set status", func(t *testing.T) {
		at := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
		require.NoError(t, store.Tasks.SetStatus(ctx, a.ID, models.StatusCompleted, at))
		got, err := store.Tasks.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, at, got.UpdatedAt)
		assert.ErrorIs(t, store.Tasks.SetStatus(ctx, primitive.NewObjectID(), models.StatusCompleted, at), repositories.ErrNoDocument)

		n, err := store.Tasks.Count(ctx, repositories.TaskQuery{ProjectID: &project, Statuses: []models.Status{models.StatusCompleted}})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("missing ids", func(t *testing.T) {
		_, err := store.Tasks.FindByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, repositories.ErrNoDocument)
		assert.ErrorIs(t, store.Tasks.DeleteByID(ctx, primitive.NewObjectID()), repositories.ErrNoDocument)
	})

	t.Run("delete many by project", func(t *testing.T) {
		n, err := store.Tasks.DeleteMany(ctx, repositories.TaskQuery{ProjectID: &project})
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})
}

func TestNotificationRepo(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	subject := primitive.NewObjectID()

	n := &models.Notification{SubjectType: models.SubjectTask, SubjectID: subject, Kind: models.KindTaskNotStarted}
	require.NoError(t, store.Notifications.Insert(ctx, n))

	unread := false
	q := repositories.NotificationQuery{SubjectType: models.SubjectTask, SubjectID: &subject, Kind: models.KindTaskNotStarted, IsRead: &unread}
	count, err := store.Notifications.Count(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, store.Notifications.MarkRead(ctx, n.ID))
	count, err = store.Notifications.Count(ctx, q)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProjectRepo_Member(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	user := primitive.NewObjectID()

	require.NoError(t, store.Projects.Insert(ctx, &models.Project{Name: "mine", TeamMembers: []primitive.ObjectID{user}}))
	require.NoError(t, store.Projects.Insert(ctx, &models.Project{Name: "other"}))

	found, err := store.Projects.Find(ctx, repositories.ProjectQuery{Member: &user})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "mine", found[0].Name)
}
