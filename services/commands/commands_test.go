package commands

import (
	"context"
	"testing"
	"time"

	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/repositories"
	"gestion-proyectos/backend/repositories/memory"
	"gestion-proyectos/backend/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func fixedNow() time.Time { return time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC) }

func seed(t *testing.T, store *repositories.Store, project primitive.ObjectID, title string, status models.Status, deps ...primitive.ObjectID) *models.Task {
	t.Helper()
	task := &models.Task{ProjectID: project, Title: title, Status: status, Dependencies: deps}
	require.NoError(t, store.Tasks.Insert(context.Background(), task))
	return task
}

func TestRecomputeProgressHandler(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	project := &models.Project{Name: "P"}
	require.NoError(t, store.Projects.Insert(ctx, project))
	h := NewRecomputeProgressHandler(store)

	t.Run("empty project", func(t *testing.T) {
		p, err := h.Handle(ctx, RecomputeProgressCommand{ProjectID: project.ID})
		require.NoError(t, err)
		assert.Equal(t, 0, p)
	})

	a := seed(t, store, project.ID, "A", models.StatusCompleted)
	seed(t, store, project.ID, "B", models.StatusPending, a.ID)
	seed(t, store, primitive.NewObjectID(), "elsewhere", models.StatusCompleted)

	t.Run("half done and idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			p, err := h.Handle(ctx, RecomputeProgressCommand{ProjectID: project.ID})
			require.NoError(t, err)
			assert.Equal(t, 50, p)
		}
		stored, err := store.Projects.FindByID(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, 50, stored.Progress)
	})

	t.Run("missing project", func(t *testing.T) {
		_, err := h.Handle(ctx, RecomputeProgressCommand{ProjectID: primitive.NewObjectID()})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestAddDependencyHandler(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	project := primitive.NewObjectID()
	a := seed(t, store, project, "A", models.StatusPending)
	b := seed(t, store, project, "B", models.StatusPending, a.ID)
	c := seed(t, store, project, "C", models.StatusPending)
	other := seed(t, store, primitive.NewObjectID(), "Other", models.StatusPending)

	h := NewAddDependencyHandler(store.Tasks, fixedNow)

	t.Run("adds edge", func(t *testing.T) {
		task, err := h.Handle(ctx, AddDependencyCommand{TaskID: c.ID, DependencyID: b.ID})
		require.NoError(t, err)
		assert.Equal(t, []primitive.ObjectID{b.ID}, task.Dependencies)

		stored, err := store.Tasks.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, stored.DependsOn(b.ID))
	})

	t.Run("cycle is a conflict with the path", func(t *testing.T) {
		_, err := h.Handle(ctx, AddDependencyCommand{TaskID: a.ID, DependencyID: c.ID})
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrConflict)
		assert.Equal(t, []string{"A", "C", "B", "A"}, models.BlockingOf(err))

		stored, err := store.Tasks.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.Dependencies)
	})

	t.Run("self and duplicate are validation errors", func(t *testing.T) {
		_, err := h.Handle(ctx, AddDependencyCommand{TaskID: a.ID, DependencyID: a.ID})
		assert.ErrorIs(t, err, models.ErrValidation)
		_, err = h.Handle(ctx, AddDependencyCommand{TaskID: b.ID, DependencyID: a.ID})
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("cross project and missing", func(t *testing.T) {
		_, err := h.Handle(ctx, AddDependencyCommand{TaskID: a.ID, DependencyID: other.ID})
		assert.ErrorIs(t, err, models.ErrValidation)
		_, err = h.Handle(ctx, AddDependencyCommand{TaskID: a.ID, DependencyID: primitive.NewObjectID()})
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = h.Handle(ctx, AddDependencyCommand{TaskID: primitive.NewObjectID(), DependencyID: a.ID})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("completed task only takes completed dependencies", func(t *testing.T) {
		done := seed(t, store, project, "Done", models.StatusCompleted)
		open := seed(t, store, project, "Open", models.StatusPending)
		finished := seed(t, store, project, "Finished", models.StatusCompleted)

		_, err := h.Handle(ctx, AddDependencyCommand{TaskID: done.ID, DependencyID: open.ID})
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrConflict)
		assert.Equal(t, []string{"Open"}, models.BlockingOf(err))

		stored, err := store.Tasks.FindByID(ctx, done.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.Dependencies)

		task, err := h.Handle(ctx, AddDependencyCommand{TaskID: done.ID, DependencyID: finished.ID})
		require.NoError(t, err)
		assert.Equal(t, []primitive.ObjectID{finished.ID}, task.Dependencies)
	})
}

func TestRemoveDependencyHandler(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	project := primitive.NewObjectID()
	x := seed(t, store, project, "X", models.StatusPending)
	y := seed(t, store, project, "Y", models.StatusPending, x.ID)

	h := NewRemoveDependencyHandler(store.Tasks, fixedNow)

	task, err := h.Handle(ctx, RemoveDependencyCommand{TaskID: y.ID, DependencyID: x.ID})
	require.NoError(t, err)
	assert.Empty(t, task.Dependencies)

	_, err = h.Handle(ctx, RemoveDependencyCommand{TaskID: y.ID, DependencyID: x.ID})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReplaceDependencies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	project := primitive.NewObjectID()
	a := seed(t, store, project, "A", models.StatusPending)
	b := seed(t, store, project, "B", models.StatusPending, a.ID)

	t.Run("new task with duplicates", func(t *testing.T) {
		task := &models.Task{ID: primitive.NewObjectID(), ProjectID: project, Title: "N"}
		deps, err := ReplaceDependencies(ctx, store.Tasks, task, []primitive.ObjectID{a.ID, b.ID, a.ID})
		require.NoError(t, err)
		assert.Equal(t, []primitive.ObjectID{a.ID, b.ID}, deps)
	})

	t.Run("existing edges are replaced", func(t *testing.T) {
		deps, err := ReplaceDependencies(ctx, store.Tasks, b, nil)
		require.NoError(t, err)
		assert.Empty(t, deps)
	})

	t.Run("cycle", func(t *testing.T) {
		_, err := ReplaceDependencies(ctx, store.Tasks, a, []primitive.ObjectID{b.ID})
		assert.ErrorIs(t, err, models.ErrConflict)
	})
}

func TestDomainErrorOf_PassesOtherErrors(t *testing.T) {
	err := assert.AnError
	assert.Same(t, err, DomainErrorOf(err))
	assert.ErrorIs(t, DomainErrorOf(&workflow.GraphError{Kind: workflow.ErrSelfDependency}), models.ErrValidation)
}
