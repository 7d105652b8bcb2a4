package workflow

import (
	"testing"

	"gestion-proyectos/backend/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTask(title string, status models.Status, deps ...primitive.ObjectID) models.Task {
	return models.Task{
		ID:           primitive.NewObjectID(),
		Title:        title,
		Status:       status,
		Dependencies: deps,
	}
}

func TestCanComplete(t *testing.T) {
	a := newTask("A", models.StatusCompleted)
	b := newTask("B", models.StatusPending)
	c := newTask("C", models.StatusInProgress)

	tests := []struct {
		name     string
		task     models.Task
		deps     []models.Task
		want     bool
		blocking []string
	}{
		{"no dependencies", newTask("T", models.StatusPending), nil, true, nil},
		{"all completed", newTask("T", models.StatusPending, a.ID), []models.Task{a}, true, nil},
		{"one pending", newTask("T", models.StatusPending, a.ID, b.ID), []models.Task{a, b}, false, []string{"B"}},
		{"several incomplete", newTask("T", models.StatusPending, b.ID, c.ID), []models.Task{b, c}, false, []string{"B", "C"}},
		{"unreferenced tasks ignored", newTask("T", models.StatusPending, a.ID), []models.Task{a, b}, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanComplete(tt.task, tt.deps))
			blocking := BlockingDependencies(tt.task, tt.deps)
			if tt.blocking == nil {
				assert.Empty(t, blocking)
			} else {
				assert.Equal(t, tt.blocking, Titles(blocking))
			}
		})
	}
}

func TestCanDelete(t *testing.T) {
	x := newTask("X", models.StatusPending)
	y := newTask("Y", models.StatusPending, x.ID)
	z := newTask("Z", models.StatusPending)

	all := []models.Task{x, y, z}
	assert.False(t, CanDelete(x, all))
	assert.Equal(t, []string{"Y"}, Titles(Dependents(x, all)))
	assert.True(t, CanDelete(y, all))
	assert.True(t, CanDelete(z, all))

	y.Dependencies = nil
	assert.True(t, CanDelete(x, []models.Task{x, y, z}))
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0, Progress(0, 0))
	assert.Equal(t, 50, Progress(2, 1))
	assert.Equal(t, 33, Progress(3, 1))
	assert.Equal(t, 67, Progress(3, 2))
	assert.Equal(t, 100, Progress(4, 4))

	a := newTask("A", models.StatusCompleted)
	b := newTask("B", models.StatusPending, a.ID)
	tasks := []models.Task{a, b}
	assert.Equal(t, 50, ProgressOf(tasks))
	assert.Equal(t, ProgressOf(tasks), ProgressOf(tasks))
	assert.True(t, CanComplete(b, tasks))
}
