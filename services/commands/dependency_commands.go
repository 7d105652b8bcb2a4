package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gestion-proyectos/backend/logging"
	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/repositories"
	"gestion-proyectos/backend/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AddDependencyCommand struct {
	TaskID       primitive.ObjectID
	DependencyID primitive.ObjectID
}

type RemoveDependencyCommand struct {
	TaskID       primitive.ObjectID
	DependencyID primitive.ObjectID
}

type AddDependencyHandler struct {
	Tasks repositories.TaskRepository
	Now   func() time.Time
}

func NewAddDependencyHandler(tasks repositories.TaskRepository, now func() time.Time) *AddDependencyHandler {
	return &AddDependencyHandler{Tasks: tasks, Now: now}
}

// Handle validates the new edge against the project's dependency graph and
// persists it. Cycles are rejected before anything is written, and so is an
// incomplete dependency on a task that is already Completed.
func (h *AddDependencyHandler) Handle(ctx context.Context, cmd AddDependencyCommand) (*models.Task, error) {
	task, err := h.Tasks.FindByID(ctx, cmd.TaskID)
	if err != nil {
		return nil, notFound(err, "task", cmd.TaskID)
	}

	graph, err := LoadGraph(ctx, h.Tasks, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := checkMembers(ctx, h.Tasks, graph, []primitive.ObjectID{cmd.DependencyID}); err != nil {
		return nil, err
	}
	if err := graph.AddEdge(task.ID, cmd.DependencyID); err != nil {
		return nil, DomainErrorOf(err)
	}
	if task.Status == models.StatusCompleted {
		dep, err := h.Tasks.FindByID(ctx, cmd.DependencyID)
		if err != nil {
			return nil, notFound(err, "task", cmd.DependencyID)
		}
		if dep.Status != models.StatusCompleted {
			return nil, models.BlockedBy(fmt.Sprintf("task %q is completed and cannot depend on incomplete tasks", task.Title), []string{dep.Title})
		}
	}

	task.Dependencies = append(task.Dependencies, cmd.DependencyID)
	task.UpdatedAt = h.Now()
	if err := h.Tasks.UpdateByID(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to add dependency: %w", err)
	}

	logging.Logger.Infof("Event ID: DEPENDENCY_ADDED, Description: task %s now depends on %s", task.ID.Hex(), cmd.DependencyID.Hex())
	return task, nil
}

type RemoveDependencyHandler struct {
	Tasks repositories.TaskRepository
	Now   func() time.Time
}

func NewRemoveDependencyHandler(tasks repositories.TaskRepository, now func() time.Time) *RemoveDependencyHandler {
	return &RemoveDependencyHandler{Tasks: tasks, Now: now}
}

func (h *RemoveDependencyHandler) Handle(ctx context.Context, cmd RemoveDependencyCommand) (*models.Task, error) {
	task, err := h.Tasks.FindByID(ctx, cmd.TaskID)
	if err != nil {
		return nil, notFound(err, "task", cmd.TaskID)
	}

	kept := make([]primitive.ObjectID, 0, len(task.Dependencies))
	for _, d := range task.Dependencies {
		if d != cmd.DependencyID {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(task.Dependencies) {
		return nil, models.NotFoundf("task %q does not depend on %s", task.Title, cmd.DependencyID.Hex())
	}

	task.Dependencies = kept
	task.UpdatedAt = h.Now()
	if err := h.Tasks.UpdateByID(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to remove dependency: %w", err)
	}

	logging.Logger.Infof("Event ID: DEPENDENCY_REMOVED, Description: task %s no longer depends on %s", task.ID.Hex(), cmd.DependencyID.Hex())
	return task, nil
}

// LoadGraph builds the dependency graph of every task in a project.
func LoadGraph(ctx context.Context, tasks repositories.TaskRepository, projectID primitive.ObjectID) (*workflow.DependencyGraph, error) {
	all, err := tasks.Find(ctx, repositories.TaskQuery{ProjectID: &projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to load project tasks: %w", err)
	}
	return workflow.NewDependencyGraph(all), nil
}

// ReplaceDependencies checks deps as the complete dependency list of task
// and returns them deduplicated in their given order. task may be one that
// is not stored yet.
func ReplaceDependencies(ctx context.Context, tasks repositories.TaskRepository, task *models.Task, deps []primitive.ObjectID) ([]primitive.ObjectID, error) {
	graph, err := LoadGraph(ctx, tasks, task.ProjectID)
	if err != nil {
		return nil, err
	}
	graph.AddTask(task.ID, task.Title)
	graph.ClearEdges(task.ID)

	unique := make([]primitive.ObjectID, 0, len(deps))
	seen := make(map[primitive.ObjectID]bool, len(deps))
	for _, d := range deps {
		if !seen[d] {
			seen[d] = true
			unique = append(unique, d)
		}
	}
	if err := checkMembers(ctx, tasks, graph, unique); err != nil {
		return nil, err
	}
	for _, d := range unique {
		if err := graph.AddEdge(task.ID, d); err != nil {
			return nil, DomainErrorOf(err)
		}
	}
	return unique, nil
}

// checkMembers tells missing dependencies apart from ones in another project.
func checkMembers(ctx context.Context, tasks repositories.TaskRepository, graph *workflow.DependencyGraph, deps []primitive.ObjectID) error {
	for _, d := range deps {
		if graph.Has(d) {
			continue
		}
		if _, err := tasks.FindByID(ctx, d); err == nil {
			return models.Validationf("dependency %s belongs to another project", d.Hex())
		} else if !errors.Is(err, repositories.ErrNoDocument) {
			return fmt.Errorf("failed to load dependency: %w", err)
		}
		return models.NotFoundf("dependency task %s not found", d.Hex())
	}
	return nil
}

// DomainErrorOf maps dependency graph failures onto domain error kinds.
func DomainErrorOf(err error) error {
	var ge *workflow.GraphError
	if !errors.As(err, &ge) {
		return err
	}
	switch {
	case errors.Is(err, workflow.ErrCycleDetected):
		return &models.DomainError{Kind: models.ErrConflict, Msg: err.Error(), Blocking: ge.Path}
	case errors.Is(err, workflow.ErrUnknownTask):
		return models.NotFoundf("%s", err.Error())
	default:
		return models.Validationf("%s", err.Error())
	}
}

func notFound(err error, what string, id primitive.ObjectID) error {
	if errors.Is(err, repositories.ErrNoDocument) {
		return models.NotFoundf("%s %s not found", what, id.Hex())
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
