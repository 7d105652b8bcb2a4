package commands

import (
	"context"
	"errors"
	"fmt"

	"gestion-proyectos/backend/logging"
	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/repositories"
	"gestion-proyectos/backend/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RecomputeProgressCommand struct {
	ProjectID primitive.ObjectID
}

type RecomputeProgressHandler struct {
	Projects repositories.ProjectRepository
	Tasks    repositories.TaskRepository
}

func NewRecomputeProgressHandler(store *repositories.Store) *RecomputeProgressHandler {
	return &RecomputeProgressHandler{Projects: store.Projects, Tasks: store.Tasks}
}

// Handle counts the project's tasks, derives the completion percentage and
// stores it. Running it twice on unchanged tasks writes the same value.
func (h *RecomputeProgressHandler) Handle(ctx context.Context, cmd RecomputeProgressCommand) (int, error) {
	total, err := h.Tasks.Count(ctx, repositories.TaskQuery{ProjectID: &cmd.ProjectID})
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	completed, err := h.Tasks.Count(ctx, repositories.TaskQuery{
		ProjectID: &cmd.ProjectID,
		Statuses:  []models.Status{models.StatusCompleted},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count completed tasks: %w", err)
	}

	progress := workflow.Progress(int(total), int(completed))
	if err := h.Projects.SetProgress(ctx, cmd.ProjectID, progress); err != nil {
		if errors.Is(err, repositories.ErrNoDocument) {
			return 0, models.NotFoundf("project %s not found", cmd.ProjectID.Hex())
		}
		return 0, fmt.Errorf("failed to store progress: %w", err)
	}

	logging.Logger.Debugf("Event ID: PROGRESS_RECOMPUTED, Description: project %s at %d%% (%d/%d)", cmd.ProjectID.Hex(), progress, completed, total)
	return progress, nil
}

// Recompute runs the command after a task event and logs a failure instead
// of returning it.
func (h *RecomputeProgressHandler) Recompute(ctx context.Context, projectID primitive.ObjectID) {
	if _, err := h.Handle(ctx, RecomputeProgressCommand{ProjectID: projectID}); err != nil {
		logging.Logger.Warnf("Event ID: PROGRESS_RECOMPUTE_FAILED, Description: project %s: %v", projectID.Hex(), err)
	}
}
