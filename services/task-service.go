package services

import (
	"context"
	"fmt"
	"strings"

	"gestion-proyectos/backend/logging"
	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/repositories"
	"gestion-proyectos/backend/services/commands"
	"gestion-proyectos/backend/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskService struct {
	store         *repositories.Store
	progress      *commands.RecomputeProgressHandler
	addDependency *commands.AddDependencyHandler
	remDependency *commands.RemoveDependencyHandler
	now           Clock
}

func NewTaskService(store *repositories.Store, now Clock) *TaskService {
	return &TaskService{
		store:         store,
		progress:      commands.NewRecomputeProgressHandler(store),
		addDependency: commands.NewAddDependencyHandler(store.Tasks, now),
		remDependency: commands.NewRemoveDependencyHandler(store.Tasks, now),
		now:           now,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, who models.Identity, req CreateTaskRequest) (*models.TaskView, error) {
	if err := who.Require(models.CapManageTasks); err != nil {
		return nil, err
	}
	project, err := visibleProject(ctx, s.store.Projects, who, req.ProjectID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	t := &models.Task{
		ID:          primitive.NewObjectID(),
		ProjectID:   project.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      req.Status,
		AssigneeID:  req.AssigneeID,
		StartDate:   derefTime(req.StartDate),
		EndDate:     derefTime(req.EndDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Status == "" {
		t.Status = models.StatusPending
	}
	if err := s.validate(ctx, project, t); err != nil {
		return nil, err
	}

	deps, err := commands.ReplaceDependencies(ctx, s.store.Tasks, t, req.Dependencies)
	if err != nil {
		return nil, err
	}
	t.Dependencies = deps

	if t.Status == models.StatusCompleted {
		if err := s.checkCompletable(ctx, t); err != nil {
			return nil, err
		}
	}

	if err := s.store.Tasks.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	s.progress.Recompute(ctx, t.ProjectID)

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: task %s %q created in project %s", t.ID.Hex(), t.Title, t.ProjectID.Hex())
	return s.view(ctx, t)
}

func (s *TaskService) validate(ctx context.Context, project *models.Project, t *models.Task) error {
	if err := required("title", t.Title); err != nil {
		return err
	}
	if !t.Status.Valid() {
		return models.Validationf("invalid status %q", t.Status)
	}
	if err := checkDates(t.StartDate, t.EndDate); err != nil {
		return err
	}
	if !project.Contains(t.StartDate, t.EndDate) {
		return models.Validationf("task dates must fall within the project schedule")
	}
	if t.AssigneeID != nil {
		if _, err := resolveUsers(ctx, s.store.Users, []primitive.ObjectID{*t.AssigneeID}); err != nil {
			return err
		}
	}
	return nil
}

// checkCompletable runs the completion gate against freshly loaded
// dependencies.
func (s *TaskService) checkCompletable(ctx context.Context, t *models.Task) error {
	deps, err := s.dependenciesOf(ctx, t)
	if err != nil {
		return err
	}
	if blocking := workflow.BlockingDependencies(*t, deps); len(blocking) > 0 {
		return models.BlockedBy(fmt.Sprintf("task %q has incomplete dependencies", t.Title), workflow.Titles(blocking))
	}
	return nil
}

// dependenciesOf loads the tasks t depends on. Dangling references are
// logged and left out.
func (s *TaskService) dependenciesOf(ctx context.Context, t *models.Task) ([]models.Task, error) {
	if len(t.Dependencies) == 0 {
		return nil, nil
	}
	deps, err := s.store.Tasks.Find(ctx, repositories.TaskQuery{IDs: t.Dependencies})
	if err != nil {
		return nil, fmt.Errorf("failed to load dependencies: %w", err)
	}
	if len(deps) < len(t.Dependencies) {
		logging.Logger.Warnf("Event ID: DANGLING_DEPENDENCY, Description: task %s references %d missing dependencies", t.ID.Hex(), len(t.Dependencies)-len(deps))
	}
	return deps, nil
}

func (s *TaskService) view(ctx context.Context, t *models.Task) (*models.TaskView, error) {
	deps, err := s.dependenciesOf(ctx, t)
	if err != nil {
		return nil, err
	}
	v := buildView(*t, deps)
	return &v, nil
}

func buildView(t models.Task, deps []models.Task) models.TaskView {
	blocking := workflow.BlockingDependencies(t, deps)
	return models.TaskView{
		Task:      t,
		Blocked:   len(blocking) > 0,
		BlockedBy: workflow.Titles(blocking),
	}
}

func (s *TaskService) load(ctx context.Context, who models.Identity, id primitive.ObjectID) (*models.Task, *models.Project, error) {
	t, err := s.store.Tasks.FindByID(ctx, id)
	if err != nil {
		return nil, nil, lookupErr(err, "task", id)
	}
	p, err := visibleProject(ctx, s.store.Projects, who, t.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return t, p, nil
}

func (s *TaskService) GetTask(ctx context.Context, who models.Identity, id primitive.ObjectID) (*models.TaskView, error) {
	t, _, err := s.load(ctx, who, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, t)
}

func (s *TaskService) ListTasks(ctx context.Context, who models.Identity, projectID primitive.ObjectID) ([]models.TaskView, error) {
	if _, err := visibleProject(ctx, s.store.Projects, who, projectID); err != nil {
		return nil, err
	}
	tasks, err := s.store.Tasks.Find(ctx, repositories.TaskQuery{ProjectID: &projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	views := make([]models.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, buildView(t, tasks))
	}
	return views, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, who models.Identity, id primitive.ObjectID, req UpdateTaskRequest) (*models.TaskView, error) {
	if err := who.Require(models.CapManageTasks); err != nil {
		return nil, err
	}
	t, project, err := s.load(ctx, who, id)
	if err != nil {
		return nil, err
	}
	before := t.Status

	if req.Title != nil {
		t.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.ClearAssignee {
		t.AssigneeID = nil
	} else if req.AssigneeID != nil {
		t.AssigneeID = req.AssigneeID
	}
	if req.StartDate != nil {
		t.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		t.EndDate = *req.EndDate
	}
	if err := s.validate(ctx, project, t); err != nil {
		return nil, err
	}
	if req.Dependencies != nil {
		deps, err := commands.ReplaceDependencies(ctx, s.store.Tasks, t, *req.Dependencies)
		if err != nil {
			return nil, err
		}
		t.Dependencies = deps
	}
	if t.Status == models.StatusCompleted && (before != models.StatusCompleted || req.Dependencies != nil) {
		if err := s.checkCompletable(ctx, t); err != nil {
			return nil, err
		}
	}

	t.UpdatedAt = s.now()
	if err := s.store.Tasks.UpdateByID(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if t.Status != before {
		s.progress.Recompute(ctx, t.ProjectID)
	}

	logging.Logger.Infof("Event ID: TASK_UPDATED, Description: task %s updated by %s", t.ID.Hex(), who.UserID.Hex())
	return s.view(ctx, t)
}

// ChangeStatus moves a task to status. Users without task management rights
// may only move tasks assigned to them. Completing a task requires every
// dependency to be Completed.
func (s *TaskService) ChangeStatus(ctx context.Context, who models.Identity, id primitive.ObjectID, status models.Status) (*models.TaskView, error) {
	if err := who.Require(models.CapUpdateTaskStatus); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, models.Validationf("invalid status %q", status)
	}
	t, _, err := s.load(ctx, who, id)
	if err != nil {
		return nil, err
	}
	if !who.Can(models.CapManageTasks) && (t.AssigneeID == nil || *t.AssigneeID != who.UserID) {
		return nil, models.Forbiddenf("task %q is not assigned to this user", t.Title)
	}
	if t.Status == status {
		return s.view(ctx, t)
	}
	if status == models.StatusCompleted {
		if err := s.checkCompletable(ctx, t); err != nil {
			return nil, err
		}
	}
	if t.Status == models.StatusCompleted {
		s.warnReopened(ctx, t)
	}

	now := s.now()
	if err := s.store.Tasks.SetStatus(ctx, t.ID, status, now); err != nil {
		return nil, lookupErr(err, "task", t.ID)
	}
	logging.Logger.Infof("Event ID: TASK_STATUS_CHANGED, Description: task %s moved from %s to %s", t.ID.Hex(), t.Status, status)

	t.Status = status
	t.UpdatedAt = now
	s.progress.Recompute(ctx, t.ProjectID)
	return s.view(ctx, t)
}

// warnReopened logs the Completed tasks that keep depending on t once t
// leaves Completed. Reopening is not gated; those tasks show as blocked.
func (s *TaskService) warnReopened(ctx context.Context, t *models.Task) {
	holders, err := s.dependents(ctx, t)
	if err != nil {
		logging.Logger.Warnf("Event ID: DEPENDENTS_LOOKUP_FAILED, Description: task %s: %v", t.ID.Hex(), err)
		return
	}
	var completed []models.Task
	for _, h := range holders {
		if h.Status == models.StatusCompleted {
			completed = append(completed, h)
		}
	}
	if len(completed) > 0 {
		logging.Logger.Warnf("Event ID: COMPLETED_DEPENDENTS_REOPENED, Description: task %s reopened while %d completed tasks depend on it: %v", t.ID.Hex(), len(completed), workflow.Titles(completed))
	}
}

func (s *TaskService) AddDependency(ctx context.Context, who models.Identity, id, dependencyID primitive.ObjectID) (*models.TaskView, error) {
	if err := who.Require(models.CapManageTasks); err != nil {
		return nil, err
	}
	if _, _, err := s.load(ctx, who, id); err != nil {
		return nil, err
	}
	t, err := s.addDependency.Handle(ctx, commands.AddDependencyCommand{TaskID: id, DependencyID: dependencyID})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, t)
}

func (s *TaskService) RemoveDependency(ctx context.Context, who models.Identity, id, dependencyID primitive.ObjectID) (*models.TaskView, error) {
	if err := who.Require(models.CapManageTasks); err != nil {
		return nil, err
	}
	if _, _, err := s.load(ctx, who, id); err != nil {
		return nil, err
	}
	t, err := s.remDependency.Handle(ctx, commands.RemoveDependencyCommand{TaskID: id, DependencyID: dependencyID})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, t)
}

func (s *TaskService) dependents(ctx context.Context, t *models.Task) ([]models.Task, error) {
	holders, err := s.store.Tasks.Find(ctx, repositories.TaskQuery{DependsOn: &t.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load dependents: %w", err)
	}
	return workflow.Dependents(*t, holders), nil
}

func (s *TaskService) CheckDelete(ctx context.Context, who models.Identity, id primitive.ObjectID) (*DeleteCheck, error) {
	t, _, err := s.load(ctx, who, id)
	if err != nil {
		return nil, err
	}
	holders, err := s.dependents(ctx, t)
	if err != nil {
		return nil, err
	}
	return &DeleteCheck{CanDelete: len(holders) == 0, Dependents: workflow.Titles(holders)}, nil
}

// DeleteTask removes a task nothing depends on, together with its
// notifications.
func (s *TaskService) DeleteTask(ctx context.Context, who models.Identity, id primitive.ObjectID) error {
	if err := who.Require(models.CapManageTasks); err != nil {
		return err
	}
	t, _, err := s.load(ctx, who, id)
	if err != nil {
		return err
	}
	holders, err := s.dependents(ctx, t)
	if err != nil {
		return err
	}
	if len(holders) > 0 {
		return models.BlockedBy(fmt.Sprintf("task %q is a dependency of other tasks", t.Title), workflow.Titles(holders))
	}

	if err := s.store.Tasks.DeleteByID(ctx, t.ID); err != nil {
		return lookupErr(err, "task", t.ID)
	}
	if _, err := s.store.Notifications.DeleteMany(ctx, repositories.NotificationQuery{SubjectType: models.SubjectTask, SubjectID: &t.ID}); err != nil {
		logging.Logger.Warnf("Event ID: TASK_NOTIFICATIONS_CLEANUP_FAILED, Description: task %s: %v", t.ID.Hex(), err)
	}
	s.progress.Recompute(ctx, t.ProjectID)

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: task %s deleted from project %s", t.ID.Hex(), t.ProjectID.Hex())
	return nil
}
