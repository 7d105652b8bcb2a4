package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gestion-proyectos/backend/logging"
	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/repositories"
	"gestion-proyectos/backend/services/commands"
	"gestion-proyectos/backend/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultCurrency = "USD"

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

type ProjectService struct {
	store    *repositories.Store
	files    storage.FileStore
	progress *commands.RecomputeProgressHandler
	now      Clock
}

func NewProjectService(store *repositories.Store, files storage.FileStore, now Clock) *ProjectService {
	return &ProjectService{
		store:    store,
		files:    files,
		progress: commands.NewRecomputeProgressHandler(store),
		now:      now,
	}
}

func (s *ProjectService) CreateProject(ctx context.Context, who models.Identity, req CreateProjectRequest) (*models.Project, error) {
	if err := who.Require(models.CapManageProjects); err != nil {
		return nil, err
	}

	p := &models.Project{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		StartDate:   derefTime(req.StartDate),
		EndDate:     derefTime(req.EndDate),
		Status:      req.Status,
		Budget:      req.Budget,
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
		Priority:    req.Priority,
		ManagerID:   req.ManagerID,
		TeamMembers: uniqueIDs(req.TeamMembers),
		OwnerID:     who.UserID,
	}
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	if p.Currency == "" {
		p.Currency = defaultCurrency
	}
	if p.Priority == "" {
		p.Priority = models.PriorityMedium
	}
	if p.ManagerID.IsZero() && who.Can(models.CapLeadProjects) {
		p.ManagerID = who.UserID
	}

	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}

	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := s.store.Projects.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	logging.Logger.Infof("Event ID: PROJECT_CREATED, Description: project %s %q created by %s", p.ID.Hex(), p.Name, who.UserID.Hex())
	return p, nil
}

func (s *ProjectService) validate(ctx context.Context, p *models.Project) error {
	if err := required("name", p.Name); err != nil {
		return err
	}
	if !p.Status.Valid() {
		return models.Validationf("invalid status %q", p.Status)
	}
	if !p.Priority.Valid() {
		return models.Validationf("invalid priority %q", p.Priority)
	}
	if p.Budget <= 0 {
		return models.Validationf("budget must be greater than zero")
	}
	if !currencyPattern.MatchString(p.Currency) {
		return models.Validationf("currency must be a 3-letter code, got %q", p.Currency)
	}
	if err := checkDates(p.StartDate, p.EndDate); err != nil {
		return err
	}
	if p.ManagerID.IsZero() {
		return models.Validationf("managerId is required")
	}
	manager, err := s.store.Users.FindByID(ctx, p.ManagerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNoDocument) {
			return models.Validationf("manager %s not found", p.ManagerID.Hex())
		}
		return fmt.Errorf("failed to load manager: %w", err)
	}
	if !manager.Role.Can(models.CapLeadProjects) {
		return models.Validationf("user %q cannot manage projects", manager.Name)
	}
	if _, err := resolveUsers(ctx, s.store.Users, p.TeamMembers); err != nil {
		return err
	}
	return nil
}

func (s *ProjectService) GetProject(ctx context.Context, who models.Identity, id primitive.ObjectID) (*models.Project, error) {
	return visibleProject(ctx, s.store.Projects, who, id)
}

// ListProjects returns every project for identities that can view all and
// otherwise only the ones the user is involved in.
func (s *ProjectService) ListProjects(ctx context.Context, who models.Identity, statuses []models.Status) ([]models.Project, error) {
	for _, st := range statuses {
		if !st.Valid() {
			return nil, models.Validationf("invalid status %q", st)
		}
	}
	q := repositories.ProjectQuery{Statuses: statuses}
	if !who.Can(models.CapViewAll) {
		q.Member = &who.UserID
	}
	projects, err := s.store.Projects.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectService) UpdateProject(ctx context.Context, who models.Identity, id primitive.ObjectID, req UpdateProjectRequest) (*models.Project, error) {
	if err := who.Require(models.CapManageProjects); err != nil {
		return nil, err
	}
	p, err := visibleProject(ctx, s.store.Projects, who, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.StartDate != nil {
		p.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		p.EndDate = *req.EndDate
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.Budget != nil {
		p.Budget = *req.Budget
	}
	if req.Currency != nil {
		p.Currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
	}
	if req.Priority != nil {
		p.Priority = *req.Priority
	}
	if req.ManagerID != nil {
		p.ManagerID = *req.ManagerID
	}
	if req.TeamMembers != nil {
		p.TeamMembers = uniqueIDs(*req.TeamMembers)
	}

	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}
	if req.StartDate != nil || req.EndDate != nil {
		if err := s.checkTaskDates(ctx, p); err != nil {
			return nil, err
		}
	}
	p.UpdatedAt = s.now()
	if err := s.store.Projects.UpdateByID(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	logging.Logger.Infof("Event ID: PROJECT_UPDATED, Description: project %s updated by %s", p.ID.Hex(), who.UserID.Hex())
	return p, nil
}

// checkTaskDates rejects a schedule that would leave any of the project's
// tasks outside it.
func (s *ProjectService) checkTaskDates(ctx context.Context, p *models.Project) error {
	tasks, err := s.store.Tasks.Find(ctx, repositories.TaskQuery{ProjectID: &p.ID})
	if err != nil {
		return fmt.Errorf("failed to load project tasks: %w", err)
	}
	var outside []string
	for _, t := range tasks {
		if !p.Contains(t.StartDate, t.EndDate) {
			outside = append(outside, t.Title)
		}
	}
	if len(outside) > 0 {
		return models.BlockedBy(fmt.Sprintf("new schedule of project %q leaves tasks outside it", p.Name), outside)
	}
	return nil
}

func (s *ProjectService) AddMember(ctx context.Context, who models.Identity, id, userID primitive.ObjectID) (*models.Project, error) {
	if err := who.Require(models.CapManageProjects); err != nil {
		return nil, err
	}
	p, err := visibleProject(ctx, s.store.Projects, who, id)
	if err != nil {
		return nil, err
	}
	for _, m := range p.TeamMembers {
		if m == userID {
			return nil, models.Conflictf("user %s is already a member", userID.Hex())
		}
	}
	if _, err := resolveUsers(ctx, s.store.Users, []primitive.ObjectID{userID}); err != nil {
		return nil, err
	}

	p.TeamMembers = append(p.TeamMembers, userID)
	p.UpdatedAt = s.now()
	if err := s.store.Projects.UpdateByID(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	logging.Logger.Infof("Event ID: MEMBER_ADDED, Description: user %s added to project %s", userID.Hex(), p.ID.Hex())
	return p, nil
}

// RemoveMember drops a user from the team. Tasks still assigned to the user
// in this project block the removal.
func (s *ProjectService) RemoveMember(ctx context.Context, who models.Identity, id, userID primitive.ObjectID) (*models.Project, error) {
	if err := who.Require(models.CapManageProjects); err != nil {
		return nil, err
	}
	p, err := visibleProject(ctx, s.store.Projects, who, id)
	if err != nil {
		return nil, err
	}

	kept := make([]primitive.ObjectID, 0, len(p.TeamMembers))
	for _, m := range p.TeamMembers {
		if m != userID {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(p.TeamMembers) {
		return nil, models.NotFoundf("user %s is not a member of project %s", userID.Hex(), id.Hex())
	}

	tasks, err := s.store.Tasks.Find(ctx, repositories.TaskQuery{ProjectID: &p.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	var assigned []string
	for _, t := range tasks {
		if t.AssigneeID != nil && *t.AssigneeID == userID && t.Status != models.StatusCompleted {
			assigned = append(assigned, t.Title)
		}
	}
	if len(assigned) > 0 {
		return nil, models.BlockedBy("member still has open tasks", assigned)
	}

	p.TeamMembers = kept
	p.UpdatedAt = s.now()
	if err := s.store.Projects.UpdateByID(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}
	logging.Logger.Infof("Event ID: MEMBER_REMOVED, Description: user %s removed from project %s", userID.Hex(), p.ID.Hex())
	return p, nil
}

// DeleteProject removes the project with its tasks, expenses, attachment
// files and notifications.
func (s *ProjectService) DeleteProject(ctx context.Context, who models.Identity, id primitive.ObjectID) error {
	if err := who.Require(models.CapManageProjects); err != nil {
		return err
	}
	p, err := visibleProject(ctx, s.store.Projects, who, id)
	if err != nil {
		return err
	}

	expenses, err := s.store.Expenses.Find(ctx, repositories.ExpenseQuery{ProjectID: &p.ID})
	if err != nil {
		return fmt.Errorf("failed to load expenses: %w", err)
	}
	for _, e := range expenses {
		removeAttachments(s.files, e.Attachments)
		if err := s.store.Expenses.DeleteByID(ctx, e.ID); err != nil && !errors.Is(err, repositories.ErrNoDocument) {
			return fmt.Errorf("failed to delete expense %s: %w", e.ID.Hex(), err)
		}
	}

	tasks, err := s.store.Tasks.DeleteMany(ctx, repositories.TaskQuery{ProjectID: &p.ID})
	if err != nil {
		return fmt.Errorf("failed to delete tasks: %w", err)
	}
	notes, err := s.store.Notifications.DeleteMany(ctx, repositories.NotificationQuery{ProjectID: &p.ID})
	if err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	if err := s.store.Projects.DeleteByID(ctx, p.ID); err != nil {
		return lookupErr(err, "project", p.ID)
	}

	logging.Logger.Infof("Event ID: PROJECT_DELETED, Description: project %s deleted with %d tasks, %d expenses, %d notifications", p.ID.Hex(), tasks, len(expenses), notes)
	return nil
}

// RecomputeProgress recalculates and stores the project's completion
// percentage.
func (s *ProjectService) RecomputeProgress(ctx context.Context, who models.Identity, id primitive.ObjectID) (int, error) {
	if _, err := visibleProject(ctx, s.store.Projects, who, id); err != nil {
		return 0, err
	}
	return s.progress.Handle(ctx, commands.RecomputeProgressCommand{ProjectID: id})
}
