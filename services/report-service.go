package services

import (
	"context"
	"fmt"
	"time"

	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/repositories"
	"gestion-proyectos/backend/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReportService struct {
	store         *repositories.Store
	notifications *NotificationService
	now           Clock
}

func NewReportService(store *repositories.Store, notifications *NotificationService, now Clock) *ReportService {
	return &ReportService{store: store, notifications: notifications, now: now}
}

func (s *ReportService) ProjectSummary(ctx context.Context, who models.Identity, projectID primitive.ObjectID) (*models.ProjectSummary, error) {
	p, err := visibleProject(ctx, s.store.Projects, who, projectID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, p)
}

func (s *ReportService) summarize(ctx context.Context, p *models.Project) (*models.ProjectSummary, error) {
	tasks, err := s.store.Tasks.Find(ctx, repositories.TaskQuery{ProjectID: &p.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	expenses, err := s.store.Expenses.Find(ctx, repositories.ExpenseQuery{ProjectID: &p.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	return buildSummary(p, tasks, expenses, StartOfDay(s.now())), nil
}

func buildSummary(p *models.Project, tasks []models.Task, expenses []models.Expense, today time.Time) *models.ProjectSummary {
	sum := &models.ProjectSummary{
		ProjectID:          p.ID,
		Name:               p.Name,
		Status:             p.Status,
		Progress:           p.Progress,
		TotalTasks:         len(tasks),
		TasksByStatus:      map[models.Status]int{},
		Budget:             p.Budget,
		Currency:           p.Currency,
		ExpensesByCategory: map[models.ExpenseCategory]float64{},
	}
	for _, t := range tasks {
		sum.TasksByStatus[t.Status]++
		if t.Status != models.StatusCompleted && !workflow.CanComplete(t, tasks) {
			sum.BlockedTasks++
		}
		if t.Status != models.StatusCompleted && t.Status != models.StatusCancelled && !t.EndDate.IsZero() && t.EndDate.Before(today) {
			sum.OverdueTasks++
		}
	}
	for _, e := range expenses {
		sum.Spent += e.Amount
		sum.ExpensesByCategory[e.Category] += e.Amount
	}
	sum.Remaining = sum.Budget - sum.Spent
	return sum
}

// Dashboard aggregates the projects visible to the identity.
func (s *ReportService) Dashboard(ctx context.Context, who models.Identity) (*models.Dashboard, error) {
	q := repositories.ProjectQuery{}
	if !who.Can(models.CapViewAll) {
		q.Member = &who.UserID
	}
	projects, err := s.store.Projects.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}

	d := &models.Dashboard{
		TotalProjects:    len(projects),
		ProjectsByStatus: map[models.Status]int{},
		OverBudget:       []models.ProjectSummary{},
	}
	for i := range projects {
		p := &projects[i]
		d.ProjectsByStatus[p.Status]++

		sum, err := s.summarize(ctx, p)
		if err != nil {
			return nil, err
		}
		if sum.Spent > sum.Budget {
			d.OverBudget = append(d.OverBudget, *sum)
		}
	}

	unread, err := s.notifications.UnreadCount(ctx, who)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	d.UnreadNotifications = int(unread)
	return d, nil
}
