package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/repositories"
	"gestion-proyectos/backend/repositories/memory"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func day(offset int) *time.Time {
	d := StartOfDay(testNow).AddDate(0, 0, offset)
	return &d
}

// fakeFiles records what the services store and remove.
type fakeFiles struct {
	mu      sync.Mutex
	saved   map[string]string
	removed []string
	failOn  string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{saved: map[string]string{}}
}

func (f *fakeFiles) Save(name string, r io.Reader) (string, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == f.failOn {
		return "", 0, fmt.Errorf("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	path := primitive.NewObjectID().Hex() + "-" + name
	f.saved[path] = string(data)
	return path, int64(len(data)), nil
}

func (f *fakeFiles) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, path)
	f.removed = append(f.removed, path)
	return nil
}

type fixture struct {
	ctx   context.Context
	store *repositories.Store
	files *fakeFiles

	admin    models.Identity
	manager  models.Identity
	member   models.Identity
	outsider models.Identity

	projects      *ProjectService
	tasks         *TaskService
	expenses      *ExpenseService
	notifications *NotificationService
	reports       *ReportService
	users         *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	files := newFakeFiles()
	clock := func() time.Time { return testNow }

	f := &fixture{ctx: context.Background(), store: store, files: files}
	f.admin = f.addUser(t, "Ana Admin", models.RoleAdmin)
	f.manager = f.addUser(t, "Marko Manager", models.RoleManager)
	f.member = f.addUser(t, "Uma User", models.RoleUser)
	f.outsider = f.addUser(t, "Olga Outsider", models.RoleUser)

	f.projects = NewProjectService(store, files, clock)
	f.tasks = NewTaskService(store, clock)
	f.expenses = NewExpenseService(store, files, clock)
	f.notifications = NewNotificationService(store, clock)
	f.reports = NewReportService(store, f.notifications, clock)
	f.users = NewUserService(store, clock)
	return f
}

func (f *fixture) addUser(t *testing.T, name string, role models.Role) models.Identity {
	t.Helper()
	u := &models.User{Name: name, Email: fmt.Sprintf("%s@example.com", primitive.NewObjectID().Hex()), Role: role}
	require.NoError(t, f.store.Users.Insert(context.Background(), u))
	return models.Identity{UserID: u.ID, Role: role}
}

func (f *fixture) project(t *testing.T, mutate ...func(*CreateProjectRequest)) *models.Project {
	t.Helper()
	req := CreateProjectRequest{
		Name:        "Bridge",
		StartDate:   day(-10),
		EndDate:     day(30),
		Status:      models.StatusInProgress,
		Budget:      1000,
		TeamMembers: []primitive.ObjectID{f.member.UserID},
	}
	for _, m := range mutate {
		m(&req)
	}
	p, err := f.projects.CreateProject(f.ctx, f.manager, req)
	require.NoError(t, err)
	return p
}

func (f *fixture) task(t *testing.T, projectID primitive.ObjectID, title string, status models.Status, deps ...primitive.ObjectID) *models.TaskView {
	t.Helper()
	v, err := f.tasks.CreateTask(f.ctx, f.manager, CreateTaskRequest{
		ProjectID:    projectID,
		Title:        title,
		Status:       status,
		Dependencies: deps,
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) progress(t *testing.T, projectID primitive.ObjectID) int {
	t.Helper()
	p, err := f.store.Projects.FindByID(f.ctx, projectID)
	require.NoError(t, err)
	return p.Progress
}
