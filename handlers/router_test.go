package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gestion-proyectos/backend/middleware"
	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/repositories"
	"gestion-proyectos/backend/repositories/memory"
	"gestion-proyectos/backend/services"
	"gestion-proyectos/backend/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	testSecret = []byte("handler-secret")
	testNow    = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
)

// directScanner runs the scan without a lock.
type directScanner struct {
	service *services.NotificationService
}

func (s directScanner) Run(ctx context.Context, now time.Time) ([]models.Notification, error) {
	return s.service.Scan(ctx, now)
}

type testServer struct {
	t       *testing.T
	store   *repositories.Store
	handler http.Handler
	admin   models.User
	manager models.User
	member  models.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	files, err := storage.NewLocalFileStore(t.TempDir())
	require.NoError(t, err)

	now := func() time.Time { return testNow }
	notifications := services.NewNotificationService(store, now)
	h := Handlers{
		Projects:      NewProjectHandler(services.NewProjectService(store, files, now)),
		Tasks:         NewTaskHandler(services.NewTaskService(store, now)),
		Expenses:      NewExpenseHandler(services.NewExpenseService(store, files, now), 1<<20),
		Notifications: NewNotificationHandler(notifications, directScanner{service: notifications}, now),
		Users:         NewUserHandler(services.NewUserService(store, now)),
		Reports:       NewReportHandler(services.NewReportService(store, notifications, now)),
		Health:        NewHealthHandler("test", store.Projects),
	}

	s := &testServer{t: t, store: store, handler: NewRouter(h, testSecret, "http://localhost:4200")}
	s.admin = s.user("Ada", models.RoleAdmin)
	s.manager = s.user("Mia", models.RoleManager)
	s.member = s.user("Uma", models.RoleUser)
	return s
}

func (s *testServer) user(name string, role models.Role) models.User {
	u := &models.User{Name: name, Email: primitive.NewObjectID().Hex() + "@example.com", Role: role, CreatedAt: testNow}
	require.NoError(s.t, s.store.Users.Insert(context.Background(), u))
	return *u
}

func (s *testServer) token(u models.User) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(s.t, err)
	return signed
}

func (s *testServer) do(u *models.User, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(*u))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func date(offset int) time.Time {
	return time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func (s *testServer) project(status models.Status, start time.Time) models.Project {
	p := &models.Project{
		Name:        "Bridge",
		Status:      status,
		StartDate:   start,
		EndDate:     date(30),
		Budget:      1000,
		Currency:    "USD",
		Priority:    models.PriorityMedium,
		ManagerID:   s.manager.ID,
		OwnerID:     s.manager.ID,
		TeamMembers: []primitive.ObjectID{s.member.ID},
	}
	require.NoError(s.t, s.store.Projects.Insert(context.Background(), p))
	return *p
}

func (s *testServer) task(projectID primitive.ObjectID, title string, status models.Status, deps ...primitive.ObjectID) models.Task {
	if deps == nil {
		deps = []primitive.ObjectID{}
	}
	t := &models.Task{ProjectID: projectID, Title: title, Status: status, Dependencies: deps}
	require.NoError(s.t, s.store.Tasks.Insert(context.Background(), t))
	return *t
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(nil, http.MethodGet, "/api/projects", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(nil, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[HealthResponse](t, rec).Status)
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthHandler_StoreDown(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler("test", downPinger{}).HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "down", decode[HealthResponse](t, rec).DB)
}

func TestRouter_CompleteBlockedTask(t *testing.T) {
	s := newTestServer(t)
	p := s.project(models.StatusInProgress, date(-10))
	design := s.task(p.ID, "Design", models.StatusInProgress)
	build := s.task(p.ID, "Build", models.StatusPending, design.ID)

	rec := s.do(&s.manager, http.MethodPut, "/api/tasks/"+build.ID.Hex()+"/status", map[string]string{"status": "Completed"})
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, []string{"Design"}, body.Blocking)

	rec = s.do(&s.manager, http.MethodPut, "/api/tasks/"+design.ID.Hex()+"/status", map[string]string{"status": "Completed"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(&s.manager, http.MethodPut, "/api/tasks/"+build.ID.Hex()+"/status", map[string]string{"status": "Completed"})
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := s.store.Projects.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)
}

func TestRouter_ErrorMapping(t *testing.T) {
	s := newTestServer(t)
	p := s.project(models.StatusInProgress, date(-10))
	a := s.task(p.ID, "A", models.StatusPending)
	b := s.task(p.ID, "B", models.StatusPending, a.ID)

	tests := []struct {
		name   string
		user   *models.User
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"malformed id", &s.manager, http.MethodGet, "/api/tasks/not-an-id", nil, http.StatusBadRequest},
		{"unknown task", &s.manager, http.MethodGet, "/api/tasks/" + primitive.NewObjectID().Hex(), nil, http.StatusNotFound},
		{"unknown field", &s.manager, http.MethodPost, "/api/tasks", map[string]string{"colour": "red"}, http.StatusBadRequest},
		{"cycle", &s.manager, http.MethodPost, "/api/tasks/" + a.ID.Hex() + "/dependencies", map[string]string{"dependencyId": b.ID.Hex()}, http.StatusConflict},
		{"delete with dependents", &s.manager, http.MethodDelete, "/api/tasks/" + a.ID.Hex(), nil, http.StatusConflict},
		{"plain user creates project", &s.member, http.MethodPost, "/api/projects", map[string]interface{}{"name": "X", "budget": 10}, http.StatusForbidden},
		{"plain user runs scan", &s.member, http.MethodPost, "/api/notifications/scan", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.user, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_DeleteCheck(t *testing.T) {
	s := newTestServer(t)
	p := s.project(models.StatusInProgress, date(-10))
	a := s.task(p.ID, "A", models.StatusPending)
	s.task(p.ID, "B", models.StatusPending, a.ID)

	rec := s.do(&s.manager, http.MethodGet, "/api/tasks/"+a.ID.Hex()+"/delete-check", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	check := decode[services.DeleteCheck](t, rec)
	assert.False(t, check.CanDelete)
	assert.Equal(t, []string{"B"}, check.Dependents)
}

func TestRouter_ScanWithDate(t *testing.T) {
	s := newTestServer(t)
	p := s.project(models.StatusPending, date(5))

	rec := s.do(&s.admin, http.MethodPost, "/api/notifications/scan", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Notification](t, rec))

	rec = s.do(&s.admin, http.MethodPost, "/api/notifications/scan?now=2024-05-20", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[[]models.Notification](t, rec)
	require.Len(t, created, 1)
	assert.Equal(t, models.KindProjectNotStarted, created[0].Kind)
	assert.Equal(t, p.ID, created[0].SubjectID)

	rec = s.do(&s.admin, http.MethodPost, "/api/notifications/scan?now=2024-05-20", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Notification](t, rec))

	rec = s.do(&s.admin, http.MethodPost, "/api/notifications/scan?now=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(&s.manager, http.MethodGet, "/api/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Notification](t, rec), 1)
}

func TestRouter_CreateExpenseMultipart(t *testing.T) {
	s := newTestServer(t)
	p := s.project(models.StatusInProgress, date(-10))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("projectId", p.ID.Hex()))
	require.NoError(t, mw.WriteField("description", "Cement"))
	require.NoError(t, mw.WriteField("amount", "250.5"))
	require.NoError(t, mw.WriteField("category", "Materials"))
	require.NoError(t, mw.WriteField("date", "2024-05-09"))
	fw, err := mw.CreateFormFile(attachmentsField, "invoice.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/expenses", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token(s.manager))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	e := decode[models.Expense](t, rec)
	assert.Equal(t, 250.5, e.Amount)
	assert.Equal(t, date(-1), e.Date)
	require.Len(t, e.Attachments, 1)
	assert.Equal(t, "invoice.pdf", e.Attachments[0].Name)
	assert.Equal(t, int64(8), e.Attachments[0].Size)

	rec = s.do(&s.manager, http.MethodGet, "/api/projects/"+p.ID.Hex()+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[models.ProjectSummary](t, rec)
	assert.Equal(t, 250.5, summary.Spent)
	assert.Equal(t, 749.5, summary.Remaining)
}

func TestRouter_GetMe(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(&s.member, http.MethodGet, "/api/users/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, s.member.ID, decode[models.User](t, rec).ID)
}
