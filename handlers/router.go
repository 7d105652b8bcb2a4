package handlers

import (
	"net/http"

	"gestion-proyectos/backend/middleware"

	"github.com/gorilla/mux"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Projects      *ProjectHandler
	Tasks         *TaskHandler
	Expenses      *ExpenseHandler
	Notifications *NotificationHandler
	Users         *UserHandler
	Reports       *ReportHandler
	Health        *HealthHandler
}

// NewRouter mounts /health openly and every /api route behind JWT auth.
func NewRouter(h Handlers, jwtSecret []byte, corsOrigin string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health.HealthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTAuth(jwtSecret))

	api.HandleFunc("/projects", h.Projects.ListProjects).Methods(http.MethodGet)
	api.HandleFunc("/projects", h.Projects.CreateProject).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}", h.Projects.GetProject).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}", h.Projects.UpdateProject).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/projects/{id}", h.Projects.DeleteProject).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{id}/progress", h.Projects.RecomputeProgress).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/members", h.Projects.AddMember).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/members/{userId}", h.Projects.RemoveMember).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{id}/tasks", h.Tasks.GetTasksByProject).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/expenses", h.Expenses.GetExpensesByProject).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/summary", h.Reports.GetProjectSummary).Methods(http.MethodGet)

	api.HandleFunc("/tasks", h.Tasks.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", h.Tasks.GetTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", h.Tasks.UpdateTask).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/tasks/{id}", h.Tasks.DeleteTask).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{id}/status", h.Tasks.UpdateTaskStatus).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/tasks/{id}/delete-check", h.Tasks.CheckDelete).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}/dependencies", h.Tasks.AddDependency).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}/dependencies/{dependencyId}", h.Tasks.RemoveDependency).Methods(http.MethodDelete)

	api.HandleFunc("/expenses", h.Expenses.CreateExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses/{id}", h.Expenses.GetExpense).Methods(http.MethodGet)
	api.HandleFunc("/expenses/{id}", h.Expenses.UpdateExpense).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/expenses/{id}", h.Expenses.DeleteExpense).Methods(http.MethodDelete)
	api.HandleFunc("/expenses/{id}/attachments/{attachmentId}", h.Expenses.RemoveAttachment).Methods(http.MethodDelete)

	api.HandleFunc("/notifications", h.Notifications.GetNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/scan", h.Notifications.Scan).Methods(http.MethodPost)
	api.HandleFunc("/notifications/read", h.Notifications.DeleteRead).Methods(http.MethodDelete)
	api.HandleFunc("/notifications/{id}/read", h.Notifications.MarkAsRead).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/notifications/{id}", h.Notifications.DeleteNotification).Methods(http.MethodDelete)

	api.HandleFunc("/users", h.Users.GetUsers).Methods(http.MethodGet)
	api.HandleFunc("/users", h.Users.CreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users/me", h.Users.GetMe).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", h.Users.GetUser).Methods(http.MethodGet)

	api.HandleFunc("/dashboard", h.Reports.GetDashboard).Methods(http.MethodGet)

	return middleware.RequestLogger(middleware.CORS(corsOrigin)(r))
}
