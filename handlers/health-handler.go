package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks the backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	DB        string    `json:"db"`
}

type HealthHandler struct {
	serviceName string
	db          Pinger
}

func NewHealthHandler(serviceName string, db Pinger) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, db: db}
}

// HealthCheck answers 503 when the store does not respond within a second.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	pingCtx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Timestamp: time.Now().UTC(), Service: h.serviceName, DB: "up"}
	status := http.StatusOK
	if err := h.db.Ping(pingCtx); err != nil {
		resp.Status, resp.DB = "unhealthy", "down"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
