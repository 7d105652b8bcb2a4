package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/services"
)

// Scanner runs the notification scan, possibly behind a cross-instance lock.
type Scanner interface {
	Run(ctx context.Context, now time.Time) ([]models.Notification, error)
}

type NotificationHandler struct {
	service *services.NotificationService
	scanner Scanner
	now     services.Clock
}

func NewNotificationHandler(service *services.NotificationService, scanner Scanner, now services.Clock) *NotificationHandler {
	return &NotificationHandler{service: service, scanner: scanner, now: now}
}

// Scan triggers a scan. ?now=YYYY-MM-DD evaluates the rules as of that day.
func (h *NotificationHandler) Scan(w http.ResponseWriter, r *http.Request) {
	who, err := identity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := who.Require(models.CapRunScan); err != nil {
		writeError(w, r, err)
		return
	}

	now := h.now()
	if raw := r.URL.Query().Get("now"); raw != "" {
		now, err = parseDate(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	created, err := h.scanner.Run(r.Context(), now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

// GetNotifications lists the caller's notifications; ?unread=true keeps only
// unread ones.
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	who, err := identity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	unreadOnly := false
	if raw := r.URL.Query().Get("unread"); raw != "" {
		unreadOnly, err = strconv.ParseBool(raw)
		if err != nil {
			badRequest(w, r, "invalid unread flag %q", raw)
			return
		}
	}
	notes, err := h.service.ListNotifications(r.Context(), who, unreadOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	who, err := identity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.MarkRead(r.Context(), who, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	who, err := identity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.DeleteNotification(r.Context(), who, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) DeleteRead(w http.ResponseWriter, r *http.Request) {
	who, err := identity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.service.DeleteRead(r.Context(), who)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
