package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/campusfound/internal/model"
	"github.com/erazemk/campusfound/internal/store"
)

// NotificationsHandler serves the caller's in-app notifications.
type NotificationsHandler struct {
	DB *sql.DB
}

// List handles GET /api/notifications?unread=true.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	unread := r.URL.Query().Get("unread") == "true"
	list, err := store.ListNotifications(r.Context(), h.DB, actor(r).UserID, unread)
	if err != nil {
		slog.Error("failed to list notifications", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if list == nil {
		list = []model.Notification{}
	}
	jsonResponse(w, http.StatusOK, list)
}

// MarkRead handles PATCH /api/notifications/{id}/read.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	updated, err := store.MarkNotificationRead(r.Context(), h.DB, id, actor(r).UserID)
	if err != nil {
		slog.Error("failed to mark notification read", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update notification")
		return
	}
	if !updated {
		jsonError(w, http.StatusNotFound, "notification not found")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "notification marked read"})
}
