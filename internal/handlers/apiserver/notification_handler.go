package apiserver

import (
	"net/http"

	"reunion/internal/events"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// NotificationHandler lists the notifications produced from relationship events.
type NotificationHandler struct {
	store events.NotificationStore
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(store events.NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: store}
}

// List handles GET /api/v1/notifications?limit=
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	limit, ok := queryInt(r, "limit")
	if !ok {
		writeJSONError(w, "limit must be an integer", http.StatusBadRequest)
		return
	}
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}

	notifications, err := h.store.List(r.Context(), userID, int64(limit))
	if err != nil {
		writeServiceError(w, r, err, "failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []events.Notification{}
	}
	writeJSONResponse(w, http.StatusOK, notifications)
}
