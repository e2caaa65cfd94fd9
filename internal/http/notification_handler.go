package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/stacklyhub/internal/application"
	"github.com/example/stacklyhub/internal/policy"
)

type notificationStore interface {
	Notifications() []application.Notification
	UnreadCount() int
	MarkNotificationRead(ctx context.Context, id string) error
}

// NotificationHandler exposes the signed in principal's reminders.
type NotificationHandler struct {
	store     notificationStore
	responder responder
	logger    *slog.Logger
}

func NewNotificationHandler(store notificationStore, logger *slog.Logger) *NotificationHandler {
	base := defaultLogger(logger)
	return &NotificationHandler{store: store, responder: newResponder(base), logger: base}
}

// List returns the reminders as last evaluated by the watcher. Re-evaluating
// here would reset read flags on every poll.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	notifications := h.store.Notifications()
	if notifications == nil {
		notifications = []application.Notification{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listNotificationsResponse{
		Notifications: notifications,
		UnreadCount:   h.store.UnreadCount(),
	})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.store.MarkNotificationRead(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	handlerLogger(r.Context(), h.logger, "NotificationHandler", "MarkRead", "notification_id", id).
		DebugContext(r.Context(), "notification marked read")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, unreadResponse{UnreadCount: h.store.UnreadCount()})
}

func (h *NotificationHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	principal, _ := PrincipalFromContext(r.Context())
	subject := policy.Subject{UserID: principal.UserID, Role: principal.Role, IsTemporary: principal.IsTemporary}
	if err := policy.Can(subject, policy.ActionViewNotifications); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return false
	}
	return true
}

type listNotificationsResponse struct {
	Notifications []application.Notification `json:"notifications"`
	UnreadCount   int                        `json:"unreadCount"`
}

type unreadResponse struct {
	UnreadCount int `json:"unreadCount"`
}
