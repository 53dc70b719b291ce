package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/brokerage/internal/application"
)

type notificationService interface {
	ListForRecipient(ctx context.Context, principal application.Principal, recipientID string, unreadOnly bool) ([]application.Notification, error)
	MarkRead(ctx context.Context, principal application.Principal, notificationID string) (application.Notification, error)
}

type NotificationHandler struct {
	service   notificationService
	responder responder
	logger    *slog.Logger
}

func NewNotificationHandler(service notificationService, logger *slog.Logger) *NotificationHandler {
	base := defaultLogger(logger)
	return &NotificationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *NotificationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "NotificationHandler", operation, attrs...)
}

// List returns the caller's notifications. Administrators may inspect another
// recipient's inbox through the recipient_id query parameter.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	recipientID := strings.TrimSpace(r.URL.Query().Get("recipient_id"))
	if recipientID == "" {
		recipientID = principal.UserID
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.service.ListForRecipient(r.Context(), principal, recipientID, unreadOnly)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listNotificationsResponse{Notifications: toNotificationDTOs(notifications)})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	notificationID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(notificationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "MarkRead", "notification_id", notificationID, "actor_id", principal.UserID)

	notification, err := h.service.MarkRead(r.Context(), principal, notificationID)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to mark notification read", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "notification marked read")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toNotificationDTO(notification))
}

type listNotificationsResponse struct {
	Notifications []notificationDTO `json:"notifications"`
}

type notificationDTO struct {
	ID          string   `json:"id"`
	RecipientID string   `json:"recipient_id"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Message     string   `json:"message"`
	Channels    []string `json:"channels"`
	Read        bool     `json:"read"`
	CreatedAt   string   `json:"created_at"`
}

func toNotificationDTO(notification application.Notification) notificationDTO {
	return notificationDTO{
		ID:          notification.ID,
		RecipientID: notification.RecipientID,
		Type:        notification.Type,
		Title:       notification.Title,
		Message:     notification.Message,
		Channels:    append([]string(nil), notification.Channels...),
		Read:        notification.Read,
		CreatedAt:   notification.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toNotificationDTOs(notifications []application.Notification) []notificationDTO {
	if len(notifications) == 0 {
		return nil
	}
	out := make([]notificationDTO, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, toNotificationDTO(notification))
	}
	return out
}
