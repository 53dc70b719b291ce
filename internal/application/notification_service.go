package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/brokerage/internal/persistence"
)

// NotificationSender delivers one notification over an external channel such
// as email or SMS.
type NotificationSender interface {
	Send(ctx context.Context, recipientID, title, message, channel string) error
}

// NotificationService stores notification records and forwards them to the
// configured external sender. External delivery is best effort; send failures
// are logged and never surfaced to the operation that triggered the
// notification.
type NotificationService struct {
	notifications persistence.NotificationRepository
	sender        NotificationSender
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewNotificationService wires dependencies for notification operations.
func NewNotificationService(notifications persistence.NotificationRepository, sender NotificationSender, idGenerator func() string, now func() time.Time, logger *slog.Logger) *NotificationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &NotificationService{
		notifications: notifications,
		sender:        sender,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

// Dispatch stores the notification and forwards non-IN_APP channels to the
// external sender.
func (s *NotificationService) Dispatch(ctx context.Context, input NotificationInput) (Notification, error) {
	if s == nil {
		return Notification{}, fmt.Errorf("NotificationService is nil")
	}
	if s.notifications == nil {
		return Notification{}, fmt.Errorf("notification repository not configured")
	}

	logger := serviceLogger(ctx, s.logger, "NotificationService", "Dispatch", "recipient_id", input.RecipientID, "type", input.Type)

	channels := input.Channels
	if len(channels) == 0 {
		channels = []string{"IN_APP"}
	}

	createdAt := s.now()
	record := persistence.Notification{
		ID:          s.idGenerator(),
		RecipientID: input.RecipientID,
		Type:        input.Type,
		Title:       input.Title,
		Message:     input.Message,
		Channels:    channels,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	if err := s.notifications.CreateNotification(ctx, record); err != nil {
		return Notification{}, mapRepoError(err)
	}

	if s.sender != nil {
		for _, channel := range channels {
			if channel == "IN_APP" {
				continue
			}
			if err := s.sender.Send(ctx, input.RecipientID, input.Title, input.Message, channel); err != nil {
				logger.WarnContext(ctx, "external delivery failed", "channel", channel, "error", err)
			}
		}
	}

	logger.InfoContext(ctx, "notification dispatched", "notification_id", record.ID)
	return toNotificationView(record), nil
}

// ListForRecipient returns a user's notifications, newest first. Users may
// read their own; administrators may read anyone's.
func (s *NotificationService) ListForRecipient(ctx context.Context, principal Principal, recipientID string, unreadOnly bool) ([]Notification, error) {
	if s == nil {
		return nil, fmt.Errorf("NotificationService is nil")
	}
	if s.notifications == nil {
		return nil, fmt.Errorf("notification repository not configured")
	}
	if !principal.IsAdmin() && principal.UserID != recipientID {
		return nil, ErrUnauthorized
	}

	stored, err := s.notifications.ListForRecipient(ctx, recipientID, unreadOnly)
	if err != nil {
		return nil, err
	}

	notifications := make([]Notification, 0, len(stored))
	for _, record := range stored {
		notifications = append(notifications, toNotificationView(record))
	}
	return notifications, nil
}

// MarkRead acknowledges one of the principal's own notifications.
func (s *NotificationService) MarkRead(ctx context.Context, principal Principal, notificationID string) (Notification, error) {
	if s == nil {
		return Notification{}, fmt.Errorf("NotificationService is nil")
	}
	if s.notifications == nil {
		return Notification{}, fmt.Errorf("notification repository not configured")
	}

	record, err := s.notifications.MarkRead(ctx, notificationID, principal.UserID, s.now())
	if err != nil {
		return Notification{}, mapRepoError(err)
	}
	return toNotificationView(record), nil
}

func toNotificationView(record persistence.Notification) Notification {
	return Notification{
		ID:          record.ID,
		RecipientID: record.RecipientID,
		Type:        record.Type,
		Title:       record.Title,
		Message:     record.Message,
		Channels:    record.Channels,
		Read:        record.Read,
		CreatedAt:   record.CreatedAt,
	}
}

var _ NotificationDispatcher = (*NotificationService)(nil)
