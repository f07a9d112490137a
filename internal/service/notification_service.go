package service

import (
	"context"

	"github.com/pesio-ai/be-cr-requests/internal/logger"
	"github.com/pesio-ai/be-cr-requests/internal/repository"
)

// NotificationService serves the read side of the notification store. Writes
// happen through the Notifier sink.
type NotificationService struct {
	repo repository.NotificationRepository
	log  *logger.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo repository.NotificationRepository, log *logger.Logger) *NotificationService {
	return &NotificationService{repo: repo, log: log}
}

// ListByClient returns a client's notifications, newest first.
func (s *NotificationService) ListByClient(ctx context.Context, clientID string) ([]*repository.Notification, error) {
	return s.repo.ListByClient(ctx, clientID)
}

// ListUnread returns a client's unread notifications, newest first.
func (s *NotificationService) ListUnread(ctx context.Context, clientID string) ([]*repository.Notification, error) {
	notifications, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	unread := make([]*repository.Notification, 0, len(notifications))
	for _, notification := range notifications {
		if !notification.Read {
			unread = append(unread, notification)
		}
	}
	return unread, nil
}

// MarkRead flags a notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return s.repo.MarkRead(ctx, id)
}
