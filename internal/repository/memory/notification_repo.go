package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/pesio-ai/be-cr-requests/internal/errors"
	"github.com/pesio-ai/be-cr-requests/internal/repository"
)

// NotificationRepository is an in-memory notification store.
type NotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]*repository.Notification
}

// NewNotificationRepository creates an empty in-memory notification repository.
func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{notifications: make(map[string]*repository.Notification)}
}

func (r *NotificationRepository) Create(_ context.Context, notification *repository.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	clone := *notification
	r.notifications[notification.ID] = &clone
	return nil
}

func (r *NotificationRepository) ListByClient(_ context.Context, clientID string) ([]*repository.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var notifications []*repository.Notification
	for _, notification := range r.notifications {
		if notification.ClientID == clientID {
			clone := *notification
			notifications = append(notifications, &clone)
		}
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	notification, ok := r.notifications[id]
	if !ok {
		return errors.NotFound("notification", id)
	}
	notification.Read = true
	return nil
}
