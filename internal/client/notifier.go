package client

import (
	"context"

	"github.com/pesio-ai/be-cr-requests/internal/logger"
	"github.com/pesio-ai/be-cr-requests/internal/metrics"
	"github.com/pesio-ai/be-cr-requests/internal/repository"
	"github.com/pesio-ai/be-cr-requests/internal/service"
)

// StoreAndPublishNotifier is the notification sink: it stores a notification
// row for the client and publishes the matching NATS event. It never blocks
// the triggering transaction and never propagates failures — a notification
// that cannot be stored or published is logged and dropped.
type StoreAndPublishNotifier struct {
	repo      repository.NotificationRepository
	publisher *NotificationPublisher
	collector *metrics.Collector
	clock     service.Clock
	log       *logger.Logger
}

var _ service.Notifier = (*StoreAndPublishNotifier)(nil)

// NewStoreAndPublishNotifier creates the notification sink. publisher may be
// nil when NATS is not configured; events are then only stored.
func NewStoreAndPublishNotifier(
	repo repository.NotificationRepository,
	publisher *NotificationPublisher,
	collector *metrics.Collector,
	clock service.Clock,
	log *logger.Logger,
) *StoreAndPublishNotifier {
	return &StoreAndPublishNotifier{
		repo:      repo,
		publisher: publisher,
		collector: collector,
		clock:     clock,
		log:       log,
	}
}

// Notify stores and publishes one notification for the client.
func (n *StoreAndPublishNotifier) Notify(ctx context.Context, clientID, subject, message string) {
	notification := &repository.Notification{
		ClientID:  clientID,
		Subject:   subject,
		Message:   message,
		CreatedAt: n.clock.Now(),
	}

	if err := n.repo.Create(ctx, notification); err != nil {
		n.log.Warn().Err(err).
			Str("client_id", clientID).
			Str("subject", subject).
			Msg("Failed to store notification (non-fatal)")
		return
	}

	n.publisher.PublishNotification(ctx, notification.ID, clientID, subject, message)
	n.collector.RecordNotification()
}
