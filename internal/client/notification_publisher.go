package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-cr-requests/internal/natsclient"
)

// NotificationPublisher publishes credit request events to NATS JetStream
// for consumption by the notifications service.
//
// Subject convention: notifications.cr.<event_type>
// Event types: notification_created (one per client notification emitted by
// the routing core).
//
// All publish operations are non-fatal — errors are logged but never
// propagated to the caller, so notification failures never interrupt
// routing operations.
type NotificationPublisher struct {
	nats *natsclient.Client
	log  zerolog.Logger
}

// NotificationEvent is the JSON schema published to NATS.
type NotificationEvent struct {
	EventType    string `json:"event_type"`
	ClientID     string `json:"client_id"`
	ResourceType string `json:"resource_type,omitempty"`
	ResourceID   string `json:"resource_id,omitempty"`
	Subject      string `json:"subject"`
	Message      string `json:"message"`
	Severity     string `json:"severity,omitempty"`
	Category     string `json:"category,omitempty"`
}

// NewNotificationPublisher creates a publisher backed by the given NATS client.
func NewNotificationPublisher(nats *natsclient.Client, log zerolog.Logger) *NotificationPublisher {
	return &NotificationPublisher{nats: nats, log: log}
}

// PublishNotification publishes one client notification event to NATS.
// Subject: notifications.cr.notification_created
func (p *NotificationPublisher) PublishNotification(ctx context.Context, notificationID, clientID, subject, message string) {
	if p == nil || p.nats == nil {
		return
	}

	event := &NotificationEvent{
		EventType:    "notification_created",
		ClientID:     clientID,
		ResourceType: "notification",
		ResourceID:   notificationID,
		Subject:      subject,
		Message:      message,
		Severity:     "info",
		Category:     "cr_routing",
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("client_id", clientID).Msg("notification: failed to marshal event")
		return
	}

	natsSubject := fmt.Sprintf("notifications.cr.%s", event.EventType)
	if err := p.nats.Publish(ctx, natsSubject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", natsSubject).
			Str("client_id", clientID).
			Msg("notification: failed to publish NATS event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", natsSubject).
		Str("client_id", clientID).
		Msg("notification: event published")
}
