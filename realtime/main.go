// Package realtime publishes notification events for live client sessions. Events
// are published to the notifications exchange with a routing key derived from the
// user ID; a client session that wants realtime updates binds a queue for its
// user's key. If no session is subscribed the broker drops the event, which is the
// expected case and not an error.
package realtime

import (
	"context"
	"encoding/json"

	"github.com/bazario/marketplace-api/common"
	"github.com/bazario/marketplace-api/model"
	"github.com/bazario/marketplace-api/notify"
)

// MessageSender describes the part of the messaging client that we use. It's an
// interface so that tests can substitute a fake transport.
type MessageSender interface {
	Publish(routingKey string, body []byte) error
}

// Event is the wire format for a single realtime notification event.
type Event struct {
	Event     string `json:"event"`
	ID        string `json:"id,omitempty"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// RoutingKey derives the routing key for a user's notification events.
func RoutingKey(userID string) string {
	return "notification.user." + userID
}

// Publisher delivers notification events over the realtime transport.
type Publisher struct {
	sender MessageSender
}

// NewPublisher creates a realtime publisher. A nil sender is allowed and causes
// every publish to be skipped, for deployments that run without a broker.
func NewPublisher(sender MessageSender) *Publisher {
	return &Publisher{sender: sender}
}

// Publish makes a single best-effort attempt to push a notification event to any
// client session currently subscribed for the user. Transport errors are reported
// as delivery results, never as errors.
func (p *Publisher) Publish(ctx context.Context, userID, eventName string, notification *model.Notification) notify.DeliveryResult {
	if p.sender == nil {
		return notify.Skipped("realtime transport not configured")
	}

	// Build and marshal the event.
	event := Event{
		Event:     eventName,
		ID:        notification.ID,
		Message:   notification.Message,
		CreatedAt: common.FormatTimestamp(notification.CreatedAt),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return notify.Failed("unable to marshal the realtime event: %s", err.Error())
	}

	// Publish the event.
	err = p.sender.Publish(RoutingKey(userID), body)
	if err != nil {
		return notify.Failed("unable to publish the realtime event: %s", err.Error())
	}

	return notify.Delivered()
}
