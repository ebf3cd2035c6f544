// Package notify coordinates notification persistence and fan-out. A triggering
// action (login, password reset, product mutation, checkout) calls Notify, which
// durably records the notification and then attempts best-effort delivery through
// the push and realtime channels. Delivery outcomes are logged and never surfaced
// to the caller, so the triggering action's own success or failure is independent
// of notification subsystem health.
package notify

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bazario/marketplace-api/model"
)

// RecordStore describes the persistence operations that the orchestrator needs.
type RecordStore interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	SaveNotification(ctx context.Context, userID, message string) (*model.Notification, error)
}

// PushChannel describes best-effort delivery of a message to a registered device.
type PushChannel interface {
	Deliver(ctx context.Context, token, title, body string) DeliveryResult
}

// RealtimePublisher describes best-effort delivery of an event to any client
// session currently subscribed for the user.
type RealtimePublisher interface {
	Publish(ctx context.Context, userID, eventName string, notification *model.Notification) DeliveryResult
}

// Orchestrator persists notification records and fans them out to the delivery
// channels.
type Orchestrator struct {
	store    RecordStore
	push     PushChannel
	realtime RealtimePublisher
	log      *logrus.Entry
}

// New creates a new notification orchestrator.
func New(store RecordStore, push PushChannel, realtime RealtimePublisher, log *logrus.Entry) *Orchestrator {
	return &Orchestrator{
		store:    store,
		push:     push,
		realtime: realtime,
		log:      log,
	}
}

// Notify records a notification for the user and attempts delivery through both
// channels. It never returns an error: the record is persisted before any delivery
// is attempted, each channel's outcome is only logged, and a failure in one channel
// doesn't prevent the other from being attempted.
func (o *Orchestrator) Notify(ctx context.Context, userID, title, body, eventName string) {
	log := o.log.WithFields(logrus.Fields{"user": userID, "event": eventName})

	// Resolve the user. If the user can't be resolved there's nobody to notify,
	// and the triggering action has typically already committed its own effect.
	user, err := o.store.GetUser(ctx, userID)
	if err != nil {
		log.Warnf("skipping notification: %s", err.Error())
		return
	}

	// Record the notification before attempting delivery, so that the record
	// exists regardless of the delivery outcomes. If the append fails, delivery
	// is still attempted with an unsaved record; losing the in-app entry only
	// degrades the notification list.
	notification, err := o.store.SaveNotification(ctx, userID, body)
	if err != nil {
		log.Errorf("unable to record the notification: %s", err.Error())
		notification = &model.Notification{
			UserID:    userID,
			Message:   body,
			CreatedAt: time.Now().UTC(),
		}
	}

	// Attempt push delivery.
	o.logResult(log, "push", o.push.Deliver(ctx, user.PushToken, title, body))

	// Attempt realtime delivery.
	o.logResult(log, "realtime", o.realtime.Publish(ctx, userID, eventName, notification))
}

// logResult records the outcome of a single delivery attempt.
func (o *Orchestrator) logResult(log *logrus.Entry, channel string, result DeliveryResult) {
	log = log.WithField("channel", channel)
	switch result.Status {
	case StatusDelivered:
		log.Debug("notification delivered")
	case StatusSkipped:
		log.Debugf("notification skipped: %s", result.Reason)
	case StatusFailed:
		log.Errorf("notification delivery failed: %s", result.Reason)
	}
}
