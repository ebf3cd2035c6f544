// Package push delivers notifications to registered devices through Firebase Cloud
// Messaging. Delivery is best-effort: a single attempt is made per invocation, and
// every failure mode is reported as a delivery result instead of an error.
package push

import (
	"context"
	"net/http"
	"time"

	"github.com/appleboy/go-fcm"
	"github.com/pkg/errors"

	"github.com/bazario/marketplace-api/notify"
)

// Sender describes the part of the FCM client that we use. It's an interface so
// that tests can substitute a fake gateway.
type Sender interface {
	Send(msg *fcm.Message) (*fcm.Response, error)
}

// Notifier delivers notifications to devices via the push gateway.
type Notifier struct {
	sender Sender
}

// NewNotifier creates a push notifier that talks to FCM with the given server key.
// The HTTP client timeout bounds every delivery attempt, so a hung gateway can't
// stall the action that triggered the notification.
func NewNotifier(serverKey string, timeout time.Duration) (*Notifier, error) {
	wrapMsg := "unable to create the push notifier"

	client, err := fcm.NewClient(serverKey, fcm.WithHTTPClient(&http.Client{Timeout: timeout}))
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	return &Notifier{sender: client}, nil
}

// NewNotifierWithSender creates a push notifier that uses the given sender. Tests
// use this to substitute a fake gateway.
func NewNotifierWithSender(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// Deliver makes a single best-effort attempt to send a message to the device
// identified by the token. An empty token means that the user never registered a
// device, which is expected and reported as a skip rather than a failure.
func (n *Notifier) Deliver(ctx context.Context, token, title, body string) notify.DeliveryResult {
	if token == "" {
		return notify.Skipped("no push token registered")
	}
	if n.sender == nil {
		return notify.Skipped("push gateway not configured")
	}

	// Build the message.
	message := &fcm.Message{
		To: token,
		Notification: &fcm.Notification{
			Title: title,
			Body:  body,
		},
	}

	// Send the message. Network, authentication, and timeout errors all surface here.
	response, err := n.sender.Send(message)
	if err != nil {
		return notify.Failed("unable to send the push notification: %s", err.Error())
	}

	// The gateway can also reject individual tokens, for example when a token has
	// gone stale.
	for _, result := range response.Results {
		if result.Error != nil {
			return notify.Failed("push notification rejected: %s", result.Error.Error())
		}
	}

	return notify.Delivered()
}
