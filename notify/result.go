package notify

import "fmt"

// DeliveryStatus describes the outcome of a single delivery attempt.
type DeliveryStatus string

// The delivery statuses that a channel can report.
const (
	// StatusDelivered indicates that the channel accepted the message.
	StatusDelivered DeliveryStatus = "delivered"

	// StatusSkipped indicates that the channel had nothing to do, for example
	// because the user never registered a device token. This is not an error.
	StatusSkipped DeliveryStatus = "skipped"

	// StatusFailed indicates that the delivery attempt reached the external
	// system but did not succeed, or timed out.
	StatusFailed DeliveryStatus = "failed"
)

// DeliveryResult represents the outcome of a single best-effort delivery attempt.
// Channels report outcomes instead of returning errors so that a delivery failure
// can never propagate into the action that triggered the notification.
type DeliveryResult struct {
	Status DeliveryStatus
	Reason string
}

// Delivered returns a result indicating that the channel accepted the message.
func Delivered() DeliveryResult {
	return DeliveryResult{Status: StatusDelivered}
}

// Skipped returns a result indicating that the channel had nothing to do.
func Skipped(reason string) DeliveryResult {
	return DeliveryResult{Status: StatusSkipped, Reason: reason}
}

// Failed returns a result indicating that the delivery attempt did not succeed.
func Failed(format string, a ...interface{}) DeliveryResult {
	return DeliveryResult{Status: StatusFailed, Reason: fmt.Sprintf(format, a...)}
}
