package common

import (
	"fmt"
	"time"
)

// FormatTimestamp formats a timestamp the way our realtime clients expect it:
// the number of milliseconds since the epoch, as a string.
func FormatTimestamp(timestamp time.Time) string {
	return fmt.Sprintf("%d", timestamp.UnixNano()/1000000)
}
