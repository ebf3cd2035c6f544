package model

import "time"

// Notification represents a single notification recorded for a user. A record
// is immutable once appended; it can only be read or removed.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
