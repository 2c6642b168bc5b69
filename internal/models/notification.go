package models

import "time"

// Notification types pushed by the backend.
const (
	NotificationMessage      = "message"
	NotificationReservation  = "reservation"
	NotificationPostExpired  = "post_expired"
	NotificationPostNearby   = "post_nearby"
	NotificationSystemNotice = "system"
)

// Notification mirrors a server-owned notification entry.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	User      UserRef   `json:"user"`
	PostID    string    `json:"post_id,omitempty"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
