package models

import "time"

// Post is a bread listing a user offers or requests.
type Post struct {
	ID          string    `json:"id"`
	Author      UserRef   `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"` // "offer" or "request"
	Images      []string  `json:"images,omitempty"`
	Latitude    float64   `json:"latitude,omitempty"`
	Longitude   float64   `json:"longitude,omitempty"`
	Reserved    bool      `json:"reserved"`
	ReservedBy  *UserRef  `json:"reserved_by,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Location is a geographic position used by nearby search and the
// location-update realtime event.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}
