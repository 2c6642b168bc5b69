package models

// UserRef identifies a user as embedded in sessions, posts and messages.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// Session is the locally persisted login state. Created at login, destroyed
// at logout; the realtime manager reads the token at connect time.
type Session struct {
	Token string  `json:"token"`
	User  UserRef `json:"user"`
}

// Settings holds client preferences persisted between runs.
type Settings struct {
	Language           string  `json:"language,omitempty"`
	NotificationsMuted bool    `json:"notifications_muted"`
	SearchRadiusKM     float64 `json:"search_radius_km,omitempty"`
}
