package models

import "time"

// Message is a chat message mirrored from the backend. The client appends on
// send/receive and mutates in place only to flip Read.
type Message struct {
	ID        string    `json:"id"`
	Sender    UserRef   `json:"sender"`
	Recipient UserRef   `json:"recipient"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Counterpart returns the participant that is not selfID. When selfID is the
// sender the recipient is returned, and vice versa.
func (m Message) Counterpart(selfID string) UserRef {
	if m.Sender.ID == selfID {
		return m.Recipient
	}
	return m.Sender
}

// Conversation is a client-derived grouping of messages by participant pair.
// It is never persisted; it is rebuilt from the server list or inferred from
// messages. At most one conversation exists per unordered participant pair.
type Conversation struct {
	ID           string    `json:"id,omitempty"`
	Participants []UserRef `json:"participants"`
	LastMessage  *Message  `json:"last_message,omitempty"`
	UnreadCount  int       `json:"unread_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Involves reports whether the given user id is one of the participants.
func (c Conversation) Involves(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
