package sync

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	stdsync "sync"

	"breadshare-client/internal/api"
	"breadshare-client/internal/models"
	"breadshare-client/internal/realtime"
)

// ConversationList mirrors the user's conversations and reconciles incoming
// message events into them. At most one conversation exists per unordered
// participant pair; the list is kept most-recent-first by insertion
// position, not by sorting on every event.
type ConversationList struct {
	messages api.MessageAPI
	rt       Realtime
	self     models.UserRef

	mu     stdsync.Mutex
	items  []models.Conversation
	active string // counterpart id of the open thread, empty when none
	errMsg string
	sub    realtime.Subscription
}

// NewConversationList builds a list for the given logged-in user.
func NewConversationList(messages api.MessageAPI, rt Realtime, self models.UserRef) *ConversationList {
	return &ConversationList{messages: messages, rt: rt, self: self}
}

// SetSelf rebinds the list to a logged-in user. Everything is keyed on the
// owner's id, so contents accumulated for a previous identity are dropped.
// The composition root seeds this from the persisted session; login and
// logout rebind it at runtime.
func (c *ConversationList) SetSelf(user models.UserRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.self.ID != user.ID {
		c.items = nil
		c.active = ""
		c.errMsg = ""
	}
	c.self = user
}

// Start subscribes to message events. Stop releases the subscription.
func (c *ConversationList) Start() {
	c.sub = c.rt.On(models.EventChatMessage, c.onMessage)
}

func (c *ConversationList) Stop() {
	c.rt.Off(models.EventChatMessage, c.sub)
}

// Load fetches the server conversation list. When the backend offers none,
// the list is derived by scanning all messages and keeping the latest per
// counterpart. A failed fetch records the error and leaves prior contents
// untouched.
func (c *ConversationList) Load(ctx context.Context) error {
	conversations, err := c.messages.Conversations(ctx)
	if err != nil {
		if api.IsNotFound(err) {
			return c.deriveFromMessages(ctx)
		}
		c.setError(err)
		return err
	}

	c.mu.Lock()
	c.items = conversations
	c.errMsg = ""
	c.mu.Unlock()
	return nil
}

// deriveFromMessages is the fallback when no server list exists: group all
// messages by counterpart, latest message per counterpart wins. Identical
// timestamps break toward the larger message id. The derived list is never
// merged with a later server list.
func (c *ConversationList) deriveFromMessages(ctx context.Context) error {
	msgs, err := c.messages.Messages(ctx)
	if err != nil {
		c.setError(err)
		return err
	}

	c.mu.Lock()
	self := c.self
	c.mu.Unlock()

	type group struct {
		counterpart models.UserRef
		latest      models.Message
		unread      int
	}
	groups := make(map[string]*group)
	for _, msg := range msgs {
		counterpart := msg.Counterpart(self.ID)
		g, ok := groups[counterpart.ID]
		if !ok {
			g = &group{counterpart: counterpart, latest: msg}
			groups[counterpart.ID] = g
		} else if msg.CreatedAt.After(g.latest.CreatedAt) ||
			(msg.CreatedAt.Equal(g.latest.CreatedAt) && msg.ID > g.latest.ID) {
			g.latest = msg
		}
		if msg.Sender.ID == counterpart.ID && !msg.Read {
			g.unread++
		}
	}

	derived := make([]models.Conversation, 0, len(groups))
	for _, g := range groups {
		latest := g.latest
		derived = append(derived, models.Conversation{
			Participants: []models.UserRef{g.counterpart, self},
			LastMessage:  &latest,
			UnreadCount:  g.unread,
			UpdatedAt:    latest.CreatedAt,
		})
	}
	sort.Slice(derived, func(i, j int) bool {
		return derived[i].UpdatedAt.After(derived[j].UpdatedAt)
	})

	c.mu.Lock()
	c.items = derived
	c.errMsg = ""
	c.mu.Unlock()
	return nil
}

func (c *ConversationList) onMessage(payload json.RawMessage) {
	var msg models.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Printf("conversations: dropping malformed message event: %v", err)
		return
	}
	c.Reconcile(msg)
}

// Reconcile merges one message into the list. An unknown counterpart
// synthesizes a new conversation at the front; a known one has its last
// message replaced and, for incoming messages, its unread counter bumped,
// unless that conversation is currently open, which pins the client-local
// counter at zero. The authoritative read receipt is SetActive's job, not
// Reconcile's.
func (c *ConversationList) Reconcile(msg models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	counterpart := msg.Counterpart(c.self.ID)
	latest := msg
	for i := range c.items {
		if !c.items[i].Involves(counterpart.ID) {
			continue
		}
		c.items[i].LastMessage = &latest
		c.items[i].UpdatedAt = msg.CreatedAt
		incoming := msg.Sender.ID == counterpart.ID
		switch {
		case c.active == counterpart.ID:
			c.items[i].UnreadCount = 0
		case incoming:
			c.items[i].UnreadCount++
		}
		return
	}

	unread := 0
	if msg.Sender.ID == counterpart.ID && c.active != counterpart.ID {
		unread = 1
	}
	c.items = append([]models.Conversation{{
		Participants: []models.UserRef{counterpart, c.self},
		LastMessage:  &latest,
		UnreadCount:  unread,
		UpdatedAt:    msg.CreatedAt,
	}}, c.items...)
}

// SetActive marks a thread as open: its local unread counter drops to zero
// and the authoritative read receipt is issued to the backend.
func (c *ConversationList) SetActive(ctx context.Context, counterpartID string) error {
	c.mu.Lock()
	c.active = counterpartID
	for i := range c.items {
		if c.items[i].Involves(counterpartID) {
			c.items[i].UnreadCount = 0
		}
	}
	c.mu.Unlock()

	if err := c.messages.MarkConversationRead(ctx, counterpartID); err != nil {
		c.setError(err)
		return err
	}
	return nil
}

// ClearActive marks no thread as open.
func (c *ConversationList) ClearActive() {
	c.mu.Lock()
	c.active = ""
	c.mu.Unlock()
}

// Items returns a snapshot of the list.
func (c *ConversationList) Items() []models.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Conversation, len(c.items))
	copy(out, c.items)
	return out
}

// Err returns the last fetch error message, empty when healthy.
func (c *ConversationList) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *ConversationList) setError(err error) {
	c.mu.Lock()
	c.errMsg = err.Error()
	c.mu.Unlock()
}
