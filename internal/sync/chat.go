package sync

import (
	"context"
	"encoding/json"
	"log"
	stdsync "sync"

	"breadshare-client/internal/api"
	"breadshare-client/internal/models"
	"breadshare-client/internal/realtime"
)

// ChatWindow mirrors the message history with one counterpart. Events for
// other conversations are discarded, not buffered.
type ChatWindow struct {
	messages    api.MessageAPI
	rt          Realtime
	self        models.UserRef
	counterpart string

	mu     stdsync.Mutex
	list   []models.Message
	errMsg string
	sub    realtime.Subscription
}

// NewChatWindow opens a window onto the conversation with counterpartID.
func NewChatWindow(messages api.MessageAPI, rt Realtime, self models.UserRef, counterpartID string) *ChatWindow {
	return &ChatWindow{messages: messages, rt: rt, self: self, counterpart: counterpartID}
}

// Start subscribes to message events. Stop releases the subscription.
func (w *ChatWindow) Start() {
	w.sub = w.rt.On(models.EventChatMessage, w.onMessage)
}

func (w *ChatWindow) Stop() {
	w.rt.Off(models.EventChatMessage, w.sub)
}

// Load fetches the history with the counterpart. Failure records the error
// and leaves prior contents untouched.
func (w *ChatWindow) Load(ctx context.Context) error {
	msgs, err := w.messages.MessagesWith(ctx, w.counterpart)
	if err != nil {
		w.mu.Lock()
		w.errMsg = err.Error()
		w.mu.Unlock()
		return err
	}
	w.mu.Lock()
	w.list = msgs
	w.errMsg = ""
	w.mu.Unlock()
	return nil
}

func (w *ChatWindow) onMessage(payload json.RawMessage) {
	var msg models.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Printf("chat: dropping malformed message event: %v", err)
		return
	}

	if msg.Sender.ID != w.counterpart && msg.Recipient.ID != w.counterpart {
		return
	}
	w.mu.Lock()
	w.list = append(w.list, msg)
	w.mu.Unlock()
}

// Send delivers content to the counterpart. The composed message is appended
// only after the backend confirms it; nothing is shown speculatively.
func (w *ChatWindow) Send(ctx context.Context, content string) (models.Message, error) {
	confirmed, err := w.messages.SendMessage(ctx, w.counterpart, content)
	if err != nil {
		w.mu.Lock()
		w.errMsg = err.Error()
		w.mu.Unlock()
		return models.Message{}, err
	}

	w.mu.Lock()
	w.list = append(w.list, confirmed)
	w.errMsg = ""
	w.mu.Unlock()
	return confirmed, nil
}

// Typing announces typing activity; dropped silently when offline.
func (w *ChatWindow) Typing() {
	w.rt.Emit(models.EventChatTyping, map[string]string{"to": w.counterpart})
}

// MarkRead flips incoming messages read locally and issues the aggregate
// read receipt.
func (w *ChatWindow) MarkRead(ctx context.Context) error {
	w.mu.Lock()
	for i := range w.list {
		if w.list[i].Sender.ID == w.counterpart {
			w.list[i].Read = true
		}
	}
	w.mu.Unlock()
	return w.messages.MarkConversationRead(ctx, w.counterpart)
}

// Messages returns a snapshot of the window's history.
func (w *ChatWindow) Messages() []models.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.Message, len(w.list))
	copy(out, w.list)
	return out
}

// Counterpart returns the id of the user this window talks to.
func (w *ChatWindow) Counterpart() string { return w.counterpart }

// Err returns the last error message, empty when healthy.
func (w *ChatWindow) Err() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errMsg
}
