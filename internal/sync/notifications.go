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

// NotificationList mirrors the server's notification feed. Every incoming
// push is prepended as-is; the list performs no de-duplication, so a
// duplicate push shows up twice, matching the server's view of deliveries.
type NotificationList struct {
	notifications api.NotificationAPI
	rt            Realtime

	mu     stdsync.Mutex
	items  []models.Notification
	errMsg string
	sub    realtime.Subscription
}

// NewNotificationList builds an empty list.
func NewNotificationList(notifications api.NotificationAPI, rt Realtime) *NotificationList {
	return &NotificationList{notifications: notifications, rt: rt}
}

// Start subscribes to notification pushes. Stop releases the subscription.
func (n *NotificationList) Start() {
	n.sub = n.rt.On(models.EventNotification, n.onNotification)
}

func (n *NotificationList) Stop() {
	n.rt.Off(models.EventNotification, n.sub)
}

// Load fetches the list. Failure records the error and leaves prior
// contents untouched.
func (n *NotificationList) Load(ctx context.Context) error {
	items, err := n.notifications.Notifications(ctx)
	if err != nil {
		n.mu.Lock()
		n.errMsg = err.Error()
		n.mu.Unlock()
		return err
	}
	n.mu.Lock()
	n.items = items
	n.errMsg = ""
	n.mu.Unlock()
	return nil
}

func (n *NotificationList) onNotification(payload json.RawMessage) {
	var notification models.Notification
	if err := json.Unmarshal(payload, &notification); err != nil {
		log.Printf("notifications: dropping malformed event: %v", err)
		return
	}
	n.mu.Lock()
	n.items = append([]models.Notification{notification}, n.items...)
	n.mu.Unlock()
}

// MarkRead flips one entry's read flag in place and acknowledges it to the
// backend.
func (n *NotificationList) MarkRead(ctx context.Context, id string) error {
	n.mu.Lock()
	for i := range n.items {
		if n.items[i].ID == id {
			n.items[i].Read = true
		}
	}
	n.mu.Unlock()

	if err := n.notifications.MarkNotificationRead(ctx, id); err != nil {
		n.mu.Lock()
		n.errMsg = err.Error()
		n.mu.Unlock()
		return err
	}
	return nil
}

// MarkAllRead flips every entry and issues exactly one aggregate call; there
// are no per-item round-trips.
func (n *NotificationList) MarkAllRead(ctx context.Context) error {
	n.mu.Lock()
	for i := range n.items {
		n.items[i].Read = true
	}
	n.mu.Unlock()

	if err := n.notifications.MarkAllNotificationsRead(ctx); err != nil {
		n.mu.Lock()
		n.errMsg = err.Error()
		n.mu.Unlock()
		return err
	}
	return nil
}

// Items returns a snapshot of the list.
func (n *NotificationList) Items() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.Notification, len(n.items))
	copy(out, n.items)
	return out
}

// Unread counts entries not yet read.
func (n *NotificationList) Unread() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, item := range n.items {
		if !item.Read {
			count++
		}
	}
	return count
}

// Err returns the last error message, empty when healthy.
func (n *NotificationList) Err() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.errMsg
}
