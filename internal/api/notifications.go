package api

import (
	"context"
	"net/http"
	"net/url"

	"breadshare-client/internal/models"
)

// NotificationAPI covers the notification list and its acknowledgments.
type NotificationAPI interface {
	Notifications(ctx context.Context) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// Notifications returns the user's notification list, newest first.
func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	var notifications []models.Notification
	err := c.doJSON(ctx, http.MethodGet, "/notifications", nil, nil, &notifications)
	return notifications, err
}

// MarkNotificationRead acknowledges a single notification.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, "/notifications/"+url.PathEscape(id)+"/read", nil, nil, nil)
}

// MarkAllNotificationsRead acknowledges every notification in one aggregate
// call.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/notifications/read-all", nil, nil, nil)
}

var _ NotificationAPI = (*Client)(nil)
