package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"breadshare-client/internal/sync"
)

// NotificationHandler serves the mirrored notification list.
type NotificationHandler struct {
	list *sync.NotificationList
}

// NewNotificationHandler builds a NotificationHandler.
func NewNotificationHandler(list *sync.NotificationList) *NotificationHandler {
	return &NotificationHandler{list: list}
}

// ListNotifications returns the list with its unread count.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"notifications": h.list.Items(),
		"unread":        h.list.Unread(),
		"error":         h.list.Err(),
	})
}

// MarkRead acknowledges one notification.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.list.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllRead acknowledges everything in one backend call.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.list.MarkAllRead(c.Request.Context()); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
