package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"breadshare-client/internal/api"
	"breadshare-client/internal/middleware"
	"breadshare-client/internal/models"
	"breadshare-client/internal/sync"
)

// ConversationHandler serves the mirrored conversation list and the message
// history per counterpart. Route ids are counterpart user ids, matching how
// conversations are keyed client-side.
type ConversationHandler struct {
	messages api.MessageAPI
	list     *sync.ConversationList
	rt       sync.Realtime
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(messages api.MessageAPI, list *sync.ConversationList, rt sync.Realtime) *ConversationHandler {
	return &ConversationHandler{messages: messages, list: list, rt: rt}
}

// ListConversations returns the reconciled conversation list.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"conversations": h.list.Items(), "error": h.list.Err()})
}

// GetMessages returns the history with one counterpart.
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	counterpartID := c.Param("id")

	user, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session user"})
		return
	}

	window := sync.NewChatWindow(h.messages, h.rt, user, counterpartID)
	if err := window.Load(c.Request.Context()); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": window.Messages()})
}

// PostMessage sends a message to the counterpart. The reply carries the
// backend-confirmed message; nothing is echoed speculatively.
func (h *ConversationHandler) PostMessage(c *gin.Context) {
	counterpartID := c.Param("id")

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	confirmed, err := h.messages.SendMessage(c.Request.Context(), counterpartID, req.Content)
	if err != nil {
		renderError(c, err)
		return
	}
	h.list.Reconcile(confirmed)
	c.JSON(http.StatusCreated, gin.H{"message": confirmed})
}

// MarkRead opens a thread: local unread drops to zero and the read receipt
// goes to the backend.
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	counterpartID := c.Param("id")
	if err := h.list.SetActive(c.Request.Context(), counterpartID); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Typing forwards a typing signal over the realtime connection.
func (h *ConversationHandler) Typing(c *gin.Context) {
	h.rt.Emit(models.EventChatTyping, map[string]string{"to": c.Param("id")})
	c.Status(http.StatusNoContent)
}
