package api

import (
	"context"
	"net/http"
	"net/url"

	"breadshare-client/internal/models"
)

// MessageAPI covers conversations and chat messages.
type MessageAPI interface {
	Conversations(ctx context.Context) ([]models.Conversation, error)
	Messages(ctx context.Context) ([]models.Message, error)
	MessagesWith(ctx context.Context, userID string) ([]models.Message, error)
	SendMessage(ctx context.Context, recipientID, content string) (models.Message, error)
	MarkConversationRead(ctx context.Context, counterpartID string) error
}

// Conversations returns the server-provided conversation list.
func (c *Client) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := c.doJSON(ctx, http.MethodGet, "/conversations", nil, nil, &conversations)
	return conversations, err
}

// Messages returns every message involving the authenticated user. Used by
// the fallback conversation derivation when no server list exists.
func (c *Client) Messages(ctx context.Context) ([]models.Message, error) {
	var messages []models.Message
	err := c.doJSON(ctx, http.MethodGet, "/messages", nil, nil, &messages)
	return messages, err
}

// MessagesWith returns the message history with one counterpart.
func (c *Client) MessagesWith(ctx context.Context, userID string) ([]models.Message, error) {
	var messages []models.Message
	err := c.doJSON(ctx, http.MethodGet, "/messages/"+url.PathEscape(userID), nil, nil, &messages)
	return messages, err
}

// SendMessage delivers a message and returns the server-confirmed copy.
func (c *Client) SendMessage(ctx context.Context, recipientID, content string) (models.Message, error) {
	body := struct {
		RecipientID string `json:"recipient_id"`
		Content     string `json:"content"`
	}{RecipientID: recipientID, Content: content}

	var message models.Message
	err := c.doJSON(ctx, http.MethodPost, "/messages", nil, body, &message)
	return message, err
}

// MarkConversationRead issues the authoritative read receipt for every
// message from the counterpart.
func (c *Client) MarkConversationRead(ctx context.Context, counterpartID string) error {
	return c.doJSON(ctx, http.MethodPost, "/messages/"+url.PathEscape(counterpartID)+"/read", nil, nil, nil)
}

var _ MessageAPI = (*Client)(nil)
