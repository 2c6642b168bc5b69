package api

import (
	"context"
	"net/http"

	"breadshare-client/internal/models"
)

// Credentials is the login request body.
type Credentials struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

// Registration is the sign-up request body.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthAPI covers login and registration.
type AuthAPI interface {
	Login(ctx context.Context, creds Credentials) (models.Session, error)
	Register(ctx context.Context, reg Registration) (models.Session, error)
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, creds Credentials) (models.Session, error) {
	var session models.Session
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, creds, &session)
	return session, err
}

// Register creates an account and returns the fresh session.
func (c *Client) Register(ctx context.Context, reg Registration) (models.Session, error) {
	var session models.Session
	err := c.doJSON(ctx, http.MethodPost, "/auth/register", nil, reg, &session)
	return session, err
}

var _ AuthAPI = (*Client)(nil)
