package api

import (
	"context"
	"net/http"
	"net/url"

	"breadshare-client/internal/models"
)

// UserAPI covers profile access and signup availability checks.
type UserAPI interface {
	Profile(ctx context.Context, id string) (models.UserRef, error)
	UpdateProfile(ctx context.Context, user models.UserRef) (models.UserRef, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	EmailAvailable(ctx context.Context, email string) (bool, error)
}

// Profile fetches a user profile.
func (c *Client) Profile(ctx context.Context, id string) (models.UserRef, error) {
	var user models.UserRef
	err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, nil, &user)
	return user, err
}

// UpdateProfile saves profile changes for the authenticated user.
func (c *Client) UpdateProfile(ctx context.Context, user models.UserRef) (models.UserRef, error) {
	var updated models.UserRef
	err := c.doJSON(ctx, http.MethodPut, "/users/me", nil, user, &updated)
	return updated, err
}

func (c *Client) available(ctx context.Context, key, value string) (bool, error) {
	query := url.Values{}
	query.Set(key, value)

	var out struct {
		Available bool `json:"available"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/users/availability", query, nil, &out); err != nil {
		return false, err
	}
	return out.Available, nil
}

// UsernameAvailable reports whether the username is free to register.
func (c *Client) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	return c.available(ctx, "username", username)
}

// EmailAvailable reports whether the email is free to register.
func (c *Client) EmailAvailable(ctx context.Context, email string) (bool, error) {
	return c.available(ctx, "email", email)
}

var _ UserAPI = (*Client)(nil)
