package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"breadshare-client/internal/models"
)

// PostQuery narrows a listing fetch. Zero values are omitted from the
// request.
type PostQuery struct {
	Type      string
	Query     string
	Latitude  float64
	Longitude float64
	RadiusKM  float64
	Page      int
}

func (q PostQuery) values() url.Values {
	values := url.Values{}
	if q.Type != "" {
		values.Set("type", q.Type)
	}
	if q.Query != "" {
		values.Set("q", q.Query)
	}
	if q.RadiusKM > 0 {
		values.Set("lat", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
		values.Set("lng", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
		values.Set("radius_km", strconv.FormatFloat(q.RadiusKM, 'f', -1, 64))
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	return values
}

// PostDraft is the create/update request body for a listing.
type PostDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type"`
	Images      []string `json:"images,omitempty"`
	Latitude    float64  `json:"latitude,omitempty"`
	Longitude   float64  `json:"longitude,omitempty"`
}

// PostAPI covers listings CRUD, reservation toggling, search and image
// upload.
type PostAPI interface {
	Posts(ctx context.Context, query PostQuery) ([]models.Post, error)
	Post(ctx context.Context, id string) (models.Post, error)
	CreatePost(ctx context.Context, draft PostDraft) (models.Post, error)
	UpdatePost(ctx context.Context, id string, draft PostDraft) (models.Post, error)
	DeletePost(ctx context.Context, id string) error
	ToggleReservation(ctx context.Context, id string) (models.Post, error)
	UploadImage(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Posts lists posts, optionally filtered and geo-scoped.
func (c *Client) Posts(ctx context.Context, query PostQuery) ([]models.Post, error) {
	var posts []models.Post
	err := c.doJSON(ctx, http.MethodGet, "/posts", query.values(), nil, &posts)
	return posts, err
}

// Post fetches a single listing.
func (c *Client) Post(ctx context.Context, id string) (models.Post, error) {
	var post models.Post
	err := c.doJSON(ctx, http.MethodGet, "/posts/"+url.PathEscape(id), nil, nil, &post)
	return post, err
}

// CreatePost publishes a new listing.
func (c *Client) CreatePost(ctx context.Context, draft PostDraft) (models.Post, error) {
	var post models.Post
	err := c.doJSON(ctx, http.MethodPost, "/posts", nil, draft, &post)
	return post, err
}

// UpdatePost edits an existing listing.
func (c *Client) UpdatePost(ctx context.Context, id string, draft PostDraft) (models.Post, error) {
	var post models.Post
	err := c.doJSON(ctx, http.MethodPut, "/posts/"+url.PathEscape(id), nil, draft, &post)
	return post, err
}

// DeletePost removes a listing.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id), nil, nil, nil)
}

// ToggleReservation reserves or unreserves a listing. On a conflict the
// returned post reflects the reservation state the server reported along
// with the error, so callers can rewrite local state instead of retrying.
func (c *Client) ToggleReservation(ctx context.Context, id string) (models.Post, error) {
	var post models.Post
	err := c.doJSON(ctx, http.MethodPost, "/posts/"+url.PathEscape(id)+"/reserve", nil, nil, &post)
	if err != nil {
		if apiErr := AsError(err); apiErr != nil && apiErr.Kind == KindConflict && len(apiErr.Data) > 0 {
			if decodeErr := json.Unmarshal(apiErr.Data, &post); decodeErr == nil {
				return post, err
			}
		}
		return models.Post{}, err
	}
	return post, nil
}

// UploadImage stores an image and returns its public URL.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.uploadMultipart(ctx, "/uploads", "image", filename, r, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("upload response missing url")
	}
	return out.URL, nil
}

var _ PostAPI = (*Client)(nil)
