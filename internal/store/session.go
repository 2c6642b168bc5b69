package store

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"breadshare-client/internal/models"
)

// Fixed keys for the domain accessors. These are plain wrappers over Get/Set
// with no invariants of their own.
const (
	keyToken         = "auth:token"
	keyUser          = "auth:user"
	keySettings      = "settings"
	keySearchHistory = "search:history"
)

const searchHistoryLimit = 10

// Token returns the stored auth token, empty when absent.
func (s *Store) Token(ctx context.Context) (string, error) {
	var token string
	ok, err := s.GetJSON(ctx, keyToken, &token)
	if err != nil || !ok {
		return "", err
	}
	return token, nil
}

// SaveToken persists the auth token with an optional ttl.
func (s *Store) SaveToken(ctx context.Context, token string, ttl time.Duration) error {
	return s.Set(ctx, keyToken, token, ttl)
}

// TokenExpired reports whether the stored token carries an exp claim in the
// past. The claim is read without signature verification; the backend remains
// the authority on token validity.
func (s *Store) TokenExpired(ctx context.Context) bool {
	token, err := s.Token(ctx)
	if err != nil || token == "" {
		return true
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Opaque tokens carry no expiry the client can inspect.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().After(exp.Time)
}

// User returns the cached user, nil when absent.
func (s *Store) User(ctx context.Context) (*models.UserRef, error) {
	var user models.UserRef
	ok, err := s.GetJSON(ctx, keyUser, &user)
	if err != nil || !ok {
		return nil, err
	}
	return &user, nil
}

// SaveUser caches the logged-in user.
func (s *Store) SaveUser(ctx context.Context, user models.UserRef) error {
	return s.Set(ctx, keyUser, user, 0)
}

// ClearSession removes token and cached user, leaving settings and history.
func (s *Store) ClearSession(ctx context.Context) error {
	if err := s.Remove(ctx, keyToken); err != nil {
		return err
	}
	return s.Remove(ctx, keyUser)
}

// Settings returns persisted client settings, zero-valued when unset.
func (s *Store) Settings(ctx context.Context) (models.Settings, error) {
	var settings models.Settings
	_, err := s.GetJSON(ctx, keySettings, &settings)
	return settings, err
}

// SaveSettings persists client settings.
func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) error {
	return s.Set(ctx, keySettings, settings, 0)
}

// SearchHistory returns recent search terms, most recent first.
func (s *Store) SearchHistory(ctx context.Context) ([]string, error) {
	var history []string
	_, err := s.GetJSON(ctx, keySearchHistory, &history)
	return history, err
}

// AppendSearchHistory prepends a term, dropping duplicates and keeping the
// list bounded.
func (s *Store) AppendSearchHistory(ctx context.Context, term string) error {
	if term == "" {
		return nil
	}
	history, err := s.SearchHistory(ctx)
	if err != nil {
		return err
	}

	next := make([]string, 0, len(history)+1)
	next = append(next, term)
	for _, t := range history {
		if t != term {
			next = append(next, t)
		}
	}
	if len(next) > searchHistoryLimit {
		next = next[:searchHistoryLimit]
	}
	return s.Set(ctx, keySearchHistory, next, 0)
}
