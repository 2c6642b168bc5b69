package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"breadshare-client/internal/api"
	"breadshare-client/internal/cache"
	"breadshare-client/internal/middleware"
	"breadshare-client/internal/models"
	"breadshare-client/internal/store"
	"breadshare-client/internal/telemetry"
)

// Connection is the slice of the realtime manager the session handler
// drives.
type Connection interface {
	Connect(ctx context.Context) error
	Disconnect()
}

// Identity is implemented by consumers keyed on the logged-in user. Login
// and logout rebind them so they never work from a stale snapshot.
type Identity interface {
	SetSelf(user models.UserRef)
}

// SessionHandler manages the local login session.
type SessionHandler struct {
	auth     api.AuthAPI
	sessions *store.Store
	cache    *cache.Cache
	conn     Connection
	identity Identity
	audit    *telemetry.AuditEmitter
}

// NewSessionHandler builds a SessionHandler.
func NewSessionHandler(auth api.AuthAPI, sessions *store.Store, responseCache *cache.Cache, conn Connection, identity Identity, audit *telemetry.AuditEmitter) *SessionHandler {
	return &SessionHandler{
		auth:     auth,
		sessions: sessions,
		cache:    responseCache,
		conn:     conn,
		identity: identity,
		audit:    audit,
	}
}

// Login exchanges credentials for a session, persists it and brings the
// realtime connection up. A failed connect does not fail the login; the
// manager keeps retrying on its own.
func (h *SessionHandler) Login(c *gin.Context) {
	var creds api.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.auth.Login(c.Request.Context(), creds)
	if err != nil {
		renderError(c, err)
		return
	}

	if err := h.sessions.SaveToken(c.Request.Context(), session.Token, 0); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist session"})
		return
	}
	if err := h.sessions.SaveUser(c.Request.Context(), session.User); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist session"})
		return
	}

	h.identity.SetSelf(session.User)
	if err := h.conn.Connect(c.Request.Context()); err != nil {
		log.Printf("session: realtime connect failed, retrying in background: %v", err)
	}

	h.audit.Emit(c.Request.Context(), telemetry.AuditLogin, "", &session.User.ID)
	c.JSON(http.StatusOK, gin.H{"user": session.User})
}

// Register creates an account and logs straight in.
func (h *SessionHandler) Register(c *gin.Context) {
	var reg api.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.auth.Register(c.Request.Context(), reg)
	if err != nil {
		renderError(c, err)
		return
	}

	if err := h.sessions.SaveToken(c.Request.Context(), session.Token, 0); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist session"})
		return
	}
	if err := h.sessions.SaveUser(c.Request.Context(), session.User); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist session"})
		return
	}

	h.identity.SetSelf(session.User)
	if err := h.conn.Connect(c.Request.Context()); err != nil {
		log.Printf("session: realtime connect failed, retrying in background: %v", err)
	}

	h.audit.Emit(c.Request.Context(), telemetry.AuditLogin, "registered", &session.User.ID)
	c.JSON(http.StatusCreated, gin.H{"user": session.User})
}

// Logout tears the session down: realtime disconnect, stored session wiped,
// cached responses dropped.
func (h *SessionHandler) Logout(c *gin.Context) {
	var userID *string
	if user, ok := middleware.UserFromContext(c); ok {
		userID = &user.ID
	}

	h.conn.Disconnect()
	h.identity.SetSelf(models.UserRef{})
	if err := h.sessions.ClearSession(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear session"})
		return
	}
	h.cache.ClearByPrefix("")

	h.audit.Emit(c.Request.Context(), telemetry.AuditLogout, "", userID)
	c.Status(http.StatusNoContent)
}
