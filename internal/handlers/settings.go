package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"breadshare-client/internal/models"
	"breadshare-client/internal/store"
)

// SettingsHandler exposes the persisted client preferences.
type SettingsHandler struct {
	sessions *store.Store
}

// NewSettingsHandler builds a SettingsHandler.
func NewSettingsHandler(sessions *store.Store) *SettingsHandler {
	return &SettingsHandler{sessions: sessions}
}

// GetSettings returns the stored preferences, zero-valued when unset.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.sessions.Settings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// PutSettings replaces the stored preferences.
func (h *SettingsHandler) PutSettings(c *gin.Context) {
	var settings models.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.sessions.SaveSettings(c.Request.Context(), settings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}
