package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"breadshare-client/internal/sync"
)

// AvailabilityHandler answers signup availability checks through the
// per-field debouncer. A request superseded by a faster keystroke never gets
// its lookup run; it ends with 408 the moment the replacement arrives.
type AvailabilityHandler struct {
	checker *sync.AvailabilityChecker
}

// NewAvailabilityHandler builds an AvailabilityHandler.
func NewAvailabilityHandler(checker *sync.AvailabilityChecker) *AvailabilityHandler {
	return &AvailabilityHandler{checker: checker}
}

// Check validates ?username= or ?email= against the backend.
func (h *AvailabilityHandler) Check(c *gin.Context) {
	username := c.Query("username")
	email := c.Query("email")
	if (username == "") == (email == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of username or email required"})
		return
	}

	results := make(chan sync.AvailabilityResult, 1)
	deliver := func(r sync.AvailabilityResult) { results <- r }
	if username != "" {
		h.checker.CheckUsername(c.Request.Context(), username, deliver)
	} else {
		h.checker.CheckEmail(c.Request.Context(), email, deliver)
	}

	select {
	case r := <-results:
		switch {
		case r.Superseded:
			c.JSON(http.StatusRequestTimeout, gin.H{"error": "superseded"})
		case r.Err != "":
			c.JSON(http.StatusBadGateway, gin.H{"error": r.Err})
		default:
			c.JSON(http.StatusOK, gin.H{"value": r.Value, "available": r.Available})
		}
	case <-c.Request.Context().Done():
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "cancelled"})
	}
}
