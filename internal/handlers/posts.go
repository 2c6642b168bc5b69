package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"breadshare-client/internal/api"
	"breadshare-client/internal/middleware"
	"breadshare-client/internal/store"
	"breadshare-client/internal/sync"
)

// PostHandler serves the cached post feed, reservation toggling and
// geo-scoped search.
type PostHandler struct {
	feed     *sync.PostFeed
	sessions *store.Store
	location sync.LocationProvider
	radiusKM float64
}

// NewPostHandler builds a PostHandler. radiusKM is the search default when
// the request names none.
func NewPostHandler(feed *sync.PostFeed, sessions *store.Store, location sync.LocationProvider, radiusKM float64) *PostHandler {
	return &PostHandler{feed: feed, sessions: sessions, location: location, radiusKM: radiusKM}
}

// ListPosts returns the feed for the query, served from cache while fresh.
func (h *PostHandler) ListPosts(c *gin.Context) {
	query := api.PostQuery{
		Type:  c.Query("type"),
		Query: c.Query("q"),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		query.Page = page
	}

	posts, err := h.feed.Load(c.Request.Context(), query)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// ToggleReservation flips a reservation. A 409 passes the server's actual
// reservation state through so the caller can show who holds it.
func (h *PostHandler) ToggleReservation(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session user"})
		return
	}

	settled, err := h.feed.ToggleReservation(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		if api.IsConflict(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "already reserved", "post": settled})
			return
		}
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": settled})
}

// Search runs a nearby text search and records the term in the local
// search history.
func (h *PostHandler) Search(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}

	radius := h.radiusKM
	if parsed, err := strconv.ParseFloat(c.Query("radius_km"), 64); err == nil && parsed > 0 {
		radius = parsed
	}

	results, err := h.feed.Search(c.Request.Context(), term, h.location, radius)
	if err != nil {
		renderError(c, err)
		return
	}

	if err := h.sessions.AppendSearchHistory(c.Request.Context(), term); err != nil {
		// history is convenience state; the search still succeeded
		c.JSON(http.StatusOK, gin.H{"posts": results})
		return
	}

	history, _ := h.sessions.SearchHistory(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"posts": results, "history": history})
}

// SearchHistory returns the recent search terms, newest first.
func (h *PostHandler) SearchHistory(c *gin.Context) {
	history, err := h.sessions.SearchHistory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}
