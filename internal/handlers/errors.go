package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"breadshare-client/internal/api"
)

// renderError maps the normalized backend error onto the local surface.
// Backend statuses pass through; anything else is a 502 because the daemon
// itself did not fail.
func renderError(c *gin.Context, err error) {
	if apiErr := api.AsError(err); apiErr != nil {
		status := apiErr.Status
		if status == 0 {
			status = http.StatusBadGateway
		}
		body := gin.H{"error": apiErr.Message, "kind": apiErr.Kind.String()}
		if apiErr.Field != "" {
			body["field"] = apiErr.Field
		}
		if len(apiErr.Fields) > 0 {
			body["errors"] = apiErr.Fields
		}
		if len(apiErr.Data) > 0 {
			body["data"] = apiErr.Data
		}
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
