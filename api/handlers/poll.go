package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailboost/mailboost/services/poller"
)

// TriggerPoll asks the poll loop to run a pass now. The pass runs on the
// poller's goroutine, never here, so passes stay strictly sequential.
func TriggerPoll(p *poller.Poller) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !p.Trigger("api") {
			c.JSON(http.StatusConflict, gin.H{
				"error": "a triggered pass is already pending",
			})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status": "pass triggered",
		})
	}
}
