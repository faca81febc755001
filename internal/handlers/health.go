package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// Health reports process liveness and database reachability.
func Health(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now().Format(time.RFC3339)
		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "degraded",
				"database":  "down",
				"timestamp": now,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"database":  "up",
			"timestamp": now,
		})
	}
}
