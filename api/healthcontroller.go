package api

import (
	"context"
	"net/http"
	"time"

	"rewritebot/deduplication"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// RegisterHealthRoutes reports whether the dedup index answers.
func RegisterHealthRoutes(r *gin.Engine, dedup *deduplication.Deduplicator) {
	r.GET("/api/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		n, err := dedup.Index().Count(ctx)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "index": "unreachable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "index": "reachable", "records": n})
	})
}
