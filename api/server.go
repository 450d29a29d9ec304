// Package api serves a read-only view of the dedup index over HTTP.
package api

import (
	"rewritebot/deduplication"

	"github.com/gin-gonic/gin"
)

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(dedup *deduplication.Deduplicator) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	RegisterDeduplicationRoutes(r, dedup)
	RegisterHealthRoutes(r, dedup)
	return r
}
