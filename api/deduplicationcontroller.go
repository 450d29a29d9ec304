package api

import (
	"net/http"
	"strings"
	"time"

	"rewritebot/deduplication"
	"rewritebot/types"

	"github.com/gin-gonic/gin"
)

// RegisterDeduplicationRoutes registers the dedup lookup endpoints. Nothing
// here records into the index.
func RegisterDeduplicationRoutes(r *gin.Engine, dedup *deduplication.Deduplicator) {
	h := &deduplicationController{dedup: dedup}
	g := r.Group("/api/deduplication")
	g.POST("/check", h.handleCheckDuplicate)
	g.GET("/count", h.handleGetCount)
}

type deduplicationController struct {
	dedup *deduplication.Deduplicator
}

// CheckDuplicateRequest carries a URL, a body, or both.
type CheckDuplicateRequest struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// CheckDuplicateResponse represents the response from duplicate check
type CheckDuplicateResponse struct {
	IsDuplicate bool      `json:"is_duplicate"`
	Reason      string    `json:"reason,omitempty"`
	CheckedAt   time.Time `json:"checked_at"`
}

// handleCheckDuplicate checks if an article is a duplicate
func (h *deduplicationController) handleCheckDuplicate(c *gin.Context) {
	var req CheckDuplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var normURL, hash string
	if strings.TrimSpace(req.URL) != "" {
		normURL = types.NormalizeURL(req.URL)
		if normURL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid url"})
			return
		}
	}
	if strings.TrimSpace(req.Content) != "" {
		hash = types.ContentHash(req.Content)
	}
	if normURL == "" && hash == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url or content is required"})
		return
	}

	result, err := h.dedup.Check(c.Request.Context(), normURL, hash)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check duplicates: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, CheckDuplicateResponse{
		IsDuplicate: result.IsDuplicate,
		Reason:      result.Reason,
		CheckedAt:   result.CheckedAt,
	})
}

// handleGetCount returns the number of recorded articles
func (h *deduplicationController) handleGetCount(c *gin.Context) {
	count, err := h.dedup.Index().Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get count: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
