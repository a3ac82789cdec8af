package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"propmatch/internal/quota"
	"propmatch/internal/service"
)

// RecommendHandler handles one-shot recommendation requests
type RecommendHandler struct {
	recommender  *service.Recommender
	quota        *quota.Tracker
	enforceQuota bool
}

// NewRecommendHandler creates a new recommend handler
func NewRecommendHandler(recommender *service.Recommender, tracker *quota.Tracker, enforceQuota bool) *RecommendHandler {
	return &RecommendHandler{
		recommender:  recommender,
		quota:        tracker,
		enforceQuota: enforceQuota,
	}
}

// recommendRequest is the POST /api/v1/recommend body
type recommendRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// Recommend handles POST /api/v1/recommend
func (h *RecommendHandler) Recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	identity := c.ClientIP()
	if h.enforceQuota {
		if err := h.quota.Check(identity); err != nil {
			if err == quota.ErrQuotaExceeded {
				c.JSON(http.StatusTooManyRequests, gin.H{
					"success": false,
					"error":   "Daily search quota exceeded",
					"ceiling": h.quota.Ceiling(),
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Quota check failed: " + err.Error()})
			return
		}
	}

	response, err := h.recommender.Recommend(c.Request.Context(), req.Prompt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Recommendation failed: " + err.Error()})
		return
	}

	if err := h.quota.Increment(identity); err != nil {
		// Usage accounting must not fail a served request
		c.Header("X-Quota-Warning", "usage accounting failed")
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"prompt":      req.Prompt,
		"message":     response.Message,
		"preferences": response.Preferences,
		"results":     response.Results,
		"cached":      response.Cached,
	})
}

// Prompts handles GET /api/v1/prompts
func (h *RecommendHandler) Prompts(c *gin.Context) {
	prompts := h.recommender.SuggestPrompts(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true, "prompts": prompts})
}
