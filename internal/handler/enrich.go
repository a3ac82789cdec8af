package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"propmatch/internal/model"
	"propmatch/internal/service"
)

// EnrichHandler handles catalog embedding enrichment
type EnrichHandler struct {
	enricher *service.Enricher
}

// NewEnrichHandler creates a new enrichment handler
func NewEnrichHandler(enricher *service.Enricher) *EnrichHandler {
	return &EnrichHandler{enricher: enricher}
}

// batchRequest is the POST /api/v1/embeddings/batch body
type batchRequest struct {
	Items []model.EmbeddingItem `json:"items" binding:"required,min=1,dive"`
}

// BatchUpdate handles POST /api/v1/embeddings/batch
func (h *EnrichHandler) BatchUpdate(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response := h.enricher.Process(c.Request.Context(), req.Items)

	status := http.StatusOK
	if response.Success == 0 && response.Failed > 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, response)
}
