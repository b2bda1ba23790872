package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicegen/internal/assets"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	assets assets.Provider
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(provider assets.Provider) *HealthHandler {
	return &HealthHandler{assets: provider}
}

// Liveness handles GET /healthz
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. The service is ready once the regular
// font can be loaded.
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /readyz [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	if _, err := h.assets.Get(c.Request.Context(), assets.FontRegular); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "font not available"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
