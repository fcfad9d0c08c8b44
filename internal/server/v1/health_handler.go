package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/image-router-api/pkg/api"
	"go.uber.org/zap"
)

// HandleHealth reports service health and provider availability. The
// gateway gets a live probe; direct vendors only report whether
// credentials are configured.
func (h *Handler) HandleHealth(c *gin.Context) {
	gatewayUp := false
	if h.cfg.GatewayAvailable() {
		url := strings.TrimRight(h.cfg.Gateway.BaseURL, "/") + "/health"
		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, url, nil)
		if err == nil {
			resp, perr := h.probe.Do(req)
			if perr == nil {
				gatewayUp = resp.StatusCode == http.StatusOK
				resp.Body.Close()
			} else {
				h.logger.Warn("Gateway health check failed", zap.Error(perr))
			}
		}
	}

	c.JSON(http.StatusOK, api.HealthResponse{
		Status:  "healthy",
		Gateway: gatewayUp,
		OpenAI:  h.cfg.OpenAIAvailable(),
		Gemini:  h.cfg.GeminiAvailable(),
	})
}

// HandleRoot returns basic API information.
func (h *Handler) HandleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "Image Router API",
		"version": "v1",
		"providers": gin.H{
			"litellm": h.cfg.GatewayAvailable(),
			"openai":  h.cfg.OpenAIAvailable(),
			"gemini":  h.cfg.GeminiAvailable(),
		},
	})
}
