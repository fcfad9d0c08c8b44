package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/nulzo/image-router-api/internal/server/validator"
	"github.com/nulzo/image-router-api/pkg/api"
	"go.uber.org/zap"
)

func toAPIModels(models []domain.ModelInfo) []api.Model {
	out := make([]api.Model, 0, len(models))
	for _, m := range models {
		out = append(out, api.Model{
			ID:       m.ID,
			Provider: string(m.Provider),
			Capabilities: api.ModelCapabilities{
				SupportsQuality: m.Capabilities.SupportsQuality,
				AspectRatios:    m.Capabilities.AspectRatios,
				MaxBatchSize:    m.Capabilities.MaxBatchSize,
				SupportsEditing: m.Capabilities.SupportsEditing,
				EditingType:     string(m.Capabilities.EditingType),
			},
		})
	}
	return out
}

// HandleListModels returns the current model snapshot without
// triggering a reload.
func (h *Handler) HandleListModels(c *gin.Context) {
	var expiresIn *int
	if v, ok := h.registry.ExpiresIn(); ok {
		expiresIn = &v
	}

	c.JSON(http.StatusOK, api.ModelListResponse{
		Models:         toAPIModels(h.registry.GetModels()),
		Cached:         h.registry.IsValid(),
		CacheExpiresIn: expiresIn,
	})
}

// HandleRefreshModels reloads the model snapshot. With force set the
// reload happens even when the cached snapshot is still fresh.
func (h *Handler) HandleRefreshModels(c *gin.Context) {
	var req api.RefreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(domain.ValidationError(validator.ParseValidationError(err)))
			return
		}
	}

	h.logger.Info("Refreshing models", zap.Bool("force", req.Force))
	models := h.registry.Load(c.Request.Context(), req.Force)

	var expiresIn *int
	if v, ok := h.registry.ExpiresIn(); ok {
		expiresIn = &v
	}

	c.JSON(http.StatusOK, api.ModelListResponse{
		Models:         toAPIModels(models),
		Cached:         false,
		CacheExpiresIn: expiresIn,
	})
}
