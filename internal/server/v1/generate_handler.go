package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/nulzo/image-router-api/internal/imaging"
	"github.com/nulzo/image-router-api/internal/server/validator"
	"github.com/nulzo/image-router-api/internal/sse"
	"github.com/nulzo/image-router-api/pkg/api"
	"go.uber.org/zap"
)

// HandleGenerate creates images from a text prompt.
func (h *Handler) HandleGenerate(c *gin.Context) {
	var req api.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domain.ValidationError(validator.ParseValidationError(err)))
		return
	}
	req.ApplyDefaults()

	provider := domain.ParseProvider(req.Provider)
	model := req.Model
	if model == "" {
		model = h.resolver.ResolveDefault(provider, false)
	}

	h.logger.Info("Generate request",
		zap.String("provider", string(provider)),
		zap.String("model", model),
		zap.String("aspect_ratio", req.AspectRatio),
	)

	svc, err := h.imaging.ServiceFor(provider)
	if err != nil {
		c.Error(err)
		return
	}

	urls, err := svc.Generate(c.Request.Context(), imaging.GenerateParams{
		Prompt:      req.Prompt,
		Model:       model,
		AspectRatio: req.AspectRatio,
		Quality:     req.Quality,
		N:           req.N,
	})
	if err != nil {
		c.Error(err)
		return
	}
	if len(urls) == 0 {
		c.Error(domain.InternalError("No images generated", nil))
		return
	}

	resp, err := h.buildImageResponse(c.Request.Context(), urls, req.ResponseFormat,
		"Generated image", req.Prompt, model, string(provider),
		map[string]interface{}{
			"aspect_ratio": req.AspectRatio,
			"quality":      req.Quality,
		})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleGenerateStream creates images while pushing progress updates
// over Server-Sent Events. Validation failures are rejected before the
// stream starts; generation failures arrive as an error event.
func (h *Handler) HandleGenerateStream(c *gin.Context) {
	var req api.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domain.ValidationError(validator.ParseValidationError(err)))
		return
	}
	req.ApplyDefaults()

	provider := domain.ParseProvider(req.Provider)
	model := req.Model
	if model == "" {
		model = h.resolver.ResolveDefault(provider, false)
	}

	svc, err := h.imaging.ServiceFor(provider)
	if err != nil {
		c.Error(err)
		return
	}

	h.logger.Info("Stream generate request",
		zap.String("provider", string(provider)),
		zap.String("model", model),
	)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	// nginx buffers event streams unless told otherwise
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	events := make(chan sse.Event, 4)

	go func() {
		defer close(events)

		events <- sse.Queued(model)
		events <- sse.Generating(string(provider), model)

		urls, err := svc.Generate(ctx, imaging.GenerateParams{
			Prompt:      req.Prompt,
			Model:       model,
			AspectRatio: req.AspectRatio,
			Quality:     req.Quality,
			N:           req.N,
		})
		if err != nil {
			h.logger.Error("Stream generation failed", zap.Error(err))
			events <- sse.Failure(err)
			return
		}

		events <- sse.Processing()
		events <- sse.Complete(urls, model, string(provider))
	}()

	for ev := range events {
		_, _ = io.WriteString(c.Writer, ev.Format())
		c.Writer.Flush()
	}
}
