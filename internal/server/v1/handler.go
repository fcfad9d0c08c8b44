package v1

import (
	"context"
	"encoding/base64"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/nulzo/image-router-api/internal/config"
	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/nulzo/image-router-api/internal/core/ports"
	"github.com/nulzo/image-router-api/internal/core/registry"
	"github.com/nulzo/image-router-api/internal/core/routing"
	"github.com/nulzo/image-router-api/internal/imaging"
	"github.com/nulzo/image-router-api/pkg/api"
	"go.uber.org/zap"
)

// Handler serves the v1 API. One instance is shared across routes.
type Handler struct {
	cfg      *config.Config
	registry *registry.Registry
	resolver *routing.Resolver
	imaging  *imaging.Router
	store    ports.ImageStore
	logger   *zap.Logger

	probe *http.Client
}

func NewHandler(
	cfg *config.Config,
	reg *registry.Registry,
	resolver *routing.Resolver,
	router *imaging.Router,
	store ports.ImageStore,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		cfg:      cfg,
		registry: reg,
		resolver: resolver,
		imaging:  router,
		store:    store,
		logger:   logger,
		probe:    &http.Client{Timeout: 5 * time.Second},
	}
}

func mimeTypeFor(url string) string {
	switch strings.ToLower(path.Ext(url)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// buildImageResponse shapes the final payload for generate and edit
// calls. The base64 format reads the stored image back; url and
// markdown only reference it.
func (h *Handler) buildImageResponse(
	ctx context.Context,
	urls []string,
	format, label, prompt, model, provider string,
	metadata map[string]interface{},
) (api.ImageResponse, error) {
	resp := api.ImageResponse{
		Prompt:   prompt,
		Model:    model,
		Provider: provider,
		Metadata: metadata,
	}
	metadata["n"] = len(urls)

	switch format {
	case "base64":
		data, err := h.store.GetImage(ctx, urls[0])
		if err != nil {
			return resp, domain.InternalError("Generated image file not found", err)
		}
		resp.ImageBase64 = base64.StdEncoding.EncodeToString(data)
		resp.MimeType = mimeTypeFor(urls[0])
	case "markdown":
		resp.Markdown = "![" + label + "](" + urls[0] + ")"
		resp.ImageURL = urls[0]
	default:
		resp.ImageURL = urls[0]
		if len(urls) > 1 {
			metadata["all_urls"] = urls
		}
	}

	return resp, nil
}
