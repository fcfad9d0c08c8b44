package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nulzo/image-router-api/internal/core/capability"
	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/nulzo/image-router-api/internal/httpclient"
	"github.com/nulzo/image-router-api/internal/imaging"
	"github.com/nulzo/image-router-api/internal/logger"
	"go.uber.org/zap"
)

func init() {
	imaging.Register(domain.ProviderGateway, NewAdapter)
}

// aspectRatioSizes maps ratios to the size strings the OpenAI-compatible
// images API expects.
var aspectRatioSizes = map[string]string{
	"1:1":  "1024x1024",
	"16:9": "1792x1024",
	"9:16": "1024x1792",
	"4:3":  "1792x1024",
	"3:4":  "1024x1792",
}

// Adapter is the primary path: every request goes through the unified
// proxy unless the selector reports a gateway gap covered by direct
// credentials.
type Adapter struct {
	deps   imaging.Deps
	client *http.Client
}

func NewAdapter(deps imaging.Deps) (imaging.Service, error) {
	if deps.Config.Gateway.BaseURL == "" {
		return nil, fmt.Errorf("gateway base URL not configured")
	}
	return &Adapter{
		deps:   deps,
		client: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (a *Adapter) Name() string {
	return string(domain.ProviderGateway)
}

type imageData struct {
	B64JSON string `json:"b64_json"`
	URL     string `json:"url"`
}

type imagesResponse struct {
	Data []imageData `json:"data"`
}

type generateRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
	Quality        string `json:"quality,omitempty"`
}

func (a *Adapter) Generate(ctx context.Context, p imaging.GenerateParams) ([]string, error) {
	if a.deps.Selector.ShouldUseDirectFallback(p.Model, p.AspectRatio) {
		return a.generateDirect(ctx, p)
	}

	logger.Info("generating images via gateway",
		zap.String("model", p.Model),
		zap.Int("n", p.N),
	)

	req := generateRequest{
		Model:          p.Model,
		Prompt:         p.Prompt,
		N:              a.clampBatch(p.Model, p.N),
		Size:           sizeFor(p.AspectRatio),
		ResponseFormat: "b64_json",
	}
	if info, ok := a.deps.Registry.GetModel(p.Model); ok && info.Capabilities.SupportsQuality {
		req.Quality = p.Quality
	}

	url := fmt.Sprintf("%s/v1/images/generations", strings.TrimRight(a.deps.Config.Gateway.BaseURL, "/"))

	var resp imagesResponse
	if err := httpclient.SendRequest(ctx, a.client, http.MethodPost, url, a.headers(), req, &resp); err != nil {
		return nil, a.handleUpstreamError(err)
	}

	return a.persist(ctx, resp.Data)
}

func (a *Adapter) Edit(ctx context.Context, p imaging.EditParams) ([]string, error) {
	// The gateway only exposes the mask-based OpenAI edit endpoint.
	// Prompt-editing models need their vendor API.
	if a.deps.Config.Fallback.Editing && capability.Lookup(p.Model).EditingType == domain.EditingPrompt {
		vendor := domain.InferProvider(p.Model)
		if direct, ok := a.deps.Direct[vendor]; ok {
			logger.Info("using direct vendor API for prompt-based editing",
				zap.String("model", p.Model),
				zap.String("provider", string(vendor)),
			)
			p.Model = domain.StripVendorPrefix(p.Model)
			return direct.Edit(ctx, p)
		}
	}

	logger.Info("editing image via gateway", zap.String("model", p.Model))

	fields := map[string]string{
		"model":           p.Model,
		"prompt":          p.Prompt,
		"n":               strconv.Itoa(a.clampBatch(p.Model, p.N)),
		"response_format": "b64_json",
	}

	files := []httpclient.FilePart{
		{Field: "image", Filename: "image.png", Data: p.Image},
	}
	if p.Mask != nil {
		files = append(files, httpclient.FilePart{Field: "mask", Filename: "mask.png", Data: p.Mask})
	}

	url := fmt.Sprintf("%s/v1/images/edits", strings.TrimRight(a.deps.Config.Gateway.BaseURL, "/"))

	var resp imagesResponse
	if err := httpclient.SendMultipart(ctx, a.client, url, a.headers(), fields, files, &resp); err != nil {
		return nil, a.handleUpstreamError(err)
	}

	return a.persist(ctx, resp.Data)
}

// generateDirect routes around the gateway for a covered feature gap.
func (a *Adapter) generateDirect(ctx context.Context, p imaging.GenerateParams) ([]string, error) {
	vendor := domain.InferProvider(p.Model)
	direct, ok := a.deps.Direct[vendor]
	if !ok {
		return nil, domain.ProviderError("no direct provider fallback available for model: "+p.Model, nil)
	}

	logger.Info("using direct vendor API for gateway feature gap",
		zap.String("model", p.Model),
		zap.String("provider", string(vendor)),
		zap.String("aspect_ratio", p.AspectRatio),
	)

	// The gateway addresses models as "vendor/model"; the direct API
	// wants the bare id.
	p.Model = domain.StripVendorPrefix(p.Model)
	return direct.Generate(ctx, p)
}

func (a *Adapter) headers() map[string]string {
	headers := map[string]string{}
	if key := a.deps.Config.Gateway.APIKey; key != "" {
		headers["Authorization"] = "Bearer " + key
	}
	return headers
}

// clampBatch lowers n to the model's declared maximum.
func (a *Adapter) clampBatch(model string, n int) int {
	info, ok := a.deps.Registry.GetModel(model)
	if !ok {
		return n
	}
	if max := info.Capabilities.MaxBatchSize; n > max {
		logger.Warn("model supports fewer images than requested, clamping",
			zap.String("model", model),
			zap.Int("requested", n),
			zap.Int("max", max),
		)
		return max
	}
	return n
}

func (a *Adapter) persist(ctx context.Context, data []imageData) ([]string, error) {
	var urls []string
	for _, d := range data {
		if d.B64JSON == "" {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil {
			return nil, domain.ProviderError("gateway returned malformed image data", err)
		}
		url, err := a.deps.Store.SaveImage(ctx, raw, "png")
		if err != nil {
			return nil, domain.InternalError("failed to store generated image", err)
		}
		urls = append(urls, url)
	}
	if len(urls) == 0 {
		return nil, domain.ProviderError("gateway returned no images", nil)
	}
	return urls, nil
}

// upstreamErrorResponse mirrors the standard OpenAI error shape
type upstreamErrorResponse struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

func (a *Adapter) handleUpstreamError(err error) error {
	var upstreamErr *httpclient.UpstreamError
	if !errors.As(err, &upstreamErr) {
		return domain.ProviderError("gateway request failed", err)
	}

	var apiErr upstreamErrorResponse
	if jsonErr := json.Unmarshal(upstreamErr.Body, &apiErr); jsonErr != nil || apiErr.Error.Message == "" {
		return domain.ProviderError(fmt.Sprintf("gateway error (status %d)", upstreamErr.StatusCode), err)
	}
	return domain.ProviderError("gateway error: "+apiErr.Error.Message, err)
}

func sizeFor(aspectRatio string) string {
	if size, ok := aspectRatioSizes[aspectRatio]; ok {
		return size
	}
	return "1024x1024"
}
