package openai

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

	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/nulzo/image-router-api/internal/httpclient"
	"github.com/nulzo/image-router-api/internal/imaging"
	"github.com/nulzo/image-router-api/internal/logger"
	"go.uber.org/zap"
)

func init() {
	imaging.Register(domain.ProviderOpenAI, NewAdapter)
}

// aspectRatioSizes holds the per-model size tables. The Images API rejects
// sizes a model does not support, so dall-e-2 degrades everything to
// square and gpt-image-1 uses its own dimensions.
var aspectRatioSizes = map[string]map[string]string{
	"dall-e-2": {
		"1:1": "1024x1024", "16:9": "1024x1024", "9:16": "1024x1024",
		"4:3": "1024x1024", "3:4": "1024x1024",
	},
	"dall-e-3": {
		"1:1": "1024x1024", "16:9": "1792x1024", "9:16": "1024x1792",
		"4:3": "1792x1024", "3:4": "1024x1792",
	},
	"gpt-image-1": {
		"1:1": "1024x1024", "16:9": "1536x1024", "9:16": "1024x1536",
		"4:3": "1536x1024", "3:4": "1024x1536",
	},
}

// Adapter calls the OpenAI Images API directly, bypassing the gateway.
type Adapter struct {
	deps    imaging.Deps
	baseURL string
	client  *http.Client
}

func NewAdapter(deps imaging.Deps) (imaging.Service, error) {
	if deps.Config.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}
	baseURL := deps.Config.OpenAI.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Adapter{
		deps:    deps,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (a *Adapter) Name() string {
	return string(domain.ProviderOpenAI)
}

type imageData struct {
	B64JSON string `json:"b64_json"`
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
	logger.Info("generating images via OpenAI direct",
		zap.String("model", p.Model),
		zap.Int("n", p.N),
	)

	req := generateRequest{
		Model:          p.Model,
		Prompt:         p.Prompt,
		N:              a.clampBatch(p.Model, p.N),
		Size:           sizeFor(p.Model, p.AspectRatio),
		ResponseFormat: "b64_json",
	}
	if info, ok := a.deps.Registry.GetModel(p.Model); ok && info.Capabilities.SupportsQuality {
		req.Quality = p.Quality
	}

	var resp imagesResponse
	if err := httpclient.SendRequest(ctx, a.client, http.MethodPost, a.baseURL+"/images/generations", a.headers(), req, &resp); err != nil {
		return nil, a.handleUpstreamError(err)
	}

	return a.persist(ctx, resp.Data)
}

func (a *Adapter) Edit(ctx context.Context, p imaging.EditParams) ([]string, error) {
	logger.Info("editing image via OpenAI direct", zap.String("model", p.Model))

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

	var resp imagesResponse
	if err := httpclient.SendMultipart(ctx, a.client, a.baseURL+"/images/edits", a.headers(), fields, files, &resp); err != nil {
		return nil, a.handleUpstreamError(err)
	}

	return a.persist(ctx, resp.Data)
}

func (a *Adapter) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + a.deps.Config.OpenAI.APIKey,
	}
}

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
			return nil, domain.ProviderError("OpenAI returned malformed image data", err)
		}
		url, err := a.deps.Store.SaveImage(ctx, raw, "png")
		if err != nil {
			return nil, domain.InternalError("failed to store generated image", err)
		}
		urls = append(urls, url)
	}
	if len(urls) == 0 {
		return nil, domain.ProviderError("OpenAI returned no images", nil)
	}
	return urls, nil
}

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
		return domain.ProviderError("OpenAI request failed", err)
	}

	var apiErr upstreamErrorResponse
	if jsonErr := json.Unmarshal(upstreamErr.Body, &apiErr); jsonErr != nil || apiErr.Error.Message == "" {
		return domain.ProviderError(fmt.Sprintf("OpenAI error (status %d)", upstreamErr.StatusCode), err)
	}
	return domain.ProviderError("OpenAI error: "+apiErr.Error.Message, err)
}

func sizeFor(model, aspectRatio string) string {
	sizes, ok := aspectRatioSizes[model]
	if !ok {
		// Unknown models get the gpt-image-1 dimensions.
		sizes = aspectRatioSizes["gpt-image-1"]
	}
	if size, ok := sizes[aspectRatio]; ok {
		return size
	}
	return "1024x1024"
}
