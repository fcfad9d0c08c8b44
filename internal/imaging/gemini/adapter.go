package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/nulzo/image-router-api/internal/httpclient"
	"github.com/nulzo/image-router-api/internal/imaging"
	"github.com/nulzo/image-router-api/internal/logger"
	"go.uber.org/zap"
)

func init() {
	imaging.Register(domain.ProviderGemini, NewAdapter)
}

// Adapter calls the Gemini generateContent API directly. Unlike the
// OpenAI-style endpoints it emits one image per call, so batches loop.
type Adapter struct {
	deps    imaging.Deps
	baseURL string
	client  *http.Client
}

func NewAdapter(deps imaging.Deps) (imaging.Service, error) {
	if deps.Config.Gemini.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured")
	}
	baseURL := deps.Config.Gemini.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	return &Adapter{
		deps:    deps,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (a *Adapter) Name() string {
	return string(domain.ProviderGemini)
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Parts []part `json:"parts"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (a *Adapter) Generate(ctx context.Context, p imaging.GenerateParams) ([]string, error) {
	logger.Info("generating images via Gemini direct",
		zap.String("model", p.Model),
		zap.Int("n", p.N),
		zap.String("aspect_ratio", p.AspectRatio),
	)

	req := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: p.Prompt}}}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig:        &imageConfig{AspectRatio: p.AspectRatio},
		},
	}

	var urls []string
	for i := 0; i < p.N; i++ {
		batch, err := a.call(ctx, p.Model, req)
		if err != nil {
			return nil, err
		}
		urls = append(urls, batch...)
	}

	if len(urls) == 0 {
		return nil, domain.ProviderError("Gemini returned no images", nil)
	}
	return urls, nil
}

// Edit performs prompt-based editing: the source image rides along as
// inline data and the prompt describes the change. Masks are not part of
// the Gemini editing model and are ignored.
func (a *Adapter) Edit(ctx context.Context, p imaging.EditParams) ([]string, error) {
	logger.Info("editing image via Gemini direct", zap.String("model", p.Model))

	req := generateContentRequest{
		Contents: []content{{Parts: []part{
			{Text: p.Prompt},
			{InlineData: &inlineData{
				MimeType: "image/png",
				Data:     base64.StdEncoding.EncodeToString(p.Image),
			}},
		}}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE"},
		},
	}

	var urls []string
	for i := 0; i < p.N; i++ {
		batch, err := a.call(ctx, p.Model, req)
		if err != nil {
			return nil, err
		}
		urls = append(urls, batch...)
	}

	if len(urls) == 0 {
		return nil, domain.ProviderError("Gemini returned no images", nil)
	}
	return urls, nil
}

func (a *Adapter) call(ctx context.Context, model string, req generateContentRequest) ([]string, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", a.baseURL, model)
	headers := map[string]string{
		"x-goog-api-key": a.deps.Config.Gemini.APIKey,
	}

	var resp generateContentResponse
	if err := httpclient.SendRequest(ctx, a.client, http.MethodPost, url, headers, req, &resp); err != nil {
		return nil, domain.ProviderError("Gemini request failed", err)
	}

	var urls []string
	for _, cand := range resp.Candidates {
		for _, pt := range cand.Content.Parts {
			if pt.InlineData == nil {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(pt.InlineData.Data)
			if err != nil {
				return nil, domain.ProviderError("Gemini returned malformed image data", err)
			}
			ext := "png"
			if i := strings.Index(pt.InlineData.MimeType, "/"); i != -1 {
				ext = pt.InlineData.MimeType[i+1:]
			}
			stored, err := a.deps.Store.SaveImage(ctx, raw, ext)
			if err != nil {
				return nil, domain.InternalError("failed to store generated image", err)
			}
			urls = append(urls, stored)
		}
	}
	return urls, nil
}
