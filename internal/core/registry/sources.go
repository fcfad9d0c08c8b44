package registry

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nulzo/image-router-api/internal/core/capability"
	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/nulzo/image-router-api/internal/core/ports"
	"github.com/nulzo/image-router-api/internal/httpclient"
)

// Source is one strategy for producing a model listing. The registry tries
// its sources in order and adopts the first successful result.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.ModelInfo, error)
}

// GatewaySource pulls the live model listing from the unified proxy's
// OpenAI-compatible /v1/models endpoint.
type GatewaySource struct {
	baseURL string
	apiKey  string
	client  httpclient.HTTPClient
}

func NewGatewaySource(baseURL, apiKey string) *GatewaySource {
	return &GatewaySource{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *GatewaySource) Name() string { return "gateway" }

type modelListResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (s *GatewaySource) Fetch(ctx context.Context) ([]domain.ModelInfo, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("gateway not configured")
	}

	url := fmt.Sprintf("%s/v1/models", strings.TrimRight(s.baseURL, "/"))
	headers := map[string]string{}
	if s.apiKey != "" {
		headers["Authorization"] = "Bearer " + s.apiKey
	}

	var resp modelListResponse
	if err := httpclient.SendRequest(ctx, s.client, http.MethodGet, url, headers, nil, &resp); err != nil {
		return nil, err
	}

	var models []domain.ModelInfo
	for _, m := range resp.Data {
		if m.ID == "" {
			continue
		}
		models = append(models, domain.ModelInfo{
			ID:           m.ID,
			Provider:     domain.InferProvider(m.ID),
			Capabilities: capability.Lookup(m.ID),
		})
	}

	if len(models) == 0 {
		return nil, fmt.Errorf("gateway listing contained no models")
	}
	return models, nil
}

// SnapshotSource restores the last good listing persisted by the registry,
// so a process restart inside the TTL window survives a gateway outage.
type SnapshotSource struct {
	cache ports.CacheService
}

func NewSnapshotSource(cache ports.CacheService) *SnapshotSource {
	return &SnapshotSource{cache: cache}
}

func (s *SnapshotSource) Name() string { return "cache" }

func (s *SnapshotSource) Fetch(ctx context.Context) ([]domain.ModelInfo, error) {
	var models []domain.ModelInfo
	if err := s.cache.Get(ctx, snapshotCacheKey, &models); err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("cached snapshot is empty")
	}
	return models, nil
}

// StaticSource enumerates the known models of each available vendor from
// the capability table. It never fails, so it terminates the waterfall.
type StaticSource struct {
	providers []domain.Provider
}

func NewStaticSource(providers []domain.Provider) *StaticSource {
	return &StaticSource{providers: providers}
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Fetch(ctx context.Context) ([]domain.ModelInfo, error) {
	var models []domain.ModelInfo
	for _, p := range s.providers {
		models = append(models, capability.KnownModels(p)...)
	}
	return models, nil
}
