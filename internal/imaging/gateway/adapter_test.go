package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nulzo/image-router-api/internal/config"
	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/nulzo/image-router-api/internal/core/registry"
	"github.com/nulzo/image-router-api/internal/core/routing"
	"github.com/nulzo/image-router-api/internal/imaging"
	"github.com/nulzo/image-router-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngB64 = base64.StdEncoding.EncodeToString([]byte("not really a png"))

type recordedRequest struct {
	path string
	body map[string]interface{}
}

func newDeps(t *testing.T, upstreamURL string, fallbackEnabled bool, direct map[domain.Provider]imaging.Service) imaging.Deps {
	t.Helper()

	cfg := &config.Config{}
	cfg.Gateway.BaseURL = upstreamURL
	cfg.Gateway.APIKey = "sk-gw"
	if _, ok := direct[domain.ProviderGemini]; ok {
		cfg.Gemini.APIKey = "sk-gemini"
	}

	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8000")
	require.NoError(t, err)

	reg := registry.New(time.Minute, []registry.Source{
		registry.NewStaticSource([]domain.Provider{domain.ProviderOpenAI, domain.ProviderGemini}),
	}, nil, zap.NewNop())
	reg.Load(context.Background(), false)

	return imaging.Deps{
		Config:   cfg,
		Registry: reg,
		Selector: routing.NewSelector(fallbackEnabled, cfg.ProviderAvailable, zap.NewNop()),
		Store:    store,
		Direct:   direct,
	}
}

func newUpstream(t *testing.T, rec *recordedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.path = r.URL.Path
		if r.Header.Get("Content-Type") == "application/json" {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		assert.Equal(t, "Bearer sk-gw", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"b64_json": "` + pngB64 + `"}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate_PostsToImagesEndpoint(t *testing.T) {
	var rec recordedRequest
	srv := newUpstream(t, &rec)
	adapter, err := NewAdapter(newDeps(t, srv.URL, false, nil))
	require.NoError(t, err)

	urls, err := adapter.Generate(context.Background(), imaging.GenerateParams{
		Prompt:      "a fox",
		Model:       "dall-e-3",
		AspectRatio: "16:9",
		Quality:     "hd",
		N:           1,
	})
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Contains(t, urls[0], "http://localhost:8000/images/")

	assert.Equal(t, "/v1/images/generations", rec.path)
	assert.Equal(t, "dall-e-3", rec.body["model"])
	assert.Equal(t, "1792x1024", rec.body["size"])
	assert.Equal(t, "b64_json", rec.body["response_format"])
	// dall-e-3 declares quality support
	assert.Equal(t, "hd", rec.body["quality"])
}

func TestGenerate_QualityOmittedForUnsupportedModel(t *testing.T) {
	var rec recordedRequest
	srv := newUpstream(t, &rec)
	adapter, err := NewAdapter(newDeps(t, srv.URL, false, nil))
	require.NoError(t, err)

	_, err = adapter.Generate(context.Background(), imaging.GenerateParams{
		Prompt:  "a fox",
		Model:   "gpt-image-1",
		Quality: "hd",
		N:       1,
	})
	require.NoError(t, err)

	_, present := rec.body["quality"]
	assert.False(t, present)
}

func TestGenerate_ClampsBatchToModelMax(t *testing.T) {
	var rec recordedRequest
	srv := newUpstream(t, &rec)
	adapter, err := NewAdapter(newDeps(t, srv.URL, false, nil))
	require.NoError(t, err)

	_, err = adapter.Generate(context.Background(), imaging.GenerateParams{
		Prompt: "a fox",
		Model:  "dall-e-3", // max batch 1
		N:      4,
	})
	require.NoError(t, err)

	assert.Equal(t, float64(1), rec.body["n"])
}

type fakeDirect struct {
	lastModel     string
	lastEditModel string
}

func (f *fakeDirect) Name() string { return "gemini" }

func (f *fakeDirect) Generate(ctx context.Context, p imaging.GenerateParams) ([]string, error) {
	f.lastModel = p.Model
	return []string{"http://localhost:8000/images/direct.png"}, nil
}

func (f *fakeDirect) Edit(ctx context.Context, p imaging.EditParams) ([]string, error) {
	f.lastEditModel = p.Model
	return []string{"http://localhost:8000/images/direct-edit.png"}, nil
}

func TestGenerate_DirectFallbackForGeminiAspectRatio(t *testing.T) {
	var rec recordedRequest
	srv := newUpstream(t, &rec)

	direct := &fakeDirect{}
	deps := newDeps(t, srv.URL, true, map[domain.Provider]imaging.Service{
		domain.ProviderGemini: direct,
	})
	adapter, err := NewAdapter(deps)
	require.NoError(t, err)

	urls, err := adapter.Generate(context.Background(), imaging.GenerateParams{
		Prompt:      "a fox",
		Model:       "gemini/gemini-2.0-flash-preview-image-generation",
		AspectRatio: "16:9",
		N:           1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:8000/images/direct.png"}, urls)

	// Vendor prefix is stripped before handing off
	assert.Equal(t, "gemini-2.0-flash-preview-image-generation", direct.lastModel)
	// The gateway itself was never called
	assert.Empty(t, rec.path)
}

func TestGenerate_FallbackGapWithoutDirectService(t *testing.T) {
	deps := newDeps(t, "http://unused.local", true, map[domain.Provider]imaging.Service{})
	deps.Config.Gemini.APIKey = "sk-gemini" // credentials present, service missing
	adapter, err := NewAdapter(deps)
	require.NoError(t, err)

	_, err = adapter.Generate(context.Background(), imaging.GenerateParams{
		Prompt:      "a fox",
		Model:       "gemini-2.0-flash-preview-image-generation",
		AspectRatio: "16:9",
		N:           1,
	})
	require.Error(t, err)

	var domErr *domain.Error
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, http.StatusBadGateway, domErr.Code)
}

func TestGenerate_UpstreamErrorSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "content policy violation", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	adapter, err := NewAdapter(newDeps(t, srv.URL, false, nil))
	require.NoError(t, err)

	_, err = adapter.Generate(context.Background(), imaging.GenerateParams{
		Prompt: "something", Model: "dall-e-3", N: 1,
	})
	require.Error(t, err)

	var domErr *domain.Error
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, http.StatusBadGateway, domErr.Code)
	assert.Contains(t, domErr.Message, "content policy violation")
}

func TestEdit_SendsMultipart(t *testing.T) {
	var gotModel, gotPrompt string
	var hasImage, hasMask bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/edits", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(10<<20))

		gotModel = r.FormValue("model")
		gotPrompt = r.FormValue("prompt")
		_, _, imgErr := r.FormFile("image")
		hasImage = imgErr == nil
		_, _, maskErr := r.FormFile("mask")
		hasMask = maskErr == nil

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"b64_json": "` + pngB64 + `"}]}`))
	}))
	defer srv.Close()

	adapter, err := NewAdapter(newDeps(t, srv.URL, false, nil))
	require.NoError(t, err)

	urls, err := adapter.Edit(context.Background(), imaging.EditParams{
		Image:  []byte("source"),
		Mask:   []byte("mask"),
		Prompt: "make it blue",
		Model:  "gpt-image-1",
		N:      1,
	})
	require.NoError(t, err)
	require.Len(t, urls, 1)

	assert.Equal(t, "gpt-image-1", gotModel)
	assert.Equal(t, "make it blue", gotPrompt)
	assert.True(t, hasImage)
	assert.True(t, hasMask)
}

func TestEdit_PromptEditingModelRoutesDirect(t *testing.T) {
	var rec recordedRequest
	srv := newUpstream(t, &rec)

	direct := &fakeDirect{}
	deps := newDeps(t, srv.URL, false, map[domain.Provider]imaging.Service{
		domain.ProviderGemini: direct,
	})
	deps.Config.Fallback.Editing = true
	adapter, err := NewAdapter(deps)
	require.NoError(t, err)

	urls, err := adapter.Edit(context.Background(), imaging.EditParams{
		Image:  []byte("source"),
		Prompt: "add a hat",
		Model:  "gemini/gemini-2.0-flash-preview-image-generation",
		N:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:8000/images/direct-edit.png"}, urls)

	// vendor prefix is stripped and the gateway never sees the request
	assert.Equal(t, "gemini-2.0-flash-preview-image-generation", direct.lastEditModel)
	assert.Empty(t, rec.path)
}

func TestEdit_PromptEditingStaysOnGatewayWhenDisabled(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		gotModel = r.FormValue("model")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"b64_json": "` + pngB64 + `"}]}`))
	}))
	defer srv.Close()

	direct := &fakeDirect{}
	deps := newDeps(t, srv.URL, false, map[domain.Provider]imaging.Service{
		domain.ProviderGemini: direct,
	})
	adapter, err := NewAdapter(deps)
	require.NoError(t, err)

	_, err = adapter.Edit(context.Background(), imaging.EditParams{
		Image:  []byte("source"),
		Prompt: "add a hat",
		Model:  "gemini/gemini-2.0-flash-preview-image-generation",
		N:      1,
	})
	require.NoError(t, err)

	assert.Equal(t, "gemini/gemini-2.0-flash-preview-image-generation", gotModel)
	assert.Empty(t, direct.lastEditModel)
}

func TestNewAdapter_RequiresBaseURL(t *testing.T) {
	deps := newDeps(t, "", false, nil)
	_, err := NewAdapter(deps)
	assert.Error(t, err)
}
