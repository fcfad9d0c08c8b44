package openai

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
	"github.com/nulzo/image-router-api/internal/imaging"
	"github.com/nulzo/image-router-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDeps(t *testing.T, baseURL string) imaging.Deps {
	t.Helper()

	cfg := &config.Config{}
	cfg.OpenAI.APIKey = "sk-openai"
	cfg.OpenAI.BaseURL = baseURL

	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8000")
	require.NoError(t, err)

	reg := registry.New(time.Minute, []registry.Source{
		registry.NewStaticSource([]domain.Provider{domain.ProviderOpenAI}),
	}, nil, zap.NewNop())
	reg.Load(context.Background(), false)

	return imaging.Deps{Config: cfg, Registry: reg, Store: store}
}

func TestSizeFor_PerModelTables(t *testing.T) {
	assert.Equal(t, "1792x1024", sizeFor("dall-e-3", "16:9"))
	assert.Equal(t, "1024x1792", sizeFor("dall-e-3", "9:16"))
	// dall-e-2 only does squares
	assert.Equal(t, "1024x1024", sizeFor("dall-e-2", "16:9"))
	assert.Equal(t, "1536x1024", sizeFor("gpt-image-1", "16:9"))
	// Unknown models borrow the gpt-image-1 table
	assert.Equal(t, "1024x1536", sizeFor("future-model", "3:4"))
	assert.Equal(t, "1024x1024", sizeFor("dall-e-3", ""))
}

func TestGenerate_SendsAuthAndBody(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		b64 := base64.StdEncoding.EncodeToString([]byte("png"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"b64_json": "` + b64 + `"}]}`))
	}))
	defer srv.Close()

	adapter, err := NewAdapter(newDeps(t, srv.URL))
	require.NoError(t, err)

	urls, err := adapter.Generate(context.Background(), imaging.GenerateParams{
		Prompt:      "a fox",
		Model:       "dall-e-3",
		AspectRatio: "16:9",
		Quality:     "hd",
		N:           4, // clamped to 1 for dall-e-3
	})
	require.NoError(t, err)
	require.Len(t, urls, 1)

	assert.Equal(t, "Bearer sk-openai", gotAuth)
	assert.Equal(t, "dall-e-3", gotBody["model"])
	assert.Equal(t, "1792x1024", gotBody["size"])
	assert.Equal(t, "hd", gotBody["quality"])
	assert.Equal(t, float64(1), gotBody["n"])
}

func TestGenerate_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Incorrect API key provided"}}`))
	}))
	defer srv.Close()

	adapter, err := NewAdapter(newDeps(t, srv.URL))
	require.NoError(t, err)

	_, err = adapter.Generate(context.Background(), imaging.GenerateParams{
		Prompt: "a fox", Model: "dall-e-3", N: 1,
	})
	require.Error(t, err)

	var domErr *domain.Error
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, http.StatusBadGateway, domErr.Code)
	assert.Contains(t, domErr.Message, "Incorrect API key")
}

func TestNewAdapter_RequiresAPIKey(t *testing.T) {
	cfg := &config.Config{}
	_, err := NewAdapter(imaging.Deps{Config: cfg})
	assert.Error(t, err)
}
