package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
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
	cfg.Gemini.APIKey = "sk-gemini"
	cfg.Gemini.BaseURL = baseURL

	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8000")
	require.NoError(t, err)

	reg := registry.New(time.Minute, []registry.Source{
		registry.NewStaticSource([]domain.Provider{domain.ProviderGemini}),
	}, nil, zap.NewNop())
	reg.Load(context.Background(), false)

	return imaging.Deps{Config: cfg, Registry: reg, Store: store}
}

func imagePayload(mime string) string {
	data := base64.StdEncoding.EncodeToString([]byte("image bytes"))
	return `{"candidates": [{"content": {"parts": [
		{"text": "here you go"},
		{"inlineData": {"mimeType": "` + mime + `", "data": "` + data + `"}}
	]}}]}`
}

func TestGenerate_CallsGenerateContent(t *testing.T) {
	var calls int32
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash-preview-image-generation:generateContent", r.URL.Path)
		assert.Equal(t, "sk-gemini", r.Header.Get("x-goog-api-key"))
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(imagePayload("image/png")))
	}))
	defer srv.Close()

	adapter, err := NewAdapter(newDeps(t, srv.URL))
	require.NoError(t, err)

	urls, err := adapter.Generate(context.Background(), imaging.GenerateParams{
		Prompt:      "a fox",
		Model:       "gemini-2.0-flash-preview-image-generation",
		AspectRatio: "16:9",
		N:           1,
	})
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Contains(t, urls[0], ".png")

	genConfig := gotBody["generationConfig"].(map[string]interface{})
	assert.Equal(t, []interface{}{"IMAGE"}, genConfig["responseModalities"])
	imgConfig := genConfig["imageConfig"].(map[string]interface{})
	assert.Equal(t, "16:9", imgConfig["aspectRatio"])
}

func TestGenerate_LoopsPerImage(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(imagePayload("image/png")))
	}))
	defer srv.Close()

	adapter, err := NewAdapter(newDeps(t, srv.URL))
	require.NoError(t, err)

	urls, err := adapter.Generate(context.Background(), imaging.GenerateParams{
		Prompt: "a fox",
		Model:  "gemini-2.0-flash-preview-image-generation",
		N:      3,
	})
	require.NoError(t, err)
	assert.Len(t, urls, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGenerate_ExtensionFollowsMimeType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(imagePayload("image/webp")))
	}))
	defer srv.Close()

	adapter, err := NewAdapter(newDeps(t, srv.URL))
	require.NoError(t, err)

	urls, err := adapter.Generate(context.Background(), imaging.GenerateParams{
		Prompt: "a fox", Model: "gemini-2.0-flash-preview-image-generation", N: 1,
	})
	require.NoError(t, err)
	assert.Contains(t, urls[0], ".webp")
}

func TestEdit_SendsInlineImage(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(imagePayload("image/png")))
	}))
	defer srv.Close()

	adapter, err := NewAdapter(newDeps(t, srv.URL))
	require.NoError(t, err)

	source := []byte("source image")
	urls, err := adapter.Edit(context.Background(), imaging.EditParams{
		Image:  source,
		Prompt: "make it blue",
		Model:  "gemini-2.0-flash-preview-image-generation",
		N:      1,
	})
	require.NoError(t, err)
	require.Len(t, urls, 1)

	contents := gotBody["contents"].([]interface{})
	parts := contents[0].(map[string]interface{})["parts"].([]interface{})
	require.Len(t, parts, 2)

	assert.Equal(t, "make it blue", parts[0].(map[string]interface{})["text"])
	inline := parts[1].(map[string]interface{})["inlineData"].(map[string]interface{})
	assert.Equal(t, base64.StdEncoding.EncodeToString(source), inline["data"])
}

func TestGenerate_NoImagesInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "sorry"}]}}]}`))
	}))
	defer srv.Close()

	adapter, err := NewAdapter(newDeps(t, srv.URL))
	require.NoError(t, err)

	_, err = adapter.Generate(context.Background(), imaging.GenerateParams{
		Prompt: "a fox", Model: "gemini-2.0-flash-preview-image-generation", N: 1,
	})
	require.Error(t, err)

	var domErr *domain.Error
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, http.StatusBadGateway, domErr.Code)
}

func TestNewAdapter_RequiresAPIKey(t *testing.T) {
	cfg := &config.Config{}
	_, err := NewAdapter(imaging.Deps{Config: cfg})
	assert.Error(t, err)
}
