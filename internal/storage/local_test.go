package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/nulzo/image-router-api/internal/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveImage_RoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://localhost:8000")
	require.NoError(t, err)

	payload := []byte("fake png bytes")
	url, err := store.SaveImage(context.Background(), payload, "png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "http://localhost:8000/images/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	data, err := store.GetImage(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestSaveImage_UniqueFilenames(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://localhost:8000")
	require.NoError(t, err)

	a, err := store.SaveImage(context.Background(), []byte("a"), "png")
	require.NoError(t, err)
	b, err := store.SaveImage(context.Background(), []byte("b"), "png")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestGetImage_BarePathReadsDisk(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://localhost:8000")
	require.NoError(t, err)

	url, err := store.SaveImage(context.Background(), []byte("data"), "png")
	require.NoError(t, err)

	// The same file is reachable through a relative path
	rel := "/images/" + url[strings.LastIndex(url, "/")+1:]
	data, err := store.GetImage(context.Background(), rel)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
}

func TestGetImage_MissingLocalFile(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://localhost:8000")
	require.NoError(t, err)

	_, err = store.GetImage(context.Background(), "/images/nope.png")
	require.Error(t, err)

	var domErr *domain.Error
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, http.StatusNotFound, domErr.Code)
}

func TestGetImage_RemoteURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote bytes"))
	}))
	defer srv.Close()

	store, err := NewLocalStore(t.TempDir(), "http://localhost:8000")
	require.NoError(t, err)

	data, err := store.GetImage(context.Background(), srv.URL+"/some/image.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("remote bytes"), data)
}

func TestGetImage_RemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	store, err := NewLocalStore(t.TempDir(), "http://localhost:8000")
	require.NoError(t, err)

	_, err = store.GetImage(context.Background(), srv.URL+"/image.png")
	require.Error(t, err)

	var upErr *httpclient.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusForbidden, upErr.StatusCode)
}
