package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/nulzo/image-router-api/internal/core/ports"
	"github.com/nulzo/image-router-api/internal/httpclient"
)

// LocalStore writes generated images to a flat directory and serves them
// through the /images static route.
type LocalStore struct {
	dir     string
	baseURL string
	client  *http.Client
}

func NewLocalStore(dir, baseURL string) (ports.ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *LocalStore) SaveImage(ctx context.Context, data []byte, extension string) (string, error) {
	filename := fmt.Sprintf("%s.%s", uuid.New().String(), extension)
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return fmt.Sprintf("%s/images/%s", s.baseURL, filename), nil
}

// GetImage resolves a URL back to bytes. URLs under this service's base
// (or bare /images/ paths) read from disk; anything else is fetched over
// HTTP.
func (s *LocalStore) GetImage(ctx context.Context, url string) ([]byte, error) {
	if strings.HasPrefix(url, s.baseURL) || strings.HasPrefix(url, "/images/") {
		filename := path.Base(url)
		data, err := os.ReadFile(filepath.Join(s.dir, filename))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, domain.NotFoundError("image not found: " + filename)
			}
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &httpclient.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       body,
			URL:        url,
		}
	}

	return io.ReadAll(resp.Body)
}
