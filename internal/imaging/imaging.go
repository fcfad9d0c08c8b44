package imaging

import (
	"context"
	"fmt"
	"sync"

	"github.com/nulzo/image-router-api/internal/config"
	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/nulzo/image-router-api/internal/core/ports"
	"github.com/nulzo/image-router-api/internal/core/registry"
	"github.com/nulzo/image-router-api/internal/core/routing"
)

// GenerateParams are the already-validated inputs for a generation call.
type GenerateParams struct {
	Prompt      string
	Model       string
	AspectRatio string
	Quality     string
	N           int
}

// EditParams are the already-validated inputs for an edit call. Mask is
// nil for prompt-based editing.
type EditParams struct {
	Image  []byte
	Mask   []byte
	Prompt string
	Model  string
	N      int
}

// Service generates and edits images through one backend, persisting the
// results and returning their public URLs.
type Service interface {
	Name() string
	Generate(ctx context.Context, p GenerateParams) ([]string, error)
	Edit(ctx context.Context, p EditParams) ([]string, error)
}

// Deps carries everything an adapter constructor may need. Direct holds
// the vendor services the gateway adapter falls back to.
type Deps struct {
	Config   *config.Config
	Registry *registry.Registry
	Selector *routing.Selector
	Store    ports.ImageStore
	Direct   map[domain.Provider]Service
}

type Factory func(deps Deps) (Service, error)

var (
	mu        sync.RWMutex
	factories = make(map[domain.Provider]Factory)
)

// Register adds a factory for a provider. Called from adapter init().
func Register(p domain.Provider, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[p]; exists {
		panic(fmt.Sprintf("imaging factory %s already registered", p))
	}
	factories[p] = f
}

// Create instantiates the service registered for a provider.
func Create(p domain.Provider, deps Deps) (Service, error) {
	mu.RLock()
	f, ok := factories[p]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("imaging factory not found for provider: %s", p)
	}
	return f(deps)
}
