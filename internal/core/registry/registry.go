package registry

import (
	"context"
	"sync"
	"time"

	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/nulzo/image-router-api/internal/core/ports"
	"go.uber.org/zap"
)

const snapshotCacheKey = "registry:model_snapshot"

// Registry holds the cached model listing. It is constructed once at
// startup and handed to the request layer; the snapshot plus timestamp is
// the only shared mutable state, guarded by the RWMutex. There is no
// single-flight on reloads: concurrent forced loads may both fetch, which
// is acceptable since the upstream call is an idempotent read.
type Registry struct {
	ttl     time.Duration
	sources []Source
	cache   ports.CacheService // write-through target, may be nil
	logger  *zap.Logger

	mu        sync.RWMutex
	models    []domain.ModelInfo
	fetchedAt time.Time // zero until the first completed load
}

func New(ttl time.Duration, sources []Source, cache ports.CacheService, logger *zap.Logger) *Registry {
	return &Registry{
		ttl:     ttl,
		sources: sources,
		cache:   cache,
		logger:  logger,
	}
}

// Load returns the model listing, refreshing it when forced or expired.
//
// The sources are tried in order and the first success is adopted. A
// failed live fetch is logged and absorbed; the terminal static source
// cannot fail, so Load never returns an error. The snapshot and timestamp
// are always reassigned on a refresh, fallback included, so the TTL clock
// resets and failing upstream calls are not repeated within the window.
func (r *Registry) Load(ctx context.Context, force bool) []domain.ModelInfo {
	if !force && r.IsValid() {
		r.logger.Debug("returning cached model snapshot")
		return r.GetModels()
	}

	var models []domain.ModelInfo
	var adopted string
	for _, src := range r.sources {
		fetched, err := src.Fetch(ctx)
		if err != nil {
			r.logger.Warn("model source failed",
				zap.String("source", src.Name()),
				zap.Error(err),
			)
			continue
		}
		models = fetched
		adopted = src.Name()
		break
	}

	r.logger.Info("model snapshot loaded",
		zap.String("source", adopted),
		zap.Int("count", len(models)),
	)

	r.mu.Lock()
	r.models = models
	r.fetchedAt = time.Now()
	r.mu.Unlock()

	// Persist live listings so a restart within the TTL can reuse them.
	if r.cache != nil && adopted == "gateway" {
		if err := r.cache.Set(ctx, snapshotCacheKey, models, r.ttl); err != nil {
			r.logger.Warn("failed to persist model snapshot", zap.Error(err))
		}
	}

	return models
}

// GetModels returns the current snapshot. It never triggers a fetch.
func (r *Registry) GetModels() []domain.ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.models
}

// GetModel looks up a single model by id in the current snapshot.
func (r *Registry) GetModel(id string) (domain.ModelInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.models {
		if m.ID == id {
			return m, true
		}
	}
	return domain.ModelInfo{}, false
}

// IsValid reports whether the snapshot is fresh.
func (r *Registry) IsValid() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.fetchedAt.IsZero() {
		return false
	}
	return time.Since(r.fetchedAt) < r.ttl
}

// Age returns the snapshot age in whole seconds. The second return value
// is false before the first completed load.
func (r *Registry) Age() (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.fetchedAt.IsZero() {
		return 0, false
	}
	return int(time.Since(r.fetchedAt).Seconds()), true
}

// ExpiresIn returns the seconds until the snapshot expires, clamped to 0.
func (r *Registry) ExpiresIn() (int, bool) {
	age, ok := r.Age()
	if !ok {
		return 0, false
	}
	remaining := int(r.ttl.Seconds()) - age
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}
