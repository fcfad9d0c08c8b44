package routing

import (
	"github.com/nulzo/image-router-api/internal/core/capability"
	"github.com/nulzo/image-router-api/internal/core/domain"
)

// Last-resort defaults used when neither the configured default nor the
// registry snapshot yields a usable model.
const (
	defaultGenerationModel       = "dall-e-3"
	defaultEditModel             = "gpt-image-1"
	defaultGeminiGenerationModel = "gemini-2.0-flash-preview-image-generation"
)

// ModelLookup is the registry surface the resolver needs.
type ModelLookup interface {
	GetModels() []domain.ModelInfo
	GetModel(id string) (domain.ModelInfo, bool)
}

// Resolver picks a concrete model id when a request does not name one.
type Resolver struct {
	defaultModel string
	models       ModelLookup
}

func NewResolver(defaultModel string, models ModelLookup) *Resolver {
	return &Resolver{
		defaultModel: defaultModel,
		models:       models,
	}
}

// ResolveDefault returns a model id for the provider. The waterfall never
// fails: configured default, then the first snapshot model matching the
// constraints, then a hardcoded per-vendor last resort.
func (r *Resolver) ResolveDefault(provider domain.Provider, requireEditing bool) string {
	if r.defaultModel != "" {
		if !requireEditing || r.capsFor(r.defaultModel).SupportsEditing {
			return r.defaultModel
		}
	}

	for _, m := range r.models.GetModels() {
		if requireEditing && !m.Capabilities.SupportsEditing {
			continue
		}
		// The gateway provider value matches any vendor.
		if provider != domain.ProviderGateway && m.Provider != provider {
			continue
		}
		return m.ID
	}

	if requireEditing {
		if provider == domain.ProviderGemini {
			return defaultGeminiGenerationModel
		}
		return defaultEditModel
	}
	if provider == domain.ProviderGemini {
		return defaultGeminiGenerationModel
	}
	return defaultGenerationModel
}

// capsFor consults the snapshot first and falls back to the static table,
// so a configured default that the gateway does not list still resolves.
func (r *Resolver) capsFor(modelID string) domain.ModelCapabilities {
	if m, ok := r.models.GetModel(modelID); ok {
		return m.Capabilities
	}
	return capability.Lookup(modelID)
}
