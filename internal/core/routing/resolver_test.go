package routing

import (
	"testing"

	"github.com/nulzo/image-router-api/internal/core/capability"
	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

// fakeLookup is a fixed snapshot standing in for the registry.
type fakeLookup struct {
	models []domain.ModelInfo
}

func (f *fakeLookup) GetModels() []domain.ModelInfo { return f.models }

func (f *fakeLookup) GetModel(id string) (domain.ModelInfo, bool) {
	for _, m := range f.models {
		if m.ID == id {
			return m, true
		}
	}
	return domain.ModelInfo{}, false
}

func snapshot(ids ...string) *fakeLookup {
	f := &fakeLookup{}
	for _, id := range ids {
		f.models = append(f.models, domain.ModelInfo{
			ID:           id,
			Provider:     domain.InferProvider(id),
			Capabilities: capability.Lookup(id),
		})
	}
	return f
}

func TestResolveDefault_ConfiguredDefaultWins(t *testing.T) {
	r := NewResolver("dall-e-2", snapshot("dall-e-3"))

	assert.Equal(t, "dall-e-2", r.ResolveDefault(domain.ProviderGateway, false))
}

func TestResolveDefault_ConfiguredDefaultSkippedWhenEditingRequired(t *testing.T) {
	// dall-e-3 cannot edit; the snapshot holds a model that can
	r := NewResolver("dall-e-3", snapshot("dall-e-3", "gpt-image-1"))

	assert.Equal(t, "gpt-image-1", r.ResolveDefault(domain.ProviderGateway, true))
}

func TestResolveDefault_SnapshotScanMatchesVendor(t *testing.T) {
	r := NewResolver("", snapshot("dall-e-3", "gemini-2.0-flash-preview-image-generation"))

	assert.Equal(t, "gemini-2.0-flash-preview-image-generation",
		r.ResolveDefault(domain.ProviderGemini, false))
	assert.Equal(t, "dall-e-3", r.ResolveDefault(domain.ProviderOpenAI, false))
}

func TestResolveDefault_GatewayMatchesAnyVendor(t *testing.T) {
	r := NewResolver("", snapshot("gemini-2.0-flash-preview-image-generation"))

	assert.Equal(t, "gemini-2.0-flash-preview-image-generation",
		r.ResolveDefault(domain.ProviderGateway, false))
}

func TestResolveDefault_EmptySnapshotFallsBackToHardcoded(t *testing.T) {
	r := NewResolver("", snapshot())

	assert.Equal(t, "dall-e-3", r.ResolveDefault(domain.ProviderGateway, false))
	assert.Equal(t, "dall-e-3", r.ResolveDefault(domain.ProviderOpenAI, false))
	assert.Equal(t, "gemini-2.0-flash-preview-image-generation",
		r.ResolveDefault(domain.ProviderGemini, false))
}

func TestResolveDefault_EditingFallbacks(t *testing.T) {
	r := NewResolver("", snapshot("dall-e-3")) // cannot edit

	assert.Equal(t, "gpt-image-1", r.ResolveDefault(domain.ProviderGateway, true))
	assert.Equal(t, "gpt-image-1", r.ResolveDefault(domain.ProviderOpenAI, true))
	assert.Equal(t, "gemini-2.0-flash-preview-image-generation",
		r.ResolveDefault(domain.ProviderGemini, true))
}
