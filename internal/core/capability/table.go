package capability

import (
	"strings"

	"github.com/nulzo/image-router-api/internal/core/domain"
)

// entry pairs a known model id with its declared capabilities. The table is
// kept as an ordered slice so the static model listing preserves a stable
// declaration order.
type entry struct {
	id       string
	provider domain.Provider
	caps     domain.ModelCapabilities
}

var table = []entry{
	{
		id:       "dall-e-3",
		provider: domain.ProviderOpenAI,
		caps: domain.ModelCapabilities{
			SupportsQuality: true,
			AspectRatios:    []string{"1:1", "16:9", "9:16"},
			MaxBatchSize:    1,
			SupportsEditing: false,
			EditingType:     domain.EditingNone,
		},
	},
	{
		id:       "gpt-image-1",
		provider: domain.ProviderOpenAI,
		caps: domain.ModelCapabilities{
			SupportsQuality: false,
			AspectRatios:    []string{"1:1", "16:9", "9:16"},
			MaxBatchSize:    4,
			SupportsEditing: true,
			EditingType:     domain.EditingMask,
		},
	},
	{
		id:       "dall-e-2",
		provider: domain.ProviderOpenAI,
		caps: domain.ModelCapabilities{
			SupportsQuality: false,
			AspectRatios:    []string{"1:1"},
			MaxBatchSize:    4,
			SupportsEditing: true,
			EditingType:     domain.EditingMask,
		},
	},
	{
		id:       "gemini-2.0-flash-preview-image-generation",
		provider: domain.ProviderGemini,
		caps: domain.ModelCapabilities{
			SupportsQuality: false,
			AspectRatios:    []string{"1:1", "16:9", "9:16", "4:3", "3:4"},
			MaxBatchSize:    4,
			SupportsEditing: true,
			EditingType:     domain.EditingPrompt,
		},
	},
	{
		id:       "imagen-3.0-generate-002",
		provider: domain.ProviderGemini,
		caps: domain.ModelCapabilities{
			SupportsQuality: false,
			AspectRatios:    []string{"1:1", "16:9", "9:16", "4:3", "3:4"},
			MaxBatchSize:    4,
			SupportsEditing: false,
			EditingType:     domain.EditingNone,
		},
	},
}

// Default is the permissive fallback for models the table does not know.
// The system favors availability over strict validation, so unknown models
// are assumed to accept every aspect ratio and a full batch.
func Default() domain.ModelCapabilities {
	return domain.ModelCapabilities{
		SupportsQuality: false,
		AspectRatios:    append([]string(nil), domain.AspectRatios...),
		MaxBatchSize:    4,
		SupportsEditing: false,
		EditingType:     domain.EditingNone,
	}
}

// Lookup resolves capabilities for an arbitrary model id.
//
// Resolution order: exact match, then case-insensitive substring match
// (a known id contained within the queried id), then the permissive
// default. When several known ids are substrings of the query, the
// longest one wins so that e.g. "dall-e-3" beats "dall-e" style overlaps
// deterministically.
func Lookup(modelID string) domain.ModelCapabilities {
	for _, e := range table {
		if e.id == modelID {
			return e.caps
		}
	}

	lower := strings.ToLower(modelID)
	best := -1
	for i, e := range table {
		if strings.Contains(lower, strings.ToLower(e.id)) {
			if best == -1 || len(e.id) > len(table[best].id) {
				best = i
			}
		}
	}
	if best != -1 {
		return table[best].caps
	}

	return Default()
}

// KnownModels returns the static listing for a vendor, in declaration
// order. Used by the registry when the live gateway listing is
// unavailable.
func KnownModels(provider domain.Provider) []domain.ModelInfo {
	var models []domain.ModelInfo
	for _, e := range table {
		if e.provider != provider {
			continue
		}
		models = append(models, domain.ModelInfo{
			ID:           e.id,
			Provider:     e.provider,
			Capabilities: e.caps,
		})
	}
	return models
}
