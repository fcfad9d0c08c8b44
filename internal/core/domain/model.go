package domain

import "strings"

// Provider identifies a routing target for an image request. The gateway
// value ("litellm") is the unified proxy; the vendor values are used for
// direct API calls when the gateway lacks a feature.
type Provider string

const (
	ProviderGateway Provider = "litellm"
	ProviderOpenAI  Provider = "openai"
	ProviderGemini  Provider = "gemini"
	ProviderUnknown Provider = "unknown"
)

// EditingType describes how a model accepts edit requests.
type EditingType string

const (
	EditingNone   EditingType = "none"
	EditingMask   EditingType = "mask"   // requires a mask image
	EditingPrompt EditingType = "prompt" // text-only inpainting
)

// AspectRatios is the canonical set of ratios accepted by the API.
var AspectRatios = []string{"1:1", "16:9", "9:16", "4:3", "3:4"}

// ModelCapabilities declares what a model supports.
// Invariant: EditingType != EditingNone exactly when SupportsEditing is true.
type ModelCapabilities struct {
	SupportsQuality bool        `json:"supports_quality"`
	AspectRatios    []string    `json:"supported_aspect_ratios"`
	MaxBatchSize    int         `json:"max_batch_size"`
	SupportsEditing bool        `json:"supports_editing"`
	EditingType     EditingType `json:"editing_type"`
}

// SupportsAspectRatio reports whether the given ratio is declared.
func (c ModelCapabilities) SupportsAspectRatio(ratio string) bool {
	for _, r := range c.AspectRatios {
		if r == ratio {
			return true
		}
	}
	return false
}

// ModelInfo is a model listing entry. Identity key is ID.
type ModelInfo struct {
	ID           string            `json:"id"`
	Provider     Provider          `json:"provider"`
	Capabilities ModelCapabilities `json:"capabilities"`
}

// providerMarkers maps id substrings to vendors. Used when a model id comes
// from the live gateway listing and carries no explicit provider.
var providerMarkers = []struct {
	marker   string
	provider Provider
}{
	{"dall-e", ProviderOpenAI},
	{"gpt-image", ProviderOpenAI},
	{"gemini", ProviderGemini},
	{"imagen", ProviderGemini},
}

// InferProvider determines the vendor behind a model id.
func InferProvider(modelID string) Provider {
	lower := strings.ToLower(modelID)
	for _, m := range providerMarkers {
		if strings.Contains(lower, m.marker) {
			return m.provider
		}
	}
	return ProviderUnknown
}

// ParseProvider normalizes a request-supplied provider string.
func ParseProvider(s string) Provider {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "litellm", "gateway":
		return ProviderGateway
	case "openai":
		return ProviderOpenAI
	case "gemini", "google":
		return ProviderGemini
	default:
		return ProviderUnknown
	}
}

// StripVendorPrefix removes a gateway-style "vendor/" prefix from a model id
// so it can be sent to a direct vendor API ("gemini/model-x" -> "model-x").
func StripVendorPrefix(modelID string) string {
	if i := strings.Index(modelID, "/"); i != -1 {
		return modelID[i+1:]
	}
	return modelID
}
