package routing

import (
	"github.com/nulzo/image-router-api/internal/core/domain"
	"go.uber.org/zap"
)

// gatewayGaps maps a vendor to a predicate over the requested aspect ratio
// that holds when the unified proxy cannot honor the request for that
// vendor. Currently the proxy silently drops aspect ratio for Gemini
// models, so any non-square ratio needs the direct API.
var gatewayGaps = map[domain.Provider]func(aspectRatio string) bool{
	domain.ProviderGemini: func(aspectRatio string) bool {
		return aspectRatio != "1:1"
	},
}

// Selector decides whether a request should bypass the gateway and call
// the vendor API directly.
type Selector struct {
	enabled   bool
	available func(domain.Provider) bool
	logger    *zap.Logger
}

// NewSelector builds a selector. The available func maps a provider
// variant to its configured-credentials check (config.ProviderAvailable).
func NewSelector(enabled bool, available func(domain.Provider) bool, logger *zap.Logger) *Selector {
	return &Selector{
		enabled:   enabled,
		available: available,
		logger:    logger,
	}
}

// ShouldUseDirectFallback reports whether the model and aspect ratio hit a
// known gateway gap that the configured direct credentials can cover.
//
// When the gap holds but the vendor credentials are absent, the request
// stays on the gateway path and a warning records that the result may not
// honor the requested aspect ratio.
func (s *Selector) ShouldUseDirectFallback(modelID, aspectRatio string) bool {
	if !s.enabled {
		return false
	}

	vendor := domain.InferProvider(modelID)
	gap, known := gatewayGaps[vendor]
	if !known || !gap(aspectRatio) {
		return false
	}

	if s.available(vendor) {
		return true
	}

	s.logger.Warn("direct provider fallback enabled but vendor credentials are missing; staying on gateway path",
		zap.String("model", modelID),
		zap.String("provider", string(vendor)),
		zap.String("aspect_ratio", aspectRatio),
	)
	return false
}
