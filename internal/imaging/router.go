package imaging

import (
	"github.com/nulzo/image-router-api/internal/config"
	"github.com/nulzo/image-router-api/internal/core/domain"
)

// Router hands the request layer the service for a provider, rejecting
// providers whose credentials are not configured.
type Router struct {
	cfg      *config.Config
	services map[domain.Provider]Service
}

func NewRouter(cfg *config.Config, services map[domain.Provider]Service) *Router {
	return &Router{cfg: cfg, services: services}
}

// ServiceFor resolves a provider to its imaging service. Configuration
// errors surface as client rejections and are never retried.
func (r *Router) ServiceFor(p domain.Provider) (Service, error) {
	switch p {
	case domain.ProviderGateway:
		if !r.cfg.GatewayAvailable() {
			return nil, domain.ConfigError("gateway not configured. Set GATEWAY_BASE_URL")
		}
	case domain.ProviderOpenAI:
		if !r.cfg.OpenAIAvailable() {
			return nil, domain.ConfigError("OpenAI not configured. Set OPENAI_API_KEY")
		}
	case domain.ProviderGemini:
		if !r.cfg.GeminiAvailable() {
			return nil, domain.ConfigError("Gemini not configured. Set GEMINI_API_KEY")
		}
	default:
		return nil, domain.BadRequestError("unknown provider: " + string(p))
	}

	svc, ok := r.services[p]
	if !ok {
		return nil, domain.InternalError("provider configured but not initialized", nil)
	}
	return svc, nil
}
