package config

import (
	"os"
	"testing"
	"time"

	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := LoadConfig()
	assert.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 3600, cfg.Registry.CacheTTL)
	assert.Equal(t, time.Hour, cfg.CacheTTL())
	assert.True(t, cfg.Fallback.DirectProvider)
	assert.True(t, cfg.Fallback.Editing)
	assert.Equal(t, "./generated_images", cfg.Storage.Path)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	os.Clearenv()
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ENV", "test")
	t.Setenv("GATEWAY_BASE_URL", "http://litellm:4000")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("REGISTRY_CACHE_TTL", "60")

	cfg, err := LoadConfig()
	assert.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "test", cfg.Server.Env)
	assert.Equal(t, "http://litellm:4000", cfg.Gateway.BaseURL)
	assert.Equal(t, 60, cfg.Registry.CacheTTL)
}

func TestConfig_Availability(t *testing.T) {
	os.Clearenv()
	t.Setenv("GATEWAY_BASE_URL", "http://litellm:4000")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := LoadConfig()
	assert.NoError(t, err)

	assert.True(t, cfg.GatewayAvailable())
	assert.False(t, cfg.OpenAIAvailable())
	assert.True(t, cfg.GeminiAvailable())

	assert.True(t, cfg.ProviderAvailable(domain.ProviderGateway))
	assert.False(t, cfg.ProviderAvailable(domain.ProviderOpenAI))
	assert.True(t, cfg.ProviderAvailable(domain.ProviderGemini))
	assert.False(t, cfg.ProviderAvailable(domain.ProviderUnknown))
}
