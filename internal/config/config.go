package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	OpenAI   VendorConfig   `mapstructure:"openai"`
	Gemini   VendorConfig   `mapstructure:"gemini"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Registry RegistryConfig `mapstructure:"registry"`
	Fallback FallbackConfig `mapstructure:"fallback"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port"`
	Env         string `mapstructure:"env"`
	BearerToken string `mapstructure:"bearer_token"`
}

// GatewayConfig points at the unified OpenAI-compatible proxy.
type GatewayConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// VendorConfig holds direct-API credentials for a single vendor.
type VendorConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type StorageConfig struct {
	Path    string `mapstructure:"path"`
	BaseURL string `mapstructure:"base_url"`
}

type RegistryConfig struct {
	CacheTTL     int    `mapstructure:"cache_ttl"` // seconds
	DefaultModel string `mapstructure:"default_model"`
}

type FallbackConfig struct {
	// DirectProvider enables bypassing the gateway when it has a known
	// feature gap for the resolved model.
	DirectProvider bool `mapstructure:"direct_provider"`
	// Editing enables routing edit requests to a direct vendor when the
	// gateway does not support the model's editing type.
	Editing bool `mapstructure:"editing"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Default Values. Every key needs a default registered so that
	// AutomaticEnv can resolve it without a config file.
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.bearer_token", "")
	v.SetDefault("gateway.base_url", "")
	v.SetDefault("gateway.api_key", "")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("storage.path", "./generated_images")
	v.SetDefault("storage.base_url", "http://localhost:8080")
	v.SetDefault("registry.cache_ttl", 3600)
	v.SetDefault("registry.default_model", "")
	v.SetDefault("fallback.direct_provider", true)
	v.SetDefault("fallback.editing", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)

	// Environment Variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &cfg, nil
}

// GatewayAvailable reports whether the unified proxy is configured.
func (c *Config) GatewayAvailable() bool {
	return c.Gateway.BaseURL != ""
}

// OpenAIAvailable reports whether direct OpenAI access is configured.
func (c *Config) OpenAIAvailable() bool {
	return c.OpenAI.APIKey != ""
}

// GeminiAvailable reports whether direct Gemini access is configured.
func (c *Config) GeminiAvailable() bool {
	return c.Gemini.APIKey != ""
}

// ProviderAvailable maps a provider variant to its credential check.
func (c *Config) ProviderAvailable(p domain.Provider) bool {
	switch p {
	case domain.ProviderGateway:
		return c.GatewayAvailable()
	case domain.ProviderOpenAI:
		return c.OpenAIAvailable()
	case domain.ProviderGemini:
		return c.GeminiAvailable()
	default:
		return false
	}
}

// CacheTTL returns the registry cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Registry.CacheTTL) * time.Second
}
