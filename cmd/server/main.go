package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nulzo/image-router-api/cmd"
	"github.com/nulzo/image-router-api/internal/cache/memory"
	"github.com/nulzo/image-router-api/internal/cache/redis"
	"github.com/nulzo/image-router-api/internal/cli"
	"github.com/nulzo/image-router-api/internal/config"
	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/nulzo/image-router-api/internal/core/ports"
	"github.com/nulzo/image-router-api/internal/core/registry"
	"github.com/nulzo/image-router-api/internal/core/routing"
	"github.com/nulzo/image-router-api/internal/imaging"
	"github.com/nulzo/image-router-api/internal/logger"
	"github.com/nulzo/image-router-api/internal/platform/otel"
	"github.com/nulzo/image-router-api/internal/server"
	"github.com/nulzo/image-router-api/internal/server/validator"
	v1 "github.com/nulzo/image-router-api/internal/server/v1"
	"github.com/nulzo/image-router-api/internal/storage"
	"go.uber.org/zap"

	// Import adapters to trigger init() registration
	_ "github.com/nulzo/image-router-api/internal/imaging/gateway"
	_ "github.com/nulzo/image-router-api/internal/imaging/gemini"
	_ "github.com/nulzo/image-router-api/internal/imaging/openai"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	if cfg.Server.Env == "production" {
		logCfg.Format = "json"
	}
	logger.Initialize(logCfg)
	defer logger.Sync()
	log := logger.Get()

	go cmd.CheckForUpdates()

	// Tracing spans go to stdout in development only
	traceOut := io.Writer(os.Stdout)
	if cfg.Server.Env == "production" {
		traceOut = io.Discard
	}
	shutdownTracer, err := otel.InitTracer("image-router-api", log, traceOut)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	store, err := storage.NewLocalStore(cfg.Storage.Path, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatal("Failed to initialize image storage", zap.Error(err))
	}
	log.Info("Image storage ready", zap.String("path", cfg.Storage.Path))

	var cacheSvc ports.CacheService
	if cfg.Redis.Enabled {
		cacheSvc, err = redis.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory cache", zap.Error(err))
			cacheSvc = memory.NewMemoryCache()
		}
	} else {
		cacheSvc = memory.NewMemoryCache()
	}

	var sources []registry.Source
	if cfg.GatewayAvailable() {
		sources = append(sources, registry.NewGatewaySource(cfg.Gateway.BaseURL, cfg.Gateway.APIKey))
	}
	sources = append(sources, registry.NewSnapshotSource(cacheSvc))

	var staticProviders []domain.Provider
	if cfg.GatewayAvailable() || cfg.OpenAIAvailable() {
		staticProviders = append(staticProviders, domain.ProviderOpenAI)
	}
	if cfg.GatewayAvailable() || cfg.GeminiAvailable() {
		staticProviders = append(staticProviders, domain.ProviderGemini)
	}
	sources = append(sources, registry.NewStaticSource(staticProviders))

	reg := registry.New(cfg.CacheTTL(), sources, cacheSvc, log)
	selector := routing.NewSelector(cfg.Fallback.DirectProvider, cfg.ProviderAvailable, log)
	resolver := routing.NewResolver(cfg.Registry.DefaultModel, reg)

	deps := imaging.Deps{
		Config:   cfg,
		Registry: reg,
		Selector: selector,
		Store:    store,
		Direct:   make(map[domain.Provider]imaging.Service),
	}

	// Direct vendors come first so the gateway adapter can fall back
	// to them.
	services := make(map[domain.Provider]imaging.Service)
	for _, p := range []domain.Provider{domain.ProviderOpenAI, domain.ProviderGemini} {
		if !cfg.ProviderAvailable(p) {
			continue
		}
		svc, err := imaging.Create(p, deps)
		if err != nil {
			log.Error("Failed to initialize provider", zap.String("provider", string(p)), zap.Error(err))
			continue
		}
		services[p] = svc
		deps.Direct[p] = svc
	}
	if cfg.GatewayAvailable() {
		svc, err := imaging.Create(domain.ProviderGateway, deps)
		if err != nil {
			log.Fatal("Failed to initialize gateway provider", zap.Error(err))
		}
		services[domain.ProviderGateway] = svc
	}
	if len(services) == 0 {
		log.Warn("No providers configured. Generation endpoints will reject requests.")
	}

	printBanner(cfg)

	router := imaging.NewRouter(cfg, services)

	validator.InitValidator()
	handler := v1.NewHandler(cfg, reg, resolver, router, store, log)

	loadCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	models := reg.Load(loadCtx, false)
	cancel()
	log.Info("Model registry loaded", zap.Int("models", len(models)))

	srv := server.New(cfg, log, handler)

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Handler(),
	}

	go func() {
		log.Info("Starting Image Router API", zap.String("port", cfg.Server.Port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	if err := shutdownTracer(ctx); err != nil {
		log.Error("Tracer shutdown failed", zap.Error(err))
	}
}

func printBanner(cfg *config.Config) {
	fmt.Println(cli.Gradient("image-router-api", cli.BrandBlue, cli.BrandPurple, 0.5))
	printProvider("LiteLLM gateway", cfg.GatewayAvailable())
	printProvider("OpenAI direct", cfg.OpenAIAvailable())
	printProvider("Gemini direct", cfg.GeminiAvailable())
}

func printProvider(name string, available bool) {
	mark := cli.CrossMark()
	if available {
		mark = cli.CheckMark()
	}
	fmt.Printf("  %s %s\n", mark, cli.Style(name, cli.Cyan))
}
