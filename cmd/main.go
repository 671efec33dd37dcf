package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/modelbench/internal/config"
	"github.com/davidbz/modelbench/internal/document"
	"github.com/davidbz/modelbench/internal/domain"
	"github.com/davidbz/modelbench/internal/email"
	"github.com/davidbz/modelbench/internal/http"
	"github.com/davidbz/modelbench/internal/http/middleware"
	"github.com/davidbz/modelbench/internal/observability"
	"github.com/davidbz/modelbench/internal/ocr"
	"github.com/davidbz/modelbench/internal/provider/echo"
	"github.com/davidbz/modelbench/internal/provider/openai"
	"github.com/davidbz/modelbench/internal/provider/registry"
	"github.com/davidbz/modelbench/internal/session"
	"github.com/davidbz/modelbench/internal/textclean"
)

// ErrUnknownSessionBackend indicates SESSION_BACKEND names no supported store.
var ErrUnknownSessionBackend = errors.New("unknown session backend")

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *http.Server, cfg *config.ServerConfig) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}

		return <-errCh
	})
	if err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Invoke(func(*zap.Logger) {}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	if err := container.Provide(func(logger *zap.Logger) domain.EventPublisher {
		return observability.NewEventBus(logger)
	}); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Provider Registry
	if err := container.Provide(newProviderRegistry); err != nil {
		log.Fatalf("Failed to provide registry: %v", err)
	}
	if err := container.Provide(func(reg *registry.Registry) domain.ProviderSource {
		return reg
	}); err != nil {
		log.Fatalf("Failed to provide provider source: %v", err)
	}

	// Model catalog and pricing
	if err := container.Provide(func(cfg *config.CatalogConfig) (*domain.ModelCatalog, error) {
		return domain.LoadCatalog(cfg.Path)
	}); err != nil {
		log.Fatalf("Failed to provide model catalog: %v", err)
	}
	if err := container.Provide(func(catalog *domain.ModelCatalog) (domain.PricingRegistry, error) {
		pricing := domain.NewInMemoryPricingRegistry()
		if err := catalog.RegisterPricing(context.Background(), pricing); err != nil {
			return nil, err
		}
		return pricing, nil
	}); err != nil {
		log.Fatalf("Failed to provide pricing registry: %v", err)
	}
	if err := container.Provide(func(pricing domain.PricingRegistry) domain.CostCalculator {
		return domain.NewStandardCostCalculator(pricing)
	}); err != nil {
		log.Fatalf("Failed to provide cost calculator: %v", err)
	}

	// Domain Services
	if err := container.Provide(domain.NewModelProber); err != nil {
		log.Fatalf("Failed to provide model prober: %v", err)
	}
	if err := container.Provide(func(cfg *config.ModerationConfig) *domain.ModerationGate {
		return domain.NewModerationGate(cfg.FailClosed)
	}); err != nil {
		log.Fatalf("Failed to provide moderation gate: %v", err)
	}
	if err := container.Provide(domain.NewDispatcher); err != nil {
		log.Fatalf("Failed to provide dispatcher: %v", err)
	}
	if err := container.Provide(domain.NewComparisonService); err != nil {
		log.Fatalf("Failed to provide comparison service: %v", err)
	}

	// Sessions
	if err := container.Provide(newSessionStore); err != nil {
		log.Fatalf("Failed to provide session store: %v", err)
	}
	if err := container.Provide(session.NewLocker); err != nil {
		log.Fatalf("Failed to provide session locker: %v", err)
	}

	// Documents, OCR and email
	if err := container.Provide(func(cfg *textclean.Config) (*textclean.Cleaner, error) {
		return textclean.NewCleanerFromConfig(context.Background(), cfg)
	}); err != nil {
		log.Fatalf("Failed to provide text cleaner: %v", err)
	}
	if err := container.Provide(func(cleaner *textclean.Cleaner) *document.Converter {
		return document.NewConverter(cleaner)
	}); err != nil {
		log.Fatalf("Failed to provide document converter: %v", err)
	}
	if err := container.Provide(ocr.NewConverterFromConfig); err != nil {
		log.Fatalf("Failed to provide OCR converter: %v", err)
	}
	if err := container.Provide(email.NewDrafter); err != nil {
		log.Fatalf("Failed to provide email drafter: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(func(cors *config.CORSConfig, limits *config.RateLimitConfig) middleware.Middleware {
		return middleware.BuildMiddlewareChain(cors, middleware.NewClientLimiter(limits))
	}); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}

// newProviderRegistry registers every provider factory and activates the configured one.
func newProviderRegistry(
	cfg *config.ProviderConfig,
	openaiCfg *openai.Config,
	echoCfg *echo.Config,
) (*registry.Registry, error) {
	ctx := context.Background()
	reg := registry.NewRegistry(cfg.Active)

	if err := reg.Register(ctx, "openai", openai.NewFactory(*openaiCfg)); err != nil {
		return nil, fmt.Errorf("failed to register OpenAI provider: %w", err)
	}
	if err := reg.Register(ctx, "echo", echo.NewFactory(*echoCfg)); err != nil {
		return nil, fmt.Errorf("failed to register echo provider: %w", err)
	}

	if _, err := reg.Get(ctx, cfg.Active); err != nil {
		return nil, fmt.Errorf("active provider: %w", err)
	}

	observability.FromContext(ctx).Info("provider registry ready", observability.String("active", cfg.Active))

	return reg, nil
}

// newSessionStore builds the configured session backend.
func newSessionStore(cfg *session.Config, redisCfg *session.RedisConfig) (session.Store, error) {
	switch cfg.Backend {
	case "memory":
		return session.NewMemoryStore(cfg.TTL), nil
	case "redis":
		sealer, err := session.NewSealer(cfg.Secret)
		if err != nil {
			return nil, err
		}

		client := session.NewRedisClient(redisCfg)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", redisCfg.Addr, err)
		}

		return session.NewRedisStore(client, redisCfg.KeyPrefix, cfg.TTL, sealer), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSessionBackend, cfg.Backend)
	}
}
