package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/modelbench/internal/email"
	"github.com/davidbz/modelbench/internal/observability"
	"github.com/davidbz/modelbench/internal/ocr"
	"github.com/davidbz/modelbench/internal/provider/echo"
	"github.com/davidbz/modelbench/internal/provider/openai"
	"github.com/davidbz/modelbench/internal/session"
	"github.com/davidbz/modelbench/internal/textclean"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	Provider   ProviderConfig
	Moderation ModerationConfig
	Catalog    CatalogConfig
	OpenAI     openai.Config
	Echo       echo.Config
	Session    session.Config
	Redis      session.RedisConfig
	OCR        ocr.Config
	TextClean  textclean.Config
	Email      email.Config
	Log        observability.Config
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int   `env:"SERVER_PORT"             envDefault:"8080"`
	ReadTimeout     int   `env:"SERVER_READ_TIMEOUT"     envDefault:"30"`
	WriteTimeout    int   `env:"SERVER_WRITE_TIMEOUT"    envDefault:"300"`
	ShutdownTimeout int   `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15"`
	MaxUploadMB     int64 `env:"SERVER_MAX_UPLOAD_MB"    envDefault:"20"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization,Accept"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// RateLimitConfig contains per-client request rate limits.
type RateLimitConfig struct {
	Enabled           bool    `env:"RATE_LIMIT_ENABLED"             envDefault:"true"`
	RequestsPerSecond float64 `env:"RATE_LIMIT_REQUESTS_PER_SECOND" envDefault:"5"`
	Burst             int     `env:"RATE_LIMIT_BURST"               envDefault:"20"`
	IdleTTL           int     `env:"RATE_LIMIT_IDLE_TTL"            envDefault:"600"`
}

// ProviderConfig selects the provider that serves session credentials.
type ProviderConfig struct {
	Active string `env:"PROVIDER" envDefault:"openai"`
}

// ModerationConfig controls the moderation gate.
type ModerationConfig struct {
	FailClosed bool `env:"MODERATION_FAIL_CLOSED" envDefault:"false"`
}

// CatalogConfig locates the model catalog. An empty path uses the built-in catalog.
type CatalogConfig struct {
	Path string `env:"MODEL_CATALOG_PATH"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out

	Server     *ServerConfig
	CORS       *CORSConfig
	RateLimit  *RateLimitConfig
	Provider   *ProviderConfig
	Moderation *ModerationConfig
	Catalog    *CatalogConfig
	OpenAI     *openai.Config
	Echo       *echo.Config
	Session    *session.Config
	Redis      *session.RedisConfig
	OCR        *ocr.Config
	TextClean  *textclean.Config
	Email      *email.Config
	Log        *observability.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		Server:     &cfg.Server,
		CORS:       &cfg.CORS,
		RateLimit:  &cfg.RateLimit,
		Provider:   &cfg.Provider,
		Moderation: &cfg.Moderation,
		Catalog:    &cfg.Catalog,
		OpenAI:     &cfg.OpenAI,
		Echo:       &cfg.Echo,
		Session:    &cfg.Session,
		Redis:      &cfg.Redis,
		OCR:        &cfg.OCR,
		TextClean:  &cfg.TextClean,
		Email:      &cfg.Email,
		Log:        &cfg.Log,
	}
}
