// Package session persists comparison sessions between HTTP requests.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/davidbz/modelbench/internal/domain"
)

// ErrSessionNotFound indicates the session does not exist or has expired.
var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions. Get returns an independent copy; changes are kept
// only after Save.
type Store interface {
	Create(ctx context.Context) (*domain.Session, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, sess *domain.Session) error
	Delete(ctx context.Context, id string) error
}

// Config contains session storage settings.
type Config struct {
	Backend string        `env:"SESSION_BACKEND" envDefault:"memory"`
	TTL     time.Duration `env:"SESSION_TTL"     envDefault:"24h"`
	Secret  string        `env:"SESSION_SECRET"`
}

// RedisConfig contains Redis connection settings for the redis backend.
type RedisConfig struct {
	Addr      string `env:"REDIS_ADDR"       envDefault:"localhost:6379"`
	Password  string `env:"REDIS_PASSWORD"`
	DB        int    `env:"REDIS_DB"         envDefault:"0"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"session:"`
}

func newSession(now time.Time) *domain.Session {
	return domain.NewSession(uuid.NewString(), now)
}
