package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/modelbench/internal/domain"
	"github.com/davidbz/modelbench/internal/observability"
)

// RedisClient is the subset of the go-redis client the store uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps sessions as JSON documents with a sliding TTL.
// The credential is sealed before it is written.
type RedisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
	sealer *Sealer
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client RedisClient, prefix string, ttl time.Duration, sealer *Sealer) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		sealer: sealer,
		now:    time.Now,
	}
}

// NewRedisClient connects to Redis using the given settings.
func NewRedisClient(cfg *RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Create stores and returns a new disabled session.
func (s *RedisStore) Create(ctx context.Context) (*domain.Session, error) {
	sess := newSession(s.now())
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads the session and unseals its credential.
func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	if sess.Credential != "" {
		credential, err := s.sealer.Open(sess.Credential)
		if err != nil {
			observability.FromContext(ctx).Warn("stored credential could not be unsealed",
				observability.String("session_id", id),
				observability.Error(err))
			return nil, fmt.Errorf("failed to unseal credential: %w", err)
		}
		sess.Credential = credential
	}

	return &sess, nil
}

// Save writes the session and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, sess *domain.Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session id is required")
	}

	sess.UpdatedAt = s.now()

	record := *sess
	if record.Credential != "" {
		sealed, err := s.sealer.Seal(record.Credential)
		if err != nil {
			return err
		}
		record.Credential = sealed
	}

	data, err := json.Marshal(&record)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.client.Set(ctx, s.key(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// Delete removes the session.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
