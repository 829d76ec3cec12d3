package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/authify-client/config"
	"github.com/target/authify-client/internal/adapters/filestore"
	"github.com/target/authify-client/internal/adapters/memory"
	redisadapter "github.com/target/authify-client/internal/adapters/redis"
	"github.com/target/authify-client/internal/ports"
)

// SessionStoreConfig contains configuration for session persistence.
type SessionStoreConfig struct {
	Store  config.StoreConfig
	Redis  config.RedisConfig
	Logger *slog.Logger
}

// SessionStore is a built store together with whatever connection it owns.
type SessionStore struct {
	Store ports.SessionStore
	redis redis.UniversalClient
}

// Close releases the Redis connection, if any.
func (s *SessionStore) Close() error {
	if s == nil || s.redis == nil {
		return nil
	}
	if err := s.redis.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}

// BuildSessionStore creates the session store selected by SESSION_STORE.
func BuildSessionStore(ctx context.Context, cfg SessionStoreConfig) (*SessionStore, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		return &SessionStore{Store: memory.NewStore()}, nil

	case config.StoreBackendRedis:
		client, err := ConnectRedis(ctx, RedisConnConfig{Redis: cfg.Redis, Logger: cfg.Logger})
		if err != nil {
			return nil, fmt.Errorf("connect session redis: %w", err)
		}
		return &SessionStore{
			Store: redisadapter.NewSessionStoreWithPrefix(client, cfg.Store.RedisPrefix),
			redis: client,
		}, nil

	case config.StoreBackendFile, "":
		path := cfg.Store.File
		if path == "" {
			path = config.DefaultSessionFile()
		}
		store, err := filestore.NewStore(filestore.Options{Path: path, Logger: cfg.Logger})
		if err != nil {
			return nil, fmt.Errorf("create session file store: %w", err)
		}
		return &SessionStore{Store: store}, nil

	default:
		return nil, fmt.Errorf("unsupported session store: %q", cfg.Store.Backend)
	}
}
