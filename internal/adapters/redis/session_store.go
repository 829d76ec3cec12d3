package redis

// Package redis provides a Redis-backed SessionStore for clients that share
// one session across processes on a host (for example a CLI and a tray agent).

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/authify-client/internal/domain/auth"
	"github.com/target/authify-client/internal/ports"
)

const defaultPrefix = "authify:session:"

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore keeps the token and the serialized identity under two keys that
// are always written and deleted in one MULTI/EXEC transaction.
// Keys never expire on their own; SessionManager.Restore owns the expiry policy.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, defaultPrefix)
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &SessionStore{
		client: client,
		prefix: hashTagged(prefix),
	}
}

// hashTagged wraps prefix in a cluster hash tag so both keys map to the same
// slot, which MGET and MULTI/EXEC require in cluster mode. A prefix that
// already carries a tag is kept as is.
func hashTagged(prefix string) string {
	if open := strings.Index(prefix, "{"); open >= 0 {
		if end := strings.Index(prefix[open:], "}"); end > 1 {
			return prefix
		}
	}
	return "{" + strings.TrimSuffix(prefix, ":") + "}:"
}

func (s *SessionStore) tokenKey() string { return s.prefix + "token" }
func (s *SessionStore) userKey() string  { return s.prefix + "user" }

type storedUser struct {
	domainauth.Identity
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if !sess.Valid() {
		return errors.New("session token cannot be empty")
	}

	data, err := json.Marshal(storedUser{Identity: sess.Identity, ExpiresAt: sess.ExpiresAt})
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tokenKey(), sess.Token, 0)
		pipe.Set(ctx, s.userKey(), data, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

// Load returns ok=false when either key is missing or the identity is malformed.
func (s *SessionStore) Load(ctx context.Context) (domainauth.Session, bool, error) {
	vals, err := s.client.MGet(ctx, s.tokenKey(), s.userKey()).Result()
	if err != nil {
		return domainauth.Session{}, false, fmt.Errorf("redis load session: %w", err)
	}
	if len(vals) != 2 {
		return domainauth.Session{}, false, nil
	}

	token, tokOK := vals[0].(string)
	raw, userOK := vals[1].(string)
	if !tokOK || !userOK || token == "" {
		return domainauth.Session{}, false, nil
	}

	var user storedUser
	if unmarshalErr := json.Unmarshal([]byte(raw), &user); unmarshalErr != nil {
		return domainauth.Session{}, false, nil
	}

	return domainauth.Session{
		Token:     token,
		Identity:  user.Identity,
		ExpiresAt: user.ExpiresAt,
	}, true, nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.tokenKey(), s.userKey()).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}
