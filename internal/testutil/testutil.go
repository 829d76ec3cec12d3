// Package testutil provides testing helpers shared by the session client packages.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// SetupTestRedis returns a Redis client for tests. When REDIS_ADDR is set the
// client targets that server (CI); otherwise an in-process miniredis is started.
// The client is closed when the test finishes.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			t.Skipf("Redis not available at %s: %v", addr, err)
		}
		t.Cleanup(func() {
			if err := client.Close(); err != nil {
				t.Logf("warning: failed to close redis client: %v", err)
			}
		})
		return client
	}

	client, _ := SetupMiniRedis(t)
	return client
}

// SetupMiniRedis starts an in-process Redis and returns a client plus the server
// handle, which lets tests fast-forward TTLs.
func SetupMiniRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("warning: failed to close redis client: %v", err)
		}
	})
	return client, mr
}

// FixedTimeFunc returns a function that always returns the same time.
func FixedTimeFunc(t time.Time) func() time.Time {
	return func() time.Time {
		return t
	}
}

// TestTime returns a fixed time for testing.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// SignedToken mints an HS256 JWT with the given subject and expiry, the shape
// the auth service issues. A zero exp omits the claim.
func SignedToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{Subject: subject}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
