package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/authify-client/internal/domain/auth"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(Options{Path: filepath.Join(t.TempDir(), "nested", "session.json")})
	require.NoError(t, err)
	return store
}

func TestNewStore_RequiresPath(t *testing.T) {
	_, err := NewStore(Options{})
	require.Error(t, err)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	sess := domainauth.Session{
		Token:     "opaque-token",
		Identity:  domainauth.Identity{UserID: "u1", Email: "ann@example.com", Name: "Ann", IsVerified: true},
		ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, sess))

	got, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sess.Token, got.Token)
	assert.Equal(t, sess.Identity, got.Identity)
	assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	_, err = os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestStore_LoadMissingFile(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_LoadMalformed(t *testing.T) {
	tests := map[string]string{
		"garbage":       "{not json",
		"missing token": `{"user":{"email":"a@example.com"}}`,
		"missing user":  `{"token":"t"}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			store := newTestStore(t)
			require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o700))
			require.NoError(t, os.WriteFile(store.Path(), []byte(body), 0o600))

			_, ok, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Clear(ctx), "clearing an empty store succeeds")

	require.NoError(t, store.Save(ctx, domainauth.Session{Token: "t", Identity: domainauth.Identity{Email: "a@example.com"}}))
	require.NoError(t, store.Clear(ctx))

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SaveRejectsEmptyToken(t *testing.T) {
	store := newTestStore(t)
	err := store.Save(context.Background(), domainauth.Session{Identity: domainauth.Identity{Email: "a@example.com"}})
	require.Error(t, err)
}
