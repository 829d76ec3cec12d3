// Package filestore persists the session as a small JSON document on disk,
// the desktop analog of browser local storage.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	domainauth "github.com/target/authify-client/internal/domain/auth"
	"github.com/target/authify-client/internal/ports"
)

var _ ports.SessionStore = (*Store)(nil)

// snapshot mirrors the two persisted entries: the bearer token and the serialized identity.
type snapshot struct {
	Token     string               `json:"token,omitempty"`
	User      *domainauth.Identity `json:"user,omitempty"`
	ExpiresAt *time.Time           `json:"expires_at,omitempty"`
}

// Store writes the session to path. Writes go to a sibling temp file that is
// renamed into place, so readers never observe a half-written document.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// Options configures a file store.
type Options struct {
	Path   string
	Logger *slog.Logger
}

// NewStore creates a file-backed store.
func NewStore(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("filestore: path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: opts.Path, logger: logger}, nil
}

// Path returns the file the store writes to.
func (s *Store) Path() string { return s.path }

// Load returns the stored session. A missing file, a malformed document, or a
// document lacking either the token or the identity all load as ok=false.
func (s *Store) Load(ctx context.Context) (domainauth.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domainauth.Session{}, false, nil
		}
		return domainauth.Session{}, false, fmt.Errorf("read session file: %w", err)
	}

	var snap snapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		s.logger.WarnContext(ctx, "ignoring malformed session file", "path", s.path, "error", err)
		return domainauth.Session{}, false, nil
	}
	if snap.Token == "" || snap.User == nil {
		return domainauth.Session{}, false, nil
	}

	sess := domainauth.Session{Token: snap.Token, Identity: *snap.User}
	if snap.ExpiresAt != nil {
		sess.ExpiresAt = *snap.ExpiresAt
	}
	return sess, true, nil
}

// Save atomically overwrites the stored session.
func (s *Store) Save(_ context.Context, sess domainauth.Session) error {
	if !sess.Valid() {
		return errors.New("filestore: session token cannot be empty")
	}

	identity := sess.Identity
	snap := snapshot{Token: sess.Token, User: &identity}
	if !sess.ExpiresAt.IsZero() {
		exp := sess.ExpiresAt
		snap.ExpiresAt = &exp
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err = os.Rename(tmp, s.path); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return errors.Join(fmt.Errorf("rename session file: %w", err), rmErr)
		}
		return fmt.Errorf("rename session file: %w", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an absent file is not an error.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
