// Package memory provides an in-process SessionStore. Nothing survives a restart;
// it backs tests and the CLI's SESSION_STORE=memory mode.
package memory

import (
	"context"
	"sync"

	domainauth "github.com/target/authify-client/internal/domain/auth"
	"github.com/target/authify-client/internal/ports"
)

var _ ports.SessionStore = (*Store)(nil)

// Store keeps a single session behind a mutex.
type Store struct {
	mu   sync.RWMutex
	sess *domainauth.Session

	saves  int
	clears int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// NewStoreWith creates a store pre-populated with sess.
func NewStoreWith(sess domainauth.Session) *Store {
	s := &Store{}
	s.sess = &sess
	return s
}

func (s *Store) Load(_ context.Context) (domainauth.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil || !s.sess.Valid() {
		return domainauth.Session{}, false, nil
	}
	return *s.sess, true, nil
}

func (s *Store) Save(_ context.Context, sess domainauth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = &sess
	s.saves++
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = nil
	s.clears++
	return nil
}

// Saves returns how many times Save was called.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Clears returns how many times Clear was called.
func (s *Store) Clears() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clears
}
