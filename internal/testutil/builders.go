package testutil

import (
	"time"

	domainauth "github.com/target/authify-client/internal/domain/auth"
)

// SessionBuilder provides a fluent interface for building sessions for testing.
type SessionBuilder struct {
	sess domainauth.Session
}

// NewSession creates a SessionBuilder with a verified identity and opaque token.
func NewSession() *SessionBuilder {
	return &SessionBuilder{
		sess: domainauth.Session{
			Token: "opaque-test-token",
			Identity: domainauth.Identity{
				UserID:     "user-1",
				Email:      "ann@example.com",
				Name:       "Ann Example",
				IsVerified: true,
			},
		},
	}
}

// WithToken sets the bearer token.
func (b *SessionBuilder) WithToken(token string) *SessionBuilder {
	b.sess.Token = token
	return b
}

// WithEmail sets the identity email.
func (b *SessionBuilder) WithEmail(email string) *SessionBuilder {
	b.sess.Identity.Email = email
	return b
}

// Unverified marks the identity as not yet verified.
func (b *SessionBuilder) Unverified() *SessionBuilder {
	b.sess.Identity.IsVerified = false
	return b
}

// Minimal strips everything but the email from the identity.
func (b *SessionBuilder) Minimal() *SessionBuilder {
	b.sess.Identity = domainauth.Identity{Email: b.sess.Identity.Email}
	return b
}

// ExpiresAt sets the session expiry.
func (b *SessionBuilder) ExpiresAt(at time.Time) *SessionBuilder {
	b.sess.ExpiresAt = at
	return b
}

// Build returns the session.
func (b *SessionBuilder) Build() domainauth.Session {
	return b.sess
}
