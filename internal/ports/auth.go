package ports

// Package ports defines interfaces (hexagonal ports) for the session client.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/authify-client/internal/domain/auth"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput carries credentials for a login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the login response: an opaque bearer token and the account email.
type LoginResult struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// ResetPasswordInput completes a password reset.
type ResetPasswordInput struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// Profile is the account profile returned by the auth service.
type Profile struct {
	UserID            string `json:"userId"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	IsAccountVerified bool   `json:"isAccountVerified"`
}

// Identity maps the profile onto the domain identity.
func (p Profile) Identity() domainauth.Identity {
	return domainauth.Identity{
		UserID:     p.UserID,
		Email:      p.Email,
		Name:       p.Name,
		IsVerified: p.IsAccountVerified,
	}
}

// AuthClient performs typed calls against the remote credential service.
// Calls that require a session take the bearer token explicitly.
// Failures are *errors.AppError values (RemoteRejected or Unreachable).
type AuthClient interface {
	Register(ctx context.Context, in RegisterInput) (Profile, error)
	Login(ctx context.Context, in LoginInput) (LoginResult, error)
	SendResetOTP(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in ResetPasswordInput) error
	SendVerifyOTP(ctx context.Context, token string) error
	VerifyOTP(ctx context.Context, token, otp string) error
	// VerifyEmail confirms an address without a session.
	VerifyEmail(ctx context.Context, email, otp string) error
	GetProfile(ctx context.Context, token string) (Profile, error)
}

// SessionStore persists the session across process restarts.
// Load reports ok=false when nothing valid is stored, including malformed data.
// Save overwrites token and identity together; Clear removes both.
type SessionStore interface {
	Load(ctx context.Context) (sess domainauth.Session, ok bool, err error)
	Save(ctx context.Context, sess domainauth.Session) error
	Clear(ctx context.Context) error
}

// IdentityEvent is delivered to observers after every session transition.
// Identity is nil when unauthenticated.
type IdentityEvent struct {
	State    domainauth.SessionState
	Identity *domainauth.Identity
}

// IdentityObserver receives session transitions. Implementations must not block.
type IdentityObserver interface {
	OnIdentity(ev IdentityEvent)
}

// IdentityObserverFunc adapts a function to IdentityObserver.
type IdentityObserverFunc func(ev IdentityEvent)

// OnIdentity calls f(ev).
func (f IdentityObserverFunc) OnIdentity(ev IdentityEvent) { f(ev) }
