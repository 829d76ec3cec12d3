package auth

// Package auth contains domain-level types for the client-side session and the
// identity-verification workflows. It is pure and free of transport/storage concerns.

import "time"

// Identity is the client-side view of the authenticated principal.
// JSON names match the persisted layout written by earlier clients.
type Identity struct {
	UserID     string `json:"userId,omitempty"`
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	IsVerified bool   `json:"isAccountVerified"`
}

// Minimal reports whether only the email is known (profile fetch failed at login).
func (i Identity) Minimal() bool {
	return i.UserID == "" && i.Name == "" && !i.IsVerified
}

// DisplayName returns Name when set, otherwise Email.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}

// Session pairs the opaque bearer credential with the Identity it proves.
// ExpiresAt is zero when the token carries no readable expiry.
type Session struct {
	Token     string    `json:"token"`
	Identity  Identity  `json:"user"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Valid reports whether the session carries a credential.
func (s Session) Valid() bool { return s.Token != "" }

// Expired reports whether the session has a known expiry that is not after now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// RegistrationAck is the profile echoed by the remote service after registration.
// Registration never establishes a session.
type RegistrationAck struct {
	UserID     string
	Name       string
	Email      string
	IsVerified bool
}
