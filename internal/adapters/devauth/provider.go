package devauth

// Package devauth provides an in-process auth service for local development
// (AUTH_MODE=mock). It answers every AuthClient call from memory, issues
// HS256-signed tokens and accepts a fixed OTP.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/target/authify-client/internal/errors"
	"github.com/target/authify-client/internal/ports"
)

// Config controls the dev auth service behavior.
// SigningKey is required; the seed account is created when SeedEmail is set.
type Config struct {
	SigningKey   string
	OTP          string        // default "123456" when empty
	TokenTTL     time.Duration // default 8h when zero
	SeedName     string
	SeedEmail    string
	SeedPassword string
	SeedVerified bool
	Now          func() time.Time
}

type account struct {
	id       string
	name     string
	email    string
	password string
	verified bool
	resetOTP string
}

// Provider implements ports.AuthClient without a network.
type Provider struct {
	key      []byte
	otp      string
	tokenTTL time.Duration
	now      func() time.Time

	mu       sync.Mutex
	accounts map[string]*account
	nextID   int
}

var _ ports.AuthClient = (*Provider)(nil)

// NewProvider constructs a dev auth service from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.SigningKey) == "" {
		return nil, errors.New("dev auth: SigningKey is required")
	}
	otp := strings.TrimSpace(cfg.OTP)
	if otp == "" {
		otp = "123456"
	}
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = 8 * time.Hour
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	p := &Provider{
		key:      []byte(cfg.SigningKey),
		otp:      otp,
		tokenTTL: ttl,
		now:      now,
		accounts: make(map[string]*account),
	}

	if email := normalizeEmail(cfg.SeedEmail); email != "" {
		if cfg.SeedPassword == "" {
			return nil, errors.New("dev auth: SeedPassword is required with SeedEmail")
		}
		acct := p.addAccount(cfg.SeedName, email, cfg.SeedPassword)
		acct.verified = cfg.SeedVerified
	}
	return p, nil
}

// Register creates an unverified account.
func (p *Provider) Register(_ context.Context, in ports.RegisterInput) (ports.Profile, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return ports.Profile{}, apperrors.RemoteRejected("Name, email and password are required", nil)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[email]; exists {
		return ports.Profile{}, apperrors.RemoteRejected("Email already exists", nil)
	}
	return profileOf(p.addAccount(in.Name, email, in.Password)), nil
}

// Login checks the password and issues a signed token.
func (p *Provider) Login(_ context.Context, in ports.LoginInput) (ports.LoginResult, error) {
	email := normalizeEmail(in.Email)

	p.mu.Lock()
	acct, ok := p.accounts[email]
	p.mu.Unlock()
	if !ok || acct.password != in.Password {
		return ports.LoginResult{}, apperrors.RemoteRejected("Email or password is incorrect", nil)
	}

	token, err := p.issueToken(email)
	if err != nil {
		return ports.LoginResult{}, apperrors.Internal("Login failed. Please try again.", err)
	}
	return ports.LoginResult{Token: token, Email: email}, nil
}

// SendResetOTP arms the fixed OTP for a password reset.
func (p *Provider) SendResetOTP(_ context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, ok := p.accounts[normalizeEmail(email)]
	if !ok {
		return apperrors.RemoteRejected("User not found", nil)
	}
	acct.resetOTP = p.otp
	return nil
}

// ResetPassword consumes the armed reset OTP.
func (p *Provider) ResetPassword(_ context.Context, in ports.ResetPasswordInput) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, ok := p.accounts[normalizeEmail(in.Email)]
	if !ok {
		return apperrors.RemoteRejected("User not found", nil)
	}
	if acct.resetOTP == "" || acct.resetOTP != strings.TrimSpace(in.OTP) {
		return apperrors.RemoteRejected("Invalid OTP", nil)
	}
	acct.password = in.NewPassword
	acct.resetOTP = ""
	return nil
}

// SendVerifyOTP requires a valid token; verified accounts are rejected.
func (p *Provider) SendVerifyOTP(_ context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, err := p.authenticate(token)
	if err != nil {
		return err
	}
	if acct.verified {
		return apperrors.RemoteRejected("Account is already verified", nil)
	}
	return nil
}

// VerifyOTP marks the token's account verified.
func (p *Provider) VerifyOTP(_ context.Context, token, otp string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, err := p.authenticate(token)
	if err != nil {
		return err
	}
	if strings.TrimSpace(otp) != p.otp {
		return apperrors.RemoteRejected("Invalid OTP", nil)
	}
	acct.verified = true
	return nil
}

// VerifyEmail marks an account verified without a session.
func (p *Provider) VerifyEmail(_ context.Context, email, otp string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, ok := p.accounts[normalizeEmail(email)]
	if !ok {
		return apperrors.RemoteRejected("User not found", nil)
	}
	if strings.TrimSpace(otp) != p.otp {
		return apperrors.RemoteRejected("Invalid OTP", nil)
	}
	acct.verified = true
	return nil
}

// GetProfile returns the token's account.
func (p *Provider) GetProfile(_ context.Context, token string) (ports.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, err := p.authenticate(token)
	if err != nil {
		return ports.Profile{}, err
	}
	return profileOf(acct), nil
}

// addAccount must be called with p.mu held or before p is shared.
func (p *Provider) addAccount(name, email, password string) *account {
	p.nextID++
	acct := &account{
		id:       fmt.Sprintf("dev-%d", p.nextID),
		name:     strings.TrimSpace(name),
		email:    email,
		password: password,
	}
	p.accounts[email] = acct
	return acct
}

func (p *Provider) issueToken(email string) (string, error) {
	now := p.now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
		Issuer:    "authify-dev",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// authenticate must be called with p.mu held.
func (p *Provider) authenticate(token string) (*account, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return p.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, apperrors.RemoteRejected("Unauthorized", fmt.Errorf("%w: %w", apperrors.ErrTokenRejected, err))
	}
	acct, ok := p.accounts[claims.Subject]
	if !ok {
		return nil, apperrors.RemoteRejected("Unauthorized", apperrors.ErrTokenRejected)
	}
	return acct, nil
}

func profileOf(a *account) ports.Profile {
	return ports.Profile{
		UserID:            a.id,
		Name:              a.name,
		Email:             a.email,
		IsAccountVerified: a.verified,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
