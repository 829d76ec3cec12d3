package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode selects which auth service the client talks to.
type AuthMode string

const (
	// AuthModeRemote calls the auth service over HTTP.
	AuthModeRemote AuthMode = "remote"
	// AuthModeMock uses the in-process dev auth service (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "remote", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: remote, mock)", v)
	}
}

// DevAuthConfig controls the dev auth service and its seed account.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	SigningKey   string        `env:"SIGNING_KEY"   envDefault:"authify-dev-signing-key"`
	OTP          string        `env:"OTP"           envDefault:"123456"`
	TokenTTL     time.Duration `env:"TOKEN_TTL"     envDefault:"8h"`
	SeedName     string        `env:"SEED_NAME"     envDefault:"Dev User"`
	SeedEmail    string        `env:"SEED_EMAIL"    envDefault:"dev@example.com"`
	SeedPassword string        `env:"SEED_PASSWORD" envDefault:"password"`
	SeedVerified bool          `env:"SEED_VERIFIED" envDefault:"false"`
}

// AuthConfig groups all auth-service-related configuration.
type AuthConfig struct {
	// Mode determines which auth service implementation to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"remote"`

	// BaseURL is the root of the auth service API (used when Mode=remote).
	BaseURL string        `env:"AUTH_BASE_URL" envDefault:"http://localhost:8080/api/v1.0"`
	Timeout time.Duration `env:"AUTH_TIMEOUT"  envDefault:"15s"`

	// ErrorMessagePath is a JMESPath expression selecting the human-readable
	// message from a failure response body.
	ErrorMessagePath string `env:"AUTH_ERROR_MESSAGE_PATH" envDefault:"message"`
	UserAgent        string `env:"AUTH_USER_AGENT"         envDefault:"authify-cli"`

	// RejectExpiredOnRestore discards a persisted session whose token has expired
	// instead of restoring it optimistically.
	RejectExpiredOnRestore bool `env:"AUTH_REJECT_EXPIRED_ON_RESTORE" envDefault:"false"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

// Sanitize trims values and restores defaults for invalid durations.
func (c *AuthConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.ErrorMessagePath = strings.TrimSpace(c.ErrorMessagePath)
	if c.ErrorMessagePath == "" {
		c.ErrorMessagePath = "message"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.DevAuth.TokenTTL <= 0 {
		c.DevAuth.TokenTTL = 8 * time.Hour
	}
	c.DevAuth.SeedEmail = strings.TrimSpace(c.DevAuth.SeedEmail)
}
