package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/target/authify-client/config"
	"github.com/target/authify-client/internal/adapters/authapi"
	"github.com/target/authify-client/internal/adapters/devauth"
	"github.com/target/authify-client/internal/ports"
)

// AuthClientConfig contains configuration for the auth service client.
type AuthClientConfig struct {
	Auth   config.AuthConfig
	Logger *slog.Logger
}

// BuildAuthClient creates an auth service client based on the configured auth mode.
//
//nolint:ireturn // the mode decides between the HTTP client and the dev auth service.
func BuildAuthClient(cfg AuthClientConfig) (ports.AuthClient, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		prov, err := buildDevAuthClient(cfg)
		if err != nil {
			return nil, err
		}
		return prov, nil
	case config.AuthModeRemote, "":
		client, err := authapi.NewClient(authapi.Config{
			BaseURL:     cfg.Auth.BaseURL,
			Timeout:     cfg.Auth.Timeout,
			MessagePath: cfg.Auth.ErrorMessagePath,
			UserAgent:   cfg.Auth.UserAgent,
			Logger:      cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create auth api client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %q", cfg.Auth.Mode)
	}
}

func buildDevAuthClient(cfg AuthClientConfig) (*devauth.Provider, error) {
	dev := cfg.Auth.DevAuth
	prov, err := devauth.NewProvider(devauth.Config{
		SigningKey:   dev.SigningKey,
		OTP:          dev.OTP,
		TokenTTL:     dev.TokenTTL,
		SeedName:     dev.SeedName,
		SeedEmail:    dev.SeedEmail,
		SeedPassword: dev.SeedPassword,
		SeedVerified: dev.SeedVerified,
	})
	if err != nil {
		return nil, fmt.Errorf("create dev auth service: %w", err)
	}
	if cfg.Logger != nil {
		cfg.Logger.Warn("using dev auth service; do not use in production", "seed_email", dev.SeedEmail)
	}
	return prov, nil
}
