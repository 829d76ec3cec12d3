package config

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: auth service endpoint and dev auth service
//   - store.go: session persistence and Redis connection
//   - observability.go: logging and metrics
type AppConfig struct {
	// Auth service configuration
	Auth AuthConfig

	// Session persistence configuration
	Store StoreConfig
	Redis RedisConfig `envPrefix:"REDIS_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.Sanitize()
	c.Store.Sanitize()
	c.Observability.Sanitize()
}
