package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/authify-client/config"
	"github.com/target/authify-client/internal/observability/statsd"
	"github.com/target/authify-client/internal/ports"
	"github.com/target/authify-client/internal/service"
)

// ServiceContainer holds the session client services and the resources they own.
type ServiceContainer struct {
	Client       ports.AuthClient
	Sessions     *service.SessionManager
	Verification *service.VerificationWorkflow
	Reset        *service.PasswordResetWorkflow
	MetricsSink  *statsd.Client

	store *SessionStore
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger
	// Client overrides the configured auth client (tests).
	Client ports.AuthClient
}

// BuildServices wires the auth client, session store, metrics sink and
// workflows. The session is not restored; callers run Sessions.Restore.
func BuildServices(ctx context.Context, deps ServiceDeps) (*ServiceContainer, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	client := deps.Client
	if client == nil {
		built, err := BuildAuthClient(AuthClientConfig{Auth: cfg.Auth, Logger: logger})
		if err != nil {
			return nil, err
		}
		client = built
	}

	store, err := BuildSessionStore(ctx, SessionStoreConfig{
		Store:  cfg.Store,
		Redis:  cfg.Redis,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	metricsSink := buildMetricsSink(logger, cfg.Observability.Metrics)

	var sink statsd.Sink
	if metricsSink != nil {
		sink = metricsSink
	}

	sessions := service.NewSessionManager(service.SessionManagerOptions{
		Client: client,
		Store:  store.Store,
		Config: service.SessionManagerConfig{
			Logger:                 logger,
			Metrics:                sink,
			RejectExpiredOnRestore: cfg.Auth.RejectExpiredOnRestore,
		},
	})

	return &ServiceContainer{
		Client:       client,
		Sessions:     sessions,
		Verification: service.NewVerificationWorkflow(service.VerificationWorkflowOptions{Sessions: sessions, Logger: logger}),
		Reset: service.NewPasswordResetWorkflow(service.PasswordResetWorkflowOptions{
			Client:  client,
			Logger:  logger,
			Metrics: sink,
		}),
		MetricsSink: metricsSink,
		store:       store,
	}, nil
}

// Close releases the metrics socket and the store connection.
func (c *ServiceContainer) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if err := c.MetricsSink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close metrics sink: %w", err))
	}
	if err := c.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// buildMetricsSink returns nil when metrics are disabled or the sink cannot start.
func buildMetricsSink(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}
