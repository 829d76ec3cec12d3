package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/target/authify-client/config"
	"github.com/target/authify-client/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

// buildServicesFn lets tests swap the configured services for in-memory ones.
type buildServicesFn func(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*bootstrap.ServiceContainer, error)

type commandContext struct {
	Ctx      context.Context
	Logger   *slog.Logger
	Services *bootstrap.ServiceContainer
	In       *bufio.Reader
	Out      io.Writer
	Err      io.Writer
}

// errUsage marks failures that should exit with status 2.
var errUsage = errors.New("usage error")

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, nil)
	stop()
	os.Exit(code) //nolint:forbidigo // CLI must propagate the command status to the shell
}

func defaultBuildServices(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*bootstrap.ServiceContainer, error) {
	return bootstrap.BuildServices(ctx, bootstrap.ServiceDeps{Config: cfg, Logger: logger})
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, build buildServicesFn) int {
	if len(args) < 1 {
		_ = printUsage(stderr)
		return exitUsage
	}

	cmdName := args[0]
	cmd, ok := commands()[cmdName]
	if !ok {
		_ = writef(stderr, "unknown command %q\n\n", cmdName)
		_ = printUsage(stderr)
		return exitUsage
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		_ = writef(stderr, "load config: %v\n", err)
		return exitFailure
	}
	logger := bootstrap.InitLogger(stderr, cfg.Observability.SlogLevel())

	if build == nil {
		build = defaultBuildServices
	}
	services, err := build(ctx, &cfg, logger)
	if err != nil {
		logger.ErrorContext(ctx, "build services", "error", err)
		_ = writef(stderr, "%v\n", err)
		return exitFailure
	}
	defer func() {
		if closeErr := services.Close(); closeErr != nil {
			logger.WarnContext(ctx, "close services", "error", closeErr)
		}
	}()

	if restoreErr := services.Sessions.Restore(ctx); restoreErr != nil {
		logger.WarnContext(ctx, "restore session", "error", restoreErr)
	}

	cmdCtx := &commandContext{
		Ctx:      ctx,
		Logger:   logger,
		Services: services,
		In:       bufio.NewReader(stdin),
		Out:      stdout,
		Err:      stderr,
	}
	if runErr := cmd.run(cmdCtx, args[1:]); runErr != nil {
		if errors.Is(runErr, errUsage) || errors.Is(runErr, flag.ErrHelp) {
			return exitUsage
		}
		_ = writef(stderr, "%s\n", describeError(runErr))
		return exitFailure
	}
	return exitOK
}

func commands() map[string]command {
	return map[string]command{
		"register": {
			name:        "register",
			description: "Create an account (does not log in)",
			run:         runRegister,
		},
		"login": {
			name:        "login",
			description: "Log in and persist the session",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Clear the persisted session",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the logged-in identity",
			run:         runWhoami,
		},
		"refresh": {
			name:        "refresh",
			description: "Reload the profile from the auth service",
			run:         runRefresh,
		},
		"verify": {
			name:        "verify",
			description: "Send a verification OTP and confirm it interactively",
			run:         runVerify,
		},
		"verify-email": {
			name:        "verify-email",
			description: "Confirm an email address with an OTP, without logging in",
			run:         runVerifyEmail,
		},
		"reset-password": {
			name:        "reset-password",
			description: "Reset a forgotten password with an emailed OTP",
			run:         runResetPassword,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: authify <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-16s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
