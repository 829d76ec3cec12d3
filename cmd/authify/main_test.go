package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/authify-client/config"
	"github.com/target/authify-client/internal/bootstrap"
	apperrors "github.com/target/authify-client/internal/errors"
)

// cli runs commands against the dev auth service with a session file that
// survives between invocations, like separate shell commands would.
type cli struct {
	t           *testing.T
	sessionFile string
}

type result struct {
	code   int
	stdout string
	stderr string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &cli{t: t, sessionFile: filepath.Join(t.TempDir(), "session.json")}
}

func (c *cli) build(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*bootstrap.ServiceContainer, error) {
	cfg.Auth.Mode = config.AuthModeMock
	cfg.Auth.DevAuth = config.DevAuthConfig{
		SigningKey:   "cli-test-key",
		OTP:          "123456",
		SeedName:     "Dev User",
		SeedEmail:    "dev@example.com",
		SeedPassword: "password",
	}
	cfg.Store = config.StoreConfig{Backend: config.StoreBackendFile, File: c.sessionFile}
	cfg.Observability.Metrics.Enabled = false
	return bootstrap.BuildServices(ctx, bootstrap.ServiceDeps{Config: cfg, Logger: logger})
}

func (c *cli) run(stdin string, args ...string) result {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr, c.build)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (c *cli) login() {
	c.t.Helper()
	res := c.run("", "login", "-email", "dev@example.com", "-password", "password")
	require.Equal(c.t, exitOK, res.code, res.stderr)
}

func TestUsageErrors(t *testing.T) {
	c := newCLI(t)

	res := c.run("")
	assert.Equal(t, exitUsage, res.code)
	assert.Contains(t, res.stderr, "Usage: authify <command>")

	res = c.run("", "frobnicate")
	assert.Equal(t, exitUsage, res.code)
	assert.Contains(t, res.stderr, `unknown command "frobnicate"`)

	res = c.run("", "login", "-nope")
	assert.Equal(t, exitUsage, res.code)

	res = c.run("", "whoami", "extra")
	assert.Equal(t, exitUsage, res.code)
	assert.Contains(t, res.stderr, "unexpected arguments: extra")
}

func TestLoginWhoamiLogout(t *testing.T) {
	c := newCLI(t)

	res := c.run("", "whoami")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "You are not logged in.")

	res = c.run("dev@example.com\npassword\n", "login")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Logged in as Dev User <dev@example.com>")
	assert.Contains(t, res.stdout, "Your email is not verified")

	res = c.run("", "whoami")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Email:    dev@example.com")
	assert.Contains(t, res.stdout, "Verified: no")

	res = c.run("", "refresh")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Name:     Dev User")

	res = c.run("", "logout")
	require.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, "Logged out.")

	res = c.run("", "whoami")
	assert.Equal(t, exitFailure, res.code)
}

func TestLoginFailures(t *testing.T) {
	c := newCLI(t)

	res := c.run("", "login", "-email", "dev@example.com", "-password", "wrong-password")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "Email or password is incorrect")

	res = c.run("", "login")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "input closed")

	res = c.run("", "refresh")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "You are not logged in.")
}

func TestRegister(t *testing.T) {
	c := newCLI(t)

	res := c.run("", "register", "-name", "New", "-email", "new@example.com", "-password", "secret1")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Account created for new@example.com")

	res = c.run("", "whoami")
	assert.Equal(t, exitFailure, res.code, "register must not create a session")

	res = c.run("", "register", "-name", "New", "-email", "new@example.com", "-password", "123")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "password: Password must be at least 6 characters")
}

func TestVerifyRetriesThenSucceeds(t *testing.T) {
	c := newCLI(t)
	c.login()

	res := c.run("000000\n123456\n", "verify")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "An OTP has been sent to dev@example.com.")
	assert.Contains(t, res.stderr, "Invalid OTP")
	assert.Contains(t, res.stdout, "Email verified.")

	res = c.run("", "whoami")
	require.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, "Verified: yes")

	res = c.run("", "verify")
	require.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, "already verified")
}

func TestVerifySkipAndFlags(t *testing.T) {
	c := newCLI(t)

	res := c.run("", "verify")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "You are not logged in.")

	c.login()

	res = c.run("\n", "verify")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Verification skipped.")

	res = c.run("", "verify", "-otp", "999999")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "Invalid OTP")

	res = c.run("", "verify", "-otp", "123456")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Email verified.")
}

func TestVerifyEmail(t *testing.T) {
	c := newCLI(t)

	res := c.run("", "verify-email", "-email", "dev@example.com", "-otp", "123456")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Email verified.")

	res = c.run("", "verify-email", "-email", "not-an-email", "-otp", "123456")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "email: Email is invalid")
}

func TestResetPassword(t *testing.T) {
	c := newCLI(t)

	stdin := strings.Join([]string{
		"123456", "newpass1", "different",
		"123456", "newpass1", "newpass1",
	}, "\n") + "\n"
	res := c.run(stdin, "reset-password", "-email", "dev@example.com")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "An OTP has been sent to dev@example.com.")
	assert.Contains(t, res.stderr, "confirmPassword: Passwords do not match")
	assert.Contains(t, res.stdout, "Password reset.")

	res = c.run("", "whoami")
	assert.Equal(t, exitFailure, res.code, "reset must not create a session")
}

func TestResetPasswordUnknownEmail(t *testing.T) {
	c := newCLI(t)

	res := c.run("", "reset-password", "-email", "ghost@example.com")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "User not found")
}

func TestResetPasswordGivesUpAfterAttempts(t *testing.T) {
	c := newCLI(t)

	res := c.run("000000\nnewpass1\nnewpass1\n", "reset-password", "-email", "dev@example.com", "-attempts", "1")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "Invalid OTP")
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "field", err: apperrors.ValidationField("otp", "OTP is required"), want: "otp: OTP is required"},
		{name: "remote", err: apperrors.RemoteRejected("Invalid OTP", nil), want: "Invalid OTP"},
		{name: "plain", err: errors.New("boom"), want: "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeError(tt.err))
		})
	}
}
