package devauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/authify-client/internal/errors"
	"github.com/target/authify-client/internal/ports"
)

func newProvider(t *testing.T, now *time.Time) *Provider {
	t.Helper()
	p, err := NewProvider(Config{
		SigningKey:   "test-key",
		TokenTTL:     time.Hour,
		SeedName:     "Dev User",
		SeedEmail:    "Dev@Example.com",
		SeedPassword: "secret1",
		Now:          func() time.Time { return *now },
	})
	require.NoError(t, err)
	return p
}

func TestNewProviderValidation(t *testing.T) {
	_, err := NewProvider(Config{})
	assert.Error(t, err)

	_, err = NewProvider(Config{SigningKey: "k", SeedEmail: "a@b.co"})
	assert.Error(t, err, "seed without password")
}

func TestLoginAndProfile(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	p := newProvider(t, &now)
	ctx := context.Background()

	_, err := p.Login(ctx, ports.LoginInput{Email: "dev@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, apperrors.IsRemoteRejected(err))

	res, err := p.Login(ctx, ports.LoginInput{Email: " DEV@example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", res.Email)
	assert.NotEmpty(t, res.Token)

	prof, err := p.GetProfile(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, ports.Profile{UserID: "dev-1", Name: "Dev User", Email: "dev@example.com"}, prof)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	p := newProvider(t, &now)
	ctx := context.Background()

	res, err := p.Login(ctx, ports.LoginInput{Email: "dev@example.com", Password: "secret1"})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = p.GetProfile(ctx, res.Token)
	require.Error(t, err)
	assert.True(t, apperrors.IsTokenRejected(err))

	_, err = p.GetProfile(ctx, "garbage")
	assert.True(t, apperrors.IsTokenRejected(err))
}

func TestRegisterAndVerify(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	p := newProvider(t, &now)
	ctx := context.Background()

	prof, err := p.Register(ctx, ports.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "dev-2", prof.UserID)
	assert.False(t, prof.IsAccountVerified)

	_, err = p.Register(ctx, ports.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	assert.Equal(t, "Email already exists", apperrors.UserMessage(err, ""))

	res, err := p.Login(ctx, ports.LoginInput{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, p.SendVerifyOTP(ctx, res.Token))
	err = p.VerifyOTP(ctx, res.Token, "000000")
	assert.Equal(t, "Invalid OTP", apperrors.UserMessage(err, ""))
	require.NoError(t, p.VerifyOTP(ctx, res.Token, "123456"))

	prof, err = p.GetProfile(ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, prof.IsAccountVerified)

	assert.Error(t, p.SendVerifyOTP(ctx, res.Token), "already verified")
}

func TestVerifyEmailWithoutSession(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	p := newProvider(t, &now)
	ctx := context.Background()

	assert.Error(t, p.VerifyEmail(ctx, "nobody@example.com", "123456"))
	require.NoError(t, p.VerifyEmail(ctx, "dev@example.com", "123456"))
}

func TestPasswordReset(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	p := newProvider(t, &now)
	ctx := context.Background()

	assert.Error(t, p.SendResetOTP(ctx, "nobody@example.com"))

	err := p.ResetPassword(ctx, ports.ResetPasswordInput{Email: "dev@example.com", OTP: "123456", NewPassword: "newpass"})
	assert.Error(t, err, "no OTP armed yet")

	require.NoError(t, p.SendResetOTP(ctx, "dev@example.com"))
	require.NoError(t, p.ResetPassword(ctx, ports.ResetPasswordInput{Email: "dev@example.com", OTP: "123456", NewPassword: "newpass"}))

	_, err = p.Login(ctx, ports.LoginInput{Email: "dev@example.com", Password: "secret1"})
	assert.Error(t, err)
	_, err = p.Login(ctx, ports.LoginInput{Email: "dev@example.com", Password: "newpass"})
	assert.NoError(t, err)
}
