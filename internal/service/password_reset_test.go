package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/target/authify-client/internal/domain/auth"
	apperrors "github.com/target/authify-client/internal/errors"
	"github.com/target/authify-client/internal/mocks"
	fakes "github.com/target/authify-client/internal/mocks/auth"
	"github.com/target/authify-client/internal/ports"
)

// issuedWorkflow returns a workflow that already sent a reset code to ann@example.com.
func issuedWorkflow(t *testing.T, client ports.AuthClient) *PasswordResetWorkflow {
	t.Helper()
	w := NewPasswordResetWorkflow(PasswordResetWorkflowOptions{Client: client})
	require.NoError(t, w.RequestReset(context.Background(), "ann@example.com"))
	require.Equal(t, domainauth.ResetOtpIssued, w.Phase())
	return w
}

func TestNewPasswordResetWorkflowRequiresClient(t *testing.T) {
	assert.Panics(t, func() { NewPasswordResetWorkflow(PasswordResetWorkflowOptions{}) })
}

func TestPasswordResetHappyPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockAuthClient(ctrl)

	gomock.InOrder(
		client.EXPECT().SendResetOTP(gomock.Any(), "ann@example.com").Return(nil),
		client.EXPECT().ResetPassword(gomock.Any(), ports.ResetPasswordInput{
			Email: "ann@example.com", OTP: "123456", NewPassword: "abcdef",
		}).Return(nil),
	)

	w := NewPasswordResetWorkflow(PasswordResetWorkflowOptions{Client: client})
	assert.Equal(t, domainauth.ResetAwaitingEmail, w.Phase())

	require.NoError(t, w.RequestReset(context.Background(), " ann@example.com "))
	snap := w.Snapshot()
	assert.Equal(t, domainauth.ResetOtpIssued, snap.Phase)
	assert.Equal(t, "ann@example.com", snap.Email)

	require.NoError(t, w.CompleteReset(context.Background(), "123456", "abcdef", "abcdef"))
	assert.Equal(t, domainauth.ResetCompleted, w.Phase())
	assert.Empty(t, w.Snapshot().OTP)

	assert.ErrorIs(t, w.CompleteReset(context.Background(), "123456", "abcdef", "abcdef"), ErrWorkflowFinished)
	assert.ErrorIs(t, w.RequestReset(context.Background(), "ann@example.com"), ErrWorkflowFinished)
}

func TestRequestResetValidation(t *testing.T) {
	tests := []struct {
		email string
		msg   string
	}{
		{"", "Email is required"},
		{"   ", "Email is required"},
		{"ann", "Email is invalid"},
		{"ann@example", "Email is invalid"},
		{"@example.com", "Email is invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			client := fakes.NewFakeAuthClient()
			w := NewPasswordResetWorkflow(PasswordResetWorkflowOptions{Client: client})

			err := w.RequestReset(context.Background(), tt.email)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, map[string]string{FieldEmail: tt.msg}, w.Snapshot().FieldErrors)
			assert.Equal(t, domainauth.ResetAwaitingEmail, w.Phase())
			assert.Zero(t, client.TotalCalls())
		})
	}
}

func TestRequestResetRejectedSetsEmailError(t *testing.T) {
	client := fakes.NewFakeAuthClient()
	client.SendResetOTPFunc = func(context.Context, string) error {
		return apperrors.RemoteRejected("User not found", nil)
	}
	w := NewPasswordResetWorkflow(PasswordResetWorkflowOptions{Client: client})

	err := w.RequestReset(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.True(t, apperrors.IsRemoteRejected(err))

	snap := w.Snapshot()
	assert.Equal(t, domainauth.ResetAwaitingEmail, snap.Phase)
	assert.Equal(t, "User not found", snap.FieldErrors[FieldEmail])
	assert.Equal(t, "User not found", snap.LastError)
}

func TestRequestResetUnreachableUsesFallback(t *testing.T) {
	client := fakes.NewFakeAuthClient()
	client.SendResetOTPFunc = func(context.Context, string) error {
		return errors.New("dial tcp: connection refused")
	}
	w := NewPasswordResetWorkflow(PasswordResetWorkflowOptions{Client: client})

	_ = w.RequestReset(context.Background(), "ann@example.com")
	assert.Equal(t, MsgSendResetOTPFailed, w.Snapshot().FieldErrors[FieldEmail])
}

func TestCompleteResetValidationOrder(t *testing.T) {
	tests := []struct {
		name                      string
		otp, newPassword, confirm string
		field, msg                string
	}{
		{"otp only", "", "abcdef", "abcdef", FieldOTP, "OTP is required"},
		{"blank otp", "  ", "abcdef", "abcdef", FieldOTP, "OTP is required"},
		{"otp first", "", "abc", "xyz", FieldOTP, "OTP is required"},
		{"short password", "123456", "abc", "abc", FieldNewPassword, "Password must be at least 6 characters"},
		{"missing password", "123456", "", "", FieldNewPassword, "New password is required"},
		{"mismatch", "123456", "abcdef", "abcxyz", FieldConfirmPassword, "Passwords do not match"},
		{"missing confirmation", "123456", "abcdef", "", FieldConfirmPassword, "Please confirm your password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := fakes.NewFakeAuthClient()
			w := issuedWorkflow(t, client)

			err := w.CompleteReset(context.Background(), tt.otp, tt.newPassword, tt.confirm)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.field, apperrors.GetField(err))
			assert.Equal(t, map[string]string{tt.field: tt.msg}, w.Snapshot().FieldErrors)
			assert.Equal(t, domainauth.ResetOtpIssued, w.Phase())
			assert.Zero(t, client.Calls("ResetPassword"))
		})
	}
}

func TestCompleteResetRejectedIsRetryable(t *testing.T) {
	client := fakes.NewFakeAuthClient()
	attempts := 0
	client.ResetPasswordFunc = func(_ context.Context, in ports.ResetPasswordInput) error {
		attempts++
		if in.OTP != "654321" {
			return apperrors.RemoteRejected("Invalid OTP", nil)
		}
		return nil
	}
	w := issuedWorkflow(t, client)

	err := w.CompleteReset(context.Background(), "111111", "abcdef", "abcdef")
	require.Error(t, err)
	assert.Equal(t, domainauth.ResetFailed, w.Phase())
	assert.Equal(t, "Invalid OTP", w.Snapshot().LastError)
	assert.Equal(t, "111111", w.Snapshot().OTP)

	require.NoError(t, w.CompleteReset(context.Background(), "654321", "abcdef", "abcdef"))
	assert.Equal(t, domainauth.ResetCompleted, w.Phase())
	assert.Equal(t, 2, attempts)
}

func TestCompleteResetBeforeEmail(t *testing.T) {
	client := fakes.NewFakeAuthClient()
	w := NewPasswordResetWorkflow(PasswordResetWorkflowOptions{Client: client})

	err := w.CompleteReset(context.Background(), "123456", "abcdef", "abcdef")
	assert.Equal(t, FieldEmail, apperrors.GetField(err))
	assert.Zero(t, client.TotalCalls())
}

func TestBackToEmail(t *testing.T) {
	client := fakes.NewFakeAuthClient()
	w := issuedWorkflow(t, client)
	_ = w.CompleteReset(context.Background(), "123456", "abc", "abc")

	require.NoError(t, w.BackToEmail())
	snap := w.Snapshot()
	assert.Equal(t, domainauth.ResetAwaitingEmail, snap.Phase)
	assert.Empty(t, snap.FieldErrors)
	assert.Empty(t, snap.OTP)

	require.NoError(t, w.RequestReset(context.Background(), "other@example.com"))
	assert.Equal(t, "other@example.com", w.Snapshot().Email)
}

func TestPasswordResetInFlightGuard(t *testing.T) {
	client := fakes.NewFakeAuthClient()
	entered := make(chan struct{})
	release := make(chan struct{})
	client.ResetPasswordFunc = func(context.Context, ports.ResetPasswordInput) error {
		close(entered)
		<-release
		return nil
	}
	w := issuedWorkflow(t, client)

	done := make(chan error, 1)
	go func() { done <- w.CompleteReset(context.Background(), "123456", "abcdef", "abcdef") }()
	<-entered

	assert.Equal(t, domainauth.ResetResetting, w.Phase())
	assert.ErrorIs(t, w.CompleteReset(context.Background(), "123456", "abcdef", "abcdef"), ErrOperationInFlight)
	assert.ErrorIs(t, w.RequestReset(context.Background(), "ann@example.com"), ErrOperationInFlight)
	assert.ErrorIs(t, w.BackToEmail(), ErrOperationInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, client.Calls("ResetPassword"))
}
