package service

import (
	"context"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	domainauth "github.com/target/authify-client/internal/domain/auth"
	apperrors "github.com/target/authify-client/internal/errors"
	"github.com/target/authify-client/internal/observability/metrics"
	"github.com/target/authify-client/internal/observability/statsd"
	"github.com/target/authify-client/internal/ports"
)

// Fallback messages for the password reset workflow.
const (
	MsgSendResetOTPFailed = "Failed to send OTP. Please try again."
	MsgResetFailed        = "Failed to reset password. Please try again."
)

// PasswordResetWorkflowOptions groups dependencies for PasswordResetWorkflow.
type PasswordResetWorkflowOptions struct {
	Client  ports.AuthClient // Required: remote auth service
	Logger  *slog.Logger     // Optional
	Metrics statsd.Sink      // Optional
}

// ResetSnapshot is the presentation view of the reset workflow.
type ResetSnapshot struct {
	Phase       domainauth.ResetPhase
	Email       string
	OTP         string
	FieldErrors map[string]string
	LastError   string
}

// PasswordResetWorkflow drives the two-step reset: request a code for an
// email, then submit the code with a new password. It needs no session.
type PasswordResetWorkflow struct {
	client  ports.AuthClient
	logger  *slog.Logger
	metrics statsd.Sink

	mu          sync.Mutex
	phase       domainauth.ResetPhase
	busy        bool
	email       string
	otp         string
	fieldErrors map[string]string
	lastErr     string
}

// NewPasswordResetWorkflow constructs a workflow awaiting an email.
func NewPasswordResetWorkflow(opts PasswordResetWorkflowOptions) *PasswordResetWorkflow {
	if opts.Client == nil {
		panic("AuthClient is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PasswordResetWorkflow{
		client:      opts.Client,
		logger:      logger.With("component", "password_reset_workflow"),
		metrics:     opts.Metrics,
		fieldErrors: map[string]string{},
	}
}

// Phase returns the current phase.
func (w *PasswordResetWorkflow) Phase() domainauth.ResetPhase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// Snapshot returns a copy of the presentation state. Passwords are never retained.
func (w *PasswordResetWorkflow) Snapshot() ResetSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ResetSnapshot{
		Phase:       w.phase,
		Email:       w.email,
		OTP:         w.otp,
		FieldErrors: maps.Clone(w.fieldErrors),
		LastError:   w.lastErr,
	}
}

// RequestReset validates email and asks the service to send a reset code.
// A rejected request is reported as an error on the email field.
func (w *PasswordResetWorkflow) RequestReset(ctx context.Context, email string) (err error) {
	start := time.Now()
	defer func() { w.emit("request_reset", start, err) }()

	form := resetEmailForm{Email: strings.TrimSpace(email)}

	w.mu.Lock()
	switch {
	case w.busy || w.phase == domainauth.ResetResetting:
		w.mu.Unlock()
		return ErrOperationInFlight
	case w.phase == domainauth.ResetCompleted:
		w.mu.Unlock()
		return ErrWorkflowFinished
	}

	w.clearErrorsLocked()
	if err := validateForm(form); err != nil {
		w.fieldErrors[apperrors.GetField(err)] = apperrors.UserMessage(err, "")
		w.mu.Unlock()
		return err
	}
	w.busy = true
	w.mu.Unlock()

	callErr := w.client.SendResetOTP(ctx, form.Email)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy = false
	if callErr != nil {
		err = remoteFailure(callErr, MsgSendResetOTPFailed)
		msg := apperrors.UserMessage(err, MsgSendResetOTPFailed)
		w.phase = domainauth.ResetAwaitingEmail
		w.fieldErrors[FieldEmail] = msg
		w.lastErr = msg
		w.logger.WarnContext(ctx, "send reset otp failed", "email", form.Email, "error", callErr)
		return err
	}

	w.email = form.Email
	w.phase = domainauth.ResetOtpIssued
	w.logger.InfoContext(ctx, "reset otp sent", "email", form.Email)
	return nil
}

// CompleteReset checks otp, then newPassword, then confirmPassword, stopping at
// the first failing field, and submits the reset. A rejected reset leaves the
// code form usable for another attempt.
func (w *PasswordResetWorkflow) CompleteReset(ctx context.Context, otp, newPassword, confirmPassword string) (err error) {
	start := time.Now()
	defer func() { w.emit("complete_reset", start, err) }()

	form := completeResetForm{
		OTP:             strings.TrimSpace(otp),
		NewPassword:     newPassword,
		ConfirmPassword: confirmPassword,
	}

	w.mu.Lock()
	switch {
	case w.busy || w.phase == domainauth.ResetResetting:
		w.mu.Unlock()
		return ErrOperationInFlight
	case w.phase == domainauth.ResetCompleted:
		w.mu.Unlock()
		return ErrWorkflowFinished
	case w.phase == domainauth.ResetAwaitingEmail:
		w.mu.Unlock()
		return apperrors.ValidationField(FieldEmail, fieldMessages[ruleKey{FieldEmail, "required"}])
	}

	w.clearErrorsLocked()
	w.otp = form.OTP
	if err := validateForm(form); err != nil {
		w.fieldErrors[apperrors.GetField(err)] = apperrors.UserMessage(err, "")
		w.mu.Unlock()
		return err
	}
	w.phase = domainauth.ResetResetting
	in := ports.ResetPasswordInput{Email: w.email, OTP: form.OTP, NewPassword: form.NewPassword}
	w.mu.Unlock()

	callErr := w.client.ResetPassword(ctx, in)

	w.mu.Lock()
	defer w.mu.Unlock()
	if callErr != nil {
		err = remoteFailure(callErr, MsgResetFailed)
		w.phase = domainauth.ResetFailed
		w.lastErr = apperrors.UserMessage(err, MsgResetFailed)
		w.logger.WarnContext(ctx, "reset password failed", "email", in.Email, "error", callErr)
		return err
	}

	w.phase = domainauth.ResetCompleted
	w.otp = ""
	w.logger.InfoContext(ctx, "password reset", "email", in.Email)
	return nil
}

// BackToEmail returns to the email step, discarding the entered code.
func (w *PasswordResetWorkflow) BackToEmail() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.busy || w.phase == domainauth.ResetResetting:
		return ErrOperationInFlight
	case w.phase == domainauth.ResetCompleted:
		return ErrWorkflowFinished
	}
	w.phase = domainauth.ResetAwaitingEmail
	w.otp = ""
	w.clearErrorsLocked()
	return nil
}

func (w *PasswordResetWorkflow) clearErrorsLocked() {
	clear(w.fieldErrors)
	w.lastErr = ""
}

func (w *PasswordResetWorkflow) emit(op string, start time.Time, err error) {
	metrics.EmitSessionEvent(w.metrics, metrics.SessionEvent{
		Operation: op,
		Duration:  time.Since(start),
		Err:       err,
	})
}
