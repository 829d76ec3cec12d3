package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	domainauth "github.com/target/authify-client/internal/domain/auth"
	apperrors "github.com/target/authify-client/internal/errors"
)

// Fallback messages for the verification workflow.
const (
	MsgSendOTPFailed      = "Failed to send OTP. Please try again."
	MsgVerificationFailed = "Verification failed. Please check your OTP."
)

// VerificationWorkflowOptions groups dependencies for VerificationWorkflow.
type VerificationWorkflowOptions struct {
	Sessions *SessionManager // Required: supplies the token and receives the refreshed identity
	Logger   *slog.Logger    // Optional
}

// VerificationSnapshot is the presentation view of the workflow.
type VerificationSnapshot struct {
	Phase     domainauth.VerificationPhase
	LastError string
}

// VerificationWorkflow drives email verification by OTP for the active session.
// It is advisory: an unverified session stays usable and the user may Skip.
type VerificationWorkflow struct {
	sessions *SessionManager
	logger   *slog.Logger

	mu      sync.Mutex
	phase   domainauth.VerificationPhase
	lastErr string
	// gen changes on Skip so that a call completing afterwards is discarded.
	gen uint64
}

// NewVerificationWorkflow constructs a workflow in the Idle phase.
func NewVerificationWorkflow(opts VerificationWorkflowOptions) *VerificationWorkflow {
	if opts.Sessions == nil {
		panic("SessionManager is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = opts.Sessions.logger
	}
	return &VerificationWorkflow{
		sessions: opts.Sessions,
		logger:   logger.With("component", "verification_workflow"),
	}
}

// Phase returns the current phase.
func (w *VerificationWorkflow) Phase() domainauth.VerificationPhase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// LastError returns the message of the most recent failure, if any.
func (w *VerificationWorkflow) LastError() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Snapshot returns phase and last error together.
func (w *VerificationWorkflow) Snapshot() VerificationSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return VerificationSnapshot{Phase: w.phase, LastError: w.lastErr}
}

// RequestOtp asks the service to email a verification code. Requesting again
// while a code is awaited is a no-op.
func (w *VerificationWorkflow) RequestOtp(ctx context.Context) (err error) {
	start := w.sessions.now()
	noop := false
	defer func() { w.sessions.emit("request_otp", start, err, noop) }()

	w.mu.Lock()
	switch {
	case w.phase.InFlight():
		w.mu.Unlock()
		return ErrOperationInFlight
	case w.phase == domainauth.VerificationAwaitingCode, w.phase == domainauth.VerificationVerified:
		w.mu.Unlock()
		noop = true
		return nil
	}

	token, err := w.sessions.Token()
	if err != nil {
		w.phase = domainauth.VerificationIdle
		w.lastErr = apperrors.UserMessage(err, MsgNoSession)
		w.mu.Unlock()
		return err
	}
	w.phase = domainauth.VerificationOtpRequested
	w.lastErr = ""
	gen := w.gen
	w.mu.Unlock()

	callErr := w.sessions.client.SendVerifyOTP(ctx, token)
	if callErr != nil && apperrors.IsTokenRejected(callErr) {
		w.sessions.rejectToken(ctx, token)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return nil
	}
	if callErr != nil {
		err = remoteFailure(callErr, MsgSendOTPFailed)
		w.phase = domainauth.VerificationIdle
		w.lastErr = apperrors.UserMessage(err, MsgSendOTPFailed)
		w.logger.WarnContext(ctx, "send verification otp failed", "error", callErr)
		return err
	}
	w.phase = domainauth.VerificationAwaitingCode
	return nil
}

// SubmitOtp verifies code. Blank input fails locally without a remote call.
// On success the profile is re-fetched and applied to the session.
func (w *VerificationWorkflow) SubmitOtp(ctx context.Context, code string) (err error) {
	start := w.sessions.now()
	noop := false
	defer func() { w.sessions.emit("submit_otp", start, err, noop) }()

	form := otpForm{OTP: strings.TrimSpace(code)}

	w.mu.Lock()
	switch {
	case w.phase.InFlight():
		w.mu.Unlock()
		return ErrOperationInFlight
	case w.phase == domainauth.VerificationVerified:
		w.mu.Unlock()
		noop = true
		return nil
	}

	if err := validateForm(form); err != nil {
		w.failLocked(apperrors.UserMessage(err, ""))
		w.mu.Unlock()
		return err
	}

	token, err := w.sessions.Token()
	if err != nil {
		w.failLocked(apperrors.UserMessage(err, MsgNoSession))
		w.mu.Unlock()
		return err
	}
	w.phase = domainauth.VerificationSubmitting
	w.lastErr = ""
	gen := w.gen
	w.mu.Unlock()

	callErr := w.sessions.client.VerifyOTP(ctx, token, form.OTP)
	if callErr != nil {
		if apperrors.IsTokenRejected(callErr) {
			w.sessions.rejectToken(ctx, token)
		}
		err = remoteFailure(callErr, MsgVerificationFailed)
		w.logger.WarnContext(ctx, "verify otp failed", "error", callErr)
		w.finish(gen, func() { w.failLocked(apperrors.UserMessage(err, MsgVerificationFailed)) })
		return err
	}

	w.applyVerified(ctx, "")
	w.finish(gen, func() { w.phase = domainauth.VerificationVerified })
	w.logger.InfoContext(ctx, "email verified")
	return nil
}

// ConfirmEmail verifies an address with a code without requiring a session.
// When the address belongs to the active session its identity is marked verified.
func (w *VerificationWorkflow) ConfirmEmail(ctx context.Context, email, otp string) (err error) {
	start := w.sessions.now()
	defer func() { w.sessions.emit("confirm_email", start, err, false) }()

	form := confirmEmailForm{Email: strings.TrimSpace(email), OTP: strings.TrimSpace(otp)}

	w.mu.Lock()
	if w.phase.InFlight() {
		w.mu.Unlock()
		return ErrOperationInFlight
	}
	if err := validateForm(form); err != nil {
		w.failLocked(apperrors.UserMessage(err, ""))
		w.mu.Unlock()
		return err
	}
	w.phase = domainauth.VerificationSubmitting
	w.lastErr = ""
	gen := w.gen
	w.mu.Unlock()

	if callErr := w.sessions.client.VerifyEmail(ctx, form.Email, form.OTP); callErr != nil {
		err = remoteFailure(callErr, MsgVerificationFailed)
		w.logger.WarnContext(ctx, "verify email failed", "email", form.Email, "error", callErr)
		w.finish(gen, func() { w.failLocked(apperrors.UserMessage(err, MsgVerificationFailed)) })
		return err
	}

	if w.sessions.IsAuthenticated() {
		w.applyVerified(ctx, form.Email)
	}
	w.finish(gen, func() { w.phase = domainauth.VerificationVerified })
	w.logger.InfoContext(ctx, "email verified", "email", form.Email)
	return nil
}

// Skip abandons the workflow. A call still in flight completes but its result
// no longer changes the phase. Skip after Verified does nothing.
func (w *VerificationWorkflow) Skip() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase == domainauth.VerificationVerified {
		return
	}
	w.gen++
	w.phase = domainauth.VerificationIdle
	w.lastErr = ""
}

// applyVerified refreshes the identity from the service, falling back to a
// local IsVerified flip when the profile cannot be fetched.
func (w *VerificationWorkflow) applyVerified(ctx context.Context, email string) {
	if email == "" {
		_, err := w.sessions.RefreshProfile(ctx)
		if err == nil || apperrors.IsTokenRejected(err) || apperrors.IsNoActiveSession(err) {
			return
		}
		w.logger.WarnContext(ctx, "profile refresh after verification failed", "error", err)
	}
	if err := w.sessions.markVerified(ctx, email); err != nil && !apperrors.IsNoActiveSession(err) {
		w.logger.WarnContext(ctx, "mark identity verified failed", "error", err)
	}
}

func (w *VerificationWorkflow) finish(gen uint64, apply func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen == w.gen {
		apply()
	}
}

// failLocked requires w.mu.
func (w *VerificationWorkflow) failLocked(msg string) {
	w.lastErr = msg
	if w.phase != domainauth.VerificationIdle {
		w.phase = domainauth.VerificationFailed
	}
}
