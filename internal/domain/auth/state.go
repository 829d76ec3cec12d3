package auth

// SessionState is the lifecycle state of a session manager.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticating
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// VerificationPhase is the phase of the email-verification workflow.
type VerificationPhase int

const (
	VerificationIdle VerificationPhase = iota
	// VerificationOtpRequested means the send-otp call is in flight.
	VerificationOtpRequested
	// VerificationAwaitingCode means an OTP was sent and input is expected.
	VerificationAwaitingCode
	// VerificationSubmitting means the verify-otp call is in flight.
	VerificationSubmitting
	VerificationVerified
	// VerificationFailed is resumable: the user may resubmit a code.
	VerificationFailed
)

func (p VerificationPhase) String() string {
	switch p {
	case VerificationIdle:
		return "idle"
	case VerificationOtpRequested:
		return "otp_requested"
	case VerificationAwaitingCode:
		return "awaiting_code"
	case VerificationSubmitting:
		return "submitting"
	case VerificationVerified:
		return "verified"
	case VerificationFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InFlight reports whether a remote call is outstanding in this phase.
func (p VerificationPhase) InFlight() bool {
	return p == VerificationOtpRequested || p == VerificationSubmitting
}

// ResetPhase is the phase of the password-reset workflow.
type ResetPhase int

const (
	ResetAwaitingEmail ResetPhase = iota
	// ResetOtpIssued means the reset OTP was sent to the email on record.
	ResetOtpIssued
	// ResetResetting means the reset-password call is in flight.
	ResetResetting
	ResetCompleted
	// ResetFailed means the reset call failed; the OTP form stays usable.
	ResetFailed
)

func (p ResetPhase) String() string {
	switch p {
	case ResetAwaitingEmail:
		return "awaiting_email"
	case ResetOtpIssued:
		return "otp_issued"
	case ResetResetting:
		return "resetting"
	case ResetCompleted:
		return "completed"
	case ResetFailed:
		return "failed"
	default:
		return "unknown"
	}
}
