package auth

// Package auth contains simple hand-written test doubles for the auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"

	domainauth "github.com/target/authify-client/internal/domain/auth"
	"github.com/target/authify-client/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthClient       = (*FakeAuthClient)(nil)
	_ ports.IdentityObserver = (*RecordingObserver)(nil)
)

// FakeAuthClient answers every call from its Func fields, or with canned
// success values when a Func is nil. It counts calls per operation.
type FakeAuthClient struct {
	RegisterFunc      func(ctx context.Context, in ports.RegisterInput) (ports.Profile, error)
	LoginFunc         func(ctx context.Context, in ports.LoginInput) (ports.LoginResult, error)
	SendResetOTPFunc  func(ctx context.Context, email string) error
	ResetPasswordFunc func(ctx context.Context, in ports.ResetPasswordInput) error
	SendVerifyOTPFunc func(ctx context.Context, token string) error
	VerifyOTPFunc     func(ctx context.Context, token, otp string) error
	VerifyEmailFunc   func(ctx context.Context, email, otp string) error
	GetProfileFunc    func(ctx context.Context, token string) (ports.Profile, error)

	// DefaultProfile is returned by GetProfile and Register when no Func is set.
	DefaultProfile ports.Profile

	mu    sync.Mutex
	calls map[string]int
}

// NewFakeAuthClient creates a FakeAuthClient with a verified default profile.
func NewFakeAuthClient() *FakeAuthClient {
	return &FakeAuthClient{
		DefaultProfile: ports.Profile{
			UserID:            "user-1",
			Name:              "Mock User",
			Email:             "mock.user@example.com",
			IsAccountVerified: false,
		},
	}
}

// Calls returns how many times op was invoked.
func (f *FakeAuthClient) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (f *FakeAuthClient) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *FakeAuthClient) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
}

func (f *FakeAuthClient) Register(ctx context.Context, in ports.RegisterInput) (ports.Profile, error) {
	f.record("Register")
	if f.RegisterFunc != nil {
		return f.RegisterFunc(ctx, in)
	}
	p := f.DefaultProfile
	p.Name, p.Email, p.IsAccountVerified = in.Name, in.Email, false
	return p, nil
}

func (f *FakeAuthClient) Login(ctx context.Context, in ports.LoginInput) (ports.LoginResult, error) {
	f.record("Login")
	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, in)
	}
	return ports.LoginResult{Token: "token-" + in.Email, Email: in.Email}, nil
}

func (f *FakeAuthClient) SendResetOTP(ctx context.Context, email string) error {
	f.record("SendResetOTP")
	if f.SendResetOTPFunc != nil {
		return f.SendResetOTPFunc(ctx, email)
	}
	return nil
}

func (f *FakeAuthClient) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error {
	f.record("ResetPassword")
	if f.ResetPasswordFunc != nil {
		return f.ResetPasswordFunc(ctx, in)
	}
	return nil
}

func (f *FakeAuthClient) SendVerifyOTP(ctx context.Context, token string) error {
	f.record("SendVerifyOTP")
	if f.SendVerifyOTPFunc != nil {
		return f.SendVerifyOTPFunc(ctx, token)
	}
	return nil
}

func (f *FakeAuthClient) VerifyOTP(ctx context.Context, token, otp string) error {
	f.record("VerifyOTP")
	if f.VerifyOTPFunc != nil {
		return f.VerifyOTPFunc(ctx, token, otp)
	}
	return nil
}

func (f *FakeAuthClient) VerifyEmail(ctx context.Context, email, otp string) error {
	f.record("VerifyEmail")
	if f.VerifyEmailFunc != nil {
		return f.VerifyEmailFunc(ctx, email, otp)
	}
	return nil
}

func (f *FakeAuthClient) GetProfile(ctx context.Context, token string) (ports.Profile, error) {
	f.record("GetProfile")
	if f.GetProfileFunc != nil {
		return f.GetProfileFunc(ctx, token)
	}
	return f.DefaultProfile, nil
}

// RecordingObserver stores every identity event it receives.
type RecordingObserver struct {
	mu     sync.Mutex
	events []ports.IdentityEvent
}

func (r *RecordingObserver) OnIdentity(ev ports.IdentityEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *RecordingObserver) Events() []ports.IdentityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.IdentityEvent(nil), r.events...)
}

// Last returns the most recent event, or a zero event when none was recorded.
func (r *RecordingObserver) Last() ports.IdentityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return ports.IdentityEvent{State: domainauth.StateUnauthenticated}
	}
	return r.events[len(r.events)-1]
}
