package auth

import (
	"testing"
	"time"
)

func TestSession_Valid(t *testing.T) {
	if (Session{}).Valid() {
		t.Fatalf("empty session must not be valid")
	}
	if !(Session{Token: "t", Identity: Identity{Email: "e"}}).Valid() {
		t.Fatalf("expected valid session")
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	if (Session{Token: "t"}).Expired(now) {
		t.Fatalf("zero expiry never expires")
	}
	if !(Session{Token: "t", ExpiresAt: now.Add(-time.Minute)}).Expired(now) {
		t.Fatalf("expected expired")
	}
	if (Session{Token: "t", ExpiresAt: now.Add(time.Minute)}).Expired(now) {
		t.Fatalf("did not expect expired")
	}
}

func TestIdentity_Minimal(t *testing.T) {
	if !(Identity{Email: "a@b.co"}).Minimal() {
		t.Fatalf("email-only identity is minimal")
	}
	if (Identity{Email: "a@b.co", UserID: "u1"}).Minimal() {
		t.Fatalf("identity with user id is not minimal")
	}
}

func TestIdentity_DisplayName(t *testing.T) {
	if got := (Identity{Email: "a@b.co"}).DisplayName(); got != "a@b.co" {
		t.Fatalf("DisplayName() = %q", got)
	}
	if got := (Identity{Email: "a@b.co", Name: "Ann"}).DisplayName(); got != "Ann" {
		t.Fatalf("DisplayName() = %q", got)
	}
}

func TestPhaseStrings(t *testing.T) {
	if VerificationAwaitingCode.String() != "awaiting_code" {
		t.Fatalf("unexpected %q", VerificationAwaitingCode.String())
	}
	if !VerificationSubmitting.InFlight() || VerificationAwaitingCode.InFlight() {
		t.Fatalf("unexpected in-flight classification")
	}
	if ResetOtpIssued.String() != "otp_issued" {
		t.Fatalf("unexpected %q", ResetOtpIssued.String())
	}
	if StateAuthenticated.String() != "authenticated" {
		t.Fatalf("unexpected %q", StateAuthenticated.String())
	}
}
