package ports_test

import (
	"testing"

	"github.com/target/authify-client/internal/mocks"
	fakes "github.com/target/authify-client/internal/mocks/auth"
	"github.com/target/authify-client/internal/ports"
)

// This test only verifies that our mocks conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.AuthClient = (*fakes.FakeAuthClient)(nil)
	var _ ports.AuthClient = (*mocks.MockAuthClient)(nil)
	var _ ports.SessionStore = (*mocks.MockSessionStore)(nil)
	var _ ports.IdentityObserver = (*fakes.RecordingObserver)(nil)
	var _ ports.IdentityObserver = ports.IdentityObserverFunc(func(ports.IdentityEvent) {})
}

func TestProfile_Identity(t *testing.T) {
	p := ports.Profile{UserID: "u1", Name: "Ann", Email: "ann@example.com", IsAccountVerified: true}
	id := p.Identity()
	if id.UserID != "u1" || id.Name != "Ann" || id.Email != "ann@example.com" || !id.IsVerified {
		t.Fatalf("unexpected identity: %+v", id)
	}
}
