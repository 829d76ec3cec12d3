package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	apperrors "github.com/target/authify-client/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation", err: apperrors.ValidationField("otp", "OTP is required"), want: "validation"},
		{name: "wrapped app error", err: fmt.Errorf("login: %w", apperrors.RemoteRejected("nope", nil)), want: "remote_rejected"},
		{name: "canceled", err: fmt.Errorf("acquire: %w", context.Canceled), want: ClassCanceled},
		{name: "deadline", err: fmt.Errorf("wrap: %w", context.DeadlineExceeded), want: ClassTimeout},
		{name: "dial", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, want: ClassNetwork},
		{name: "net timeout", err: &net.DNSError{Err: "timeout", Name: "auth.local", IsTimeout: true}, want: ClassTimeout},
		{name: "plain", err: errors.New("plain"), want: ClassUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
