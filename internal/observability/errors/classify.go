package errors

import (
	"context"
	goerrors "errors"
	"net"

	apperrors "github.com/target/authify-client/internal/errors"
)

// Error classes reported for errors that carry no AppError code.
const (
	ClassCanceled = "canceled"
	ClassTimeout  = "timeout"
	ClassNetwork  = "network"
	ClassUnknown  = "unknown"
)

// Classify returns a low-cardinality class for tagging metrics and logs.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}

	var netErr net.Error
	switch {
	case goerrors.Is(err, context.Canceled):
		return ClassCanceled
	case goerrors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	case goerrors.As(err, &netErr):
		if netErr.Timeout() {
			return ClassTimeout
		}
		return ClassNetwork
	default:
		return ClassUnknown
	}
}
