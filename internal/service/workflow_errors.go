package service

import (
	"errors"

	apperrors "github.com/target/authify-client/internal/errors"
)

var (
	// ErrOperationInFlight is returned when a workflow step is triggered while a
	// remote call for the same workflow is still outstanding.
	ErrOperationInFlight = errors.New("operation already in flight")
	// ErrWorkflowFinished is returned by steps invoked after a terminal phase.
	ErrWorkflowFinished = errors.New("workflow already finished")
)

// remoteFailure normalizes an AuthClient error so the caller always receives an
// AppError carrying a user-facing message. Token rejections surface as
// RemoteRejected.
func remoteFailure(err error, fallback string) error {
	if err == nil {
		return nil
	}
	code := apperrors.GetCode(err)
	msg := apperrors.UserMessage(err, fallback)
	switch {
	case apperrors.IsTokenRejected(err) && code != apperrors.ErrCodeRemoteRejected:
		return apperrors.RemoteRejected(msg, err)
	case code == "":
		return apperrors.RemoteRejected(fallback, err)
	default:
		return err
	}
}
