package metrics

import (
	"time"

	obserrors "github.com/target/authify-client/internal/observability/errors"
	"github.com/target/authify-client/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Metric names.
const (
	SessionOperation = "session.operation"
	SessionDuration  = "session.duration"
)

// SessionEvent describes one session or workflow operation.
type SessionEvent struct {
	Operation string
	Duration  time.Duration
	Err       error
	// Noop marks operations that returned early without a remote call.
	Noop bool
}

// Result derives the result tag from the event.
func (e SessionEvent) Result() string {
	switch {
	case e.Err != nil:
		return ResultError
	case e.Noop:
		return ResultNoop
	default:
		return ResultSuccess
	}
}

// EmitSessionEvent emits a counter and, when a duration is known, a timing.
func EmitSessionEvent(sink statsd.Sink, ev SessionEvent) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"operation": ev.Operation,
		"result":    ev.Result(),
	}
	if ev.Err != nil {
		if class := obserrors.Classify(ev.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count(SessionOperation, 1, tags)

	if ev.Duration > 0 {
		sink.Timing(SessionDuration, ev.Duration, cloneTags(tags))
	}
}

func cloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
