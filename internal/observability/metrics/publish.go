// Package metrics provides standardised metric emission for publish
// lifecycle events.
package metrics

import (
	"time"

	obserrors "github.com/botstack/publisher/internal/observability/errors"
	"github.com/botstack/publisher/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Transition constants for publish lifecycle tagging.
const (
	TransitionAccepted  = "accepted"
	TransitionRejected  = "rejected"
	TransitionCompleted = "completed"
)

// PublishMetric captures details about one publish lifecycle event.
type PublishMetric struct {
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// ResultFor maps an error to the standard result tag value.
func ResultFor(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// EmitPublishLifecycle emits a counter for the transition and, when a
// duration is known, a timing metric. A nil sink is a no-op.
func EmitPublishLifecycle(sink statsd.Sink, in PublishMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("publish.transition", 1, tags)
	if in.Duration > 0 {
		sink.Timing("publish.duration", in.Duration, cloneTags(tags))
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
