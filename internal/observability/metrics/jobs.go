// Package metrics translates job lifecycle and cache events into StatsD metrics.
package metrics

import (
	"time"

	"github.com/neighborcast/neighborcast-api/internal/domain/model"
	obserrors "github.com/neighborcast/neighborcast-api/internal/observability/errors"
	"github.com/neighborcast/neighborcast-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Job transitions reported by the job service.
const (
	TransitionSubmit   = "submit"
	TransitionClaim    = "claim"
	TransitionProgress = "progress"
	TransitionComplete = "complete"
	TransitionActivate = "activate"
	TransitionFail     = "fail"
	TransitionRequeue  = "requeue"
	TransitionCancel   = "cancel"
	TransitionRetry    = "retry"
)

// JobMetric captures details about a job lifecycle event for metric emission.
type JobMetric struct {
	JobType    string
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitJobLifecycle emits job.transition, and job.duration when a duration is known.
func EmitJobLifecycle(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"job_type":   in.JobType,
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("job.transition", 1, tags)
	if in.Duration > 0 {
		sink.Timing("job.duration", in.Duration, CloneTags(tags))
	}
}

// RunDuration is the time a job spent running, or zero if it never started or has not finished.
func RunDuration(job *model.Job) time.Duration {
	if job == nil || job.StartedAt == nil || job.CompletedAt == nil {
		return 0
	}
	d := job.CompletedAt.Sub(*job.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
