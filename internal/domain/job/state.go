// Package job holds the pure rules of the background job lifecycle: the state
// machine, retry budgets, list limits and stats aggregation.
package job

import "github.com/neighborcast/neighborcast-api/internal/domain/model"

// transitions lists the legal moves out of each non-terminal state.
// running → pending is the executor's transient-failure requeue.
var transitions = map[model.JobStatus][]model.JobStatus{
	model.JobStatusPending: {model.JobStatusRunning, model.JobStatusCancelled},
	model.JobStatusRunning: {
		model.JobStatusCompleted,
		model.JobStatusError,
		model.JobStatusCancelled,
		model.JobStatusPending,
	},
}

// IsTerminal reports whether no further transition is permitted from s.
func IsTerminal(s model.JobStatus) bool {
	return s == model.JobStatusCompleted || s == model.JobStatusError || s == model.JobStatusCancelled
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to model.JobStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Deletable reports whether a job in status s may be deleted.
// Only queued or in-flight work can be removed; terminal rows are audit history.
func Deletable(s model.JobStatus) bool {
	return s == model.JobStatusPending || s == model.JobStatusRunning
}

// DeletableStatuses lists the statuses Deletable accepts, for SQL guards.
func DeletableStatuses() []model.JobStatus {
	return []model.JobStatus{model.JobStatusPending, model.JobStatusRunning}
}

// Retryable reports whether a job in status s may be cloned by the Retry Controller.
func Retryable(s model.JobStatus) bool {
	return s == model.JobStatusError || s == model.JobStatusCancelled
}

// RetryableStatuses lists the statuses Retryable accepts, for SQL guards.
func RetryableStatuses() []model.JobStatus {
	return []model.JobStatus{model.JobStatusError, model.JobStatusCancelled}
}
