package job

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neighborcast/neighborcast-api/internal/domain/model"
)

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status   model.JobStatus
		terminal bool
	}{
		{model.JobStatusPending, false},
		{model.JobStatusRunning, false},
		{model.JobStatusCompleted, true},
		{model.JobStatusError, true},
		{model.JobStatusCancelled, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, IsTerminal(tt.status))
		})
	}
}

func TestCanTransition_NoMovesOutOfTerminalStates(t *testing.T) {
	for _, from := range model.AllJobStatuses {
		if !IsTerminal(from) {
			continue
		}
		for _, to := range model.AllJobStatuses {
			assert.False(t, CanTransition(from, to), "%s -> %s must be rejected", from, to)
		}
	}
}

func TestCanTransition_LegalMoves(t *testing.T) {
	legal := [][2]model.JobStatus{
		{model.JobStatusPending, model.JobStatusRunning},
		{model.JobStatusPending, model.JobStatusCancelled},
		{model.JobStatusRunning, model.JobStatusCompleted},
		{model.JobStatusRunning, model.JobStatusError},
		{model.JobStatusRunning, model.JobStatusCancelled},
		{model.JobStatusRunning, model.JobStatusPending},
	}
	for _, pair := range legal {
		assert.True(t, CanTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}

	assert.False(t, CanTransition(model.JobStatusPending, model.JobStatusCompleted))
	assert.False(t, CanTransition(model.JobStatusPending, model.JobStatusError))
	assert.False(t, CanTransition(model.JobStatusPending, model.JobStatusPending))
}

func TestDeletable(t *testing.T) {
	for _, s := range model.AllJobStatuses {
		want := s == model.JobStatusPending || s == model.JobStatusRunning
		assert.Equal(t, want, Deletable(s), string(s))
	}
	assert.ElementsMatch(t,
		[]model.JobStatus{model.JobStatusPending, model.JobStatusRunning},
		DeletableStatuses())
}

func TestRetryable(t *testing.T) {
	for _, s := range model.AllJobStatuses {
		want := s == model.JobStatusError || s == model.JobStatusCancelled
		assert.Equal(t, want, Retryable(s), string(s))
	}
	assert.ElementsMatch(t,
		[]model.JobStatus{model.JobStatusError, model.JobStatusCancelled},
		RetryableStatuses())
}
