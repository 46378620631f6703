package data

import "errors"

// Shared sentinel errors for data-layer repositories. They are attached as the
// Cause of the AppError a repository returns so callers can match with errors.Is.
var (
	// Job repository sentinels.
	ErrJobNotFound        = errors.New("job not found")
	ErrJobNotDeletable    = errors.New("job cannot be deleted (must be pending or running)")
	ErrJobNotRetryable    = errors.New("job cannot be retried (must be error or cancelled)")
	ErrRetryAlreadyQueued = errors.New("a retry of this job is already queued")
	ErrInvalidTransition  = errors.New("invalid job status transition")

	// Weight configuration sentinels.
	ErrWeightConfigNotFound = errors.New("weight configuration not found")
)
