// Package model defines the core data types shared by the neighborcast job queue,
// the bulk query resolver and the active-configuration cache.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType represents the kind of asynchronous work a job carries.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// JobStatus represents the current status of a job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobStatus string

const (
	// JobTypeBackfillDimension scores one dimension for posts missing it.
	JobTypeBackfillDimension JobType = "backfill_dimension"
	// JobTypeFetchPermalink fetches a single post by permalink.
	JobTypeFetchPermalink JobType = "fetch_permalink"
	// JobTypeRecomputeFinalScores recomputes ranking scores for a weight configuration.
	JobTypeRecomputeFinalScores JobType = "recompute_final_scores"
	// JobTypeReprocess re-runs scoring for a single post.
	JobTypeReprocess JobType = "reprocess"
	// JobTypeRunScraper runs one scraper session against a feed.
	JobTypeRunScraper JobType = "run_scraper"

	// JobStatusPending indicates a job is waiting to be claimed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates an executor is working on the job.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusError indicates the job failed permanently or ran out of retries.
	JobStatusError JobStatus = "error"
	// JobStatusCancelled indicates the job was cancelled before finishing.
	JobStatusCancelled JobStatus = "cancelled"
)

// AllJobTypes lists the closed enumeration of job types in display order.
var AllJobTypes = []JobType{
	JobTypeBackfillDimension,
	JobTypeFetchPermalink,
	JobTypeRecomputeFinalScores,
	JobTypeReprocess,
	JobTypeRunScraper,
}

// AllJobStatuses lists every job status in lifecycle order.
var AllJobStatuses = []JobStatus{
	JobStatusPending,
	JobStatusRunning,
	JobStatusCompleted,
	JobStatusError,
	JobStatusCancelled,
}

// ErrNoJobsAvailable is returned when no pending job of the requested type can be claimed.
var ErrNoJobsAvailable = errors.New("no jobs available")

// Valid returns true if the JobType is in the closed enumeration.
func (t JobType) Valid() bool {
	switch t {
	case JobTypeBackfillDimension, JobTypeFetchPermalink, JobTypeRecomputeFinalScores,
		JobTypeReprocess, JobTypeRunScraper:
		return true
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler for JobType to allow env and query parsing.
func (t *JobType) UnmarshalText(text []byte) error {
	v := JobType(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid JobType: %q", v)
	}
	*t = v
	return nil
}

// Valid returns true if the JobStatus is one of the five lifecycle states.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusError, JobStatusCancelled:
		return true
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler for JobStatus.
func (s *JobStatus) UnmarshalText(text []byte) error {
	v := JobStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid JobStatus: %q", v)
	}
	*s = v
	return nil
}

// Job represents one unit of asynchronous work as persisted in background_jobs.
type Job struct {
	ID           string          `json:"id"                      db:"id"`
	Type         JobType         `json:"type"                    db:"type"`
	Params       json.RawMessage `json:"params"                  db:"params"`
	Status       JobStatus       `json:"status"                  db:"status"`
	RetryCount   int             `json:"retry_count"             db:"retry_count"`
	MaxRetries   int             `json:"max_retries"             db:"max_retries"`
	CreatedBy    string          `json:"created_by"              db:"created_by"`
	CreatedAt    time.Time       `json:"created_at"              db:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"    db:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"  db:"completed_at"`
	ErrorMessage *string         `json:"error_message,omitempty" db:"error_message"`
	LastRetryAt  *time.Time      `json:"last_retry_at,omitempty" db:"last_retry_at"`
	RetryOf      *string         `json:"retry_of,omitempty"      db:"retry_of"`
	Progress     int             `json:"progress"                db:"progress"`
	Total        *int            `json:"total,omitempty"         db:"total"`
}

// SubmitJobRequest is the external submission contract: {type, params}.
type SubmitJobRequest struct {
	Type   JobType         `json:"type"`
	Params json.RawMessage `json:"params"`
}

// CreateJobRequest is what the store inserts. The service fills it after validation.
type CreateJobRequest struct {
	Type       JobType
	Params     json.RawMessage
	MaxRetries int
	CreatedBy  string
}

// RetryJobRequest asks the store to clone a terminal job as a fresh pending one.
type RetryJobRequest struct {
	SourceID   string
	MaxRetries int
	CreatedBy  string
}

// FailJobRequest carries an executor-reported failure.
type FailJobRequest struct {
	JobID     string `json:"-"`
	Error     string `json:"error"`
	Transient bool   `json:"transient"`
}

// ProgressJobRequest carries an executor progress report: Processed items so
// far, and the Total when the executor knows it. A nil Total keeps the stored one.
type ProgressJobRequest struct {
	JobID     string `json:"-"`
	Processed int    `json:"processed"`
	Total     *int   `json:"total,omitempty"`
}

// MaxErrorMessageLength bounds the stored executor error message.
const MaxErrorMessageLength = 1000

// TruncateErrorMessage shortens msg to MaxErrorMessageLength runes.
func TruncateErrorMessage(msg string) string {
	r := []rune(msg)
	if len(r) <= MaxErrorMessageLength {
		return msg
	}
	return string(r[:MaxErrorMessageLength])
}
