//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// JobListOptions groups parameters for listing jobs, most recent first.
type JobListOptions struct {
	Type   *JobType   // Optional filter by type
	Status *JobStatus // Optional filter by status
	Limit  int        // Row cap, already clamped by the service
}

// JobStatSample is the projection of a job row the stats aggregator needs.
type JobStatSample struct {
	Type        JobType    `db:"type"`
	Status      JobStatus  `db:"status"`
	StartedAt   *time.Time `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

// JobStats is the stats contract: status and type tallies plus health figures.
type JobStats struct {
	TotalJobs              int               `json:"total_jobs"`
	ByStatus               map[JobStatus]int `json:"by_status"`
	ByType                 map[JobType]int   `json:"by_type"`
	SuccessRate            float64           `json:"success_rate"`
	AverageDurationSeconds int64             `json:"average_duration_seconds"`
}
