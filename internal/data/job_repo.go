package data

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neighborcast/neighborcast-api/internal/domain/model"
	apperrors "github.com/neighborcast/neighborcast-api/internal/errors"
)

// activeRetryConstraint is the partial unique index guarding concurrent retries.
const activeRetryConstraint = "background_jobs_active_retry_of_key"

// RepoConfig holds configuration options for the job repository.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for the background_jobs table.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = SystemTime{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       logger.With("component", "job_repo"),
	}
}

var jobColumnList = []string{
	"id",
	"type",
	"params",
	"status",
	"retry_count",
	"max_retries",
	"created_by",
	"created_at",
	"started_at",
	"completed_at",
	"error_message",
	"last_retry_at",
	"retry_of",
	"progress",
	"total",
}

var jobColumns = strings.Join(jobColumnList, ", ")

// qualifiedJobColumns prefixes every job column with alias, for RETURNING after joins.
func qualifiedJobColumns(alias string) string {
	cols := make([]string, len(jobColumnList))
	for i, c := range jobColumnList {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func (r *JobRepo) now() time.Time {
	return dbNow(r.timeProvider)
}

type jobRowScanner interface {
	Scan(dest ...any) error
}

type jobRowData struct {
	params                              []byte
	errorMessage, retryOf               sql.NullString
	startedAt, completedAt, lastRetryAt sql.NullTime
	total                               sql.NullInt64
}

func (d *jobRowData) scanInto(scanner jobRowScanner, job *model.Job) error {
	return scanner.Scan(
		&job.ID,
		&job.Type,
		&d.params,
		&job.Status,
		&job.RetryCount,
		&job.MaxRetries,
		&job.CreatedBy,
		&job.CreatedAt,
		&d.startedAt,
		&d.completedAt,
		&d.errorMessage,
		&d.lastRetryAt,
		&d.retryOf,
		&job.Progress,
		&d.total,
	)
}

func (d *jobRowData) apply(job *model.Job) {
	job.Params = cloneJSON(d.params)
	job.CreatedAt = job.CreatedAt.UTC()
	job.StartedAt = cloneNullableTime(d.startedAt)
	job.CompletedAt = cloneNullableTime(d.completedAt)
	job.LastRetryAt = cloneNullableTime(d.lastRetryAt)
	job.ErrorMessage = cloneNullableString(d.errorMessage)
	job.RetryOf = cloneNullableString(d.retryOf)
	if d.total.Valid {
		total := int(d.total.Int64)
		job.Total = &total
	}
}

func scanJobFromRow(scanner jobRowScanner) (*model.Job, error) {
	job := &model.Job{}
	var data jobRowData
	if err := data.scanInto(scanner, job); err != nil {
		return nil, err
	}
	data.apply(job)
	return job, nil
}

func cloneJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return append(json.RawMessage(nil), raw...)
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func cloneNullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// statusLiteralList renders statuses as a quoted SQL list for IN guards.
// Values come from the closed JobStatus enumeration only.
func statusLiteralList(statuses []model.JobStatus) string {
	quoted := make([]string, len(statuses))
	for i, s := range statuses {
		quoted[i] = "'" + string(s) + "'"
	}
	return strings.Join(quoted, ", ")
}

func jobNotFound(id string) error {
	return apperrors.Wrapf(ErrJobNotFound, apperrors.ErrCodeNotFound, "job %s", id)
}

func jobStateError(cause error, job *model.Job) error {
	return apperrors.Wrapf(cause, apperrors.ErrCodeInvalidState, "job %s is %s", job.ID, job.Status)
}

func storeFailure(err error, op string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, apperrors.MapDBError(err))
}
