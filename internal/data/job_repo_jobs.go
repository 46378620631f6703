package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/neighborcast/neighborcast-api/internal/data/pgxutil"
	"github.com/neighborcast/neighborcast-api/internal/domain/job"
	"github.com/neighborcast/neighborcast-api/internal/domain/model"
	apperrors "github.com/neighborcast/neighborcast-api/internal/errors"
)

var (
	insertJobSQL = `
		INSERT INTO background_jobs (id, type, params, status, retry_count, max_retries, created_by, created_at)
		VALUES ($1, $2, $3, 'pending', 0, $4, $5, $6)
		RETURNING ` + jobColumns

	// insertRetrySQL clones a terminal job. The partial unique index on retry_of
	// rejects a second clone while the first is still pending or running.
	insertRetrySQL = `
		INSERT INTO background_jobs (id, type, params, status, retry_count, max_retries, created_by, created_at, retry_of)
		SELECT $2, src.type, src.params, 'pending', 0, $3, $4, $5, src.id
		FROM background_jobs src
		WHERE src.id = $1 AND src.status IN (` + statusLiteralList(job.RetryableStatuses()) + `)
		RETURNING ` + jobColumns

	selectJobByIDSQL = `SELECT ` + jobColumns + ` FROM background_jobs WHERE id = $1`

	deleteJobSQL = `
		DELETE FROM background_jobs
		WHERE id = $1 AND status IN (` + statusLiteralList(job.DeletableStatuses()) + `)`

	claimJobSQL = `
		WITH next AS (
			SELECT id FROM background_jobs
			WHERE type = $1 AND status = 'pending'
			ORDER BY created_at ASC, id ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE background_jobs j
		SET status = 'running', started_at = COALESCE(j.started_at, $2)
		FROM next
		WHERE j.id = next.id
		RETURNING ` + qualifiedJobColumns("j")

	completeJobSQL = `
		UPDATE background_jobs
		SET status = 'completed', completed_at = $2
		WHERE id = $1 AND status = 'running'
		RETURNING ` + jobColumns

	// failJobSQL requeues a transient failure while budget remains and otherwise
	// fails the job terminally. Every SET expression reads the pre-update row.
	failJobSQL = `
		UPDATE background_jobs
		SET status = CASE WHEN $2::boolean AND retry_count < max_retries THEN 'pending' ELSE 'error' END,
		    retry_count = CASE WHEN $2::boolean AND retry_count < max_retries THEN retry_count + 1 ELSE retry_count END,
		    last_retry_at = CASE WHEN $2::boolean AND retry_count < max_retries THEN $4::timestamptz ELSE last_retry_at END,
		    completed_at = CASE WHEN $2::boolean AND retry_count < max_retries THEN NULL ELSE $4::timestamptz END,
		    error_message = left(
		        CASE WHEN $2::boolean AND max_retries > 0 AND retry_count >= max_retries
		             THEN $3::text || ' (Failed after ' || retry_count || ' retries)'
		             ELSE $3::text END,
		        ` + fmt.Sprint(model.MaxErrorMessageLength) + `)
		WHERE id = $1 AND status = 'running'
		RETURNING ` + jobColumns

	// progressJobSQL records executor progress; only running jobs accept it.
	progressJobSQL = `
		UPDATE background_jobs
		SET progress = $2, total = COALESCE($3::integer, total)
		WHERE id = $1 AND status = 'running'
		RETURNING ` + jobColumns

	cancelJobSQL = `
		UPDATE background_jobs
		SET status = 'cancelled', completed_at = $2
		WHERE id = $1 AND status IN ('pending', 'running')
		RETURNING ` + jobColumns

	activeReprocessSQL = `
		SELECT DISTINCT params->>'post_id'
		FROM background_jobs
		WHERE type = 'reprocess' AND status IN ('pending', 'running')
		  AND params->>'post_id' = ANY($1::text[])`
)

// Create inserts a new pending job.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	row := r.DB.QueryRowContext(ctx, insertJobSQL, r.insertArgs(req)...)
	j, err := scanJobFromRow(row)
	if err != nil {
		return nil, storeFailure(err, "insert job")
	}
	r.logger.DebugContext(ctx, "job created", "job_id", j.ID, "type", j.Type)
	return j, nil
}

// CreateMany inserts all jobs in one transaction; either every row is written or none.
func (r *JobRepo) CreateMany(ctx context.Context, reqs []*model.CreateJobRequest) ([]*model.Job, error) {
	if len(reqs) == 0 {
		return []*model.Job{}, nil
	}

	jobs, err := pgxutil.InSQLTx(ctx, r.DB, nil, func(tx *sql.Tx) ([]*model.Job, error) {
		stmt, err := tx.PrepareContext(ctx, insertJobSQL)
		if err != nil {
			return nil, fmt.Errorf("prepare insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		out := make([]*model.Job, 0, len(reqs))
		for _, req := range reqs {
			j, err := scanJobFromRow(stmt.QueryRowContext(ctx, r.insertArgs(req)...))
			if err != nil {
				return nil, err
			}
			out = append(out, j)
		}
		return out, nil
	})
	if err != nil {
		return nil, storeFailure(err, "insert jobs")
	}
	return jobs, nil
}

func (r *JobRepo) insertArgs(req *model.CreateJobRequest) []any {
	params := []byte(req.Params)
	if len(params) == 0 {
		params = []byte(`{}`)
	}
	return []any{uuid.NewString(), string(req.Type), params, req.MaxRetries, req.CreatedBy, r.now()}
}

// CreateRetry clones the source job as a fresh pending job with retry_count 0.
// The source row is never modified. The status check and insert are one statement.
func (r *JobRepo) CreateRetry(ctx context.Context, req model.RetryJobRequest) (*model.Job, error) {
	row := r.DB.QueryRowContext(ctx, insertRetrySQL,
		req.SourceID, uuid.NewString(), req.MaxRetries, req.CreatedBy, r.now())
	j, err := scanJobFromRow(row)
	switch {
	case err == nil:
		r.logger.InfoContext(ctx, "job retry queued", "source_id", req.SourceID, "job_id", j.ID)
		return j, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, r.missError(ctx, req.SourceID, ErrJobNotRetryable)
	case apperrors.IsUniqueViolation(err, activeRetryConstraint):
		return nil, apperrors.Wrapf(ErrRetryAlreadyQueued, apperrors.ErrCodeInvalidState,
			"retry already queued for job %s", req.SourceID)
	default:
		return nil, storeFailure(err, "insert retry")
	}
}

// GetByID returns the job with the given id.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	j, err := scanJobFromRow(r.DB.QueryRowContext(ctx, selectJobByIDSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, jobNotFound(id)
		}
		return nil, storeFailure(err, "get job")
	}
	return j, nil
}

// Delete removes a pending or running job. Terminal jobs are kept as audit history.
func (r *JobRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, deleteJobSQL, id)
	if err != nil {
		return storeFailure(err, "delete job")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeFailure(err, "delete job rows affected")
	}
	if n == 0 {
		return r.missError(ctx, id, ErrJobNotDeletable)
	}
	r.logger.InfoContext(ctx, "job deleted", "job_id", id)
	return nil
}

// Claim moves the oldest pending job of the given type to running.
// Returns model.ErrNoJobsAvailable when there is nothing to claim.
func (r *JobRepo) Claim(ctx context.Context, jobType model.JobType) (*model.Job, error) {
	j, err := scanJobFromRow(r.DB.QueryRowContext(ctx, claimJobSQL, string(jobType), r.now()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNoJobsAvailable
		}
		return nil, storeFailure(err, "claim job")
	}
	return j, nil
}

// Complete moves a running job to completed.
func (r *JobRepo) Complete(ctx context.Context, id string) (*model.Job, error) {
	return r.transition(ctx, id, completeJobSQL, r.now())
}

// Fail records an executor failure. A transient failure with budget left goes
// back to pending; anything else ends in error.
func (r *JobRepo) Fail(ctx context.Context, req *model.FailJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("fail job request is required")
	}
	return r.transition(ctx, req.JobID, failJobSQL, req.Transient, req.Error, r.now())
}

// UpdateProgress stores the executor's processed count, and total when given,
// on a running job.
func (r *JobRepo) UpdateProgress(ctx context.Context, req *model.ProgressJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("progress request is required")
	}
	var total any
	if req.Total != nil {
		total = int64(*req.Total)
	}
	return r.transition(ctx, req.JobID, progressJobSQL, int64(req.Processed), total)
}

// Cancel moves a pending or running job to cancelled.
func (r *JobRepo) Cancel(ctx context.Context, id string) (*model.Job, error) {
	return r.transition(ctx, id, cancelJobSQL, r.now())
}

// transition runs a conditional UPDATE whose first placeholder is the job id.
func (r *JobRepo) transition(ctx context.Context, id, query string, args ...any) (*model.Job, error) {
	j, err := scanJobFromRow(r.DB.QueryRowContext(ctx, query, append([]any{id}, args...)...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.missError(ctx, id, ErrInvalidTransition)
		}
		return nil, storeFailure(err, "update job status")
	}
	r.logger.DebugContext(ctx, "job transitioned", "job_id", j.ID, "status", j.Status)
	return j, nil
}

// missError re-reads a job after a guarded statement matched no row to tell
// an absent job from one in the wrong state.
func (r *JobRepo) missError(ctx context.Context, id string, cause error) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return jobStateError(cause, current)
}

// ActiveReprocessPostIDs returns the subset of postIDs that already have a
// pending or running reprocess job.
func (r *JobRepo) ActiveReprocessPostIDs(ctx context.Context, postIDs []string) (map[string]struct{}, error) {
	active := make(map[string]struct{})
	if len(postIDs) == 0 {
		return active, nil
	}

	rows, err := r.DB.QueryContext(ctx, activeReprocessSQL, postIDs)
	if err != nil {
		return nil, storeFailure(err, "query active reprocess jobs")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeFailure(err, "scan active reprocess job")
		}
		active[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure(err, "iterate active reprocess jobs")
	}
	return active, nil
}
