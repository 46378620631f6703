package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neighborcast/neighborcast-api/internal/domain/model"
)

type jobFilterQueryBuilder struct {
	query  string
	args   []any
	argIdx int
}

func (b *jobFilterQueryBuilder) addFilter(condition string, value any) {
	b.query += fmt.Sprintf(" AND %s = $%d", condition, b.argIdx)
	b.args = append(b.args, value)
	b.argIdx++
}

func buildJobListQuery(opts model.JobListOptions) (string, []any) {
	builder := &jobFilterQueryBuilder{
		query:  `SELECT ` + jobColumns + ` FROM background_jobs WHERE 1=1`,
		args:   []any{},
		argIdx: 1,
	}

	if opts.Type != nil {
		builder.addFilter("type", string(*opts.Type))
	}
	if opts.Status != nil {
		builder.addFilter("status", string(*opts.Status))
	}

	builder.query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", builder.argIdx)
	builder.args = append(builder.args, opts.Limit)

	return builder.query, builder.args
}

// List returns jobs matching the optional filters, newest first. The caller
// resolves opts.Limit against the list policy before calling.
func (r *JobRepo) List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("list jobs: limit must be positive, got %d", opts.Limit)
	}

	query, args := buildJobListQuery(opts)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeFailure(err, "list jobs")
	}
	defer func() { _ = rows.Close() }()

	jobs := make([]*model.Job, 0, opts.Limit)
	for rows.Next() {
		j, scanErr := scanJobFromRow(rows)
		if scanErr != nil {
			return nil, storeFailure(scanErr, "scan job")
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure(err, "iterate jobs")
	}
	return jobs, nil
}

// StatSamples reads the columns the stats aggregation needs for every job.
func (r *JobRepo) StatSamples(ctx context.Context) ([]model.JobStatSample, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT type, status, started_at, completed_at FROM background_jobs`)
	if err != nil {
		return nil, storeFailure(err, "query job stats")
	}
	defer func() { _ = rows.Close() }()

	var samples []model.JobStatSample
	for rows.Next() {
		var (
			s                      model.JobStatSample
			startedAt, completedAt sql.NullTime
		)
		if err := rows.Scan(&s.Type, &s.Status, &startedAt, &completedAt); err != nil {
			return nil, storeFailure(err, "scan job stats")
		}
		s.StartedAt = cloneNullableTime(startedAt)
		s.CompletedAt = cloneNullableTime(completedAt)
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure(err, "iterate job stats")
	}
	return samples, nil
}
