package data

import (
	"database/sql"
	"database/sql/driver"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/neighborcast/neighborcast-api/internal/domain/model"
)

// arrayConverter lets []string arguments through as the pgx driver would.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if s, ok := v.([]string); ok {
		return s, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockJobRepo(t *testing.T) (*JobRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	repo := NewJobRepo(db, RepoConfig{Logger: quietLogger(), TimeProvider: NewFixedTimeProvider(testNow)})
	return repo, mock
}

type jobRow struct {
	id         string
	jobType    model.JobType
	params     string
	status     model.JobStatus
	retryCount int
	maxRetries int
	createdBy  string
	startedAt  *time.Time
	completed  *time.Time
	errMsg     *string
	lastRetry  *time.Time
	retryOf    *string
	progress   int
	total      *int64
}

func nullable[T any](p *T) driver.Value {
	if p == nil {
		return nil
	}
	return *p
}

func jobRows(rows ...jobRow) *sqlmock.Rows {
	out := sqlmock.NewRows(jobColumnList)
	for _, r := range rows {
		params := r.params
		if params == "" {
			params = `{}`
		}
		out.AddRow(
			r.id, string(r.jobType), []byte(params), string(r.status),
			int64(r.retryCount), int64(r.maxRetries), r.createdBy, testNow,
			nullable(r.startedAt), nullable(r.completed), nullable(r.errMsg),
			nullable(r.lastRetry), nullable(r.retryOf),
			int64(r.progress), nullable(r.total),
		)
	}
	return out
}
