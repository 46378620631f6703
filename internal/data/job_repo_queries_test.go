package data

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neighborcast/neighborcast-api/internal/domain/model"
)

func TestBuildJobListQuery(t *testing.T) {
	jt := model.JobTypeReprocess
	st := model.JobStatusError

	tests := []struct {
		name string
		opts model.JobListOptions
		tail string
		args []any
	}{
		{
			name: "no filters",
			opts: model.JobListOptions{Limit: 10},
			tail: "WHERE 1=1 ORDER BY created_at DESC, id DESC LIMIT $1",
			args: []any{10},
		},
		{
			name: "type and status",
			opts: model.JobListOptions{Type: &jt, Status: &st, Limit: 50},
			tail: "WHERE 1=1 AND type = $1 AND status = $2 ORDER BY created_at DESC, id DESC LIMIT $3",
			args: []any{"reprocess", "error", 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildJobListQuery(tt.opts)
			assert.Equal(t, "SELECT "+jobColumns+" FROM background_jobs "+tt.tail, query)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestJobRepo_List(t *testing.T) {
	repo, mock := newMockJobRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC LIMIT $1")).WithArgs(2).
		WillReturnRows(jobRows(
			jobRow{id: "j2", jobType: model.JobTypeRunScraper, status: model.JobStatusPending},
			jobRow{id: "j1", jobType: model.JobTypeReprocess, status: model.JobStatusCompleted},
		))

	jobs, err := repo.List(t.Context(), model.JobListOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "j2", jobs[0].ID)
	assert.Equal(t, "j1", jobs[1].ID)

	_, err = repo.List(t.Context(), model.JobListOptions{})
	assert.Error(t, err)
}

func TestJobRepo_StatSamples(t *testing.T) {
	repo, mock := newMockJobRepo(t)
	started := testNow.Add(-20 * time.Second)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT type, status, started_at, completed_at FROM background_jobs")).
		WillReturnRows(sqlmock.NewRows([]string{"type", "status", "started_at", "completed_at"}).
			AddRow("reprocess", "completed", started, testNow).
			AddRow("run_scraper", "error", nil, nil))

	samples, err := repo.StatSamples(t.Context())
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, model.JobStatusCompleted, samples[0].Status)
	require.NotNil(t, samples[0].StartedAt)
	assert.Equal(t, 20*time.Second, samples[0].CompletedAt.Sub(*samples[0].StartedAt))
	assert.Nil(t, samples[1].StartedAt)
}
