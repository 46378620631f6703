package devseed

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neighborcast/neighborcast-api/internal/domain/model"
	apperrors "github.com/neighborcast/neighborcast-api/internal/errors"
)

type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if s, ok := v.([]string); ok {
		return s, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

type fakeCutover struct {
	activeErr   error
	activateErr error
	activated   []string
}

func (f *fakeCutover) Active(context.Context) (string, error) {
	if f.activeErr != nil {
		return "", f.activeErr
	}
	return DefaultConfigID, nil
}

func (f *fakeCutover) Activate(_ context.Context, id, actor string) (*model.CutoverResult, error) {
	if f.activateErr != nil {
		return nil, f.activateErr
	}
	f.activated = append(f.activated, id)
	return &model.CutoverResult{ConfigID: id, ActivatedBy: actor}, nil
}

func expectSeedRows(mock sqlmock.Sqlmock, affected int64) {
	mock.ExpectBegin()
	for range neighborhoods {
		mock.ExpectExec("INSERT INTO neighborhoods").WillReturnResult(sqlmock.NewResult(0, affected))
	}
	for range weightConfigs {
		mock.ExpectExec("INSERT INTO weight_configs").WillReturnResult(sqlmock.NewResult(0, affected))
	}
	for range posts {
		mock.ExpectExec("INSERT INTO posts").WillReturnResult(sqlmock.NewResult(0, affected))
		mock.ExpectExec("INSERT INTO llm_scores").WillReturnResult(sqlmock.NewResult(0, affected))
	}
	mock.ExpectCommit()
}

func newRun(t *testing.T, cutover Cutover) (sqlmock.Sqlmock, func() (*Result, error)) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	opts := Options{
		DB:      db,
		Cutover: cutover,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:     func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return mock, func() (*Result, error) { return Run(context.Background(), opts) }
}

func TestRun_FreshDatabaseActivatesDefault(t *testing.T) {
	cutover := &fakeCutover{activeErr: apperrors.NoActiveConfiguration()}
	mock, run := newRun(t, cutover)
	expectSeedRows(mock, 1)

	res, err := run()

	require.NoError(t, err)
	assert.Equal(t, len(neighborhoods), res.Neighborhoods)
	assert.Equal(t, len(weightConfigs), res.Configs)
	assert.Equal(t, len(posts), res.Posts)
	require.NotNil(t, res.Activated)
	assert.Equal(t, Actor, res.Activated.ActivatedBy)
	assert.Equal(t, []string{DefaultConfigID}, cutover.activated)
}

func TestRun_SeededDatabaseIsUnchanged(t *testing.T) {
	cutover := &fakeCutover{}
	mock, run := newRun(t, cutover)
	expectSeedRows(mock, 0)

	res, err := run()

	require.NoError(t, err)
	assert.Zero(t, res.Neighborhoods)
	assert.Zero(t, res.Posts)
	assert.Nil(t, res.Activated)
	assert.Empty(t, cutover.activated)
}

func TestRun_InsertFailureRollsBack(t *testing.T) {
	mock, run := newRun(t, &fakeCutover{})
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO neighborhoods").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err := run()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed rows")
}

func TestRun_ActiveReadFailure(t *testing.T) {
	mock, run := newRun(t, &fakeCutover{activeErr: errors.New("redis down")})
	expectSeedRows(mock, 0)

	_, err := run()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read active config")
}

func TestRun_RequiresDependencies(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}
