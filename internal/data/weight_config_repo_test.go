package data

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/neighborcast/neighborcast-api/internal/errors"
)

var weightConfigCols = []string{"id", "name", "weights", "is_active", "created_at"}

func TestWeightConfigRepo_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWeightConfigRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM weight_configs WHERE id = $1`)).WithArgs("cfg-a").
		WillReturnRows(sqlmock.NewRows(weightConfigCols).
			AddRow("cfg-a", "baseline", []byte(`{"drama":0.4}`), true, testNow))

	wc, err := repo.GetByID(t.Context(), "cfg-a")
	require.NoError(t, err)
	assert.Equal(t, "baseline", wc.Name)
	assert.True(t, wc.IsActive)
	assert.JSONEq(t, `{"drama":0.4}`, string(wc.Weights))

	mock.ExpectQuery(regexp.QuoteMeta(`FROM weight_configs WHERE id = $1`)).WithArgs("cfg-x").
		WillReturnRows(sqlmock.NewRows(weightConfigCols))

	_, err = repo.GetByID(t.Context(), "cfg-x")
	assert.True(t, apperrors.IsNotFound(err))
	assert.ErrorIs(t, err, ErrWeightConfigNotFound)
}

func TestWeightConfigRepo_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWeightConfigRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM weight_configs ORDER BY created_at DESC, id DESC`)).
		WillReturnRows(sqlmock.NewRows(weightConfigCols).
			AddRow("cfg-b", "b", []byte(`{}`), false, testNow).
			AddRow("cfg-a", "a", nil, true, testNow))

	configs, err := repo.List(t.Context())
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "cfg-b", configs[0].ID)
	assert.JSONEq(t, `{}`, string(configs[1].Weights))
}

func TestWeightConfigRepo_SetActiveFlag(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWeightConfigRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE weight_configs SET is_active = (id = $1)`)).WithArgs("cfg-b").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.SetActiveFlag(t.Context(), "cfg-b"))
}
