package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neighborcast/neighborcast-api/internal/domain/model"
	apperrors "github.com/neighborcast/neighborcast-api/internal/errors"
)

const weightConfigColumns = "id, name, weights, is_active, created_at"

// WeightConfigRepo provides access to weight_configs.
type WeightConfigRepo struct {
	DB *sql.DB
}

// NewWeightConfigRepo creates a WeightConfigRepo.
func NewWeightConfigRepo(db *sql.DB) *WeightConfigRepo {
	return &WeightConfigRepo{DB: db}
}

func scanWeightConfig(scanner jobRowScanner) (*model.WeightConfig, error) {
	var (
		wc      model.WeightConfig
		weights []byte
	)
	if err := scanner.Scan(&wc.ID, &wc.Name, &weights, &wc.IsActive, &wc.CreatedAt); err != nil {
		return nil, err
	}
	wc.Weights = cloneJSON(weights)
	wc.CreatedAt = wc.CreatedAt.UTC()
	return &wc, nil
}

// GetByID returns one weight configuration.
func (r *WeightConfigRepo) GetByID(ctx context.Context, id string) (*model.WeightConfig, error) {
	wc, err := scanWeightConfig(r.DB.QueryRowContext(ctx,
		`SELECT `+weightConfigColumns+` FROM weight_configs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Wrapf(ErrWeightConfigNotFound, apperrors.ErrCodeNotFound,
				"weight configuration %s", id)
		}
		return nil, storeFailure(err, "get weight config")
	}
	return wc, nil
}

// List returns all weight configurations, newest first.
func (r *WeightConfigRepo) List(ctx context.Context) ([]*model.WeightConfig, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+weightConfigColumns+` FROM weight_configs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, storeFailure(err, "list weight configs")
	}
	defer func() { _ = rows.Close() }()

	out := []*model.WeightConfig{}
	for rows.Next() {
		wc, scanErr := scanWeightConfig(rows)
		if scanErr != nil {
			return nil, storeFailure(scanErr, "scan weight config")
		}
		out = append(out, wc)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure(err, "iterate weight configs")
	}
	return out, nil
}

// SetActiveFlag flips the denormalized is_active flag so only activeID is marked.
// The settings pointer stays authoritative.
func (r *WeightConfigRepo) SetActiveFlag(ctx context.Context, activeID string) error {
	if _, err := r.DB.ExecContext(ctx,
		`UPDATE weight_configs SET is_active = (id = $1) WHERE is_active OR id = $1`, activeID,
	); err != nil {
		return fmt.Errorf("set is_active flag: %w", apperrors.MapDBError(err))
	}
	return nil
}
