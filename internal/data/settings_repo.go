package data

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/neighborcast/neighborcast-api/internal/domain/model"
)

// SettingsRepo reads and writes named settings, including the active
// weight configuration pointer.
type SettingsRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewSettingsRepo creates a SettingsRepo.
func NewSettingsRepo(db *sql.DB, cfg RepoConfig) *SettingsRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = SystemTime{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsRepo{DB: db, timeProvider: tp, logger: logger.With("component", "settings_repo")}
}

// GetActiveConfigID reads the durable pointer. ok is false when no configuration
// has ever been activated.
func (r *SettingsRepo) GetActiveConfigID(ctx context.Context) (string, bool, error) {
	var id string
	err := r.DB.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = $1`, model.ActiveConfigSettingKey,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, storeFailure(err, "read active config pointer")
	}
	if id == "" {
		return "", false, nil
	}
	return id, true, nil
}

// UpsertActiveConfig points the active configuration at configID in one
// statement. Last writer wins.
func (r *SettingsRepo) UpsertActiveConfig(ctx context.Context, configID string) (time.Time, error) {
	now := dbNow(r.timeProvider)
	var updatedAt time.Time
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at
		RETURNING updated_at`,
		model.ActiveConfigSettingKey, configID, now,
	).Scan(&updatedAt)
	if err != nil {
		return time.Time{}, storeFailure(err, "upsert active config pointer")
	}
	r.logger.InfoContext(ctx, "active config pointer updated", "config_id", configID)
	return updatedAt.UTC(), nil
}
