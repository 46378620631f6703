package data

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/neighborcast/neighborcast-api/internal/migrate"
)

// RunMigrations applies the embedded schema and logs the versions it applied.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	_, err := migrate.Run(ctx, db, logger)
	return err
}
