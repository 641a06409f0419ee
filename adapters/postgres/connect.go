package postgres

import (
	"context"
	"log"

	"afpdash/internal/errors"
	"afpdash/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Open connects to databaseURL and brings the schema up to date
func Open(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	return OpenWith(ctx, databaseURL, migration.NewRunner())
}

// OpenWith is Open with a caller-supplied migrator
func OpenWith(ctx context.Context, databaseURL string, migrator migration.Migrator) (*sqlx.DB, error) {
	if databaseURL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, errors.DatabaseError(err, "failed to connect to database")
	}

	if err := migrator.Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	log.Printf("[Postgres] Schema at version %s", migrator.Version())

	return db, nil
}
