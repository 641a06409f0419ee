package migration

import (
	"context"
	"log"

	"afpdash/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

var _ Migrator = (*MigrationRunner)(nil)

// MigrationRunner creates the tables used by the postgres dataset source
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all migrations in order. Every statement is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createImportsTable(ctx, db); err != nil {
		return errors.DatabaseError(err, "failed to create beneficiary_imports table")
	}

	if err := r.createBeneficiariesTable(ctx, db); err != nil {
		return errors.DatabaseError(err, "failed to create beneficiaries table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError(err, "failed to create indexes")
	}

	log.Printf("[Migration] Schema version %s applied", r.version)
	return nil
}

func (r *MigrationRunner) createImportsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS beneficiary_imports (
			id UUID PRIMARY KEY,
			source TEXT NOT NULL,
			extra_columns JSONB NOT NULL DEFAULT '[]',
			record_count INTEGER NOT NULL DEFAULT 0,
			imported_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createBeneficiariesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS beneficiaries (
			import_id UUID NOT NULL REFERENCES beneficiary_imports(id) ON DELETE CASCADE,
			row_num INTEGER NOT NULL,
			edad INTEGER NOT NULL,
			meses_cotizados INTEGER NOT NULL,
			sexo CHAR(1) NOT NULL CHECK (sexo IN ('F', 'M')),
			pensionado BOOLEAN NOT NULL,
			consultara_beneficio BOOLEAN NOT NULL,
			ingresos DOUBLE PRECISION NOT NULL,
			extra JSONB NOT NULL DEFAULT '[]',
			PRIMARY KEY (import_id, row_num)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_beneficiary_imports_imported_at ON beneficiary_imports(imported_at DESC)
	`)
	return err
}
