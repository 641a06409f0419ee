package ports

import (
	"context"
	"time"

	"afpdash/domain/beneficiary"
)

// DatasetSource loads the beneficiary dataset once at startup
type DatasetSource interface {
	Load(ctx context.Context) (*beneficiary.Dataset, error)
	Describe() string
}

// DatasetRepository stores imported datasets so they can be served as a
// DatasetSource
type DatasetRepository interface {
	DatasetSource

	// Import writes ds as a new import and returns its ID
	Import(ctx context.Context, ds *beneficiary.Dataset) (string, error)

	// ListImports returns the most recent imports first
	ListImports(ctx context.Context, limit int) ([]ImportSummary, error)
}

// ImportSummary describes one stored import
type ImportSummary struct {
	ID          string    `db:"id" json:"id"`
	Source      string    `db:"source" json:"source"`
	RecordCount int       `db:"record_count" json:"record_count"`
	ImportedAt  time.Time `db:"imported_at" json:"imported_at"`
}
