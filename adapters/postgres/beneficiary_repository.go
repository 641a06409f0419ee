package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"afpdash/domain/beneficiary"
	"afpdash/internal/errors"
	"afpdash/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// beneficiaryRepository stores imported beneficiary tables and serves the
// most recent import as the dashboard dataset
type beneficiaryRepository struct {
	db *sqlx.DB
}

// NewBeneficiaryRepository creates a new beneficiary repository
func NewBeneficiaryRepository(db *sqlx.DB) ports.DatasetRepository {
	return &beneficiaryRepository{db: db}
}

// importRow mirrors one beneficiary_imports row
type importRow struct {
	ID           string    `db:"id"`
	Source       string    `db:"source"`
	ExtraColumns []byte    `db:"extra_columns"`
	RecordCount  int       `db:"record_count"`
	ImportedAt   time.Time `db:"imported_at"`
}

// beneficiaryRow mirrors one beneficiaries row
type beneficiaryRow struct {
	RowNum           int     `db:"row_num"`
	Age              int     `db:"edad"`
	Months           int     `db:"meses_cotizados"`
	Sex              string  `db:"sexo"`
	IsPensioner      bool    `db:"pensionado"`
	WillCheckBenefit bool    `db:"consultara_beneficio"`
	Income           float64 `db:"ingresos"`
	Extra            []byte  `db:"extra"`
}

// Describe names the source for logs
func (r *beneficiaryRepository) Describe() string {
	return "postgres:beneficiary_imports"
}

// Import writes ds and all of its records in one transaction
func (r *beneficiaryRepository) Import(ctx context.Context, ds *beneficiary.Dataset) (string, error) {
	if ds.IsEmpty() {
		source := "<none>"
		if ds != nil {
			source = ds.Source
		}
		return "", errors.DatasetEmpty(source)
	}

	importID := ds.ID
	if _, err := uuid.Parse(importID); err != nil {
		id, err := uuid.NewV7()
		if err != nil {
			id = uuid.New()
		}
		importID = id.String()
	}

	extraJSON, err := json.Marshal(nonNil(ds.ExtraColumns))
	if err != nil {
		return "", fmt.Errorf("failed to marshal extra columns: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", errors.DatabaseError(err, "failed to begin import")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO beneficiary_imports (id, source, extra_columns, record_count, imported_at)
		VALUES ($1, $2, $3, $4, $5)`,
		importID, ds.Source, extraJSON, ds.Len(), time.Now().UTC(),
	)
	if err != nil {
		return "", errors.DatabaseError(err, "failed to create import")
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO beneficiaries (
		import_id, row_num, edad, meses_cotizados, sexo, pensionado, consultara_beneficio, ingresos, extra
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return "", errors.DatabaseError(err, "failed to prepare insert")
	}
	defer stmt.Close()

	for i, rec := range ds.Records {
		extra, err := json.Marshal(nonNil(rec.Extra))
		if err != nil {
			return "", fmt.Errorf("failed to marshal extra values of row %d: %w", i+1, err)
		}
		_, err = stmt.ExecContext(ctx,
			importID, i+1, rec.Age, rec.MonthsContributed, string(rec.Sex),
			rec.IsPensioner, rec.WillCheckBenefit, rec.Income, extra,
		)
		if err != nil {
			return "", errors.DatabaseError(err, "failed to insert row %d", i+1)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.DatabaseError(err, "failed to commit import")
	}

	log.Printf("[BeneficiaryRepository] Imported %d rows from %s as %s", ds.Len(), ds.Source, importID)
	return importID, nil
}

// Load returns the most recent import in its original row order. A
// database without imports yields an empty dataset.
func (r *beneficiaryRepository) Load(ctx context.Context) (*beneficiary.Dataset, error) {
	var imp importRow
	err := r.db.GetContext(ctx, &imp, `SELECT id, source, extra_columns, record_count, imported_at
		FROM beneficiary_imports
		ORDER BY imported_at DESC
		LIMIT 1`)
	if err != nil {
		if err == sql.ErrNoRows {
			return &beneficiary.Dataset{Source: r.Describe(), LoadedAt: time.Now()}, nil
		}
		return nil, errors.DatabaseError(err, "failed to get latest import")
	}

	var extraColumns []string
	if len(imp.ExtraColumns) > 0 {
		if err := json.Unmarshal(imp.ExtraColumns, &extraColumns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal extra columns: %w", err)
		}
	}

	var rows []beneficiaryRow
	err = r.db.SelectContext(ctx, &rows, `SELECT row_num, edad, meses_cotizados, sexo, pensionado, consultara_beneficio, ingresos, extra
		FROM beneficiaries
		WHERE import_id = $1
		ORDER BY row_num`, imp.ID)
	if err != nil {
		return nil, errors.DatabaseError(err, "failed to query beneficiaries")
	}

	source := fmt.Sprintf("postgres:%s (%s)", imp.ID, imp.Source)
	records := make([]beneficiary.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record(len(extraColumns))
		if err != nil {
			return nil, errors.LoadError(fmt.Sprintf("%s: row %d: %v", source, row.RowNum, err))
		}
		records = append(records, rec)
	}

	return &beneficiary.Dataset{
		ID:           imp.ID,
		Source:       source,
		LoadedAt:     time.Now(),
		ExtraColumns: extraColumns,
		Records:      records,
	}, nil
}

// ListImports returns the most recent imports first
func (r *beneficiaryRepository) ListImports(ctx context.Context, limit int) ([]ports.ImportSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	var imports []ports.ImportSummary
	err := r.db.SelectContext(ctx, &imports, `SELECT id, source, record_count, imported_at
		FROM beneficiary_imports
		ORDER BY imported_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.DatabaseError(err, "failed to list imports")
	}
	return imports, nil
}

func (row beneficiaryRow) record(extraCount int) (beneficiary.Record, error) {
	sex, ok := beneficiary.ParseSex(row.Sex)
	if !ok {
		return beneficiary.Record{}, fmt.Errorf("%s must be F or M, got %q", beneficiary.ColumnSex, row.Sex)
	}
	rec := beneficiary.Record{
		Age:               row.Age,
		MonthsContributed: row.Months,
		Sex:               sex,
		IsPensioner:       row.IsPensioner,
		WillCheckBenefit:  row.WillCheckBenefit,
		Income:            row.Income,
	}
	if len(row.Extra) > 0 {
		if err := json.Unmarshal(row.Extra, &rec.Extra); err != nil {
			return beneficiary.Record{}, fmt.Errorf("failed to unmarshal extra values: %w", err)
		}
	}
	if len(rec.Extra) != extraCount {
		return beneficiary.Record{}, fmt.Errorf("expected %d extra values, got %d", extraCount, len(rec.Extra))
	}
	if len(rec.Extra) == 0 {
		rec.Extra = nil
	}
	return rec, rec.Validate()
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
