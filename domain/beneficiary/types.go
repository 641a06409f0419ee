package beneficiary

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Column names of the source table after header normalization
const (
	ColumnAge          = "edad"
	ColumnMonths       = "meses_cotizados"
	ColumnSex          = "sexo"
	ColumnPensioner    = "pensionado"
	ColumnCheckBenefit = "consultara_beneficio"
	ColumnIncome       = "ingresos"
	ExportBaseName     = "beneficiarios_filtrados"
	DefaultDatasetFile = "resumen_beneficio_afp.csv"
)

// RequiredColumns lists the columns every dataset must carry, in export order
var RequiredColumns = []string{
	ColumnAge,
	ColumnMonths,
	ColumnSex,
	ColumnPensioner,
	ColumnCheckBenefit,
	ColumnIncome,
}

// Sex is the normalized sex code of a beneficiary
type Sex string

const (
	SexFemale Sex = "F"
	SexMale   Sex = "M"
)

// ParseSex uppercases and trims raw and reports whether it is a known code
func ParseSex(raw string) (Sex, bool) {
	switch s := Sex(strings.ToUpper(strings.TrimSpace(raw))); s {
	case SexFemale, SexMale:
		return s, true
	default:
		return s, false
	}
}

// Record is one beneficiary row
type Record struct {
	Age               int     `json:"edad"`
	MonthsContributed int     `json:"meses_cotizados"`
	Sex               Sex     `json:"sexo"`
	IsPensioner       bool    `json:"pensionado"`
	WillCheckBenefit  bool    `json:"consultara_beneficio"`
	Income            float64 `json:"ingresos"`

	// Extra holds the values of non-required columns, aligned with
	// Dataset.ExtraColumns
	Extra []string `json:"extra,omitempty"`
}

// Validate checks the record invariants
func (r Record) Validate() error {
	if r.Age < 0 {
		return fmt.Errorf("%s must be non-negative, got %d", ColumnAge, r.Age)
	}
	if r.MonthsContributed < 0 {
		return fmt.Errorf("%s must be non-negative, got %d", ColumnMonths, r.MonthsContributed)
	}
	if r.Sex != SexFemale && r.Sex != SexMale {
		return fmt.Errorf("%s must be F or M, got %q", ColumnSex, string(r.Sex))
	}
	return nil
}

// Dataset is the loaded beneficiary table. It is read-only after load and
// safe to share between goroutines.
type Dataset struct {
	ID           string
	Source       string
	LoadedAt     time.Time
	ExtraColumns []string
	Records      []Record
}

// NewDataset wraps loaded records under a fresh time-ordered ID
func NewDataset(source string, extraColumns []string, records []Record) *Dataset {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Dataset{
		ID:           id.String(),
		Source:       source,
		LoadedAt:     time.Now(),
		ExtraColumns: extraColumns,
		Records:      records,
	}
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// IsEmpty reports whether the dataset has no rows. An empty dataset is a
// terminal condition: nothing downstream should be rendered.
func (d *Dataset) IsEmpty() bool {
	return d.Len() == 0
}

// Columns returns the export header: required columns then extras
func (d *Dataset) Columns() []string {
	cols := make([]string, 0, len(RequiredColumns)+len(d.ExtraColumns))
	cols = append(cols, RequiredColumns...)
	return append(cols, d.ExtraColumns...)
}
