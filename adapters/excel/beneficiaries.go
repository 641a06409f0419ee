package excel

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"afpdash/domain/beneficiary"
	apperrors "afpdash/internal/errors"
)

// FileSource loads the beneficiary dataset from a CSV or XLSX file
type FileSource struct {
	Path string
}

// NewFileSource creates a dataset source for path
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Describe names the source for logs and the dashboard footer
func (s *FileSource) Describe() string {
	return s.Path
}

// Load reads and validates the file. A header-only file yields an empty
// dataset, which callers treat as a halt rather than an error.
func (s *FileSource) Load(ctx context.Context) (*beneficiary.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadDataset(s.Path)
}

// LoadDataset reads path and converts it into a typed dataset
func LoadDataset(path string) (*beneficiary.Dataset, error) {
	table, err := NewDataReader(path).ReadTable()
	if err != nil {
		return nil, err
	}
	ds, err := ParseDataset(table, path)
	if err != nil {
		return nil, err
	}
	log.Printf("[LoadDataset] Loaded %d beneficiaries from %s (dataset %s)", ds.Len(), path, ds.ID)
	return ds, nil
}

// columnIndex maps required columns to their position in a table
type columnIndex struct {
	age, months, sex, pensioner, benefit, income int
	extra                                        []int
}

func indexColumns(headers []string, source string) (columnIndex, []string, error) {
	positions := make(map[string]int, len(headers))
	for i, h := range headers {
		positions[h] = i
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := positions[name]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}

	idx := columnIndex{
		age:       lookup(beneficiary.ColumnAge),
		months:    lookup(beneficiary.ColumnMonths),
		sex:       lookup(beneficiary.ColumnSex),
		pensioner: lookup(beneficiary.ColumnPensioner),
		benefit:   lookup(beneficiary.ColumnCheckBenefit),
		income:    lookup(beneficiary.ColumnIncome),
	}
	if len(missing) > 0 {
		return idx, nil, apperrors.LoadError(fmt.Sprintf("%s: missing required column(s): %s", source, strings.Join(missing, ", ")))
	}

	required := make(map[string]bool, len(beneficiary.RequiredColumns))
	for _, c := range beneficiary.RequiredColumns {
		required[c] = true
	}
	var extraNames []string
	for i, h := range headers {
		if !required[h] {
			idx.extra = append(idx.extra, i)
			extraNames = append(extraNames, h)
		}
	}
	return idx, extraNames, nil
}

// ParseDataset validates the schema of table and converts every row
func ParseDataset(table *Table, source string) (*beneficiary.Dataset, error) {
	idx, extraNames, err := indexColumns(table.Headers, source)
	if err != nil {
		return nil, err
	}

	records := make([]beneficiary.Record, 0, len(table.Rows))
	for _, row := range table.Rows {
		rec, err := parseRecord(row, idx, table.Headers)
		if err != nil {
			return nil, apperrors.LoadError(fmt.Sprintf("%s:%d: %v", source, row.Line, err))
		}
		records = append(records, rec)
	}

	return beneficiary.NewDataset(source, extraNames, records), nil
}

func parseRecord(row RawRow, idx columnIndex, headers []string) (beneficiary.Record, error) {
	var rec beneficiary.Record
	if len(row.Cells) != len(headers) {
		return rec, fmt.Errorf("expected %d fields, got %d", len(headers), len(row.Cells))
	}
	cell := func(i int) string { return row.Cells[i] }

	var err error
	if rec.Age, err = parseInteger(cell(idx.age)); err != nil {
		return rec, columnError(beneficiary.ColumnAge, err)
	}
	if rec.MonthsContributed, err = parseInteger(cell(idx.months)); err != nil {
		return rec, columnError(beneficiary.ColumnMonths, err)
	}
	rec.Sex, _ = beneficiary.ParseSex(cell(idx.sex))
	if rec.IsPensioner, err = parseFlag(cell(idx.pensioner)); err != nil {
		return rec, columnError(beneficiary.ColumnPensioner, err)
	}
	if rec.WillCheckBenefit, err = parseFlag(cell(idx.benefit)); err != nil {
		return rec, columnError(beneficiary.ColumnCheckBenefit, err)
	}
	if rec.Income, err = parseNumber(cell(idx.income)); err != nil {
		return rec, columnError(beneficiary.ColumnIncome, err)
	}

	if len(idx.extra) > 0 {
		rec.Extra = make([]string, len(idx.extra))
		for i, pos := range idx.extra {
			rec.Extra[i] = cell(pos)
		}
	}

	return rec, rec.Validate()
}

func columnError(column string, err error) error {
	return fmt.Errorf("column %s: %w", column, err)
}

// parseInteger accepts plain integers and integral decimals such as "70.0"
func parseInteger(raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty value")
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	if f >= math.MaxInt || f < math.MinInt {
		return 0, fmt.Errorf("out of range: %q", raw)
	}
	return int(f), nil
}

func parseNumber(raw string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty value")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	return f, nil
}

// parseFlag reads the 0/1 indicator columns
func parseFlag(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "1", "1.0", "true", "si", "sí", "s", "yes":
		return true, nil
	case "0", "0.0", "false", "no", "n":
		return false, nil
	default:
		return false, fmt.Errorf("not a 0/1 flag: %q", raw)
	}
}
