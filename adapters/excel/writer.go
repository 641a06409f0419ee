package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"afpdash/domain/beneficiary"

	"github.com/xuri/excelize/v2"
)

// ExportSheet is the sheet name used for workbook exports
const ExportSheet = "beneficiarios"

// Content types and file names offered for download
const (
	CSVContentType  = "text/csv; charset=utf-8"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	CSVFileName     = beneficiary.ExportBaseName + ".csv"
	XLSXFileName    = beneficiary.ExportBaseName + ".xlsx"
)

// flag renders an indicator the way the source file stores it
func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// FormatRecord renders r in the column order of Dataset.Columns
func FormatRecord(r beneficiary.Record) []string {
	row := []string{
		strconv.Itoa(r.Age),
		strconv.Itoa(r.MonthsContributed),
		string(r.Sex),
		flag(r.IsPensioner),
		flag(r.WillCheckBenefit),
		strconv.FormatFloat(r.Income, 'f', -1, 64),
	}
	return append(row, r.Extra...)
}

// WriteCSV writes the view as UTF-8 comma separated text with a header row
func WriteCSV(w io.Writer, ds *beneficiary.Dataset, view beneficiary.View) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ds.Columns()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range view.Records {
		if err := writer.Write(FormatRecord(r)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes the view as a single-sheet workbook with typed cells
func WriteXLSX(w io.Writer, ds *beneficiary.Dataset, view beneficiary.View) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	columns := ds.Columns()
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(ExportSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, r := range view.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.Age,
			r.MonthsContributed,
			string(r.Sex),
			boolToInt(r.IsPensioner),
			boolToInt(r.WillCheckBenefit),
			r.Income,
		}
		for _, extra := range r.Extra {
			values = append(values, extra)
		}
		if err := f.SetSheetRow(ExportSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
