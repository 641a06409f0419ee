package excel

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "afpdash/internal/errors"

	"github.com/xuri/excelize/v2"
)

// candidateDelimiters are tried in order when sniffing a delimited file
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// sniffLines is how many non-empty lines are sampled for delimiter detection
const sniffLines = 10

// Table is a raw table with normalized headers
type Table struct {
	Headers []string
	Rows    []RawRow
}

// RawRow is one data row with the 1-based line (or sheet row) it came from
type RawRow struct {
	Line  int
	Cells []string
}

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader; the extension picks the format and
// anything that is not .xlsx is treated as delimited text
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "csv"
	if ext == ".xlsx" {
		fileType = "xlsx"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadTable reads the file into a Table with lowercased, trimmed headers
func (r *DataReader) ReadTable() (*Table, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, apperrors.LoadError(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath))
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, apperrors.LoadError(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
}

// readExcelData reads the first sheet of a workbook
func (r *DataReader) readExcelData() (*Table, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.LoadError(err.Error()), "failed to open Excel file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.LoadError(fmt.Sprintf("%s: workbook has no sheets", r.filePath))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.Wrap(apperrors.LoadError(err.Error()), fmt.Sprintf("failed to read sheet %s", sheets[0]))
	}
	log.Printf("[DataReader] Sheet %s read in %.2fms (%d rows)", sheets[0], float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) == 0 {
		return nil, apperrors.LoadError(fmt.Sprintf("%s: file has no header row", r.filePath))
	}

	table := &Table{Headers: normalizeHeaders(rows[0])}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		if len(row) > len(table.Headers) {
			return nil, apperrors.LoadError(fmt.Sprintf("%s:%d: expected %d fields, got %d", r.filePath, i+1, len(table.Headers), len(row)))
		}
		// GetRows drops trailing empty cells
		cells := make([]string, len(table.Headers))
		for j, cell := range row {
			cells[j] = strings.TrimSpace(cell)
		}
		table.Rows = append(table.Rows, RawRow{Line: i + 1, Cells: cells})
	}

	return r.finish(table)
}

// readCSVData reads a delimited text file, sniffing the separator first
func (r *DataReader) readCSVData() (*Table, error) {
	content, err := os.ReadFile(r.filePath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.LoadError(err.Error()), "failed to open CSV file")
	}
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	delimiter := DetectDelimiter(content)
	log.Printf("[DataReader] Detected delimiter %q for %s", delimiter, r.filePath)

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true
	// field counts are checked after blank lines are skipped
	reader.FieldsPerRecord = -1

	readStart := time.Now()
	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.LoadError(fmt.Sprintf("%s: file has no header row", r.filePath))
	}
	if err != nil {
		return nil, r.parseError(err)
	}

	table := &Table{Headers: normalizeHeaders(header)}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, r.parseError(err)
		}
		if isBlank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		if len(record) != len(table.Headers) {
			return nil, apperrors.LoadError(fmt.Sprintf("%s:%d: expected %d fields, got %d", r.filePath, line, len(table.Headers), len(record)))
		}
		cells := make([]string, len(record))
		for j, cell := range record {
			cells[j] = strings.TrimSpace(cell)
		}
		table.Rows = append(table.Rows, RawRow{Line: line, Cells: cells})
	}
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(table.Rows))

	return r.finish(table)
}

func (r *DataReader) finish(table *Table) (*Table, error) {
	seen := make(map[string]bool, len(table.Headers))
	for i, h := range table.Headers {
		if h == "" {
			return nil, apperrors.LoadError(fmt.Sprintf("%s: column %d has an empty header", r.filePath, i+1))
		}
		if seen[h] {
			return nil, apperrors.LoadError(fmt.Sprintf("%s: duplicate column %q after normalization", r.filePath, h))
		}
		seen[h] = true
	}

	log.Printf("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(table.Headers), len(table.Rows))
	return table, nil
}

func (r *DataReader) parseError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return apperrors.LoadError(fmt.Sprintf("%s:%d: %v", r.filePath, parseErr.Line, parseErr.Err))
	}
	return apperrors.Wrap(apperrors.LoadError(err.Error()), "failed to read CSV file")
}

// DetectDelimiter picks the candidate separator that splits every sampled
// line into the same number of fields (more than one), preferring the
// highest field count. It falls back to a comma.
func DetectDelimiter(content []byte) rune {
	var sample []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() && len(sample) < sniffLines {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			sample = append(sample, scanner.Text())
		}
	}
	if len(sample) == 0 {
		return ','
	}

	best, bestFields := ',', 1
	for _, candidate := range candidateDelimiters {
		fields, ok := consistentFieldCount(sample, candidate)
		if ok && fields > bestFields {
			best, bestFields = candidate, fields
		}
	}
	return best
}

func consistentFieldCount(lines []string, delimiter rune) (int, bool) {
	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	count := -1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, false
		}
		if count == -1 {
			count = len(record)
		} else if len(record) != count {
			return 0, false
		}
	}
	return count, count > 1
}

func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return headers
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
