package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"afpdash/domain/beneficiary"
	apperrors "afpdash/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDatasetNormalizesHeadersAndSex(t *testing.T) {
	path := writeFile(t, "afp.csv",
		" Edad ,MESES_COTIZADOS,Sexo,pensionado,Consultara_Beneficio,ingresos\n"+
			"70,240,f ,1,1,500000\n"+
			"30,12, M,0,0,800000\n")

	ds, err := LoadDataset(path)
	require.NoError(t, err)

	require.Equal(t, 2, ds.Len())
	assert.Equal(t, beneficiary.Record{Age: 70, MonthsContributed: 240, Sex: beneficiary.SexFemale, IsPensioner: true, WillCheckBenefit: true, Income: 500000}, ds.Records[0])
	assert.Equal(t, beneficiary.Record{Age: 30, MonthsContributed: 12, Sex: beneficiary.SexMale, Income: 800000}, ds.Records[1])
	assert.Empty(t, ds.ExtraColumns)
	assert.Equal(t, path, ds.Source)
}

func TestLoadDatasetDelimiters(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"semicolon", "edad;meses_cotizados;sexo;pensionado;consultara_beneficio;ingresos\n70;240;F;1;1;500000.5\n"},
		{"tab", "edad\tmeses_cotizados\tsexo\tpensionado\tconsultara_beneficio\tingresos\n70\t240\tF\t1\t1\t500000.5\n"},
		{"pipe", "edad|meses_cotizados|sexo|pensionado|consultara_beneficio|ingresos\n70|240|F|1|1|500000.5\n"},
		{"comma with BOM", "\xef\xbb\xbfedad,meses_cotizados,sexo,pensionado,consultara_beneficio,ingresos\n70,240,F,1,1,500000.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := LoadDataset(writeFile(t, "afp.csv", tt.content))
			require.NoError(t, err)
			require.Equal(t, 1, ds.Len())
			assert.Equal(t, 70, ds.Records[0].Age)
			assert.Equal(t, 500000.5, ds.Records[0].Income)
		})
	}
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ';', DetectDelimiter([]byte("edad;nombre\n70;\"Perez, Ana\"\n65;\"Soto, Luis\"\n")))
	assert.Equal(t, ',', DetectDelimiter([]byte("a,b,c\n1,2,3\n")))
	assert.Equal(t, '\t', DetectDelimiter([]byte("a\tb\n1\t2\n")))
	assert.Equal(t, ',', DetectDelimiter([]byte("single\n1\n")))
	assert.Equal(t, ',', DetectDelimiter(nil))
}

func TestLoadDatasetKeepsExtraColumns(t *testing.T) {
	path := writeFile(t, "afp.csv",
		"id,edad,meses_cotizados,sexo,pensionado,consultara_beneficio,ingresos,Region\n"+
			"a1,70.0,240,F,true,0,500000,Maule\n")

	ds, err := LoadDataset(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "region"}, ds.ExtraColumns)
	assert.Equal(t, []string{"a1", "Maule"}, ds.Records[0].Extra)
	assert.Equal(t, 70, ds.Records[0].Age)
	assert.True(t, ds.Records[0].IsPensioner)
}

func TestLoadDatasetErrors(t *testing.T) {
	header := "edad,meses_cotizados,sexo,pensionado,consultara_beneficio,ingresos\n"

	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{"missing column", "edad,meses_cotizados,sexo,pensionado,ingresos\n70,240,F,1,500000\n", "consultara_beneficio"},
		{"bad integer names line", header + "70,240,F,1,1,500000\nabc,12,M,0,0,1\n", ":3: column edad"},
		{"fractional age", header + "70.5,240,F,1,1,500000\n", "not an integer"},
		{"age overflows int", header + "9223372036854775808,240,F,1,1,500000\n", "out of range"},
		{"huge decimal months", header + "70,1e19,F,1,1,500000\n", "out of range"},
		{"negative months", header + "70,-1,F,1,1,500000\n", "meses_cotizados must be non-negative"},
		{"unknown sex", header + "70,240,X,1,1,500000\n", "sexo must be F or M"},
		{"bad flag", header + "70,240,F,2,1,500000\n", "column pensionado"},
		{"empty income", header + "70,240,F,1,1,\n", "column ingresos"},
		{"ragged row", header + "70,240,F,1,1\n", ":2:"},
		{"empty file", "", "no header row"},
		{"duplicate column", "edad,EDAD,meses_cotizados,sexo,pensionado,consultara_beneficio,ingresos\n", "duplicate column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDataset(writeFile(t, "afp.csv", tt.content))
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeLoadError), "expected LOAD_ERROR, got %v", err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoadDatasetSkipsBlankLines(t *testing.T) {
	header := "edad,meses_cotizados,sexo,pensionado,consultara_beneficio,ingresos\n"

	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"trailing whitespace line", header + "70,240,F,1,1,500000\n   \n", 1},
		{"whitespace between rows", header + "70,240,F,1,1,500000\n \t \n30,12,M,0,0,800000\n", 2},
		{"empty delimited row", header + "70,240,F,1,1,500000\n,,,,,\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := LoadDataset(writeFile(t, "afp.csv", tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ds.Len())
		})
	}
}

func TestLoadDatasetBlankLineKeepsLineNumbers(t *testing.T) {
	header := "edad,meses_cotizados,sexo,pensionado,consultara_beneficio,ingresos\n"
	_, err := LoadDataset(writeFile(t, "afp.csv", header+"   \nabc,12,M,0,0,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":3: column edad")
}

func TestLoadDatasetMissingFile(t *testing.T) {
	_, err := LoadDataset(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeLoadError, apperrors.GetCode(err))
}

func TestLoadDatasetHeaderOnlyIsEmpty(t *testing.T) {
	ds, err := LoadDataset(writeFile(t, "afp.csv", "edad,meses_cotizados,sexo,pensionado,consultara_beneficio,ingresos\n"))
	require.NoError(t, err)
	assert.True(t, ds.IsEmpty())
}

func TestLoadDatasetXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "afp.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Edad", "Meses_Cotizados", "SEXO", "Pensionado", "Consultara_Beneficio", "Ingresos"},
		{70, 240, "f", 1, 1, 500000},
		{},
		{30, 12, "m", 0, 0, 800000.5},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := NewFileSource(path).Load(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, ds.Len())
	assert.Equal(t, beneficiary.SexFemale, ds.Records[0].Sex)
	assert.Equal(t, beneficiary.SexMale, ds.Records[1].Sex)
	assert.Equal(t, 800000.5, ds.Records[1].Income)
}

func TestFileSourceHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileSource("unused.csv").Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
