package pdf

import (
	"bytes"
	"fmt"
	"time"

	"afpdash/adapters/charts"
	"afpdash/adapters/excel"
	"afpdash/domain/beneficiary"
	"afpdash/internal/profiling"

	"github.com/go-pdf/fpdf"
)

// ContentType and FileName of the report download
const (
	ContentType = "application/pdf"
	FileName    = beneficiary.ExportBaseName + ".pdf"
)

// MaxTableRows caps the rows printed in the report table
const MaxTableRows = 40

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// Report is a printable summary of a filtered view
type Report struct {
	Dataset     *beneficiary.Dataset
	View        beneficiary.View
	Summary     profiling.Summary
	Charts      map[string][]byte // optional PNG images keyed by chart name
	GeneratedAt time.Time
}

type reportWriter struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	report Report
}

// Generate renders the report and returns the PDF bytes
func Generate(report Report) ([]byte, error) {
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now()
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(marginLeft, marginTop, marginRight)
	doc.SetAutoPageBreak(true, marginBottom)
	doc.SetTitle("Simulador de Beneficio AFP", true)

	w := &reportWriter{
		pdf:    doc,
		tr:     doc.UnicodeTranslatorFromDescriptor(""),
		report: report,
	}
	w.addHeader()
	w.addMetrics()
	w.addSummary()
	w.addCharts()
	w.addTable()

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF report: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *reportWriter) heading(text string) {
	w.pdf.Ln(4)
	w.pdf.SetFont("Helvetica", "B", 12)
	w.pdf.SetFillColor(0, 51, 102)
	w.pdf.SetTextColor(255, 255, 255)
	w.pdf.CellFormat(contentWidth, 8, w.tr(text), "", 1, "L", true, 0, "")
	w.pdf.SetTextColor(0, 0, 0)
	w.pdf.SetFont("Helvetica", "", 10)
}

func (w *reportWriter) row(label, value string) {
	w.pdf.CellFormat(contentWidth*0.45, 6, w.tr(label), "B", 0, "L", false, 0, "")
	w.pdf.CellFormat(contentWidth*0.55, 6, w.tr(value), "B", 1, "R", false, 0, "")
}

func (w *reportWriter) addHeader() {
	w.pdf.AddPage()
	w.pdf.SetFont("Helvetica", "B", 18)
	w.pdf.CellFormat(contentWidth, 10, w.tr("Simulador de Beneficio AFP"), "", 1, "L", false, 0, "")
	w.pdf.SetFont("Helvetica", "I", 9)
	source := "-"
	if w.report.Dataset != nil {
		source = fmt.Sprintf("%s (%s)", w.report.Dataset.Source, w.report.Dataset.ID)
	}
	w.pdf.CellFormat(contentWidth, 5, w.tr("Fuente: "+source), "", 1, "L", false, 0, "")
	w.pdf.CellFormat(contentWidth, 5, w.tr("Generado: "+w.report.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	w.pdf.CellFormat(contentWidth, 5, w.tr("Filtros: "+w.report.View.Criteria.String()), "", 1, "L", false, 0, "")
}

func (w *reportWriter) addMetrics() {
	w.heading("Estadísticas Principales")
	w.row("Personas Filtradas", fmt.Sprintf("%d", w.report.View.Total))
	w.row("Reciben Beneficio", fmt.Sprintf("%d", w.report.View.BenefitCount))
	w.row("No Reciben", fmt.Sprintf("%d", w.report.View.NoBenefitCount))
	w.row("Proporción que recibe", fmt.Sprintf("%.1f%%", w.report.View.BenefitShare()*100))
}

func (w *reportWriter) addSummary() {
	if w.report.View.Total == 0 {
		return
	}
	s := w.report.Summary
	w.heading("Resumen por Columna")
	for _, f := range []struct {
		name    string
		summary profiling.FieldSummary
		format  string
	}{
		{"Edad", s.Age, "%.1f"},
		{"Meses cotizados", s.Months, "%.1f"},
		{"Ingresos", s.Income, "%.0f"},
	} {
		value := fmt.Sprintf("media "+f.format+" · mediana "+f.format+" · rango ["+f.format+", "+f.format+"]",
			f.summary.Mean, f.summary.Median, f.summary.Min, f.summary.Max)
		w.row(f.name, value)
	}
	w.row("Correlación edad / meses", fmt.Sprintf("%.3f", s.AgeMonthsCorrelation))
}

func (w *reportWriter) addCharts() {
	if len(w.report.Charts) == 0 {
		return
	}
	w.heading("Visualización")
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	const imgWidth = contentWidth / 2
	const imgHeight = imgWidth * charts.Height / charts.Width

	placed := 0
	for _, name := range charts.Names {
		img, ok := w.report.Charts[name]
		if !ok {
			continue
		}
		w.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
		if placed%2 == 0 && w.pdf.GetY()+imgHeight > 297-marginBottom {
			w.pdf.AddPage()
		}
		x := marginLeft + float64(placed%2)*imgWidth
		y := w.pdf.GetY()
		w.pdf.ImageOptions(name, x, y, imgWidth, imgHeight, false, opts, 0, "")
		if placed%2 == 1 {
			w.pdf.SetY(y + imgHeight + 2)
		}
		placed++
	}
	if placed%2 == 1 {
		w.pdf.SetY(w.pdf.GetY() + imgHeight + 2)
	}
}

func (w *reportWriter) addTable() {
	w.heading("Detalle de Datos Filtrados")
	columns := beneficiary.RequiredColumns
	colWidth := contentWidth / float64(len(columns))

	w.pdf.SetFont("Helvetica", "B", 8)
	for _, c := range columns {
		w.pdf.CellFormat(colWidth, 6, w.tr(c), "1", 0, "C", false, 0, "")
	}
	w.pdf.Ln(-1)

	w.pdf.SetFont("Helvetica", "", 8)
	for i, r := range w.report.View.Records {
		if i == MaxTableRows {
			break
		}
		cells := excel.FormatRecord(r)[:len(columns)]
		for _, cell := range cells {
			w.pdf.CellFormat(colWidth, 5, w.tr(cell), "1", 0, "R", false, 0, "")
		}
		w.pdf.Ln(-1)
	}

	if remaining := w.report.View.Total - MaxTableRows; remaining > 0 {
		w.pdf.SetFont("Helvetica", "I", 8)
		note := fmt.Sprintf("… y %d filas más (ver %s)", remaining, excel.CSVFileName)
		w.pdf.CellFormat(contentWidth, 6, w.tr(note), "", 1, "L", false, 0, "")
	}
}
