package charts

import (
	"fmt"
	"io"
	"math"

	"afpdash/domain/beneficiary"
	"afpdash/internal/errors"
	"afpdash/internal/profiling"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Image size of every chart
const (
	Width  = 760
	Height = 420
)

// Bin counts of the histograms
const (
	AgeBins    = 20
	MonthsBins = 30
)

// Chart names accepted by Render
const (
	ChartPie     = "pie"
	ChartAge     = "age"
	ChartMonths  = "months"
	ChartScatter = "scatter"
)

// Names lists the charts in dashboard order
var Names = []string{ChartPie, ChartAge, ChartMonths, ChartScatter}

// Labels of the benefit outcome
const (
	LabelBenefit   = "Reciben"
	LabelNoBenefit = "No Reciben"
)

var (
	colorBenefit   = drawing.ColorFromHex("66CC99")
	colorNoBenefit = drawing.ColorFromHex("FF9999")
	colorText      = drawing.ColorFromHex("555555")
)

// Renderer writes one chart of view as PNG
type Renderer func(w io.Writer, view beneficiary.View) error

var registry = map[string]Renderer{
	ChartPie:     Pie,
	ChartAge:     AgeHistogram,
	ChartMonths:  MonthsHistogram,
	ChartScatter: Scatter,
}

// Render draws the named chart
func Render(name string, w io.Writer, view beneficiary.View) error {
	render, ok := registry[name]
	if !ok {
		return errors.NotFound(fmt.Sprintf("chart %q", name))
	}
	return render(w, view)
}

// Pie draws the share of rows that will and will not check the benefit
func Pie(w io.Writer, view beneficiary.View) error {
	const title = "Distribución de Beneficio"
	if view.Total == 0 {
		return placeholder(w, title)
	}

	share := view.BenefitShare()
	pie := chart.PieChart{
		Title:  title,
		Width:  Width,
		Height: Height,
		Values: []chart.Value{
			{
				Value: float64(view.NoBenefitCount),
				Label: fmt.Sprintf("%s %.1f%%", LabelNoBenefit, (1-share)*100),
				Style: chart.Style{FillColor: colorNoBenefit},
			},
			{
				Value: float64(view.BenefitCount),
				Label: fmt.Sprintf("%s %.1f%%", LabelBenefit, share*100),
				Style: chart.Style{FillColor: colorBenefit},
			},
		},
	}
	return pie.Render(chart.PNG, w)
}

// AgeHistogram overlays the age distribution of both benefit outcomes
func AgeHistogram(w io.Writer, view beneficiary.View) error {
	return histogram(w, view, "Distribución de Edad", beneficiary.ColumnAge, AgeBins,
		func(r beneficiary.Record) float64 { return float64(r.Age) })
}

// MonthsHistogram overlays the months-contributed distribution of both
// benefit outcomes
func MonthsHistogram(w io.Writer, view beneficiary.View) error {
	return histogram(w, view, "Distribución de Meses Cotizados", beneficiary.ColumnMonths, MonthsBins,
		func(r beneficiary.Record) float64 { return float64(r.MonthsContributed) })
}

func histogram(w io.Writer, view beneficiary.View, title, axis string, bins int, value func(beneficiary.Record) float64) error {
	if view.Total == 0 {
		return placeholder(w, title)
	}

	all := make([]float64, len(view.Records))
	for i, r := range view.Records {
		all[i] = value(r)
	}
	dividers := profiling.Dividers(all, bins)

	benefit, noBenefit := view.Split()
	benefitCounts := profiling.Counts(values(benefit, value), dividers)
	noBenefitCounts := profiling.Counts(values(noBenefit, value), dividers)

	top := 1.0
	for i := range benefitCounts {
		top = math.Max(top, math.Max(benefitCounts[i], noBenefitCounts[i]))
	}

	graph := chart.Chart{
		Title:      title,
		Width:      Width,
		Height:     Height,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:  axis,
			Range: &chart.ContinuousRange{Min: dividers[0], Max: dividers[len(dividers)-1]},
		},
		YAxis: chart.YAxis{
			Name:  "personas",
			Range: &chart.ContinuousRange{Min: 0, Max: math.Ceil(top * 1.1)},
		},
		Series: []chart.Series{
			stepSeries(LabelNoBenefit, dividers, noBenefitCounts, colorNoBenefit),
			stepSeries(LabelBenefit, dividers, benefitCounts, colorBenefit),
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}

// stepSeries outlines histogram bars as a filled step curve so both
// outcomes can be overlaid
func stepSeries(name string, dividers, counts []float64, color drawing.Color) chart.ContinuousSeries {
	xs := make([]float64, 0, 2*len(counts))
	ys := make([]float64, 0, 2*len(counts))
	for i, c := range counts {
		xs = append(xs, dividers[i], dividers[i+1])
		ys = append(ys, c, c)
	}
	return chart.ContinuousSeries{
		Name:    name,
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeColor: color,
			StrokeWidth: 1.5,
			FillColor:   color.WithAlpha(110),
		},
	}
}

// Scatter plots age against months contributed, colored by benefit and
// sized by income
func Scatter(w io.Writer, view beneficiary.View) error {
	const title = "Relación Edad vs. Cotización"
	if view.Total == 0 {
		return placeholder(w, title)
	}

	age, months, income := profiling.Columns(view.Records)
	minIncome, maxIncome := bounds(income)
	minAge, maxAge := bounds(age)
	minMonths, maxMonths := bounds(months)

	var series []chart.Series
	benefit, noBenefit := view.Split()
	for _, group := range []struct {
		name    string
		records []beneficiary.Record
		color   drawing.Color
	}{
		{LabelNoBenefit, noBenefit, drawing.ColorFromHex("FF6666")},
		{LabelBenefit, benefit, drawing.ColorFromHex("00CC99")},
	} {
		if len(group.records) == 0 {
			continue
		}
		xs, ys, sizes := profiling.Columns(group.records)
		series = append(series, chart.ContinuousSeries{
			Name:    group.name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth:      chart.Disabled,
				DotWidth:         4,
				DotColor:         group.color.WithAlpha(180),
				DotWidthProvider: incomeSize(sizes, minIncome, maxIncome),
			},
		})
	}

	graph := chart.Chart{
		Title:      title,
		Width:      Width,
		Height:     Height,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:  beneficiary.ColumnAge,
			Range: &chart.ContinuousRange{Min: minAge - 1, Max: maxAge + 1},
		},
		YAxis: chart.YAxis{
			Name:  beneficiary.ColumnMonths,
			Range: &chart.ContinuousRange{Min: math.Max(0, minMonths-5), Max: maxMonths + 5},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}

// incomeSize maps income linearly onto dot radii between 2 and 10
func incomeSize(income []float64, lo, hi float64) chart.SizeProvider {
	return func(_, _ chart.Range, index int, _, _ float64) float64 {
		if hi <= lo || index >= len(income) {
			return 4
		}
		return 2 + 8*(income[index]-lo)/(hi-lo)
	}
}

func values(records []beneficiary.Record, value func(beneficiary.Record) float64) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = value(r)
	}
	return out
}

func bounds(xs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

// placeholder draws a titled blank canvas for views with no rows
func placeholder(w io.Writer, title string) error {
	r, err := chart.PNG(Width, Height)
	if err != nil {
		return err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return err
	}

	r.SetFillColor(drawing.ColorWhite)
	r.MoveTo(0, 0)
	r.LineTo(Width, 0)
	r.LineTo(Width, Height)
	r.LineTo(0, Height)
	r.Close()
	r.Fill()

	r.SetFont(font)
	r.SetFontColor(colorText)
	r.SetFontSize(16)
	titleBox := r.MeasureText(title)
	r.Text(title, (Width-titleBox.Width())/2, 40)

	const msg = "Sin datos para los filtros seleccionados"
	r.SetFontSize(12)
	msgBox := r.MeasureText(msg)
	r.Text(msg, (Width-msgBox.Width())/2, Height/2)

	return r.Save(w)
}
