package app

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/url"
	"time"

	"afpdash/adapters/charts"
	"afpdash/adapters/excel"
	"afpdash/adapters/pdf"
	"afpdash/domain/beneficiary"
	"afpdash/internal/config"
	"afpdash/internal/errors"
	"afpdash/internal/profiling"

	"golang.org/x/sync/errgroup"
)

// DashboardService evaluates sidebar criteria against the dataset loaded
// at startup. It holds no mutable state, so one instance serves every
// request concurrently.
type DashboardService struct {
	dataset  *beneficiary.Dataset
	controls *config.Controls
}

// Evaluation is everything the presentation layer needs for one request
type Evaluation struct {
	Dataset *beneficiary.Dataset
	View    beneficiary.View
	Summary profiling.Summary
}

// NewDashboardService creates the service over an already loaded dataset
func NewDashboardService(ds *beneficiary.Dataset, controls *config.Controls) *DashboardService {
	if controls == nil {
		controls = config.DefaultControls()
	}
	return &DashboardService{dataset: ds, controls: controls}
}

// Dataset returns the shared read-only dataset
func (s *DashboardService) Dataset() *beneficiary.Dataset {
	return s.dataset
}

// Controls returns the sidebar control settings
func (s *DashboardService) Controls() *config.Controls {
	return s.controls
}

// DefaultCriteria returns the criteria of a fresh page load
func (s *DashboardService) DefaultCriteria() beneficiary.Criteria {
	return DefaultCriteria(s.controls)
}

// ParseCriteria reads control values from a query
func (s *DashboardService) ParseCriteria(values url.Values) (beneficiary.Criteria, error) {
	return ParseCriteria(values, s.controls)
}

// Evaluate filters the dataset. An empty dataset is a halt condition and
// reported as DATASET_EMPTY; an empty selection is a normal result.
func (s *DashboardService) Evaluate(c beneficiary.Criteria) (*Evaluation, error) {
	if s.dataset.IsEmpty() {
		source := "<none>"
		if s.dataset != nil {
			source = s.dataset.Source
		}
		return nil, errors.DatasetEmpty(source)
	}

	view := beneficiary.Apply(s.dataset, c)
	return &Evaluation{
		Dataset: s.dataset,
		View:    view,
		Summary: profiling.Summarize(view),
	}, nil
}

// EvaluateQuery parses the query and evaluates it
func (s *DashboardService) EvaluateQuery(values url.Values) (*Evaluation, error) {
	c, err := s.ParseCriteria(values)
	if err != nil {
		return nil, err
	}
	return s.Evaluate(c)
}

// RenderCharts draws the named charts concurrently and returns their PNG
// bytes keyed by name
func (s *DashboardService) RenderCharts(ctx context.Context, view beneficiary.View, names []string) (map[string][]byte, error) {
	start := time.Now()
	images := make([][]byte, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := charts.Render(name, &buf, view); err != nil {
				return errors.Wrapf(err, "failed to render chart %s", name)
			}
			images[i] = buf.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(map[string][]byte, len(names))
	for i, name := range names {
		result[name] = images[i]
	}
	log.Printf("[DashboardService] Rendered %d charts for %d rows in %.2fms", len(names), view.Total, float64(time.Since(start).Nanoseconds())/1e6)
	return result, nil
}

// ExportCSV writes the filtered rows as the downloadable CSV
func (s *DashboardService) ExportCSV(w io.Writer, ev *Evaluation) error {
	return excel.WriteCSV(w, ev.Dataset, ev.View)
}

// ExportXLSX writes the filtered rows as a workbook
func (s *DashboardService) ExportXLSX(w io.Writer, ev *Evaluation) error {
	return excel.WriteXLSX(w, ev.Dataset, ev.View)
}

// ExportPDF renders the summary report including every chart
func (s *DashboardService) ExportPDF(ctx context.Context, ev *Evaluation) ([]byte, error) {
	images, err := s.RenderCharts(ctx, ev.View, charts.Names)
	if err != nil {
		return nil, err
	}
	return pdf.Generate(pdf.Report{
		Dataset: ev.Dataset,
		View:    ev.View,
		Summary: ev.Summary,
		Charts:  images,
	})
}
