package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"afpdash/adapters/charts"
	"afpdash/adapters/excel"
	"afpdash/adapters/pdf"
	"afpdash/app"
	"afpdash/domain/beneficiary"
	"afpdash/internal/config"
	"afpdash/internal/errors"
	"afpdash/internal/profiling"

	"github.com/gin-gonic/gin"
)

var chartTitles = map[string]string{
	charts.ChartPie:     "Beneficio",
	charts.ChartAge:     "Distribución de Edad",
	charts.ChartMonths:  "Distribución de Meses Cotizados",
	charts.ChartScatter: "Edad vs Cotización",
}

type chartLink struct {
	Name  string
	Title string
	URL   template.URL
}

type dashboardPage struct {
	Intro      template.HTML
	Source     string
	Controls   *config.Controls
	Criteria   beneficiary.Criteria
	View       beneficiary.View
	Summary    profiling.Summary
	Columns    []string
	Rows       []beneficiary.Record
	HiddenRows int
	Charts     []chartLink
	Query      template.URL
	Error      string
}

type emptyPage struct {
	Intro  template.HTML
	Source string
}

// handleDashboard renders the full page. An invalid control value keeps
// the page usable: it is reported in a banner over the default view.
func (s *Server) handleDashboard(c *gin.Context) {
	ds := s.service.Dataset()
	if ds.IsEmpty() {
		source := s.config.Data.File
		if ds != nil {
			source = ds.Source
		}
		s.renderTemplate(c, http.StatusOK, "empty.html", emptyPage{Intro: s.intro, Source: source})
		return
	}

	status := http.StatusOK
	var message string
	criteria, err := s.service.ParseCriteria(c.Request.URL.Query())
	if err != nil {
		status = statusFor(err)
		message = err.Error()
		criteria = s.service.DefaultCriteria()
	}

	ev, err := s.service.Evaluate(criteria)
	if err != nil {
		abortWithError(c, err)
		return
	}

	query := app.CriteriaValues(criteria).Encode()
	links := make([]chartLink, 0, len(charts.Names))
	for _, name := range charts.Names {
		links = append(links, chartLink{
			Name:  name,
			Title: chartTitles[name],
			URL:   template.URL(fmt.Sprintf("/charts/%s.png?%s", name, query)),
		})
	}

	rows := ev.View.Records
	hidden := 0
	if limit := s.config.Dashboard.TableRowLimit; len(rows) > limit {
		hidden = len(rows) - limit
		rows = rows[:limit]
	}

	s.renderTemplate(c, status, "dashboard.html", dashboardPage{
		Intro:      s.intro,
		Source:     ds.Source,
		Controls:   s.service.Controls(),
		Criteria:   criteria,
		View:       ev.View,
		Summary:    ev.Summary,
		Columns:    ds.Columns(),
		Rows:       rows,
		HiddenRows: hidden,
		Charts:     links,
		Query:      template.URL(query),
		Error:      message,
	})
}

// handleChart serves /charts/<name>.png for the query's criteria
func (s *Server) handleChart(c *gin.Context) {
	file := c.Param("file")
	name, ok := strings.CutSuffix(file, ".png")
	if !ok {
		abortWithError(c, errors.NotFound(fmt.Sprintf("chart %q", file)))
		return
	}

	ev, err := s.service.EvaluateQuery(c.Request.URL.Query())
	if err != nil {
		abortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := charts.Render(name, &buf, ev.View); err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// handleExport serves the filtered rows as csv, xlsx or pdf
func (s *Server) handleExport(c *gin.Context) {
	format := c.Param("format")

	ev, err := s.service.EvaluateQuery(c.Request.URL.Query())
	if err != nil {
		abortWithError(c, err)
		return
	}

	var (
		buf         bytes.Buffer
		contentType string
		fileName    string
	)
	switch format {
	case "csv":
		err = s.service.ExportCSV(&buf, ev)
		contentType, fileName = excel.CSVContentType, excel.CSVFileName
	case "xlsx":
		err = s.service.ExportXLSX(&buf, ev)
		contentType, fileName = excel.XLSXContentType, excel.XLSXFileName
	case "pdf":
		var data []byte
		data, err = s.service.ExportPDF(c.Request.Context(), ev)
		buf.Write(data)
		contentType, fileName = pdf.ContentType, pdf.FileName
	default:
		abortWithError(c, errors.NotFound(fmt.Sprintf("export format %q", format)))
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	log.Printf("[Export] %s: %d rows (%s)", fileName, ev.View.Total, ev.View.Criteria)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", fileName))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (s *Server) handleAPIView(c *gin.Context) {
	ev, err := s.service.EvaluateQuery(c.Request.URL.Query())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source":        ev.Dataset.Source,
		"criteria":      ev.View.Criteria,
		"total":         ev.View.Total,
		"benefit":       ev.View.BenefitCount,
		"no_benefit":    ev.View.NoBenefitCount,
		"summary":       ev.Summary,
		"extra_columns": ev.Dataset.ExtraColumns,
		"records":       ev.View.Records,
	})
}

func (s *Server) handleAPIControls(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"controls": s.service.Controls(),
		"defaults": s.service.DefaultCriteria(),
	})
}

func (s *Server) handleAPIImports(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	imports, err := s.imports.ListImports(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"imports": imports,
		"count":   len(imports),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	ds := s.service.Dataset()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"records": ds.Len(),
		"empty":   ds.IsEmpty(),
	})
}
