package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"afpdash/adapters/excel"
	"afpdash/adapters/postgres"
	"afpdash/app"
	"afpdash/domain/beneficiary"
	"afpdash/internal/config"
	"afpdash/internal/profiling"

	"github.com/spf13/cobra"
)

// Output formats
const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

// filterFlags are the control values shared by filter and summary
type filterFlags struct {
	file           string
	controlsFile   string
	sex            string
	minAge         int
	maxAge         int
	minMonths      int
	pensionersOnly bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	defaultFile := os.Getenv("DATA_FILE")
	if defaultFile == "" {
		defaultFile = beneficiary.DefaultDatasetFile
	}
	cmd.Flags().StringVar(&f.file, "file", defaultFile, "Beneficiary table (.csv or .xlsx)")
	cmd.Flags().StringVar(&f.controlsFile, "controls", os.Getenv("CONTROLS_FILE"), "YAML file with control bounds and defaults")
	cmd.Flags().StringVar(&f.sex, "sex", "", "Sex filter: Todos|F|M")
	cmd.Flags().IntVar(&f.minAge, "min-age", 0, "Minimum age (inclusive)")
	cmd.Flags().IntVar(&f.maxAge, "max-age", 0, "Maximum age (inclusive)")
	cmd.Flags().IntVar(&f.minMonths, "min-months", 0, "Minimum months contributed")
	cmd.Flags().BoolVar(&f.pensionersOnly, "pensioners-only", false, "Keep only pensioners")
}

// query encodes the flags the user set so unset ones take the control
// defaults, exactly as a fresh dashboard load would
func (f *filterFlags) query(cmd *cobra.Command) url.Values {
	values := url.Values{}
	flags := cmd.Flags()
	if flags.Changed("sex") {
		values.Set(app.ParamSex, f.sex)
	}
	if flags.Changed("min-age") {
		values.Set(app.ParamMinAge, strconv.Itoa(f.minAge))
	}
	if flags.Changed("max-age") {
		values.Set(app.ParamMaxAge, strconv.Itoa(f.maxAge))
	}
	if flags.Changed("min-months") {
		values.Set(app.ParamMinMonths, strconv.Itoa(f.minMonths))
	}
	if flags.Changed("pensioners-only") {
		values.Set(app.ParamPensionersOnly, strconv.FormatBool(f.pensionersOnly))
	}
	return values
}

func (f *filterFlags) evaluate(cmd *cobra.Command) (*app.Evaluation, error) {
	controls, err := config.LoadControls(f.controlsFile)
	if err != nil {
		return nil, err
	}
	ds, err := excel.NewFileSource(f.file).Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	return app.NewDashboardService(ds, controls).EvaluateQuery(f.query(cmd))
}

func newFilterCmd() *cobra.Command {
	var flags filterFlags
	var format, out string

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Print the rows selected by the control values",
		Long: `Apply the dashboard filter to a beneficiary table and print the result.

Unset control flags take the dashboard defaults.

Example: afpdash-cli filter --sex F --min-age 70 --format csv --out mujeres.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ev, err := flags.evaluate(cmd)
			if err != nil {
				return err
			}

			w, closer, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			defer closeOutput(closer, &err)

			switch format {
			case formatCSV:
				return excel.WriteCSV(w, ev.Dataset, ev.View)
			case formatJSON:
				return writeJSON(w, map[string]interface{}{
					"criteria":      ev.View.Criteria,
					"total":         ev.View.Total,
					"benefit":       ev.View.BenefitCount,
					"no_benefit":    ev.View.NoBenefitCount,
					"extra_columns": ev.Dataset.ExtraColumns,
					"records":       ev.View.Records,
				})
			case formatTable:
				return writeTable(w, ev)
			default:
				return fmt.Errorf("unknown format %q (use table, csv or json)", format)
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table|csv|json")
	cmd.Flags().StringVar(&out, "out", "", "Write to this file instead of stdout")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var flags filterFlags
	var format string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print counts and column statistics for the selected rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := flags.evaluate(cmd)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if format == formatJSON {
				return writeJSON(w, map[string]interface{}{
					"criteria":   ev.View.Criteria,
					"total":      ev.View.Total,
					"benefit":    ev.View.BenefitCount,
					"no_benefit": ev.View.NoBenefitCount,
					"summary":    ev.Summary,
				})
			}
			return writeSummary(w, ev)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table|json")
	return cmd
}

func newImportCmd() *cobra.Command {
	var file, databaseURL string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a beneficiary table and store it in PostgreSQL",
		Long: `Load a beneficiary table and store it as a new import.

The dashboard serves the most recent import when DATA_SOURCE=postgres.

Example: DATABASE_URL=postgres://localhost/afp afpdash-cli import --file resumen_beneficio_afp.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ds, err := excel.NewFileSource(file).Load(ctx)
			if err != nil {
				return err
			}

			db, err := postgres.Open(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			id, err := postgres.NewBeneficiaryRepository(db).Import(ctx, ds)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows from %s as %s\n", ds.Len(), ds.Source, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", beneficiary.DefaultDatasetFile, "Beneficiary table (.csv or .xlsx)")
	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	return cmd
}

func newImportsCmd() *cobra.Command {
	var databaseURL string
	var limit int

	cmd := &cobra.Command{
		Use:   "imports",
		Short: "List the most recent imports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			db, err := postgres.Open(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			imports, err := postgres.NewBeneficiaryRepository(db).ListImports(ctx, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tROWS\tIMPORTED\tSOURCE")
			for _, imp := range imports {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", imp.ID, imp.RecordCount, imp.ImportedAt.Format(time.RFC3339), imp.Source)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of imports to list")
	return cmd
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openOutput(cmd *cobra.Command, path string) (io.Writer, io.Closer, error) {
	if path == "" {
		return cmd.OutOrStdout(), nopCloser{}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f, nil
}

// closeOutput closes c and reports its error unless *err is already set
func closeOutput(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("failed to close output: %w", cerr)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCounts(w io.Writer, ev *app.Evaluation) {
	fmt.Fprintf(w, "Filtros: %s\n", ev.View.Criteria)
	fmt.Fprintf(w, "Personas Filtradas: %d\n", ev.View.Total)
	fmt.Fprintf(w, "Reciben Beneficio: %d\n", ev.View.BenefitCount)
	fmt.Fprintf(w, "No Reciben: %d\n", ev.View.NoBenefitCount)
}

func writeTable(w io.Writer, ev *app.Evaluation) error {
	writeCounts(w, ev)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for i, col := range ev.Dataset.Columns() {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, col)
	}
	fmt.Fprintln(tw, "\t")
	for _, r := range ev.View.Records {
		for i, cell := range excel.FormatRecord(r) {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw, "\t")
	}
	return tw.Flush()
}

func writeSummary(w io.Writer, ev *app.Evaluation) error {
	writeCounts(w, ev)
	if ev.View.Total == 0 {
		return nil
	}

	s := ev.Summary
	fmt.Fprintf(w, "Proporción que recibe: %.1f%%\n\n", s.BenefitShare*100)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "columna\tmedia\tmediana\tmín\tmáx\tdesv\t")
	for _, row := range []struct {
		name string
		f    profiling.FieldSummary
	}{
		{beneficiary.ColumnAge, s.Age},
		{beneficiary.ColumnMonths, s.Months},
		{beneficiary.ColumnIncome, s.Income},
	} {
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.0f\t%.0f\t%.1f\t\n", row.name, row.f.Mean, row.f.Median, row.f.Min, row.f.Max, row.f.StdDev)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nCorrelación edad / meses: %.3f\n", s.AgeMonthsCorrelation)
	return nil
}
