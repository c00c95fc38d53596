package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"disputelens/adapters/api"
	"disputelens/adapters/chart"
	"disputelens/adapters/excel"
	"disputelens/adapters/widget"
	"disputelens/domain/analysis"
	"disputelens/internal/errors"
	"disputelens/internal/export"
	"disputelens/internal/insights"
	"disputelens/internal/notify"
	"disputelens/internal/render"
)

var nowFunc = time.Now

func printAlert(cmd *cobra.Command, message string, severity notify.Severity) {
	fmt.Fprintln(cmd.OutOrStdout(), renderAlert(notify.New(message, severity, nowFunc())))
}

func newUploadCmd(app *cliApp) *cobra.Command {
	paths := make(map[string]*string, len(api.UploadFields))

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload the billback, item reference, PPM and states workbooks",
		Long: `Upload the four workbooks and store the new session for this profile.

Example: disputelens upload --billback bb.xlsx --item_ref items.xlsx --ppm ppm.xlsx --states states.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			files := make(map[string]api.UploadFile, len(paths))
			for _, field := range api.UploadFields {
				path := *paths[field]
				if path == "" {
					return errors.InvalidInput(fmt.Sprintf("--%s is required", field))
				}
				info, err := app.reader.CheckUpload(path)
				if err != nil {
					return err
				}
				if info.Inspected {
					app.logger.Debug("%s: %d columns, %d rows", info.Filename, len(info.Headers), info.RowCount)
				}

				f, err := os.Open(path)
				if err != nil {
					return errors.Wrapf(err, "failed to open %s", path)
				}
				defer f.Close()
				files[field] = api.UploadFile{Filename: filepath.Base(path), Content: f}
			}

			id, err := app.backend.Upload(ctx, files)
			if err != nil {
				return err
			}

			sc, _ := app.session(ctx)
			if err := sc.Start(ctx, id); err != nil {
				return err
			}
			printAlert(cmd, fmt.Sprintf("Files uploaded successfully. Session %s", id), notify.SeveritySuccess)
			return nil
		},
	}

	for _, field := range api.UploadFields {
		paths[field] = cmd.Flags().String(field, "", fmt.Sprintf("Path to the %s workbook", field))
	}
	return cmd
}

func newFiltersCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List the markets, brands, years and months of the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sc, err := app.session(ctx)
			if err != nil {
				return err
			}
			opts, err := app.backend.FilterOptions(ctx, sc.ID())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderOptions(opts))
			return nil
		},
	}
}

type filterFlags struct {
	market string
	brand  string
	year   int
	month  string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.market, "market", "", "Market to analyze")
	cmd.Flags().StringVar(&f.brand, "brand", "", "Brand to analyze")
	cmd.Flags().IntVar(&f.year, "year", 0, "Year to analyze")
	cmd.Flags().StringVar(&f.month, "month", "", "Month to analyze")
}

// analyze resolves the session, validates the selection and runs it
func (f *filterFlags) analyze(ctx context.Context, app *cliApp) (*analysis.Result, error) {
	sc, err := app.session(ctx)
	if err != nil {
		return nil, err
	}
	filters := analysis.Filters{
		SessionID: sc.ID(),
		Market:    f.market,
		Brand:     f.brand,
		Year:      f.year,
		Month:     f.month,
	}
	if err := filters.Validate(); err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	return app.backend.Analyze(ctx, filters)
}

func newAnalyzeCmd(app *cliApp) *cobra.Command {
	var filters filterFlags
	var limit int
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the reconciliation for one filter selection",
		Long: `Run the reconciliation and print the summary and result rows.

Example: disputelens analyze --market CA --brand Acme --year 2024 --month Jan --limit 25`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := filters.analyze(cmd.Context(), app)
			if err != nil {
				return err
			}

			renderer := render.NewRenderer(widget.NewRegistry(app.logger), chart.NewScript(), app.logger)
			view, err := renderer.Show(result)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSummary(view.Summary))
			if summary, err := insights.Summarize(result.Rows); err == nil {
				fmt.Fprintln(out, renderInsights(summary))
			}
			fmt.Fprintln(out, renderRows(*view, limit))

			if xlsxPath != "" {
				f, err := os.Create(xlsxPath)
				if err != nil {
					return errors.Wrapf(err, "failed to create %s", xlsxPath)
				}
				defer f.Close()
				if err := excel.WriteRows(f, *view); err != nil {
					return err
				}
				printAlert(cmd, fmt.Sprintf("Results written to %s", xlsxPath), notify.SeveritySuccess)
			}
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 25, "Rows to print (0 prints all)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the results to this workbook")
	return cmd
}

func newChartsCmd(app *cliApp) *cobra.Command {
	var filters filterFlags
	var name string
	var outDir string

	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Render the analysis charts to PNG files",
		Long: `Run the analysis and render every chart it returns to PNG, or fetch a
single chart of the last analysis with --name.

Example: disputelens charts --market CA --brand Acme --year 2024 --month Jan --out charts/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if outDir == "" {
				outDir = filepath.Join(app.cfg.Export.Dir, "charts")
			}
			plotter := chart.NewPNG(outDir, app.logger)

			figures := make(map[string]json.RawMessage)
			if name != "" {
				sc, err := app.session(ctx)
				if err != nil {
					return err
				}
				fig, err := app.backend.Visualization(ctx, sc.ID(), name)
				if err != nil {
					return err
				}
				figures[render.ChartTargetID(name)] = fig
			} else {
				result, err := filters.analyze(ctx, app)
				if err != nil {
					return err
				}
				for _, c := range render.Project(result).Charts {
					figures[c.TargetID] = c.Figure
				}
			}

			if len(figures) == 0 {
				printAlert(cmd, "The analysis returned no charts.", notify.SeverityWarning)
				return nil
			}
			if err := plotter.PlotAll(ctx, figures); err != nil {
				return err
			}
			files := plotter.Files()
			targets := make([]string, 0, len(files))
			for target := range files {
				targets = append(targets, target)
			}
			sort.Strings(targets)
			for _, target := range targets {
				fmt.Fprintln(cmd.OutOrStdout(), files[target])
			}
			if skipped := len(figures) - len(files); skipped > 0 {
				printAlert(cmd, fmt.Sprintf("%d charts could not be rendered", skipped), notify.SeverityWarning)
			}
			printAlert(cmd, fmt.Sprintf("%d charts written to %s", len(files), outDir), notify.SeveritySuccess)
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "Fetch one chart of the last analysis (e.g. top_materials)")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory for PNG files (default $EXPORT_DIR/charts)")
	return cmd
}

func newReportCmd(app *cliApp) *cobra.Command {
	var formatName string
	var outDir string
	var show bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate and export a summary report of the last analysis",
		Long: `Generate a report in html, markdown or text and save it as
dispute_analysis_report.<ext>.

Example: disputelens report --format markdown --out reports/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			format, err := analysis.ParseFormat(formatName)
			if err != nil {
				return errors.UnsupportedFormat(formatName)
			}
			sc, err := app.session(ctx)
			if err != nil {
				return err
			}

			report, err := app.backend.GenerateReport(ctx, sc.ID(), format)
			if err != nil {
				return err
			}
			file, err := export.Build(*report)
			if err != nil {
				return err
			}

			if show {
				fmt.Fprintln(cmd.OutOrStdout(), export.StripPre(report.Content))
			}

			if outDir == "" {
				outDir = app.cfg.Export.Dir
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return errors.Wrapf(err, "failed to create %s", outDir)
			}
			path := filepath.Join(outDir, file.Name)
			if err := os.WriteFile(path, file.Bytes(), 0o644); err != nil {
				return errors.Wrapf(err, "failed to write %s", path)
			}
			printAlert(cmd, fmt.Sprintf("Report saved to %s (%s)", path, file.MIMEType), notify.SeveritySuccess)
			return nil
		},
	}

	cmd.Flags().StringVar(&formatName, "format", string(analysis.FormatHTML), "Report format: html, markdown or text")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory to save the report (default $EXPORT_DIR)")
	cmd.Flags().BoolVar(&show, "show", false, "Also print the report")
	return cmd
}

func newExportExcelCmd(app *cliApp) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export-excel",
		Short: "Download the backend's workbook of the last analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sc, err := app.session(ctx)
			if err != nil {
				return err
			}

			if outDir == "" {
				outDir = app.cfg.Export.Dir
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return errors.Wrapf(err, "failed to create %s", outDir)
			}
			tmp, err := os.CreateTemp(outDir, "export-*.xlsx")
			if err != nil {
				return errors.Wrap(err, "failed to create temporary file")
			}
			defer os.Remove(tmp.Name())

			name, err := app.backend.ExportExcel(ctx, sc.ID(), tmp)
			tmp.Close()
			if err != nil {
				return err
			}

			path := filepath.Join(outDir, filepath.Base(name))
			if err := os.Rename(tmp.Name(), path); err != nil {
				return errors.Wrapf(err, "failed to save %s", path)
			}
			printAlert(cmd, fmt.Sprintf("Workbook saved to %s", path), notify.SeveritySuccess)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "Directory to save the workbook (default $EXPORT_DIR)")
	return cmd
}

func newClearCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop the session here and on the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sc, err := app.session(ctx)
			if err == nil {
				if err := app.backend.Clear(ctx, sc.ID()); err != nil {
					app.logger.Warn("backend clear failed: %v", err)
				}
			}
			if err := sc.Forget(ctx); err != nil {
				return err
			}
			printAlert(cmd, "Session cleared. You can upload new files.", notify.SeveritySuccess)
			return nil
		},
	}
}
