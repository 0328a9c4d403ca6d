package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lotto-cli/internal/fetch"
	"github.com/sells-group/lotto-cli/internal/pipeline"
	"github.com/sells-group/lotto-cli/internal/resilience"
	"github.com/sells-group/lotto-cli/internal/writer"
)

var (
	scrapeRange    string
	scrapeStart    string
	scrapeEnd      string
	scrapeYear     int
	scrapeDrawDate string
	scrapeFormat   string
	scrapeOutDir   string
	scrapeAppend   bool
	scrapeDryRun   bool
	scrapeHeadless bool
	scrapeNoStore  bool
	scrapePerDate  bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape draw results for a date range",
	Long:  "Fetches past draw results page by page, validates and deduplicates them, writes the dataset to the configured formats, and archives the run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rng, err := resolveRange(time.Now())
		if err != nil {
			return err
		}

		loc, err := loadLocators()
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("headless") {
			cfg.Browser.Headless = scrapeHeadless
		}
		if cmd.Flags().Changed("format") {
			cfg.Output.Format = scrapeFormat
		}
		if cmd.Flags().Changed("output-dir") {
			cfg.Output.Dir = scrapeOutDir
		}
		if cmd.Flags().Changed("per-date") {
			cfg.Fetch.PerDate = scrapePerDate
		}

		renderer, err := newRenderer(loc)
		if err != nil {
			return eris.Wrap(err, "start browser session")
		}
		defer renderer.Close()

		ctrl := pipeline.New(renderer, fetch.Config{
			Retry: resilience.RetryConfig{
				MaxAttempts:    cfg.Fetch.MaxAttempts,
				InitialBackoff: cfg.Fetch.InitialBackoff,
				MaxBackoff:     cfg.Fetch.MaxBackoff,
			},
			MaxPages:          cfg.Fetch.MaxPages,
			RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
			Locators:          loc,
			PerDate:           cfg.Fetch.PerDate,
		})

		draws, summary, err := ctrl.Run(ctx, rng)
		if err != nil {
			return eris.Wrap(err, "scrape")
		}

		if scrapeDryRun {
			zap.L().Info("dry run, skipping outputs and archive")
			return printJSON(summary)
		}

		paths, err := writer.Write(draws, summary, writer.Options{
			Dir:    cfg.Output.Dir,
			Format: cfg.Output.Format,
			Append: scrapeAppend,
		})
		if err != nil {
			return eris.Wrap(err, "write outputs")
		}
		zap.L().Info("outputs written", zap.Strings("paths", paths))

		if !scrapeNoStore {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if _, err := st.UpsertDraws(ctx, draws); err != nil {
				return eris.Wrap(err, "archive draws")
			}
			rec, err := st.SaveRun(ctx, summary)
			if err != nil {
				return eris.Wrap(err, "archive run")
			}
			zap.L().Info("run archived", zap.String("run_id", rec.ID))
		}

		return printJSON(summary)
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeRange, "range", "last_30_days", "date range: last_7_days, last_30_days, last_90_days, year_to_date, or YYYY-MM-DD:YYYY-MM-DD")
	scrapeCmd.Flags().StringVar(&scrapeStart, "start", "", "range start (YYYY-MM-DD), with --end")
	scrapeCmd.Flags().StringVar(&scrapeEnd, "end", "", "range end (YYYY-MM-DD), with --start")
	scrapeCmd.Flags().IntVar(&scrapeYear, "year", 0, "scrape one full calendar year")
	scrapeCmd.Flags().StringVar(&scrapeDrawDate, "draw-date", "", "scrape a single draw date")
	scrapeCmd.Flags().StringVar(&scrapeFormat, "format", "", "output format: json, csv, or both (default from config)")
	scrapeCmd.Flags().StringVar(&scrapeOutDir, "output-dir", "", "output directory (default from config)")
	scrapeCmd.Flags().BoolVar(&scrapeAppend, "append", false, "merge results into existing output files")
	scrapeCmd.Flags().BoolVar(&scrapeDryRun, "dry-run", false, "run the pipeline and print the summary without writing anything")
	scrapeCmd.Flags().BoolVar(&scrapeHeadless, "headless", true, "run the browser headless")
	scrapeCmd.Flags().BoolVar(&scrapeNoStore, "no-store", false, "skip the run archive")
	scrapeCmd.Flags().BoolVar(&scrapePerDate, "per-date", false, "issue one request per Tue/Fri draw date instead of paginating")
	rootCmd.AddCommand(scrapeCmd)
}
