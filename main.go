package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"circulation-analytics/internal/analytics"
	"circulation-analytics/internal/circulation"
	"circulation-analytics/internal/export"
	"circulation-analytics/internal/metrics"
)

type options struct {
	Source      string
	Report      string
	AsOf        string
	Search      string
	SubjectID   int64
	Status      string
	TopN        int
	JSONOut     string
	CSVOut      string
	StoreDB     bool
	DBSchema    string
	DBTag       string
	UploadS3    bool
	MetricsFile string
	InitSQLite  bool
}

func main() {
	cfg := loadConfig()

	opts := options{}
	flag.StringVar(&opts.Source, "source", cfg.Source, "CSV directory, sqlite://path or postgres:// URL (CIRCULATION_SOURCE)")
	flag.StringVar(&opts.Report, "report", analytics.ReportAll, "Report to build: dashboard, overdue, catalog, patrons, loans, trend or all")
	flag.StringVar(&opts.AsOf, "as-of", "", "Report as-of date (YYYY-MM-DD); defaults to today")
	flag.StringVar(&opts.Search, "search", "", "Catalog: case-insensitive substring match on title or ISBN")
	flag.Int64Var(&opts.SubjectID, "subject", 0, "Catalog: only books whose primary subject has this id")
	flag.StringVar(&opts.Status, "status", string(analytics.StatusAll), "Loans: ALL, CURRENT, OVERDUE or RETURNED")
	flag.IntVar(&opts.TopN, "top", defaultTopN, "Rows to print per report; 0 prints all")
	flag.StringVar(&opts.JSONOut, "json", "", "Optional JSON output path")
	flag.StringVar(&opts.CSVOut, "csv", "", "Optional CSV output path for a single report")
	flag.BoolVar(&opts.StoreDB, "db", false, "Store the run in Postgres (requires CIRCULATION_DB_URL or DATABASE_URL)")
	flag.StringVar(&opts.DBSchema, "db-schema", defaultDBSchema, "Postgres schema for run storage")
	flag.StringVar(&opts.DBTag, "db-tag", "", "Optional label for this run")
	flag.BoolVar(&opts.UploadS3, "s3", false, "Upload the JSON report to CIRCULATION_S3_BUCKET")
	flag.StringVar(&opts.MetricsFile, "metrics-file", cfg.MetricsFile, "Write Prometheus metrics in textfile format to this path")
	flag.BoolVar(&opts.InitSQLite, "init-sqlite", false, "Create and seed the sqlite source with demo data if empty")
	flag.Parse()

	logger := newLogger(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, cfg, &logger, os.Stdout); err != nil {
		stop()
		exitWithError(err)
	}
}

func run(ctx context.Context, opts options, cfg Config, logger *zerolog.Logger, out io.Writer) error {
	name, err := parseReportName(opts.Report)
	if err != nil {
		return err
	}
	req, err := buildRequest(opts)
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if opts.CSVOut != "" && name == analytics.ReportAll {
		return errors.New("-csv needs a single -report, not all")
	}

	clock := analytics.SystemClock
	if opts.AsOf != "" {
		parsed, err := circulation.ParseDate(opts.AsOf)
		if err != nil {
			return fmt.Errorf("invalid -as-of date: %w", err)
		}
		clock = analytics.FixedClock(parsed)
	}

	src, err := openSource(ctx, opts.Source, cfg.SourceSchema, opts.InitSQLite, clock(), logger)
	if err != nil {
		return err
	}
	defer src.close()

	recorder := metrics.NewRecorder()
	engine := &analytics.Engine{
		Store:   src.store,
		Clock:   clock,
		Metrics: recorder,
		Logger:  logger,
	}

	result, err := runSelected(ctx, engine, name, req)
	if err != nil {
		return err
	}
	if skipped := src.skipped(); skipped > 0 {
		logger.Warn().Int("skipped_rows", skipped).Str("source", opts.Source).Msg("unparseable source rows ignored")
	}

	printReport(out, result, opts.Source, opts.TopN)

	if opts.JSONOut != "" {
		if err := writeJSON(result.Payload, opts.JSONOut); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nJSON report saved to %s\n", opts.JSONOut)
	}

	if opts.CSVOut != "" {
		if err := writeCSV(result, opts.CSVOut); err != nil {
			return err
		}
		fmt.Fprintf(out, "CSV report saved to %s\n", opts.CSVOut)
	}

	if opts.StoreDB {
		if cfg.DBURL == "" {
			return errors.New("database URL missing; set CIRCULATION_DB_URL or DATABASE_URL")
		}
		runID, err := storeRun(ctx, result, DBConfig{URL: cfg.DBURL, Schema: opts.DBSchema, Tag: opts.DBTag})
		if err != nil {
			return fmt.Errorf("store run: %w", err)
		}
		fmt.Fprintf(out, "\nStored %s run in Postgres (run_id=%s)\n", result.Name, runID)
	}

	if opts.UploadS3 {
		uploader, err := export.New(ctx, export.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
			Prefix:    cfg.S3Prefix,
		})
		if err != nil {
			return err
		}
		key, err := uploader.UploadJSON(ctx, result.Name, result.AsOf, uuid.New(), result.Payload)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Uploaded report to s3://%s/%s\n", cfg.S3Bucket, key)
	}

	if opts.MetricsFile != "" {
		if err := recorder.WriteTextfile(opts.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		logger.Debug().Str("path", opts.MetricsFile).Msg("metrics written")
	}
	return nil
}

func buildRequest(opts options) (analytics.Request, error) {
	status, err := analytics.ParseStatusFilter(opts.Status)
	if err != nil {
		return analytics.Request{}, err
	}
	req := analytics.Request{
		Catalog: analytics.CatalogParams{Search: opts.Search},
		Status:  status,
	}
	if opts.SubjectID != 0 {
		subject := opts.SubjectID
		req.Catalog.SubjectID = &subject
	}
	return req, nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
