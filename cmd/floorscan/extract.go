package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/floorscan/internal/config"
	"github.com/nao1215/floorscan/internal/database"
	"github.com/nao1215/floorscan/internal/dimension"
	flog "github.com/nao1215/floorscan/internal/log"
	"github.com/nao1215/floorscan/internal/model"
	"github.com/nao1215/floorscan/internal/pipeline"
	"github.com/nao1215/floorscan/internal/report"
	"github.com/nao1215/floorscan/internal/source"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [file]...",
		Short: "Extract dimensions and codes from floorplans",
		Long: `Extract reads each document, finds dimension callouts and cabinet or
equipment codes, and writes a report per document.

Supported inputs:
- PDF (.pdf): text is read from the page content
- hOCR (.hocr, .html, .htm): words produced by an OCR engine
- Token JSON (.json): {"pages":[{"page":1,"tokens":[{"text":"DB24","bbox":[x0,y0,x1,y1]}]}]}

Recognized dimensions:
  2' 6"        feet and inches            30.00 in
  34 (1/2)"    whole inches and fraction  34.50 in
  25"          inches                     25.00 in

Recognized codes: 2-4 letters, 2-4 digits, up to 3 letters (DB24, WC3036, SB42FH).

Examples:
  # Print a text report
  floorscan extract plan.pdf

  # Save a JSON report to a file
  floorscan extract -f json -o result.json plan.pdf

  # Process several plans, saving timestamped reports
  floorscan extract -f json --output-dir reports/ level1.pdf level2.pdf

  # Split tokens at white space instead of keeping spans together
  floorscan extract -m words plan.pdf

  # Open an encrypted PDF
  floorscan extract --password secret plan.pdf`,
		Args: cobra.ArbitraryArgs,
		RunE: runExtractCmd,
	}

	// Processing flags
	cmd.Flags().StringP("method", "m", config.DefaultMethod,
		"PDF token grouping method (spans or words)")
	cmd.Flags().IntP("concurrency", "p", config.DefaultConcurrency,
		"Number of pages processed concurrently")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of documents processed concurrently")
	cmd.Flags().Float64("tolerance", config.DefaultTolerance,
		"Gap in points that still joins two PDF glyphs")
	cmd.Flags().String("password", "",
		"Password for encrypted PDFs")
	cmd.Flags().Bool("fold-width", false,
		"Fold fullwidth digits and marks before recognition")

	// Output flags
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Report format (text, json or markdown)")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to this file (single document only)")
	cmd.Flags().String("output-dir", "",
		"Also save a timestamped report per document into this directory")
	cmd.Flags().String("suffix", "",
		"Suffix added to report file names in --output-dir")

	// Configuration flags
	cmd.Flags().StringP("config", "c", "",
		"Path to configuration file (default: .floorscan)")
	cmd.Flags().Bool("no-db", false,
		"Do not save runs to the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	feet, inch := cfg.ExtraMarks()
	if err := dimension.DefaultMarks().With(feet, inch).Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := validateTargets(cfg.Targets); err != nil {
		return err
	}

	// The password is masked wherever it would appear in a log line.
	logger := flog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.Password)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runExtract(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the configuration file and cobra flags.
// Flags given on the command line win over file values.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Method, err = flags.GetString("method"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.Tolerance, err = flags.GetFloat64("tolerance"); err != nil {
		return nil, err
	}
	if cfg.Password, err = flags.GetString("password"); err != nil {
		return nil, err
	}
	if cfg.FoldWidth, err = flags.GetBool("fold-width"); err != nil {
		return nil, err
	}
	if cfg.Format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if cfg.OutputPath, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
		return nil, err
	}
	if cfg.Suffix, err = flags.GetString("suffix"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB
	cfg.Verbose = getVerboseFlag(cmd)

	// If the user named a config file it must exist; otherwise a missing
	// file just means defaults.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file, flags.Changed)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.Targets = args

	return cfg, nil
}

// validateTargets checks that every target exists, is a regular file and
// has a supported extension.
func validateTargets(targets []string) error {
	for _, target := range targets {
		if !source.Supported(target) {
			return fmt.Errorf("%w: %s (supported: %v)", source.ErrUnsupportedFormat, target, source.Extensions())
		}
		info, err := os.Stat(target)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", target, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", target)
		}
	}
	return nil
}

// runExtract processes every target and writes the reports.
func runExtract(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	logger.Info("starting extraction",
		"targets", cfg.Targets,
		"method", cfg.Method,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.ExtractionDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	var failed int
	handle := func(r *model.Report) {
		if r.Failed() {
			failed++
		}
		finishReport(ctx, cfg, db, r, logger, stdout, stderr)
	}

	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		if err := runBatchExtract(ctx, cfg, logger, stderr, handle); err != nil {
			return err
		}
	} else if err := runSequentialExtract(ctx, cfg, logger, stderr, handle); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(cfg.Targets))
	}
	return nil
}

// runSequentialExtract processes targets one at a time.
func runSequentialExtract(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer, handle func(*model.Report)) error {
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprintf(stderr, "Processing %s...\n", target)
		startTime := time.Now()

		r := model.NewReport(target)
		if err := createPipeline(cfg, logger).Execute(ctx, r); err != nil && errors.Is(err, context.Canceled) {
			return err
		}

		logger.Debug("document processed", "source", target, "elapsed", time.Since(startTime).Round(time.Millisecond))
		handle(r)
	}

	return nil
}

// runBatchExtract processes targets concurrently using BatchProcessor.
func runBatchExtract(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer, handle func(*model.Report)) error {
	fmt.Fprintf(stderr, "Processing %d documents (concurrency: %d)...\n", len(cfg.Targets), cfg.BatchSize)

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return createPipeline(cfg, logger)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	// Reports arrive from several goroutines; output and database writes
	// happen one at a time.
	var mu sync.Mutex
	return bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(r *model.Report, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Fprintf(stderr, "[%d/%d] Completed: %s\n", index+1, len(cfg.Targets), r.Source)
		handle(r)
	})
}

// createPipeline creates the extraction pipeline for cfg.
func createPipeline(cfg *config.Config, logger *slog.Logger) *pipeline.Pipeline {
	feet, inch := cfg.ExtraMarks()
	return pipeline.DefaultPipeline(
		[]pipeline.Option{
			pipeline.WithLogger(logger),
			pipeline.WithContinueOnError(true),
		},
		pipeline.WithPipelineMethod(cfg.Method),
		pipeline.WithPipelinePassword(cfg.Password),
		pipeline.WithPipelineTolerance(cfg.Tolerance),
		pipeline.WithPipelineConcurrency(cfg.Concurrency),
		pipeline.WithPipelineFoldWidth(cfg.FoldWidth),
		pipeline.WithPipelineMarks(feet, inch),
		pipeline.WithPipelineVersion(getVersion()),
	)
}

// finishReport writes, stores and logs one completed run.
func finishReport(ctx context.Context, cfg *config.Config, db *database.ExtractionDB, r *model.Report, logger *slog.Logger, stdout, stderr io.Writer) {
	if r.Failed() {
		fmt.Fprintf(stderr, "Extraction error for %s: %v\n", r.Source, r.Error)
	}

	if err := outputReport(cfg, r, stdout, logger); err != nil {
		logger.Error("report failed", "source", r.Source, "error", err)
		fmt.Fprintf(stderr, "Report error for %s: %v\n", r.Source, err)
	}

	if err := saveReport(ctx, db, r, logger); err != nil {
		logger.Error("failed to save report", "source", r.Source, "error", err)
	}

	summary := model.NewSummary(r)
	logger.Info("Extraction completed: "+report.SummaryLine(summary),
		"source", r.Source,
		"pages", summary.TotalPages,
		"elapsed", r.Elapsed(),
	)
}

// outputReport writes the report in the configured format.
//
// With --output the report goes to that file only. With --output-dir a
// timestamped copy is saved there and the report is still printed.
func outputReport(cfg *config.Config, r *model.Report, stdout io.Writer, logger *slog.Logger) error {
	if cfg.OutputPath != "" {
		f, err := createReportFile(cfg.OutputPath)
		if err != nil {
			return err
		}
		defer f.Close()

		w, err := report.NewWriter(cfg.Format, f)
		if err != nil {
			return err
		}
		_, err = w.Write(r)
		return err
	}

	stdoutWriter, err := report.NewWriter(cfg.Format, stdout)
	if err != nil {
		return err
	}
	if cfg.OutputDir == "" {
		_, err = stdoutWriter.Write(r)
		return err
	}

	processedAt := r.Metadata.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}
	path := report.OutputFilename(r.Source, cfg.OutputDir, cfg.Suffix, report.Extension(cfg.Format), processedAt)

	f, err := createReportFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fileWriter, err := report.NewWriter(cfg.Format, f)
	if err != nil {
		return err
	}
	if _, err := report.NewMultiWriter(stdoutWriter, fileWriter).Write(r); err != nil {
		return err
	}

	logger.Info("Results saved", "path", path)
	return nil
}

// createReportFile creates path and its parent directories.
// Reports are written with owner-only permissions.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// saveReport saves the report to the database if enabled.
// If db is nil, this function is a no-op.
func saveReport(ctx context.Context, db *database.ExtractionDB, r *model.Report, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.SaveReport(ctx, r)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	logger.Info("report saved to database", "source", r.Source, "id", id)
	return nil
}
