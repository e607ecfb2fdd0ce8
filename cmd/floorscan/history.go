package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/floorscan/internal/config"
	"github.com/nao1215/floorscan/internal/database"
	"github.com/nao1215/floorscan/internal/model"
)

const historyTimeLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
// It reads past runs from the database that extract writes to.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [file]",
		Short: "Show stored extraction runs",
		Long: `History shows the runs that extract saved to the database.

Runs are keyed by the base name of the processed file, so plan.pdf and
./drawings/plan.pdf share one history.

Examples:
  # List every processed file
  floorscan history

  # List the runs of one file
  floorscan history plan.pdf

  # Compare the latest two runs of a file
  floorscan history --compare plan.pdf

  # Compare the latest run with a specific run
  floorscan history --compare --with-id 3 plan.pdf

  # Find the runs whose pages contain a code
  floorscan history --code DB24`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Bool("compare", false,
		"Compare the latest run of the file with the previous one")
	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare with this run ID instead of the previous run")
	cmd.Flags().String("code", "",
		"List the runs and pages on which this code was found")
	cmd.Flags().IntP("limit", "n", 0,
		"Maximum number of entries to show (0 for all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	sourceFile string
	compare    bool
	withID     int64
	code       string
	limit      int
	jsonOutput bool
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	var opts historyOptions
	var err error
	if opts.compare, err = flags.GetBool("compare"); err != nil {
		return err
	}
	if opts.withID, err = flags.GetInt64("with-id"); err != nil {
		return err
	}
	if opts.code, err = flags.GetString("code"); err != nil {
		return err
	}
	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return err
	}
	if opts.jsonOutput, err = flags.GetBool("json"); err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	if len(args) == 1 {
		opts.sourceFile = filepath.Base(args[0])
	}

	// Validate before opening the database so a usage error leaves no file behind.
	if (opts.compare || opts.withID > 0) && opts.sourceFile == "" {
		return errors.New("a file is required to compare runs")
	}
	if opts.code != "" && opts.sourceFile != "" {
		return errors.New("--code searches every file; do not name one")
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return runHistory(cmd.Context(), db, opts, cmd.OutOrStdout())
}

// runHistory dispatches to the requested history view.
func runHistory(ctx context.Context, db *database.ExtractionDB, opts historyOptions, w io.Writer) error {
	switch {
	case opts.code != "":
		return findCode(ctx, db, opts, w)
	case opts.compare || opts.withID > 0:
		return compareRuns(ctx, db, opts, w)
	case opts.sourceFile != "":
		return listRuns(ctx, db, opts, w)
	default:
		return listSources(ctx, db, opts, w)
	}
}

// listSources lists every file with stored runs.
func listSources(ctx context.Context, db *database.ExtractionDB, opts historyOptions, w io.Writer) error {
	sources, err := db.ListSources(ctx, opts.limit)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		type entry struct {
			SourceFile    string    `json:"source_file"`
			Runs          int       `json:"runs"`
			LastProcessed time.Time `json:"last_processed"`
		}
		out := make([]entry, 0, len(sources))
		for _, s := range sources {
			out = append(out, entry{SourceFile: s.SourceFile, Runs: s.Runs, LastProcessed: s.LastProcessed})
		}
		return writeJSON(w, out)
	}

	if len(sources) == 0 {
		fmt.Fprintln(w, "No extraction runs found in the database.")
		fmt.Fprintln(w, "\nUse 'floorscan extract <file>' to process a floorplan.")
		return nil
	}

	fmt.Fprintf(w, "Processed files (%d):\n\n", len(sources))
	fmt.Fprintf(w, "  %-30s  %-5s  %s\n", "File", "Runs", "Last processed")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 60))
	for _, s := range sources {
		fmt.Fprintf(w, "  %-30s  %-5d  %s\n", s.SourceFile, s.Runs, s.LastProcessed.Format(historyTimeLayout))
	}
	fmt.Fprintln(w, "\nUse 'floorscan history <file>' to see the runs of a file.")
	return nil
}

// listRuns lists the stored runs of one file.
func listRuns(ctx context.Context, db *database.ExtractionDB, opts historyOptions, w io.Writer) error {
	runs, err := db.GetHistoryWithMetadata(ctx, opts.sourceFile)
	if err != nil {
		return err
	}
	if opts.limit > 0 && len(runs) > opts.limit {
		runs = runs[:opts.limit]
	}

	if opts.jsonOutput {
		type entry struct {
			ID             int64     `json:"id"`
			ProcessedAt    time.Time `json:"processed_at"`
			Method         string    `json:"processing_method"`
			SourceHash     string    `json:"source_hash,omitempty"`
			TotalPages     int       `json:"total_pages"`
			DimensionCount int       `json:"dimension_count"`
			CodeCount      int       `json:"code_count"`
			Error          string    `json:"error,omitempty"`
		}
		out := make([]entry, 0, len(runs))
		for _, r := range runs {
			out = append(out, entry{
				ID:             r.ID,
				ProcessedAt:    r.ProcessedAt,
				Method:         r.Method,
				SourceHash:     r.SourceHash,
				TotalPages:     r.TotalPages,
				DimensionCount: r.DimensionCount,
				CodeCount:      r.CodeCount,
				Error:          r.Error,
			})
		}
		return writeJSON(w, out)
	}

	if len(runs) == 0 {
		fmt.Fprintf(w, "No extraction history found for %s\n", opts.sourceFile)
		return nil
	}

	fmt.Fprintf(w, "Extraction history for %s (%d runs):\n\n", opts.sourceFile, len(runs))
	fmt.Fprintf(w, "  %-6s  %-20s  %-6s  %-5s  %-10s  %s\n", "ID", "Date", "Method", "Pages", "Dimensions", "Codes")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 68))
	for _, r := range runs {
		line := fmt.Sprintf("  %-6d  %-20s  %-6s  %-5d  %-10d  %d",
			r.ID,
			r.ProcessedAt.Format(historyTimeLayout),
			r.Method,
			r.TotalPages,
			r.DimensionCount,
			r.CodeCount,
		)
		if r.Error != "" {
			line += "  (error: " + r.Error + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\nUse 'floorscan history --compare %s' to compare the latest two runs.\n", opts.sourceFile)
	return nil
}

// findCode lists the runs and pages that contain a code.
func findCode(ctx context.Context, db *database.ExtractionDB, opts historyOptions, w io.Writer) error {
	hits, err := db.FindByCode(ctx, opts.code)
	if err != nil {
		return err
	}
	if opts.limit > 0 && len(hits) > opts.limit {
		hits = hits[:opts.limit]
	}

	if opts.jsonOutput {
		type entry struct {
			ID          int64     `json:"id"`
			SourceFile  string    `json:"source_file"`
			ProcessedAt time.Time `json:"processed_at"`
			Page        int       `json:"page"`
		}
		out := make([]entry, 0, len(hits))
		for _, h := range hits {
			out = append(out, entry{ID: h.ExtractionID, SourceFile: h.SourceFile, ProcessedAt: h.ProcessedAt, Page: h.Page})
		}
		return writeJSON(w, out)
	}

	code := strings.ToUpper(strings.TrimSpace(opts.code))
	if len(hits) == 0 {
		fmt.Fprintf(w, "Code %s was not found in any stored run.\n", code)
		return nil
	}

	fmt.Fprintf(w, "Code %s found on %d pages:\n\n", code, len(hits))
	fmt.Fprintf(w, "  %-6s  %-30s  %-20s  %s\n", "ID", "File", "Date", "Page")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 68))
	for _, h := range hits {
		fmt.Fprintf(w, "  %-6d  %-30s  %-20s  %d\n", h.ExtractionID, h.SourceFile, h.ProcessedAt.Format(historyTimeLayout), h.Page)
	}
	return nil
}

// RunSummary holds the totals of one run for comparison display.
type RunSummary struct {
	ProcessedAt    time.Time `json:"processed_at"`
	SourceHash     string    `json:"source_hash,omitempty"`
	TotalPages     int       `json:"total_pages"`
	DimensionCount int       `json:"dimension_count"`
	DistinctCodes  int       `json:"distinct_codes"`
	TotalInches    float64   `json:"total_inches"`
	Error          string    `json:"error,omitempty"`
}

// ComparisonResult holds the differences between two runs of a file.
type ComparisonResult struct {
	// SourceFile is the compared file.
	SourceFile string `json:"source_file"`

	// Previous and Current are the totals of the two runs.
	Previous RunSummary `json:"previous"`
	Current  RunSummary `json:"current"`

	// FileChanged reports whether the file hash differs between runs.
	FileChanged bool `json:"file_changed"`

	// NewCodes appear only in the current run.
	NewCodes []string `json:"new_codes"`

	// RemovedCodes appear only in the previous run.
	RemovedCodes []string `json:"removed_codes"`

	// DimensionDelta is the change in the number of dimensions.
	DimensionDelta int `json:"dimension_delta"`

	// PageDelta is the change in the number of pages.
	PageDelta int `json:"page_delta"`
}

// compareRuns compares the latest run of a file with an earlier one.
func compareRuns(ctx context.Context, db *database.ExtractionDB, opts historyOptions, w io.Writer) error {
	reports, err := db.GetHistory(ctx, opts.sourceFile, 2)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		return fmt.Errorf("no extraction history found for %s", opts.sourceFile)
	}

	current := reports[0]
	var previous *model.Report
	if opts.withID > 0 {
		previous, err = db.GetReportByID(ctx, opts.withID)
		if err != nil {
			return fmt.Errorf("failed to get run %d: %w", opts.withID, err)
		}
		if previous == nil {
			return fmt.Errorf("run %d not found", opts.withID)
		}
		if previous.Metadata.SourceFile != opts.sourceFile {
			return fmt.Errorf("run %d belongs to %s, not %s", opts.withID, previous.Metadata.SourceFile, opts.sourceFile)
		}
	} else {
		if len(reports) < 2 {
			return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(reports))
		}
		previous = reports[1]
	}

	result := compareReports(previous, current)
	if opts.jsonOutput {
		return writeJSON(w, result)
	}
	writeComparisonText(w, result)
	return nil
}

// compareReports computes the differences between two runs.
func compareReports(previous, current *model.Report) *ComparisonResult {
	prevCodes, curCodes := reportCodes(previous), reportCodes(current)

	result := &ComparisonResult{
		SourceFile:   current.Metadata.SourceFile,
		Previous:     runSummary(previous),
		Current:      runSummary(current),
		NewCodes:     curCodes.Difference(prevCodes).Sorted(),
		RemovedCodes: prevCodes.Difference(curCodes).Sorted(),
	}
	result.FileChanged = result.Previous.SourceHash != result.Current.SourceHash
	result.DimensionDelta = result.Current.DimensionCount - result.Previous.DimensionCount
	result.PageDelta = result.Current.TotalPages - result.Previous.TotalPages
	return result
}

func reportCodes(r *model.Report) model.CodeSet {
	if r.Document == nil {
		return model.NewCodeSet()
	}
	return r.AllCodes()
}

func runSummary(r *model.Report) RunSummary {
	s := model.NewSummary(r)
	return RunSummary{
		ProcessedAt:    r.Metadata.ProcessedAt,
		SourceHash:     r.Metadata.SourceHash,
		TotalPages:     s.TotalPages,
		DimensionCount: s.DimensionCount,
		DistinctCodes:  s.DistinctCodes,
		TotalInches:    s.TotalInches,
		Error:          s.Error,
	}
}

// writeComparisonText prints a comparison result.
func writeComparisonText(w io.Writer, result *ComparisonResult) {
	fmt.Fprintf(w, "Comparison for %s\n", result.SourceFile)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Previous run: %s\n", result.Previous.ProcessedAt.Format(historyTimeLayout))
	fmt.Fprintf(w, "Current run:  %s\n", result.Current.ProcessedAt.Format(historyTimeLayout))
	if result.FileChanged {
		fmt.Fprintln(w, "File:         changed")
	} else {
		fmt.Fprintln(w, "File:         unchanged")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %-14s  %-8s  %-8s  %s\n", "Metric", "Previous", "Current", "Change")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 48))
	fmt.Fprintf(w, "  %-14s  %-8d  %-8d  %s\n", "Pages",
		result.Previous.TotalPages, result.Current.TotalPages, formatDelta(result.PageDelta))
	fmt.Fprintf(w, "  %-14s  %-8d  %-8d  %s\n", "Dimensions",
		result.Previous.DimensionCount, result.Current.DimensionCount, formatDelta(result.DimensionDelta))
	fmt.Fprintf(w, "  %-14s  %-8d  %-8d  %s\n", "Codes",
		result.Previous.DistinctCodes, result.Current.DistinctCodes,
		formatDelta(result.Current.DistinctCodes-result.Previous.DistinctCodes))
	fmt.Fprintln(w)

	if len(result.NewCodes) == 0 && len(result.RemovedCodes) == 0 {
		fmt.Fprintln(w, "No code changes.")
		return
	}
	if len(result.NewCodes) > 0 {
		fmt.Fprintf(w, "New codes (%d): %s\n", len(result.NewCodes), strings.Join(result.NewCodes, ", "))
	}
	if len(result.RemovedCodes) > 0 {
		fmt.Fprintf(w, "Removed codes (%d): %s\n", len(result.RemovedCodes), strings.Join(result.RemovedCodes, ", "))
	}
}

// formatDelta formats a numeric delta with a sign prefix.
func formatDelta(delta int) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("+%d", delta)
	case delta < 0:
		return fmt.Sprintf("%d", delta)
	default:
		return "0"
	}
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
