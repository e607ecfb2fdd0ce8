package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/floorscan/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether pages with no results are shown.
	showEmpty bool

	// verbose adds bounding boxes to dimension lines.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty pages.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder
	summary := model.NewSummary(report)

	w.writeHeader(&sb, report)
	if report.Document != nil {
		w.writePages(&sb, report.Document)
	}
	w.writeFooter(&sb, summary)

	return io.WriteString(w.output, sb.String())
}

// WriteSummary outputs the summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%-30s %3d pages  %s", summary.SourceFile, summary.TotalPages, SummaryLine(summary))
	if summary.Error != "" {
		fmt.Fprintf(&sb, "  ERROR - %s", summary.Error)
	}
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         FLOORSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "File:       %s\n", report.Metadata.SourceFile)
	fmt.Fprintf(sb, "Processed:  %s\n", report.Metadata.ProcessedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Method:     %s\n", report.Metadata.Method)
	fmt.Fprintf(sb, "Pages:      %d\n", report.Metadata.TotalPages)

	if report.Failed() {
		fmt.Fprintf(sb, "Status:     ERROR - %s\n", report.ErrorMessage())
	} else {
		sb.WriteString("Status:     Complete\n")
	}

	sb.WriteString("\n")
}

// writePages writes the results of each page.
func (w *SimpleWriter) writePages(sb *strings.Builder, doc *model.Document) {
	for _, page := range doc.Pages {
		if page.IsEmpty() && !w.showEmpty {
			continue
		}

		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n")
		fmt.Fprintf(sb, "PAGE %d\n", page.Page)
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n\n")

		if page.IsEmpty() {
			sb.WriteString("  Nothing recognized\n\n")
			continue
		}

		if len(page.Dimensions) > 0 {
			sb.WriteString("  Dimensions:\n")
			for _, d := range page.Dimensions {
				fmt.Fprintf(sb, "    %-16s %9s in", d.Raw, formatInches(d.Inches))
				if w.verbose {
					fmt.Fprintf(sb, "  %s", formatBBox(d.BBox))
				}
				sb.WriteString("\n")
			}
			sb.WriteString("\n")
		}

		if page.Codes.Len() > 0 {
			fmt.Fprintf(sb, "  Codes: %s\n\n", strings.Join(page.Codes.Sorted(), ", "))
		}
	}
}

// writeFooter writes the summary line.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(SummaryLine(summary))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
