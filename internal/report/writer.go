package report

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/floorscan/internal/model"
)

// ErrUnknownFormat is returned by NewWriter for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown report format")

// Format names accepted by NewWriter.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Writer defines the interface for report output.
// Implementations write extraction results in various formats.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.Report) (int, error)

	// WriteSummary outputs only the summary of a report.
	WriteSummary(summary *model.Summary) (int, error)
}

// NewWriter returns the writer for the named format. JSON output is
// pretty-printed.
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch format {
	case FormatText:
		return NewSimpleWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Extension returns the file extension, with the dot, used for a format.
func Extension(format string) string {
	switch format {
	case FormatJSON:
		return ".json"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

// OutputFilename returns the path of a timestamped report for input:
// dir/<name>[_suffix]_YYYYMMDD_HHMMSS<ext>, where name is the base name of
// input without its extension.
func OutputFilename(input, dir, suffix, ext string, now time.Time) string {
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	parts := []string{name}
	if suffix != "" {
		parts = append(parts, suffix)
	}
	parts = append(parts, now.Format("20060102_150405"))

	return filepath.Join(dir, strings.Join(parts, "_")+ext)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSummary outputs the summary to all configured Writers.
func (m *MultiWriter) WriteSummary(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSummary(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// SummaryLine is the one-line result of a run, e.g.
// "12 dimensions, 3 codes found".
func SummaryLine(s *model.Summary) string {
	return fmt.Sprintf("%d dimensions, %d codes found", s.DimensionCount, s.CodeCount)
}

// formatInches renders an inch value with two decimals.
func formatInches(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// formatBBox renders a box with one decimal per coordinate.
func formatBBox(b model.BBox) string {
	return fmt.Sprintf("[%.1f, %.1f, %.1f, %.1f]", b[0], b[1], b[2], b[3])
}
