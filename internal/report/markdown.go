package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/floorscan/internal/model"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown.
// This format is meant for sharing results in issues or design reviews.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := model.NewSummary(report)

	w.writeHeader(md, report)
	w.writeSummary(md, summary)
	if report.Document != nil {
		w.writePages(md, report.Document)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Floorscan Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"File", "`" + summary.SourceFile + "`"},
			{"Pages", strconv.Itoa(summary.TotalPages)},
		},
	})
	md.PlainText("")
	w.writeSummary(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Floorscan Report")
	md.PlainText("")

	rows := [][]string{
		{"File", "`" + report.Metadata.SourceFile + "`"},
		{"Method", report.Metadata.Method},
		{"Processed", report.Metadata.ProcessedAt.Format("2006-01-02 15:04:05 MST")},
		{"Pages", strconv.Itoa(report.Metadata.TotalPages)},
	}
	if report.Metadata.SourceHash != "" {
		rows = append(rows, []string{"SHA3-256", "`" + shortHash(report.Metadata.SourceHash) + "`"})
	}
	rows = append(rows, []string{"Status", w.getStatusText(report)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.Report) string {
	if report.Failed() {
		return "❌ Error - " + report.ErrorMessage()
	}
	return "✅ Complete"
}

// writeSummary writes the count table, chart and alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s *model.Summary) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Dimensions", strconv.Itoa(s.DimensionCount)},
			{"Codes (per page)", strconv.Itoa(s.CodeCount)},
			{"Distinct codes", strconv.Itoa(s.DistinctCodes)},
			{"Smallest", formatInches(s.MinInches) + " in"},
			{"Largest", formatInches(s.MaxInches) + " in"},
		},
	})
	md.PlainText("")

	if s.DimensionCount > 0 && len(s.PageCounts) > 1 {
		w.writePieChart(md, s)
	}

	w.writeAlert(md, s)
}

// writePieChart writes a mermaid pie chart of dimensions per page.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Dimensions per Page"),
		piechart.WithShowData(true),
	)

	for _, p := range s.PageCounts {
		if p.Dimensions > 0 {
			chart.LabelAndIntValue("Page "+strconv.Itoa(p.Page), uint64(p.Dimensions))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert for failed or empty runs.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s *model.Summary) {
	switch {
	case s.Error != "":
		md.Cautionf("Extraction failed: %s", s.Error)
	case !s.HasResults():
		md.Warning("No dimensions or codes were found. Scanned drawings need OCR first; for vector PDFs try --method words.")
	default:
		md.Note(SummaryLine(s) + ".")
	}
	md.PlainText("")
}

// writePages writes one section per page.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, doc *model.Document) {
	md.H2("Pages")
	md.PlainText("")

	for _, page := range doc.Pages {
		md.H3("Page " + strconv.Itoa(page.Page))
		md.PlainText("")

		if page.IsEmpty() {
			md.PlainText("Nothing recognized.")
			md.PlainText("")
			continue
		}

		if len(page.Dimensions) > 0 {
			rows := make([][]string, len(page.Dimensions))
			for i, d := range page.Dimensions {
				rows[i] = []string{
					"`" + d.Raw + "`",
					formatInches(d.Inches),
					formatInches(d.Feet()),
					formatBBox(d.BBox),
				}
			}
			md.Table(markdown.TableSet{
				Header: []string{"Raw", "Inches", "Feet", "BBox"},
				Rows:   rows,
			})
			md.PlainText("")
		}

		if page.Codes.Len() > 0 {
			md.PlainText("**Codes**")
			md.PlainText("")
			md.BulletList(page.Codes.Sorted()...)
			md.PlainText("")
		}
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [floorscan](https://github.com/nao1215/floorscan)*")
}

// shortHash returns the first 16 hex digits of a digest.
func shortHash(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:16]
}
