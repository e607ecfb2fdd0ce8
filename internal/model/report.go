package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Metadata describes one extraction run. It is attached by the caller,
// never by the recognizers or the aggregator.
type Metadata struct {
	// ProcessedAt is when the extraction finished.
	ProcessedAt time.Time `json:"processed_at"`

	// SourceFile is the base name of the input document.
	SourceFile string `json:"pdf_file"`

	// Method is the token grouping method used by the source ("spans", "words", "hocr", "tokens").
	Method string `json:"processing_method"`

	// TotalPages is the number of pages in the document.
	TotalPages int `json:"total_pages"`

	// SourceHash is the hex SHA3-256 of the input bytes.
	SourceHash string `json:"source_hash,omitempty"`

	// ToolVersion is the floorscan version that produced the report.
	ToolVersion string `json:"tool_version,omitempty"`
}

// Report is an extraction result for one source file.
type Report struct {
	// Document is the extraction output. Nil until the extract step ran.
	*Document

	// Metadata describes the run.
	Metadata Metadata `json:"metadata"`

	// Source is the path the run read from.
	Source string `json:"-"`

	// Tokens holds the pages loaded from the source until extraction.
	Tokens []PageTokens `json:"-"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"-"`

	// Timings records how long each executed step took, in order.
	Timings []StepTiming `json:"-"`

	// Error is the step error recorded when the run failed.
	Error error `json:"-"`
}

// StepTiming is the wall time one pipeline step took.
type StepTiming struct {
	Step    string
	Elapsed time.Duration
	Failed  bool
}

// NewReport creates a report for the given source path.
func NewReport(source string) *Report {
	return &Report{
		Source: source,
	}
}

// MarshalJSON encodes the pages and the metadata. A report whose extraction
// did not run has an empty page list.
func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	p := plain(r)
	if p.Document == nil {
		p.Document = NewDocument(0)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Elapsed returns the total time spent in pipeline steps.
func (r *Report) Elapsed() time.Duration {
	var total time.Duration
	for _, st := range r.Timings {
		total += st.Elapsed
	}
	return total
}

// Failed reports whether a step recorded an error.
func (r *Report) Failed() bool {
	return r.Error != nil
}

// ErrorMessage returns the recorded error text, or "" on success.
func (r *Report) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Error()
}
