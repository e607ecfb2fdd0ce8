package model

import "math"

// Summary is a compact digest of a report for terminal output, Markdown
// headers and the history database.
type Summary struct {
	// SourceFile is the base name of the input document.
	SourceFile string `json:"source_file"`

	// TotalPages is the number of pages in the document.
	TotalPages int `json:"total_pages"`

	// DimensionCount is the number of dimensions across pages.
	DimensionCount int `json:"dimension_count"`

	// CodeCount is the sum of per-page distinct codes.
	CodeCount int `json:"code_count"`

	// DistinctCodes is the number of distinct codes in the whole document.
	DistinctCodes int `json:"distinct_codes"`

	// MinInches is the smallest dimension value; zero without dimensions.
	MinInches float64 `json:"min_inches"`

	// MaxInches is the largest dimension value; zero without dimensions.
	MaxInches float64 `json:"max_inches"`

	// TotalInches is the sum of all dimension values.
	TotalInches float64 `json:"total_inches"`

	// PageCounts holds per-page counts in document order.
	PageCounts []PageCount `json:"pages,omitempty"`

	// Error is the recorded run error, if any.
	Error string `json:"error,omitempty"`
}

// PageCount holds the counts of one page.
type PageCount struct {
	Page       int `json:"page"`
	Dimensions int `json:"dimensions"`
	Codes      int `json:"codes"`
}

// NewSummary builds the summary of a report. A report without a document
// yields zero counts.
func NewSummary(r *Report) *Summary {
	s := &Summary{
		SourceFile: r.Metadata.SourceFile,
		TotalPages: r.Metadata.TotalPages,
		Error:      r.ErrorMessage(),
	}
	if r.Document == nil {
		return s
	}
	if s.TotalPages == 0 {
		s.TotalPages = len(r.Pages)
	}

	s.MinInches = math.Inf(1)
	for _, p := range r.Pages {
		s.PageCounts = append(s.PageCounts, PageCount{
			Page:       p.Page,
			Dimensions: len(p.Dimensions),
			Codes:      p.Codes.Len(),
		})
		s.CodeCount += p.Codes.Len()
		for _, d := range p.Dimensions {
			s.DimensionCount++
			s.TotalInches += d.Inches
			s.MinInches = math.Min(s.MinInches, d.Inches)
			s.MaxInches = math.Max(s.MaxInches, d.Inches)
		}
	}
	if s.DimensionCount == 0 {
		s.MinInches = 0
	}
	s.TotalInches = math.Round(s.TotalInches*100) / 100
	s.DistinctCodes = r.AllCodes().Len()
	return s
}

// HasResults reports whether anything was recognized.
func (s *Summary) HasResults() bool {
	return s.DimensionCount > 0 || s.CodeCount > 0
}
