package model

// PageRecord holds the dimensions and codes found on one source page.
type PageRecord struct {
	// Page is the 1-based page index reported by the token source.
	Page int `json:"page"`

	// Dimensions are kept in token encounter order.
	Dimensions []Dimension `json:"dimensions"`

	// Codes are the distinct codes found on the page.
	Codes CodeSet `json:"codes"`
}

// NewPageRecord creates an empty record for the given page.
func NewPageRecord(page int) PageRecord {
	return PageRecord{
		Page:       page,
		Dimensions: make([]Dimension, 0),
	}
}

// AddDimensions appends dimensions after the ones already recorded.
func (p *PageRecord) AddDimensions(dims ...Dimension) {
	p.Dimensions = append(p.Dimensions, dims...)
}

// AddCodes merges codes into the page's code set.
func (p *PageRecord) AddCodes(codes CodeSet) {
	p.Codes.Union(codes)
}

// IsEmpty reports whether nothing was recognized on the page.
func (p PageRecord) IsEmpty() bool {
	return len(p.Dimensions) == 0 && p.Codes.Len() == 0
}

// Document is the top-level extraction output, one record per page in the
// order the pages were supplied.
type Document struct {
	Pages []PageRecord `json:"pages"`
}

// NewDocument creates a document with room for n pages.
func NewDocument(n int) *Document {
	return &Document{Pages: make([]PageRecord, 0, n)}
}

// Page returns the record with the given page number.
func (d *Document) Page(number int) (PageRecord, bool) {
	for _, p := range d.Pages {
		if p.Page == number {
			return p, true
		}
	}
	return PageRecord{}, false
}

// DimensionCount returns the number of dimensions across all pages.
func (d *Document) DimensionCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Dimensions)
	}
	return n
}

// CodeCount returns the sum of per-page code counts. A code that appears on
// two pages counts twice, as the per-page sets are independent.
func (d *Document) CodeCount() int {
	n := 0
	for _, p := range d.Pages {
		n += p.Codes.Len()
	}
	return n
}

// AllCodes returns the union of every page's codes.
func (d *Document) AllCodes() CodeSet {
	var all CodeSet
	for _, p := range d.Pages {
		all.Union(p.Codes)
	}
	return all
}
