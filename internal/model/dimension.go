package model

// Dimension is a recognized measurement normalized to inches.
// It is created by the dimension parser from one token and never mutated.
type Dimension struct {
	// Raw is the exact substring of the token that matched.
	Raw string `json:"raw"`

	// Inches is the normalized value rounded to two decimals. Never negative.
	Inches float64 `json:"inches"`

	// BBox is the bounding box of the containing token. All dimensions found
	// in the same token share that token's box.
	BBox BBox `json:"bbox"`
}

// Feet returns the value expressed in feet.
func (d Dimension) Feet() float64 {
	return d.Inches / 12
}
