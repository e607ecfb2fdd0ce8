package model

import (
	"encoding/json"
	"fmt"
)

// BBox is a bounding box (x0, y0, x1, y1) in the coordinate space of the
// source document. The core never interprets it; it is passed through as is.
type BBox [4]float64

// NewBBox creates a bounding box from its corner coordinates.
func NewBBox(x0, y0, x1, y1 float64) BBox {
	return BBox{x0, y0, x1, y1}
}

// X0 returns the first x coordinate.
func (b BBox) X0() float64 { return b[0] }

// Y0 returns the first y coordinate.
func (b BBox) Y0() float64 { return b[1] }

// X1 returns the second x coordinate.
func (b BBox) X1() float64 { return b[2] }

// Y1 returns the second y coordinate.
func (b BBox) Y1() float64 { return b[3] }

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 { return b[2] - b[0] }

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 { return b[3] - b[1] }

// Union returns the smallest box containing both b and other.
// Source adapters use it to grow a token box glyph by glyph.
func (b BBox) Union(other BBox) BBox {
	return BBox{
		min(b[0], other[0]),
		min(b[1], other[1]),
		max(b[2], other[2]),
		max(b[3], other[3]),
	}
}

// String renders the box as "[x0 y0 x1 y1]" with two decimals.
func (b BBox) String() string {
	return fmt.Sprintf("[%.2f %.2f %.2f %.2f]", b[0], b[1], b[2], b[3])
}

// UnmarshalJSON accepts exactly four numbers.
func (b *BBox) UnmarshalJSON(data []byte) error {
	var coords []float64
	if err := json.Unmarshal(data, &coords); err != nil {
		return fmt.Errorf("bbox: %w", err)
	}
	if len(coords) != 4 {
		return fmt.Errorf("bbox: expected 4 coordinates, got %d", len(coords))
	}
	copy(b[:], coords)
	return nil
}

// Token is a unit of text with its spatial location, as produced by the
// upstream text-extraction layer.
type Token struct {
	// Text is the extracted text.
	Text string `json:"text"`

	// BBox is the token's bounding box in source coordinates.
	BBox BBox `json:"bbox"`
}

// NewToken creates a token.
func NewToken(text string, bbox BBox) Token {
	return Token{Text: text, BBox: bbox}
}

// PageTokens groups the tokens of one source page in encounter order.
type PageTokens struct {
	// Page is the 1-based page index reported by the token source.
	Page int `json:"page"`

	// Tokens are the page's tokens in the order the source produced them.
	Tokens []Token `json:"tokens"`
}

// TokenCount returns the total number of tokens across pages.
func TokenCount(pages []PageTokens) int {
	n := 0
	for _, p := range pages {
		n += len(p.Tokens)
	}
	return n
}
