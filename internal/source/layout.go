package source

import (
	"math"
	"strings"

	"github.com/nao1215/floorscan/internal/model"
)

// spaceGap is the horizontal gap, as a fraction of the font size, above
// which a space is inserted between two glyphs.
const spaceGap = 0.2

// glyph is one positioned text run as reported by the PDF content stream.
// x and y are the baseline origin in PDF user space (origin bottom-left).
type glyph struct {
	text string
	font string
	size float64
	x, y float64
	w    float64
}

// box returns the glyph box with a top-left origin: (x0, top, x1, bottom).
func (g glyph) box(pageHeight float64) model.BBox {
	return model.NewBBox(g.x, pageHeight-g.y-g.size, g.x+g.w, pageHeight-g.y)
}

func (g glyph) blank() bool {
	return strings.TrimSpace(g.text) == ""
}

// tokenBuilder accumulates glyphs into one token.
type tokenBuilder struct {
	pageHeight float64
	text       strings.Builder
	box        model.BBox
	prev       glyph
	open       bool
	spaces     bool // insert a space at visual gaps
	out        []model.Token
}

func newTokenBuilder(pageHeight float64, spaces bool) *tokenBuilder {
	return &tokenBuilder{
		pageHeight: pageHeight,
		spaces:     spaces,
		out:        make([]model.Token, 0),
	}
}

func (b *tokenBuilder) gap(g glyph) float64 {
	return g.x - (b.prev.x + b.prev.w)
}

func (b *tokenBuilder) add(g glyph) {
	if !b.open {
		if g.blank() {
			return
		}
		b.box = g.box(b.pageHeight)
		b.open = true
		b.text.WriteString(g.text)
		b.prev = g
		return
	}
	if !g.blank() {
		if b.spaces && b.gap(g) > spaceGap*g.size && !strings.HasSuffix(b.text.String(), " ") {
			b.text.WriteByte(' ')
		}
		b.box = b.box.Union(g.box(b.pageHeight))
	}
	b.text.WriteString(g.text)
	b.prev = g
}

func (b *tokenBuilder) flush() {
	if b.open {
		if text := strings.TrimSpace(b.text.String()); text != "" {
			b.out = append(b.out, model.NewToken(text, b.box))
		}
	}
	b.text.Reset()
	b.open = false
}

func sameLine(a, b glyph, tolerance float64) bool {
	return math.Abs(a.y-b.y) <= tolerance
}

// groupSpans merges consecutive glyphs that share a line, a font and a size
// and are no further apart than one em. White space inside a span is kept.
func groupSpans(glyphs []glyph, pageHeight, tolerance float64) []model.Token {
	b := newTokenBuilder(pageHeight, true)
	for _, g := range glyphs {
		if b.open {
			p := b.prev
			if g.font != p.font || g.size != p.size || !sameLine(p, g, tolerance) ||
				g.x < p.x || b.gap(g) > max(tolerance, g.size) {
				b.flush()
			}
		}
		b.add(g)
	}
	b.flush()
	return b.out
}

// groupWords splits glyphs into words at white space, at line changes and
// at horizontal gaps wider than tolerance.
func groupWords(glyphs []glyph, pageHeight, tolerance float64) []model.Token {
	b := newTokenBuilder(pageHeight, false)
	for _, g := range glyphs {
		if g.blank() {
			b.flush()
			continue
		}
		if b.open {
			p := b.prev
			if !sameLine(p, g, tolerance) || g.x < p.x || b.gap(g) > tolerance {
				b.flush()
			}
		}
		b.add(g)
	}
	b.flush()
	return b.out
}
