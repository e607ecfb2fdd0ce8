package dimension

import (
	"github.com/nao1215/floorscan/internal/model"
)

// Form identifies which notation a match was written in.
type Form int

const (
	// FormFeetInches is 2' 6".
	FormFeetInches Form = iota + 1
	// FormFraction is 34 1/2" or 34 (1/2)".
	FormFraction
	// FormInches is 25" or 4.5".
	FormInches
)

// String returns the form name.
func (f Form) String() string {
	switch f {
	case FormFeetInches:
		return "feet-inches"
	case FormFraction:
		return "fraction"
	case FormInches:
		return "inches"
	default:
		return "unknown"
	}
}

// forms lists the notations in priority order.
var forms = []Form{FormFeetInches, FormFraction, FormInches}

// Match is one dimension expression found in a token.
type Match struct {
	// Form is the notation that matched.
	Form Form

	// Start and End are byte offsets of Raw within the scanned text.
	Start, End int

	// Raw is the exact matched substring.
	Raw string

	// Value is the unrounded value in inches. Zero when Err is set.
	Value float64

	// Err is set when the text matched but its value could not be computed.
	// It satisfies errors.Is for ErrInvalidValue and for the cause.
	Err error

	next int // rune index after the match
}

// Valid reports whether the match produced a value.
func (m Match) Valid() bool {
	return m.Err == nil
}

// Inches returns the value rounded to two decimals.
func (m Match) Inches() float64 {
	return round2(m.Value)
}

// Parser recognizes dimension expressions. A Parser is immutable and safe
// for concurrent use.
type Parser struct {
	marks     Marks
	foldWidth bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithMarks replaces the feet and inch mark table. An invalid table is
// ignored and the default marks stay in effect; use Marks.Validate first to
// report the problem.
func WithMarks(m Marks) Option {
	return func(p *Parser) {
		if m.Validate() == nil {
			p.marks = m.With(nil, nil)
		}
	}
}

// WithWidthFolding folds fullwidth digits, punctuation and marks to ASCII
// before matching.
func WithWidthFolding(enabled bool) Option {
	return func(p *Parser) {
		p.foldWidth = enabled
	}
}

// New creates a Parser with the default marks.
func New(opts ...Option) *Parser {
	p := &Parser{
		marks: DefaultMarks(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Marks returns a copy of the parser's mark table.
func (p *Parser) Marks() Marks {
	return p.marks.With(nil, nil)
}

// Scan returns every non-overlapping match in text, left to right,
// including matches whose value is invalid.
func (p *Parser) Scan(text string) []Match {
	s := newScanner(text, p.marks, p.foldWidth)
	if !s.hasInchMark() {
		return nil
	}
	var out []Match
	for i := 0; i < len(s.runes); {
		m, ok := s.matchAt(i)
		if !ok {
			i = s.resume(i)
			continue
		}
		out = append(out, m)
		i = m.next
	}
	return out
}

// Extract returns the dimensions found in one token, in order of
// appearance, each carrying the token's bounding box. Matches with an
// invalid value are skipped.
func (p *Parser) Extract(text string, bbox model.BBox) []model.Dimension {
	var dims []model.Dimension
	for _, m := range p.Scan(text) {
		if !m.Valid() {
			continue
		}
		dims = append(dims, model.Dimension{
			Raw:    m.Raw,
			Inches: m.Inches(),
			BBox:   bbox,
		})
	}
	return dims
}

// Parse reads a single dimension expression. The whole text is searched for
// the feet-and-inches form first, then the fraction form, then plain inches,
// and the first match of the first form found wins. The result is rounded
// to two decimals.
//
// Parse returns ErrNoMatch when nothing matches and an error wrapping
// ErrInvalidValue when the match has no computable value.
func (p *Parser) Parse(text string) (float64, error) {
	m, err := p.Find(text)
	if err != nil {
		return 0, err
	}
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Inches(), nil
}

// Find returns the match Parse would use.
func (p *Parser) Find(text string) (Match, error) {
	s := newScanner(text, p.marks, p.foldWidth)
	if s.hasInchMark() {
		for _, form := range forms {
			for i := 0; i < len(s.runes); i = s.resume(i) {
				if m, ok := s.matchForm(form, i); ok {
					return m, nil
				}
			}
		}
	}
	return Match{}, ErrNoMatch
}

var defaultParser = New()

// Extract runs the default parser over one token.
func Extract(text string, bbox model.BBox) []model.Dimension {
	return defaultParser.Extract(text, bbox)
}

// Parse reads a single expression with the default parser.
func Parse(text string) (float64, error) {
	return defaultParser.Parse(text)
}
