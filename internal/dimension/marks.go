package dimension

import (
	"fmt"
	"slices"
	"unicode"
)

// Mark characters recognized by default.
const (
	Apostrophe  = '\''
	Prime       = '′'
	DoubleQuote = '"'
	DoublePrime = '″'
)

// Marks is the lookup table of characters accepted as feet and inch marks.
// ASCII and Unicode marks in the same list are equivalent.
type Marks struct {
	Feet []rune
	Inch []rune
}

// DefaultMarks returns the ASCII and prime marks.
func DefaultMarks() Marks {
	return Marks{
		Feet: []rune{Apostrophe, Prime},
		Inch: []rune{DoubleQuote, DoublePrime},
	}
}

// With returns a copy of m extended with extra feet and inch marks.
func (m Marks) With(feet, inch []rune) Marks {
	out := Marks{
		Feet: slices.Clone(m.Feet),
		Inch: slices.Clone(m.Inch),
	}
	for _, r := range feet {
		if !slices.Contains(out.Feet, r) {
			out.Feet = append(out.Feet, r)
		}
	}
	for _, r := range inch {
		if !slices.Contains(out.Inch, r) {
			out.Inch = append(out.Inch, r)
		}
	}
	return out
}

// IsFeet reports whether r is a feet mark.
func (m Marks) IsFeet(r rune) bool {
	return slices.Contains(m.Feet, r)
}

// IsInch reports whether r is an inch mark.
func (m Marks) IsInch(r rune) bool {
	return slices.Contains(m.Inch, r)
}

// Validate checks that both lists are non-empty, disjoint, and free of
// characters the grammar already uses.
func (m Marks) Validate() error {
	if len(m.Feet) == 0 || len(m.Inch) == 0 {
		return fmt.Errorf("%w: feet and inch marks must not be empty", ErrInvalidMarks)
	}
	for _, r := range append(slices.Clone(m.Feet), m.Inch...) {
		if isReserved(r) {
			return fmt.Errorf("%w: %q is part of the dimension grammar", ErrInvalidMarks, r)
		}
	}
	for _, r := range m.Feet {
		if m.IsInch(r) {
			return fmt.Errorf("%w: %q is both a feet and an inch mark", ErrInvalidMarks, r)
		}
	}
	return nil
}

func isReserved(r rune) bool {
	switch r {
	case '.', '/', '(', ')':
		return true
	}
	return isDigit(r) || unicode.IsSpace(r)
}
