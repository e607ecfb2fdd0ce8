package dimension

import (
	"math"
	"strconv"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// scanner holds one token split into runes together with the byte offset of
// every rune, so that matches can be reported as substrings of the original
// text even when runes were folded.
type scanner struct {
	src   string
	runes []rune
	offs  []int // offs[len(runes)] == len(src)
	marks Marks
}

func newScanner(src string, marks Marks, fold bool) *scanner {
	n := utf8.RuneCountInString(src)
	s := &scanner{
		src:   src,
		runes: make([]rune, 0, n),
		offs:  make([]int, 0, n+1),
		marks: marks,
	}
	for off, r := range src {
		if fold {
			r = foldRune(r)
		}
		s.runes = append(s.runes, r)
		s.offs = append(s.offs, off)
	}
	s.offs = append(s.offs, len(src))
	return s
}

// foldRune maps fullwidth forms to their narrow counterparts.
func foldRune(r rune) rune {
	if r < utf8.RuneSelf {
		return r
	}
	if f := width.LookupRune(r).Folded(); f != 0 {
		return f
	}
	return r
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// hasInchMark reports whether any rune is an inch mark. Every form ends with
// one, so tokens without it are skipped quickly.
func (s *scanner) hasInchMark() bool {
	for _, r := range s.runes {
		if s.marks.IsInch(r) {
			return true
		}
	}
	return false
}

func (s *scanner) at(i int) rune {
	if i < 0 || i >= len(s.runes) {
		return utf8.RuneError
	}
	return s.runes[i]
}

func (s *scanner) skipSpace(i int) int {
	for i < len(s.runes) && unicode.IsSpace(s.runes[i]) {
		i++
	}
	return i
}

// digits returns the end of the digit run starting at i; i itself when none.
func (s *scanner) digits(i int) int {
	for i < len(s.runes) && isDigit(s.runes[i]) {
		i++
	}
	return i
}

// resume returns where scanning continues after no form matched at i.
// Every form starts with a digit run and only looks at the text after the
// run, so no position inside the same run can match either.
func (s *scanner) resume(i int) int {
	if j := s.digits(i); j > i {
		return j
	}
	return i + 1
}

// number scans digits ("." digits)? starting at i.
func (s *scanner) number(i int) (int, bool) {
	j := s.digits(i)
	if j == i {
		return i, false
	}
	if s.at(j) == '.' {
		if k := s.digits(j + 1); k > j+1 {
			return k, true
		}
	}
	return j, true
}

// inchAt consumes optional white space and one inch mark.
func (s *scanner) inchAt(i int) (int, bool) {
	i = s.skipSpace(i)
	if i < len(s.runes) && s.marks.IsInch(s.runes[i]) {
		return i + 1, true
	}
	return i, false
}

func (s *scanner) text(i, j int) string {
	return string(s.runes[i:j])
}

func (s *scanner) match(form Form, i, j int) Match {
	return Match{
		Form:  form,
		Start: s.offs[i],
		End:   s.offs[j],
		Raw:   s.src[s.offs[i]:s.offs[j]],
		next:  j,
	}
}

// matchAt tries the three forms at rune index i in priority order.
func (s *scanner) matchAt(i int) (Match, bool) {
	if m, ok := s.feetInches(i); ok {
		return m, true
	}
	if m, ok := s.fraction(i); ok {
		return m, true
	}
	return s.inches(i)
}

// matchForm tries a single form at rune index i.
func (s *scanner) matchForm(form Form, i int) (Match, bool) {
	switch form {
	case FormFeetInches:
		return s.feetInches(i)
	case FormFraction:
		return s.fraction(i)
	case FormInches:
		return s.inches(i)
	}
	return Match{}, false
}

// feetInches matches digits ws* FEET ws* number ws* INCH.
func (s *scanner) feetInches(i int) (Match, bool) {
	feetEnd := s.digits(i)
	if feetEnd == i {
		return Match{}, false
	}
	k := s.skipSpace(feetEnd)
	if k >= len(s.runes) || !s.marks.IsFeet(s.runes[k]) {
		return Match{}, false
	}
	inStart := s.skipSpace(k + 1)
	inEnd, ok := s.number(inStart)
	if !ok {
		return Match{}, false
	}
	end, ok := s.inchAt(inEnd)
	if !ok {
		return Match{}, false
	}

	m := s.match(FormFeetInches, i, end)
	feet, err1 := parseFloat(s.text(i, feetEnd))
	inches, err2 := parseFloat(s.text(inStart, inEnd))
	switch {
	case err1 != nil:
		m.Err = err1
	case err2 != nil:
		m.Err = err2
	default:
		m.Value, m.Err = finite(feet*12 + inches)
	}
	return m, true
}

// fraction matches digits ws* "("? ws* digits ws* "/" ws* digits ws* ")"? ws* INCH.
//
// When the whole part runs straight into the numerator ("125/8") the digit
// run is split keeping the whole part as long as possible. Any shorter whole
// part leaves the same text after the numerator, so only the split before
// the last digit needs trying.
func (s *scanner) fraction(i int) (Match, bool) {
	runEnd := s.digits(i)
	if runEnd == i {
		return Match{}, false
	}
	for _, w := range []int{runEnd, runEnd - 1} {
		if w <= i {
			break
		}
		numStart, numEnd, denStart, denEnd, end, ok := s.fractionTail(w)
		if !ok {
			continue
		}
		m := s.match(FormFraction, i, end)
		m.Value, m.Err = fractionValue(
			s.text(i, w), s.text(numStart, numEnd), s.text(denStart, denEnd))
		return m, true
	}
	return Match{}, false
}

func (s *scanner) fractionTail(w int) (numStart, numEnd, denStart, denEnd, end int, ok bool) {
	k := s.skipSpace(w)
	if s.at(k) == '(' {
		k = s.skipSpace(k + 1)
	}
	numStart = k
	numEnd = s.digits(numStart)
	if numEnd == numStart {
		return
	}
	k = s.skipSpace(numEnd)
	if s.at(k) != '/' {
		return
	}
	denStart = s.skipSpace(k + 1)
	denEnd = s.digits(denStart)
	if denEnd == denStart {
		return
	}
	k = s.skipSpace(denEnd)
	if s.at(k) == ')' {
		k++
	}
	end, ok = s.inchAt(k)
	return
}

// inches matches number ws* INCH.
func (s *scanner) inches(i int) (Match, bool) {
	numEnd, ok := s.number(i)
	if !ok {
		return Match{}, false
	}
	end, ok := s.inchAt(numEnd)
	if !ok {
		return Match{}, false
	}
	m := s.match(FormInches, i, end)
	var v float64
	v, m.Err = parseFloat(s.text(i, numEnd))
	if m.Err == nil {
		m.Value = v
	}
	return m, true
}

func fractionValue(whole, num, den string) (float64, error) {
	w, err := parseFloat(whole)
	if err != nil {
		return 0, err
	}
	n, err := parseFloat(num)
	if err != nil {
		return 0, err
	}
	d, err := parseFloat(den)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, invalid(ErrZeroDenominator)
	}
	return finite(w + n/d)
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, invalid(ErrOverflow)
	}
	return finite(v)
}

func finite(v float64) (float64, error) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, invalid(ErrOverflow)
	}
	return v, nil
}

func invalid(cause error) error {
	return &valueError{cause: cause}
}

// valueError matches both ErrInvalidValue and its specific cause.
type valueError struct {
	cause error
}

func (e *valueError) Error() string {
	return ErrInvalidValue.Error() + ": " + e.cause.Error()
}

func (e *valueError) Unwrap() []error {
	return []error{ErrInvalidValue, e.cause}
}

// round2 rounds to two decimals. strconv formats the exact binary value
// and breaks exact ties to even.
func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}
