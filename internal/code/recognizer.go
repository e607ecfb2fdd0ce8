package code

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/floorscan/internal/model"
)

// Code grammar bounds.
const (
	MinPrefix = 2
	MaxPrefix = 4
	MinDigits = 2
	MaxDigits = 4
	MaxSuffix = 3
)

// Recognizer detects codes in token text. It is safe for concurrent use.
type Recognizer struct {
	lang language.Tag
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithLanguage selects the language whose case mapping is applied before
// matching. The default is language.Und.
func WithLanguage(tag language.Tag) Option {
	return func(r *Recognizer) {
		r.lang = tag
	}
}

// New creates a Recognizer.
func New(opts ...Option) *Recognizer {
	r := &Recognizer{
		lang: language.Und,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Detect returns the distinct codes in text. The result is empty, never an
// error, when nothing matches.
func (r *Recognizer) Detect(text string) model.CodeSet {
	var set model.CodeSet
	if text == "" {
		return set
	}
	// Casers carry state, so each call gets its own.
	for _, w := range words(cases.Upper(r.lang).String(text)) {
		if Valid(w) {
			set.Add(w)
		}
	}
	return set
}

// words splits s into maximal runs of letters, numbers and underscores.
// Everything else separates words.
func words(s string) []string {
	var out []string
	start := -1
	for i, r := range s {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Valid reports whether s is exactly one code, upper case.
func Valid(s string) bool {
	i := 0
	n := len(s)

	p := i
	for i < n && isUpper(s[i]) {
		i++
	}
	if l := i - p; l < MinPrefix || l > MaxPrefix {
		return false
	}

	d := i
	for i < n && isDigit(s[i]) {
		i++
	}
	if l := i - d; l < MinDigits || l > MaxDigits {
		return false
	}

	x := i
	for i < n && isUpper(s[i]) {
		i++
	}
	if i-x > MaxSuffix {
		return false
	}
	return i == n
}

func isUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

var defaultRecognizer = New()

// Detect runs the default recognizer over text.
func Detect(text string) model.CodeSet {
	return defaultRecognizer.Detect(text)
}
