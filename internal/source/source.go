package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nao1215/floorscan/internal/model"
)

// Token grouping methods.
const (
	// MethodSpans merges glyphs that share a line and a font.
	MethodSpans = "spans"
	// MethodWords splits glyphs at white space and horizontal gaps.
	MethodWords = "words"
	// MethodHOCR reads ocrx_word elements of an hOCR file.
	MethodHOCR = "hocr"
	// MethodTokens reads a token JSON file.
	MethodTokens = "tokens"
)

// DefaultTolerance is the default gap in points that separates words, and
// the vertical distance under which two glyphs share a line.
const DefaultTolerance = 3.0

var (
	// ErrUnsupportedFormat is returned for files with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrUnknownMethod is returned for an unknown PDF grouping method.
	ErrUnknownMethod = errors.New("unknown processing method")

	// ErrMalformedContent is returned when a PDF page cannot be interpreted.
	ErrMalformedContent = errors.New("malformed page content")
)

// Source produces the tokens of one document, grouped by page.
type Source interface {
	// Pages returns every page in document order. Pages without text are
	// included with no tokens.
	Pages(ctx context.Context) ([]model.PageTokens, error)

	// Method names how tokens were formed.
	Method() string
}

// Options configures Open.
type Options struct {
	// Method is the PDF grouping method, MethodSpans or MethodWords.
	// Empty selects MethodSpans.
	Method string

	// Password opens encrypted PDFs.
	Password string

	// Tolerance overrides DefaultTolerance when positive.
	Tolerance float64
}

var extensions = []string{".pdf", ".hocr", ".html", ".htm", ".json"}

// Extensions returns the supported file extensions.
func Extensions() []string {
	return slices.Clone(extensions)
}

// Supported reports whether path has a supported extension.
func Supported(path string) bool {
	return slices.Contains(extensions, strings.ToLower(filepath.Ext(path)))
}

// ValidMethod reports whether m is a PDF grouping method.
func ValidMethod(m string) bool {
	return m == MethodSpans || m == MethodWords
}

// Open returns the Source for path, chosen by file extension. The file must
// exist; it is read when Pages is called.
func Open(path string, opts Options) (Source, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return NewPDFSource(path, opts)
	case ".json":
		return NewJSONSource(path), nil
	default:
		return NewHOCRSource(path), nil
	}
}
