package source

import (
	"context"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/nao1215/floorscan/internal/model"
)

// letterHeight is used when a page has no usable MediaBox.
const letterHeight = 792.0

// maxTreeDepth bounds the walk up the page tree for inherited attributes.
const maxTreeDepth = 32

// PDFSource reads tokens from the text layer of a PDF.
type PDFSource struct {
	path      string
	method    string
	password  string
	tolerance float64
}

// NewPDFSource creates a PDF source. The method defaults to MethodSpans.
func NewPDFSource(path string, opts Options) (*PDFSource, error) {
	method := opts.Method
	if method == "" {
		method = MethodSpans
	}
	if !ValidMethod(method) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	tolerance := opts.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &PDFSource{
		path:      path,
		method:    method,
		password:  opts.Password,
		tolerance: tolerance,
	}, nil
}

// Method returns the grouping method.
func (s *PDFSource) Method() string {
	return s.method
}

// Pages reads every page. The returned bounding boxes use a top-left
// origin, (x0, top, x1, bottom) in points.
func (s *PDFSource) Pages(ctx context.Context) ([]model.PageTokens, error) {
	f, r, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", s.path, err)
	}
	defer f.Close()

	n := r.NumPage()
	pages := make([]model.PageTokens, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tokens, err := s.pageTokens(r.Page(i))
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, model.PageTokens{Page: i, Tokens: tokens})
	}
	return pages, nil
}

func (s *PDFSource) open() (*os.File, *pdf.Reader, error) {
	if s.password == "" {
		return pdf.Open(s.path)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	// The callback is asked repeatedly until it returns "".
	tried := false
	r, err := pdf.NewReaderEncrypted(f, info.Size(), func() string {
		if tried {
			return ""
		}
		tried = true
		return s.password
	})
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, r, nil
}

func (s *PDFSource) pageTokens(page pdf.Page) ([]model.Token, error) {
	if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
		return make([]model.Token, 0), nil
	}
	glyphs, err := pageGlyphs(page)
	if err != nil {
		return nil, err
	}
	height := mediaBoxHeight(page.V)
	if s.method == MethodWords {
		return groupWords(glyphs, height, s.tolerance), nil
	}
	return groupSpans(glyphs, height, s.tolerance), nil
}

// pageGlyphs interprets the page content stream. The pdf package panics on
// malformed streams, so panics are turned into errors here.
func pageGlyphs(page pdf.Page) (glyphs []glyph, err error) {
	defer func() {
		if r := recover(); r != nil {
			glyphs = nil
			err = fmt.Errorf("%w: %v", ErrMalformedContent, r)
		}
	}()

	texts := page.Content().Text
	glyphs = make([]glyph, 0, len(texts))
	for _, t := range texts {
		glyphs = append(glyphs, glyph{
			text: t.S,
			font: t.Font,
			size: t.FontSize,
			x:    t.X,
			y:    t.Y,
			w:    t.W,
		})
	}
	return glyphs, nil
}

// mediaBoxHeight returns the page height, following inherited MediaBox
// entries up the page tree.
func mediaBoxHeight(v pdf.Value) float64 {
	for depth := 0; depth < maxTreeDepth && !v.IsNull(); depth++ {
		if box := v.Key("MediaBox"); box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
		v = v.Key("Parent")
	}
	return letterHeight
}
