package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nao1215/floorscan/internal/model"
)

// tokenFile is the token JSON layout:
//
//	{"pages": [{"page": 1, "tokens": [{"text": "25\"", "bbox": [0, 0, 10, 10]}]}]}
type tokenFile struct {
	Pages []model.PageTokens `json:"pages"`
}

// JSONSource reads tokens produced by another extractor.
type JSONSource struct {
	path string
}

// NewJSONSource creates a token JSON source.
func NewJSONSource(path string) *JSONSource {
	return &JSONSource{path: path}
}

// Method returns MethodTokens.
func (s *JSONSource) Method() string {
	return MethodTokens
}

// Pages decodes the file.
func (s *JSONSource) Pages(ctx context.Context) ([]model.PageTokens, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file %s: %w", s.path, err)
	}
	defer f.Close()
	return DecodeTokens(f)
}

// DecodeTokens reads token JSON. Pages without a number are numbered by
// position.
func DecodeTokens(r io.Reader) ([]model.PageTokens, error) {
	var tf tokenFile
	if err := json.NewDecoder(r).Decode(&tf); err != nil {
		return nil, fmt.Errorf("failed to decode tokens: %w", err)
	}
	pages := make([]model.PageTokens, 0, len(tf.Pages))
	for i, p := range tf.Pages {
		if p.Page <= 0 {
			p.Page = i + 1
		}
		if p.Tokens == nil {
			p.Tokens = make([]model.Token, 0)
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// EncodeTokens writes pages as token JSON.
func EncodeTokens(w io.Writer, pages []model.PageTokens) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{Pages: pages})
}
