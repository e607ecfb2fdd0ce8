package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/floorscan/internal/model"
)

// TestDecodeTokens tests token JSON decoding.
func TestDecodeTokens(t *testing.T) {
	t.Parallel()

	t.Run("pages and tokens", func(t *testing.T) {
		t.Parallel()

		in := `{"pages":[{"page":3,"tokens":[{"text":"DB24","bbox":[1,2,3,4]}]},{"tokens":null}]}`
		got, err := DecodeTokens(strings.NewReader(in))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []model.PageTokens{
			{Page: 3, Tokens: []model.Token{{Text: "DB24", BBox: model.NewBBox(1, 2, 3, 4)}}},
			{Page: 2, Tokens: []model.Token{}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()

		got, err := DecodeTokens(strings.NewReader(`{}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil pages, got %#v", got)
		}
	})

	t.Run("bad bbox", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeTokens(strings.NewReader(`{"pages":[{"page":1,"tokens":[{"text":"x","bbox":[1]}]}]}`))
		if err == nil {
			t.Error("expected error")
		}
	})

	t.Run("encode then decode", func(t *testing.T) {
		t.Parallel()

		pages := []model.PageTokens{{Page: 1, Tokens: []model.Token{{Text: `25"`, BBox: model.NewBBox(0, 0, 5, 5)}}}}
		var buf bytes.Buffer
		if err := EncodeTokens(&buf, pages); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := DecodeTokens(&buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(pages, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestOpen tests source selection.
func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "tokens.JSON")
	if err := os.WriteFile(jsonPath, []byte(`{"pages":[{"page":1,"tokens":[]}]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("json by extension, case-insensitive", func(t *testing.T) {
		t.Parallel()

		src, err := Open(jsonPath, Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if src.Method() != MethodTokens {
			t.Errorf("unexpected method %q", src.Method())
		}
		pages, err := src.Pages(context.Background())
		if err != nil || len(pages) != 1 {
			t.Errorf("unexpected result %v, %v", pages, err)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(dir, "plan.dwg"), Options{})
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		if _, err := Open(filepath.Join(dir, "missing.pdf"), Options{}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("unknown pdf method", func(t *testing.T) {
		t.Parallel()

		_, err := NewPDFSource("plan.pdf", Options{Method: "ocr"})
		if !errors.Is(err, ErrUnknownMethod) {
			t.Errorf("expected ErrUnknownMethod, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := NewJSONSource(jsonPath).Pages(ctx); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("supported", func(t *testing.T) {
		t.Parallel()

		for path, want := range map[string]bool{
			"a.pdf": true, "a.PDF": true, "a.hocr": true, "a.html": true,
			"a.json": true, "a.png": false, "a": false,
		} {
			if got := Supported(path); got != want {
				t.Errorf("Supported(%q) = %v, want %v", path, got, want)
			}
		}
	})
}
