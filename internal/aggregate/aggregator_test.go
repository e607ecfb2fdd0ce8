package aggregate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/floorscan/internal/dimension"
	"github.com/nao1215/floorscan/internal/model"
)

// fakeSource is a test helper that implements source.Source.
type fakeSource struct {
	pages []model.PageTokens
	err   error
}

func (f *fakeSource) Pages(_ context.Context) ([]model.PageTokens, error) {
	return f.pages, f.err
}

func (f *fakeSource) Method() string {
	return "fake"
}

func bbox(n float64) model.BBox {
	return model.NewBBox(n, n, n+10, n+10)
}

// TestAggregate tests document building.
func TestAggregate(t *testing.T) {
	t.Parallel()

	t.Run("dimensions in token order and codes as a set", func(t *testing.T) {
		t.Parallel()

		pages := []model.PageTokens{
			{Page: 1, Tokens: []model.Token{
				{Text: `25"`, BBox: bbox(1)},
				{Text: "DB24", BBox: bbox(2)},
				{Text: `2' 6"`, BBox: bbox(3)},
			}},
		}

		doc, err := New().Aggregate(context.Background(), pages)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []model.Dimension{
			{Raw: `25"`, Inches: 25, BBox: bbox(1)},
			{Raw: `2' 6"`, Inches: 30, BBox: bbox(3)},
		}
		if len(doc.Pages) != 1 {
			t.Fatalf("expected 1 page, got %d", len(doc.Pages))
		}
		if diff := cmp.Diff(want, doc.Pages[0].Dimensions); diff != "" {
			t.Errorf("dimensions mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"DB24"}, doc.Pages[0].Codes.Sorted()); diff != "" {
			t.Errorf("codes mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("token with dimension and code", func(t *testing.T) {
		t.Parallel()

		pages := []model.PageTokens{
			{Page: 1, Tokens: []model.Token{{Text: `SB42FH 34 (1/2)" wide`, BBox: bbox(0)}}},
		}
		doc, err := New().Aggregate(context.Background(), pages)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		p := doc.Pages[0]
		if len(p.Dimensions) != 1 || p.Dimensions[0].Inches != 34.5 {
			t.Errorf("unexpected dimensions %+v", p.Dimensions)
		}
		if !p.Codes.Contains("SB42FH") {
			t.Errorf("unexpected codes %v", p.Codes.Sorted())
		}
	})

	t.Run("pages keep the supplied order and numbers", func(t *testing.T) {
		t.Parallel()

		pages := make([]model.PageTokens, 0, 40)
		for i := 40; i >= 1; i-- {
			pages = append(pages, model.PageTokens{
				Page:   i,
				Tokens: []model.Token{{Text: fmt.Sprintf(`%d"`, i)}},
			})
		}

		doc, err := New(WithConcurrency(4)).Aggregate(context.Background(), pages)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(doc.Pages) != len(pages) {
			t.Fatalf("expected %d pages, got %d", len(pages), len(doc.Pages))
		}
		for i, p := range doc.Pages {
			if p.Page != pages[i].Page {
				t.Fatalf("page %d: expected number %d, got %d", i, pages[i].Page, p.Page)
			}
			if p.Dimensions[0].Inches != float64(p.Page) {
				t.Errorf("page %d: unexpected value %v", p.Page, p.Dimensions[0].Inches)
			}
		}
	})

	t.Run("codes are per page", func(t *testing.T) {
		t.Parallel()

		pages := []model.PageTokens{
			{Page: 1, Tokens: []model.Token{{Text: "DB24"}, {Text: "db24"}}},
			{Page: 2, Tokens: []model.Token{{Text: "MW30"}}},
			{Page: 3},
		}
		doc, err := New().Aggregate(context.Background(), pages)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := make([][]string, 0, len(doc.Pages))
		for _, p := range doc.Pages {
			got = append(got, p.Codes.Sorted())
		}
		want := [][]string{{"DB24"}, {"MW30"}, {}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
		if !doc.Pages[2].IsEmpty() {
			t.Error("expected empty third page")
		}
	})

	t.Run("empty pages slice yields empty document", func(t *testing.T) {
		t.Parallel()

		doc, err := New().Aggregate(context.Background(), []model.PageTokens{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(doc.Pages) != 0 {
			t.Errorf("expected no pages, got %d", len(doc.Pages))
		}
	})

	t.Run("nil pages is a missing token source", func(t *testing.T) {
		t.Parallel()

		_, err := New().Aggregate(context.Background(), nil)
		if !errors.Is(err, ErrNoTokenSource) {
			t.Errorf("expected ErrNoTokenSource, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New().Aggregate(ctx, []model.PageTokens{{Page: 1}})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("custom parser", func(t *testing.T) {
		t.Parallel()

		p := dimension.New(dimension.WithMarks(dimension.DefaultMarks().With([]rune{'’'}, []rune{'”'})))
		pages := []model.PageTokens{{Page: 1, Tokens: []model.Token{{Text: `2’ 6”`}}}}

		doc, err := New(WithParser(p)).Aggregate(context.Background(), pages)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.DimensionCount() != 1 {
			t.Errorf("expected 1 dimension, got %d", doc.DimensionCount())
		}
	})
}

// TestAggregatePage tests single-page processing.
func TestAggregatePage(t *testing.T) {
	t.Parallel()

	rec := New().AggregatePage(model.PageTokens{
		Page: 7,
		Tokens: []model.Token{
			{Text: `3 1/0"`},
			{Text: `1' 0"`},
		},
	})
	if rec.Page != 7 {
		t.Errorf("expected page 7, got %d", rec.Page)
	}
	if len(rec.Dimensions) != 1 || rec.Dimensions[0].Inches != 12 {
		t.Errorf("unexpected dimensions %+v", rec.Dimensions)
	}
}

// TestAggregateSource tests reading from a Source.
func TestAggregateSource(t *testing.T) {
	t.Parallel()

	t.Run("reads pages", func(t *testing.T) {
		t.Parallel()

		src := &fakeSource{pages: []model.PageTokens{{Page: 1, Tokens: []model.Token{{Text: "MW30"}}}}}
		doc, err := New().AggregateSource(context.Background(), src)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !doc.AllCodes().Contains("MW30") {
			t.Error("expected MW30")
		}
	})

	t.Run("source error is wrapped", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		_, err := New().AggregateSource(context.Background(), &fakeSource{err: boom})
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped error, got %v", err)
		}
	})

	t.Run("nil source", func(t *testing.T) {
		t.Parallel()

		_, err := New().AggregateSource(context.Background(), nil)
		if !errors.Is(err, ErrNoTokenSource) {
			t.Errorf("expected ErrNoTokenSource, got %v", err)
		}
	})
}
