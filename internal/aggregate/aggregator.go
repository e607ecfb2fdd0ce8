package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/floorscan/internal/code"
	"github.com/nao1215/floorscan/internal/dimension"
	"github.com/nao1215/floorscan/internal/model"
	"github.com/nao1215/floorscan/internal/source"
)

// ErrNoTokenSource is returned when Aggregate is called without pages.
var ErrNoTokenSource = errors.New("no token source")

// Aggregator builds Documents from tokens.
type Aggregator struct {
	parser      *dimension.Parser
	recognizer  *code.Recognizer
	concurrency int
	logger      *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithParser sets the dimension parser.
func WithParser(p *dimension.Parser) Option {
	return func(a *Aggregator) {
		if p != nil {
			a.parser = p
		}
	}
}

// WithRecognizer sets the code recognizer.
func WithRecognizer(r *code.Recognizer) Option {
	return func(a *Aggregator) {
		if r != nil {
			a.recognizer = r
		}
	}
}

// WithConcurrency sets how many pages are processed at once.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an Aggregator with the default parser and recognizer.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		parser:      dimension.New(),
		recognizer:  code.New(),
		concurrency: runtime.GOMAXPROCS(0),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate processes pages and returns a Document with one record per page,
// in the order supplied. A nil pages slice is a missing token source and
// returns ErrNoTokenSource; an empty slice yields an empty Document.
func (a *Aggregator) Aggregate(ctx context.Context, pages []model.PageTokens) (*model.Document, error) {
	if pages == nil {
		return nil, ErrNoTokenSource
	}

	records := make([]model.PageRecord, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, page := range pages {
		// Stop scheduling once the context is done.
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i] = a.AggregatePage(page)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := model.NewDocument(len(records))
	doc.Pages = append(doc.Pages, records...)

	a.logger.Debug("aggregation completed",
		"pages", len(doc.Pages),
		"dimensions", doc.DimensionCount(),
		"codes", doc.AllCodes().Len(),
	)
	return doc, nil
}

// AggregatePage processes one page. Tokens are visited in order; each
// token's dimensions are appended and its codes merged into the page set.
func (a *Aggregator) AggregatePage(page model.PageTokens) model.PageRecord {
	rec := model.NewPageRecord(page.Page)
	for _, tok := range page.Tokens {
		rec.AddDimensions(a.parser.Extract(tok.Text, tok.BBox)...)
		rec.AddCodes(a.recognizer.Detect(tok.Text))
	}
	a.logger.Debug("page aggregated",
		"page", page.Page,
		"tokens", len(page.Tokens),
		"dimensions", len(rec.Dimensions),
		"codes", rec.Codes.Len(),
	)
	return rec
}

// AggregateSource reads all pages from src and aggregates them.
func (a *Aggregator) AggregateSource(ctx context.Context, src source.Source) (*model.Document, error) {
	if src == nil {
		return nil, ErrNoTokenSource
	}
	pages, err := src.Pages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokens: %w", err)
	}
	return a.Aggregate(ctx, pages)
}
