package pipeline

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/floorscan/internal/aggregate"
	"github.com/nao1215/floorscan/internal/code"
	"github.com/nao1215/floorscan/internal/config"
	"github.com/nao1215/floorscan/internal/dimension"
	"github.com/nao1215/floorscan/internal/model"
	"github.com/nao1215/floorscan/internal/source"
)

// LoadStep reads the tokens of the report's source file.
// The token source is chosen from the file extension.
type LoadStep struct {
	// opts selects the grouping method, PDF password and gap tolerance.
	opts source.Options

	// logger for structured logging.
	logger *slog.Logger
}

// LoadStepOption configures a LoadStep.
type LoadStepOption func(*LoadStep)

// WithLoadLogger sets a custom logger for the load step.
func WithLoadLogger(logger *slog.Logger) LoadStepOption {
	return func(s *LoadStep) {
		s.logger = logger
	}
}

// NewLoadStep creates a new token loading step.
func NewLoadStep(opts source.Options, stepOpts ...LoadStepOption) *LoadStep {
	s := &LoadStep{
		opts:   opts,
		logger: slog.Default(),
	}

	for _, opt := range stepOpts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load_tokens"
}

// Do executes the load step.
func (s *LoadStep) Do(ctx context.Context, report *model.Report) error {
	src, err := source.Open(report.Source, s.opts)
	if err != nil {
		return err
	}

	pages, err := src.Pages(ctx)
	if err != nil {
		return fmt.Errorf("failed to read tokens: %w", err)
	}

	report.Tokens = pages
	report.Metadata.Method = src.Method()

	s.logger.Debug("tokens loaded",
		"source", report.Source,
		"method", src.Method(),
		"pages", len(pages),
		"tokens", model.TokenCount(pages),
	)

	return nil
}

// FingerprintStep records the SHA3-256 digest of the source file, so that
// history entries for the same document can be matched after a rename.
type FingerprintStep struct {
	logger *slog.Logger
}

// FingerprintStepOption configures a FingerprintStep.
type FingerprintStepOption func(*FingerprintStep)

// WithFingerprintLogger sets a custom logger for the fingerprint step.
func WithFingerprintLogger(logger *slog.Logger) FingerprintStepOption {
	return func(s *FingerprintStep) {
		s.logger = logger
	}
}

// NewFingerprintStep creates a new fingerprint step.
func NewFingerprintStep(opts ...FingerprintStepOption) *FingerprintStep {
	s := &FingerprintStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *FingerprintStep) Name() string {
	return "fingerprint"
}

// Do executes the fingerprint step.
func (s *FingerprintStep) Do(_ context.Context, report *model.Report) error {
	sum, err := FileHash(report.Source)
	if err != nil {
		return err
	}
	report.Metadata.SourceHash = sum

	s.logger.Debug("source fingerprinted",
		"source", report.Source,
		"sha3", sum,
	)
	return nil
}

// FileHash returns the hex encoded SHA3-256 digest of the file at path.
func FileHash(path string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to open source: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	h := sha3.New256()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash source: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ExtractStep runs the dimension parser and code recognizer over the loaded
// tokens and stores the resulting document in the report.
type ExtractStep struct {
	aggregator *aggregate.Aggregator

	// keepTokens leaves report.Tokens in place after extraction.
	keepTokens bool

	logger *slog.Logger
}

// ExtractStepOption configures an ExtractStep.
type ExtractStepOption func(*ExtractStep)

// WithExtractLogger sets a custom logger for the extract step.
func WithExtractLogger(logger *slog.Logger) ExtractStepOption {
	return func(s *ExtractStep) {
		s.logger = logger
	}
}

// WithKeepTokens keeps the loaded tokens in the report after extraction.
func WithKeepTokens(keep bool) ExtractStepOption {
	return func(s *ExtractStep) {
		s.keepTokens = keep
	}
}

// NewExtractStep creates a new extraction step. A nil aggregator is
// replaced by one with default settings.
func NewExtractStep(agg *aggregate.Aggregator, opts ...ExtractStepOption) *ExtractStep {
	s := &ExtractStep{
		aggregator: agg,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.aggregator == nil {
		s.aggregator = aggregate.New(aggregate.WithLogger(s.logger))
	}

	return s
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do executes the extract step.
func (s *ExtractStep) Do(ctx context.Context, report *model.Report) error {
	doc, err := s.aggregator.Aggregate(ctx, report.Tokens)
	if err != nil {
		return err
	}
	report.Document = doc

	if !s.keepTokens {
		report.Tokens = nil
	}

	s.logger.Debug("extraction finished",
		"source", report.Source,
		"dimensions", doc.DimensionCount(),
		"codes", doc.CodeCount(),
	)
	return nil
}

// MetadataStep attaches run metadata to the report.
type MetadataStep struct {
	version string
	now     func() time.Time
}

// MetadataStepOption configures a MetadataStep.
type MetadataStepOption func(*MetadataStep)

// WithClock sets the time source used for ProcessedAt.
func WithClock(now func() time.Time) MetadataStepOption {
	return func(s *MetadataStep) {
		s.now = now
	}
}

// NewMetadataStep creates a new metadata step.
func NewMetadataStep(version string, opts ...MetadataStepOption) *MetadataStep {
	s := &MetadataStep{
		version: version,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *MetadataStep) Name() string {
	return "metadata"
}

// Do executes the metadata step.
func (s *MetadataStep) Do(_ context.Context, report *model.Report) error {
	report.Metadata.ProcessedAt = s.now()
	report.Metadata.SourceFile = filepath.Base(report.Source)
	report.Metadata.ToolVersion = s.version

	switch {
	case report.Document != nil:
		report.Metadata.TotalPages = len(report.Pages)
	default:
		report.Metadata.TotalPages = len(report.Tokens)
	}
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// Method is the token grouping method for PDF input.
	Method string

	// Password decrypts protected PDF files.
	Password string

	// Tolerance is the gap in points that still joins two glyphs.
	Tolerance float64

	// Concurrency is the number of pages aggregated at once.
	Concurrency int

	// FoldWidth folds fullwidth characters before parsing dimensions.
	FoldWidth bool

	// FeetMarks and InchMarks are added to the default unit marks.
	FeetMarks []rune
	InchMarks []rune

	// Version is recorded as the tool version in report metadata.
	Version string

	// Now is the clock used for ProcessedAt.
	Now func() time.Time
}

// DefaultPipelineOption configures the default pipeline.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineMethod sets the token grouping method.
func WithPipelineMethod(method string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Method = method
	}
}

// WithPipelinePassword sets the password for encrypted PDF files.
func WithPipelinePassword(password string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Password = password
	}
}

// WithPipelineTolerance sets the glyph gap tolerance in points.
func WithPipelineTolerance(tolerance float64) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Tolerance = tolerance
	}
}

// WithPipelineConcurrency sets the number of pages aggregated at once.
func WithPipelineConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Concurrency = n
	}
}

// WithPipelineFoldWidth enables fullwidth folding in the dimension parser.
func WithPipelineFoldWidth(fold bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.FoldWidth = fold
	}
}

// WithPipelineMarks adds extra feet and inch marks to the defaults.
func WithPipelineMarks(feet, inch []rune) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.FeetMarks = feet
		c.InchMarks = inch
	}
}

// WithPipelineVersion sets the tool version recorded in reports.
func WithPipelineVersion(version string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Version = version
	}
}

// WithPipelineClock sets the clock used for ProcessedAt.
func WithPipelineClock(now func() time.Time) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Now = now
	}
}

// DefaultPipeline creates a pipeline with all default steps configured:
// load, fingerprint, extract and metadata, in that order.
//
// The first parameter accepts pipeline options (WithLogger, etc).
// The variadic parameter accepts pipeline config options
// (WithPipelineMethod, etc).
func DefaultPipeline(pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		Method:      config.DefaultMethod,
		Tolerance:   config.DefaultTolerance,
		Concurrency: config.DefaultConcurrency,
		Now:         time.Now,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	parser := dimension.New(
		dimension.WithMarks(dimension.DefaultMarks().With(cfg.FeetMarks, cfg.InchMarks)),
		dimension.WithWidthFolding(cfg.FoldWidth),
	)
	agg := aggregate.New(
		aggregate.WithParser(parser),
		aggregate.WithRecognizer(code.New()),
		aggregate.WithConcurrency(cfg.Concurrency),
		aggregate.WithLogger(p.logger),
	)

	p.AddSteps(
		NewLoadStep(source.Options{
			Method:    cfg.Method,
			Password:  cfg.Password,
			Tolerance: cfg.Tolerance,
		}, WithLoadLogger(p.logger)),
		NewFingerprintStep(WithFingerprintLogger(p.logger)),
		NewExtractStep(agg, WithExtractLogger(p.logger)),
		NewMetadataStep(cfg.Version, WithClock(cfg.Now)),
	)

	return p
}
