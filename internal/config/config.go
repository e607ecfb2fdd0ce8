package config

import (
	"path/filepath"
	"unicode/utf8"

	"github.com/adrg/xdg"
)

// Report formats.
const (
	// FormatText is the human-readable terminal report.
	FormatText = "text"
	// FormatJSON is the extraction document with run metadata.
	FormatJSON = "json"
	// FormatMarkdown is a GitHub Flavored Markdown report.
	FormatMarkdown = "markdown"
)

// Token grouping methods for PDF input.
const (
	// MethodSpans merges glyphs sharing a line and a font into one token.
	MethodSpans = "spans"
	// MethodWords splits glyphs into words at white space and gaps.
	MethodWords = "words"
)

// Default configuration values.
const (
	// DefaultMethod is spans: labels such as 2' 6" stay in one token, so the
	// feet-and-inches notation is recognized.
	DefaultMethod = MethodSpans

	// DefaultFormat is the terminal report.
	DefaultFormat = FormatText

	// DefaultConcurrency is the number of pages aggregated at once.
	DefaultConcurrency = 4

	// DefaultBatchSize is the number of files processed at once.
	DefaultBatchSize = 4

	// DefaultTolerance is the word gap and line tolerance in points.
	DefaultTolerance = 3.0

	// AppName is the application name used for XDG directory paths.
	AppName = "floorscan"
)

// Config holds all configuration options for floorscan.
// It is populated from CLI flags and the configuration file and passed
// through the application rather than kept in global state.
type Config struct {
	// Targets is the list of documents to process.
	Targets []string

	// Method is the PDF token grouping method (spans or words).
	// Other input formats ignore it.
	Method string

	// Format is the report format (text, json or markdown).
	Format string

	// OutputPath writes the report to this file instead of stdout.
	// Only valid with a single target.
	OutputPath string

	// OutputDir writes one timestamped report per target into this
	// directory, named <name>[_suffix]_YYYYMMDD_HHMMSS.<ext>.
	OutputDir string

	// Suffix is appended to the base name of files written to OutputDir.
	Suffix string

	// Concurrency is the number of pages aggregated concurrently.
	Concurrency int

	// BatchSize is the number of files processed concurrently.
	BatchSize int

	// Tolerance is the word gap and line tolerance in points for PDFs.
	Tolerance float64

	// Password opens encrypted PDFs. It is redacted from logs.
	Password string

	// FoldWidth folds fullwidth digits and marks before recognition.
	FoldWidth bool

	// FeetMarks are extra characters accepted as feet marks, one
	// character per entry, in addition to ' and U+2032.
	FeetMarks []string

	// InchMarks are extra characters accepted as inch marks, one
	// character per entry, in addition to " and U+2033.
	InchMarks []string

	// SaveToDB stores each run in the history database.
	SaveToDB bool

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/floorscan on Linux).
	DBDir string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the configuration file given with --config.
	// If empty, .floorscan is searched for (see FindConfigFile).
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Method:      DefaultMethod,
		Format:      DefaultFormat,
		Concurrency: DefaultConcurrency,
		BatchSize:   DefaultBatchSize,
		Tolerance:   DefaultTolerance,
		SaveToDB:    true,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for floorscan.
// On Linux: ~/.local/share/floorscan
// On macOS: ~/Library/Application Support/floorscan
// On Windows: %LOCALAPPDATA%\floorscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for floorscan.
// On Linux: ~/.config/floorscan
// On macOS: ~/Library/Application Support/floorscan
// On Windows: %APPDATA%\floorscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplyFile copies values from a configuration file. Fields for which
// isSet reports true were given on the command line and are left alone.
// A nil isSet applies every value present in the file.
func (c *Config) ApplyFile(f *File, isSet func(name string) bool) {
	if f == nil {
		return
	}
	if isSet == nil {
		isSet = func(string) bool { return false }
	}

	if f.Method != "" && !isSet("method") {
		c.Method = f.Method
	}
	if f.Format != "" && !isSet("format") {
		c.Format = f.Format
	}
	if f.Concurrency != 0 && !isSet("concurrency") {
		c.Concurrency = f.Concurrency
	}
	if f.Batch != 0 && !isSet("batch") {
		c.BatchSize = f.Batch
	}
	if f.Tolerance != 0 && !isSet("tolerance") {
		c.Tolerance = f.Tolerance
	}
	if f.FoldWidth != nil && !isSet("fold-width") {
		c.FoldWidth = *f.FoldWidth
	}
	if f.OutputDir != "" && !isSet("output-dir") {
		c.OutputDir = f.OutputDir
	}
	if f.Suffix != "" && !isSet("suffix") {
		c.Suffix = f.Suffix
	}
	c.FeetMarks = append(c.FeetMarks, f.Marks.Feet...)
	c.InchMarks = append(c.InchMarks, f.Marks.Inch...)
}

// ExtraMarks returns the configured extra feet and inch marks as runes.
// Call Validate first; invalid entries are skipped.
func (c *Config) ExtraMarks() (feet, inch []rune) {
	return toRunes(c.FeetMarks), toRunes(c.InchMarks)
}

func toRunes(marks []string) []rune {
	out := make([]rune, 0, len(marks))
	for _, m := range marks {
		if utf8.RuneCountInString(m) == 1 {
			r, _ := utf8.DecodeRuneInString(m)
			out = append(out, r)
		}
	}
	return out
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors in
// errors.go.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.Method != MethodSpans && c.Method != MethodWords {
		return ErrInvalidMethod
	}

	switch c.Format {
	case FormatText, FormatJSON, FormatMarkdown:
	default:
		return ErrInvalidFormat
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.Tolerance <= 0 {
		return ErrInvalidTolerance
	}

	if c.OutputPath != "" && c.OutputDir != "" {
		return ErrConflictingOutputs
	}

	if c.OutputPath != "" && len(c.Targets) > 1 {
		return ErrOutputWithManyTargets
	}

	for _, m := range append(append([]string{}, c.FeetMarks...), c.InchMarks...) {
		if utf8.RuneCountInString(m) != 1 {
			return ErrInvalidMark
		}
	}

	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}

	return nil
}
