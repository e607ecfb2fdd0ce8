package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and can be checked with
// errors.Is().
var (
	// ErrNoTarget is returned when no input document is specified.
	ErrNoTarget = errors.New("no target specified: provide one or more document paths")

	// ErrInvalidMethod is returned for a processing method other than spans or words.
	ErrInvalidMethod = errors.New("invalid method: must be spans or words")

	// ErrInvalidFormat is returned for an unknown report format.
	ErrInvalidFormat = errors.New("invalid format: must be text, json or markdown")

	// ErrInvalidConcurrency is returned when the page concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidTolerance is returned when the word tolerance is not positive.
	ErrInvalidTolerance = errors.New("invalid tolerance: must be positive")

	// ErrConflictingOutputs is returned when both --output and --output-dir are set.
	ErrConflictingOutputs = errors.New("conflicting outputs: --output and --output-dir cannot be used together")

	// ErrOutputWithManyTargets is returned when --output is used with several targets.
	ErrOutputWithManyTargets = errors.New("--output accepts a single target; use --output-dir for several")

	// ErrInvalidMark is returned when a configured mark is not exactly one character.
	ErrInvalidMark = errors.New("invalid mark: each mark must be a single character")

	// ErrNoDBDir is returned when saving is enabled without a database directory.
	ErrNoDBDir = errors.New("no database directory configured")
)
