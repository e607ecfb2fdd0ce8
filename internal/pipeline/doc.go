// Package pipeline provides a framework for executing extraction steps in
// sequence.
//
// A run over one document loads its tokens, fingerprints the file, extracts
// dimensions and codes, and attaches run metadata. Each stage is a Step that
// receives the current report and can modify it. The BatchProcessor runs
// pipelines over many documents with bounded concurrency using errgroup.
package pipeline
