// Package source reads tokens (text with a bounding box) from documents.
//
// PDFs are read with github.com/ledongthuc/pdf and grouped into tokens either
// as spans (same line, same font) or as words (split at white space and
// gaps). hOCR output from OCR engines and plain token JSON produced by other
// extractors are also accepted.
package source
