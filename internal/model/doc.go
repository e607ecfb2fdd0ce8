// Package model defines the core data structures used throughout floorscan.
//
// This package contains the following main types:
//   - Token: a unit of extracted text with its bounding box
//   - Dimension: a recognized measurement normalized to inches
//   - CodeSet: the distinct equipment codes found on a page
//   - PageRecord and Document: the aggregated extraction output
//   - Report: a Document plus the run metadata attached by the caller
//
// Multiple packages (dimension, code, aggregate, source, report, database)
// share these types, so they live in their own package to avoid import cycles.
//
// The models serialize to the JSON output contract:
//
//	{"pages": [{"page": 1, "dimensions": [{"raw": "25\"", "inches": 25, "bbox": [0,0,1,1]}], "codes": ["DB24"]}]}
package model
