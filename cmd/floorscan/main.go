// Package main provides the entry point for the floorscan CLI.
//
// floorscan extracts dimension callouts (2' 6", 34 (1/2)", 25") and
// cabinet or equipment codes (DB24, WC3036) from architectural floorplans.
//
// Usage:
//
//	floorscan extract plan.pdf
//	floorscan extract --format json --output-dir out/ a.pdf b.pdf
//	floorscan history plan.pdf
//
// See --help for all available options.
package main

// main is the entry point for floorscan.
func main() {
	Execute()
}
