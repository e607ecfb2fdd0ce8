// Package dimension recognizes linear dimensions written in floorplan text
// and normalizes them to inches.
//
// Three notations are understood, tried in this order at every position of
// the input so that the most specific one wins:
//
//	2' 6"        feet and inches     -> 30
//	34 (1/2)"    mixed fraction      -> 34.5
//	25 3/4"      mixed fraction      -> 25.75
//	25"          decimal inches      -> 25
//
// The feet mark may be an ASCII apostrophe or U+2032 PRIME and the inch mark
// an ASCII double quote or U+2033 DOUBLE PRIME. The mark table is a [Marks]
// value and can be extended, for example with typographic quotes.
//
// The scanner is hand written: alternation priority and non-overlapping,
// left-to-right matching are properties of the code rather than of a regular
// expression engine. Parsers are immutable after construction and safe for
// concurrent use.
package dimension
