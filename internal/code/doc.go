// Package code recognizes equipment and cabinet identifiers such as DB24,
// SB42FH or MW30 in floorplan text.
//
// A code is a whole word made of two to four letters A to Z, two to four
// digits, and up to three trailing letters. Matching is case-insensitive;
// detected codes are returned upper-cased.
package code
