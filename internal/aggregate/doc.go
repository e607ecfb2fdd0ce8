// Package aggregate drives the dimension parser and the code recognizer over
// pages of tokens and builds the extraction Document.
package aggregate
