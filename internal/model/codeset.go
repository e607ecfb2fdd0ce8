package model

import (
	"encoding/json"
	"slices"
)

// Code is an equipment or cabinet identifier such as "DB24" or "SB42FH".
// Two codes with the same text are the same code.
type Code = string

// CodeSet is an unordered set of codes.
//
// The zero value is an empty set ready to use. CodeSet serializes to a JSON
// array in sorted order so that output is reproducible; the order carries
// no meaning.
type CodeSet struct {
	m map[Code]struct{}
}

// NewCodeSet creates a set holding the given codes.
func NewCodeSet(codes ...Code) CodeSet {
	var s CodeSet
	for _, c := range codes {
		s.Add(c)
	}
	return s
}

// Add inserts a code. Empty codes are ignored.
func (s *CodeSet) Add(c Code) {
	if c == "" {
		return
	}
	if s.m == nil {
		s.m = make(map[Code]struct{})
	}
	s.m[c] = struct{}{}
}

// Union adds every code of other to s.
func (s *CodeSet) Union(other CodeSet) {
	for c := range other.m {
		s.Add(c)
	}
}

// Contains reports whether c is in the set.
func (s CodeSet) Contains(c Code) bool {
	_, ok := s.m[c]
	return ok
}

// Len returns the number of distinct codes.
func (s CodeSet) Len() int {
	return len(s.m)
}

// Sorted returns the codes in ascending order.
func (s CodeSet) Sorted() []Code {
	out := make([]Code, 0, len(s.m))
	for c := range s.m {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Difference returns the codes in s that are not in other.
func (s CodeSet) Difference(other CodeSet) CodeSet {
	var out CodeSet
	for c := range s.m {
		if !other.Contains(c) {
			out.Add(c)
		}
	}
	return out
}

// Equal reports whether both sets hold the same codes.
func (s CodeSet) Equal(other CodeSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for c := range s.m {
		if !other.Contains(c) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted array.
func (s CodeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of codes.
func (s *CodeSet) UnmarshalJSON(data []byte) error {
	var codes []Code
	if err := json.Unmarshal(data, &codes); err != nil {
		return err
	}
	*s = NewCodeSet(codes...)
	return nil
}
