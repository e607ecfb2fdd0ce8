package dimension

import "errors"

var (
	// ErrNoMatch is returned by Parse when the text holds no dimension expression.
	ErrNoMatch = errors.New("no dimension expression found")

	// ErrInvalidValue is returned when an expression matched but its numeric
	// value cannot be computed. It always wraps a more specific cause.
	ErrInvalidValue = errors.New("invalid dimension value")

	// ErrZeroDenominator is the cause for fractions such as 3 1/0".
	ErrZeroDenominator = errors.New("fraction denominator is zero")

	// ErrOverflow is the cause for numbers that do not fit a float64.
	ErrOverflow = errors.New("number out of range")

	// ErrInvalidMarks is returned by Marks.Validate.
	ErrInvalidMarks = errors.New("invalid mark table")
)
