package topsis

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an evaluation was rejected.
type ErrorKind string

const (
	KindInsufficientColumns ErrorKind = "insufficient_columns"
	KindNonNumericData      ErrorKind = "non_numeric_data"
	KindInvalidWeights      ErrorKind = "invalid_weights"
	KindInvalidImpact       ErrorKind = "invalid_impact"
	KindCardinalityMismatch ErrorKind = "cardinality_mismatch"
)

var (
	ErrInsufficientColumns = errors.New("input must contain three or more columns")
	ErrNonNumericData      = errors.New("2nd to last columns must contain numeric values only")
	ErrInvalidWeights      = errors.New("weights must be positive numbers separated by commas")
	ErrInvalidImpact       = errors.New("impacts must be either '+' or '-'")
	ErrCardinalityMismatch = errors.New("number of weights, impacts and criteria columns must be the same")
)

var sentinels = map[ErrorKind]error{
	KindInsufficientColumns: ErrInsufficientColumns,
	KindNonNumericData:      ErrNonNumericData,
	KindInvalidWeights:      ErrInvalidWeights,
	KindInvalidImpact:       ErrInvalidImpact,
	KindCardinalityMismatch: ErrCardinalityMismatch,
}

// ValidationError reports the first precondition an input failed.
// Only the fields relevant to Kind are populated.
type ValidationError struct {
	Kind ErrorKind

	// Column is the header of the offending column, if known.
	Column string
	// Row is the zero-based data row of the offending cell, or -1.
	Row int
	// Value is the offending token.
	Value string

	// Expected is the criterion column count for count-related failures.
	Expected int
	Weights  int
	Impacts  int
	Columns  int
}

func (e *ValidationError) Error() string {
	base := sentinels[e.Kind]
	switch e.Kind {
	case KindInsufficientColumns:
		return fmt.Sprintf("%v (got %d)", base, e.Columns)
	case KindNonNumericData:
		if e.Value == "" && e.Column == "" {
			return base.Error()
		}
		return fmt.Sprintf("%v (column %q, row %d: %q)", base, e.Column, e.Row+1, e.Value)
	case KindInvalidWeights:
		return fmt.Sprintf("%v (got %q)", base, e.Value)
	case KindInvalidImpact:
		return fmt.Sprintf("%v (got %q)", base, e.Value)
	case KindCardinalityMismatch:
		return fmt.Sprintf("number of weights (%d), impacts (%d), and columns (%d) must be the same",
			e.Weights, e.Impacts, e.Expected)
	default:
		return "invalid topsis input"
	}
}

// Is lets callers match a ValidationError against the Err* sentinels.
func (e *ValidationError) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// KindOf returns the ErrorKind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return "", false
}
