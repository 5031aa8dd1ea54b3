package topsis

import (
	"math"
	"strconv"
	"strings"
)

// ParseWeights splits a comma-separated weight list. Every token must be a
// finite number greater than zero.
func ParseWeights(s string) ([]float64, error) {
	tokens := strings.Split(s, ",")
	weights := make([]float64, len(tokens))
	for i, tok := range tokens {
		tok = strings.TrimSpace(tok)
		w, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			return nil, &ValidationError{Kind: KindInvalidWeights, Row: -1, Value: tok}
		}
		weights[i] = w
	}
	return weights, nil
}

// ParseImpacts splits a comma-separated impact list. Symbols are not checked
// here; see ValidateImpacts.
func ParseImpacts(s string) []Impact {
	tokens := strings.Split(s, ",")
	impacts := make([]Impact, len(tokens))
	for i, tok := range tokens {
		impacts[i] = Impact(strings.TrimSpace(tok))
	}
	return impacts
}

// ValidateImpacts reports the first symbol that is neither "+" nor "-".
func ValidateImpacts(impacts []Impact) error {
	for _, imp := range impacts {
		if imp != Benefit && imp != Cost {
			return &ValidationError{Kind: KindInvalidImpact, Row: -1, Value: string(imp)}
		}
	}
	return nil
}

// parseMatrix converts the criterion cells of t into a row-major slice.
func parseMatrix(t DecisionTable) ([]float64, error) {
	width := len(t.Columns)
	m := width - 1
	data := make([]float64, 0, len(t.Rows)*m)
	for i, row := range t.Rows {
		if len(row) != width {
			return nil, &ValidationError{Kind: KindNonNumericData, Row: i}
		}
		for j := 1; j < width; j++ {
			cell := strings.TrimSpace(row[j])
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &ValidationError{
					Kind:   KindNonNumericData,
					Column: t.Columns[j],
					Row:    i,
					Value:  row[j],
				}
			}
			data = append(data, v)
		}
	}
	return data, nil
}
