package topsis

import "strconv"

const (
	ScoreColumn = "Topsis Score"
	RankColumn  = "Rank"
)

// DecisionTable is a header plus raw rows. Column 0 holds the alternative's
// label; every other column is a criterion.
type DecisionTable struct {
	Columns []string
	Rows    [][]string
}

// Criteria returns the number of criterion columns.
func (t DecisionTable) Criteria() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns) - 1
}

// Impact says whether a criterion is maximized or minimized.
type Impact string

const (
	Benefit Impact = "+"
	Cost    Impact = "-"
)

// ScoredTable is a DecisionTable with a score and rank for every row.
// Rows keep the order they had in the input.
type ScoredTable struct {
	Columns []string
	Rows    [][]string
	Scores  []float64
	Ranks   []int

	// Values holds the parsed criterion cells of each row.
	Values [][]float64

	Weights    []float64
	Impacts    []Impact
	IdealBest  []float64
	IdealWorst []float64
	// SeparationBest and SeparationWorst are S+ and S- per row.
	SeparationBest  []float64
	SeparationWorst []float64
}

// Header returns the input columns followed by the score and rank columns.
func (s *ScoredTable) Header() []string {
	h := make([]string, 0, len(s.Columns)+2)
	h = append(h, s.Columns...)
	return append(h, ScoreColumn, RankColumn)
}

// Records renders every row with its score and rank appended.
func (s *ScoredTable) Records() [][]string {
	out := make([][]string, len(s.Rows))
	for i, row := range s.Rows {
		rec := make([]string, 0, len(row)+2)
		rec = append(rec, row...)
		rec = append(rec,
			strconv.FormatFloat(s.Scores[i], 'f', -1, 64),
			strconv.Itoa(s.Ranks[i]),
		)
		out[i] = rec
	}
	return out
}

// Best returns the index of the first row ranked 1, or -1 for an empty table.
func (s *ScoredTable) Best() int {
	for i, r := range s.Ranks {
		if r == 1 {
			return i
		}
	}
	return -1
}
