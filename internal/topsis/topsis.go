// Package topsis ranks alternatives with the Technique for Order of Preference
// by Similarity to Ideal Solution.
//
// Evaluate is a pure function over in-memory values. It performs no I/O and
// keeps no state between calls, so it is safe to call from many goroutines.
package topsis

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Evaluate validates the table, weights and impacts and returns the scored
// table. Validation stops at the first failing check, in this order: column
// count, numeric cells, weights, weight/impact counts, impact symbols.
//
//	r[i,j] = x[i,j] / ||x_j||
//	v[i,j] = r[i,j] * w[j]
//	S+[i]  = ||v_i - best||,  S-[i] = ||v_i - worst||
//	P[i]   = S-[i] / (S+[i] + S-[i])
//
// A criterion column whose norm is zero stays all zeros. A row whose
// distances sum to zero scores 0. Ties share the lowest rank number
// (competition ranking: 1, 2, 2, 4).
func Evaluate(t DecisionTable, weights, impacts string) (*ScoredTable, error) {
	if len(t.Columns) < 3 {
		return nil, &ValidationError{Kind: KindInsufficientColumns, Row: -1, Columns: len(t.Columns)}
	}
	data, err := parseMatrix(t)
	if err != nil {
		return nil, err
	}
	w, err := ParseWeights(weights)
	if err != nil {
		return nil, err
	}
	imp := ParseImpacts(impacts)

	criteria := t.Criteria()
	if len(w) != criteria || len(imp) != criteria {
		return nil, &ValidationError{
			Kind:     KindCardinalityMismatch,
			Row:      -1,
			Expected: criteria,
			Weights:  len(w),
			Impacts:  len(imp),
			Columns:  len(t.Columns),
		}
	}
	if err := ValidateImpacts(imp); err != nil {
		return nil, err
	}

	return score(t, data, w, imp), nil
}

func score(t DecisionTable, data, weights []float64, impacts []Impact) *ScoredTable {
	n, m := len(t.Rows), len(weights)
	st := &ScoredTable{
		Columns:         append([]string(nil), t.Columns...),
		Rows:            make([][]string, n),
		Scores:          make([]float64, n),
		Ranks:           make([]int, n),
		Values:          make([][]float64, n),
		Weights:         weights,
		Impacts:         impacts,
		IdealBest:       make([]float64, m),
		IdealWorst:      make([]float64, m),
		SeparationBest:  make([]float64, n),
		SeparationWorst: make([]float64, n),
	}
	for i, row := range t.Rows {
		st.Rows[i] = append([]string(nil), row...)
		st.Values[i] = append([]float64(nil), data[i*m:(i+1)*m]...)
	}
	// mat.NewDense rejects zero-sized matrices.
	if n == 0 {
		return st
	}

	v := mat.NewDense(n, m, data)
	col := make([]float64, n)
	for j := 0; j < m; j++ {
		mat.Col(col, j, v)
		// Divide rather than scale by 1/norm: a subnormal norm has an
		// infinite reciprocal.
		if norm := floats.Norm(col, 2); norm != 0 {
			for i := range col {
				col[i] = col[i] / norm * weights[j]
			}
		}
		v.SetCol(j, col)

		hi, lo := floats.Max(col), floats.Min(col)
		if impacts[j] == Benefit {
			st.IdealBest[j], st.IdealWorst[j] = hi, lo
		} else {
			st.IdealBest[j], st.IdealWorst[j] = lo, hi
		}
	}

	row := make([]float64, m)
	for i := 0; i < n; i++ {
		mat.Row(row, i, v)
		sp := floats.Distance(row, st.IdealBest, 2)
		sm := floats.Distance(row, st.IdealWorst, 2)
		st.SeparationBest[i], st.SeparationWorst[i] = sp, sm
		if total := sp + sm; total != 0 {
			st.Scores[i] = sm / total
		}
	}

	st.Ranks = competitionRanks(st.Scores)
	return st
}

// competitionRanks ranks scores descending. Equal scores share the rank of
// the first of them; the next distinct score resumes at its position.
func competitionRanks(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	ranks := make([]int, len(scores))
	for pos, idx := range order {
		if pos > 0 && scores[idx] == scores[order[pos-1]] {
			ranks[idx] = ranks[order[pos-1]]
			continue
		}
		ranks[idx] = pos + 1
	}
	return ranks
}
