package topsis

// Frontier returns the indices of the rows no other row dominates, in input
// order. Row a dominates row b when a is at least as good on every criterion
// (higher for benefit, lower for cost) and strictly better on one.
// O(n^2) dominance check.
func (s *ScoredTable) Frontier() []int {
	frontier := []int{}
	for i := range s.Values {
		dominated := false
		for j := range s.Values {
			if i != j && s.dominates(j, i) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, i)
		}
	}
	return frontier
}

func (s *ScoredTable) dominates(a, b int) bool {
	better := false
	for j, imp := range s.Impacts {
		x, y := s.Values[a][j], s.Values[b][j]
		if imp == Cost {
			x, y = -x, -y
		}
		if x < y {
			return false
		}
		if x > y {
			better = true
		}
	}
	return better
}
