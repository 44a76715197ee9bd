package tracker

import "github.com/Grasinga/TimeTracker/internal/model"

// WeekHours sums Out - In over the matched pairs. Negative and zero deltas
// are added as they are.
func WeekHours(pairs []model.Pair) float64 {
	total := 0.0
	for _, p := range pairs {
		total += p.Hours()
	}
	return total
}

// suspectPairs returns the pairs whose delta is zero or negative, usually a
// shift that crossed midnight or a mistyped time.
func suspectPairs(pairs []model.Pair) []model.Pair {
	var out []model.Pair
	for _, p := range pairs {
		if p.Hours() <= 0 {
			out = append(out, p)
		}
	}
	return out
}
