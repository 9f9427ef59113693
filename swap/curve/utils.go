package curve

import "sort"

// bracket finds the pillar interval containing x on a sorted time axis with an implicit
// anchor at 0. It returns (lo, hi) with times[lo] < x <= times[hi]; lo is -1 when x falls
// between the anchor and the first pillar. x must not exceed the last pillar.
//
// This uses binary search for O(log n) complexity instead of O(n) linear search.
func bracket(times []float64, x float64) (lo, hi int) {
	idx := sort.SearchFloat64s(times, x)
	if idx >= len(times) {
		idx = len(times) - 1
	}
	return idx - 1, idx
}
