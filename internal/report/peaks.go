package report

// Peaks returns the trail offsets that are local maxima of similarity.
//
// A peak is reported where a rise ends: at k-1 when trail[k] drops below
// trail[k-1] while rising. A trail that is still rising when it ends peaks at
// its last point. Flat steps neither start nor end a rise.
func Peaks(trail []float64) []int {
	var out []int
	rising := false
	last := len(trail) - 1

	for k := 1; k <= last; k++ {
		if rising {
			if trail[k] < trail[k-1] {
				out = append(out, k-1)
				rising = false
			}
		} else if trail[k] > trail[k-1] {
			rising = true
		}
	}
	if rising {
		out = append(out, last)
	}
	return out
}
