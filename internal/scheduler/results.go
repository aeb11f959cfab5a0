package scheduler

import "sync"

// Results holds the similarity trails of every base image.
//
// Keys are base indices into the sorted path list. The k-th score of base i is
// the similarity between path i and path i+1+k.
type Results struct {
	mu     sync.Mutex
	trails map[int][]float64
}

// NewResults creates an empty result set sized for n paths.
func NewResults(n int) *Results {
	return &Results{trails: make(map[int][]float64, n)}
}

// Append adds score to the end of base's trail, creating the trail on first use.
func (r *Results) Append(base int, score float64) {
	r.mu.Lock()
	r.trails[base] = append(r.trails[base], score)
	r.mu.Unlock()
}

// Scores returns a copy of base's trail, or nil when base has no results.
func (r *Results) Scores(base int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	trail, ok := r.trails[base]
	if !ok {
		return nil
	}
	out := make([]float64, len(trail))
	copy(out, trail)
	return out
}

// Len returns the number of bases with at least one score.
func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trails)
}
