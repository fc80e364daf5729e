package workspace

// PeakX returns the x of the highest local maximum of ys. A maximum is a
// sample greater than both neighbours; a flat top counts once, at its
// middle sample. Endpoints never qualify. Ties go to the first peak.
func PeakX(xs, ys []float64) (float64, bool) {
	n := len(ys)
	if len(xs) < n {
		n = len(xs)
	}

	best := -1
	for i := 1; i < n-1; i++ {
		if !(ys[i-1] < ys[i]) {
			continue
		}
		ahead := i + 1
		for ahead < n-1 && ys[ahead] == ys[i] {
			ahead++
		}
		if ys[ahead] < ys[i] {
			mid := (i + ahead - 1) / 2
			if best < 0 || ys[mid] > ys[best] {
				best = mid
			}
			i = ahead - 1
		}
	}
	if best < 0 {
		return 0, false
	}
	return xs[best], true
}
