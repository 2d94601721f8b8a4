package engine

import "math"

// zeroEpsilon is the magnitude below which accumulated totals are
// treated as floating noise and snapped to exactly 0. Repeated
// add/subtract folds otherwise leave residues like 1e-14 in summaries.
const zeroEpsilon = 1e-6

// normalize snaps near-zero noise to exactly 0.
func normalize(v float64) float64 {
	if math.Abs(v) < zeroEpsilon {
		return 0
	}
	return v
}

// percentage computes part/whole forced into [0, 1]. A zero or negative
// denominator yields 0, never NaN.
func percentage(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	p := part / whole
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return normalize(p)
}
