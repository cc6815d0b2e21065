package rag

// Normalize rescales scores into [0,1] with min-max normalization.
// When every score is equal the result is all 1.0, so uniformly scored
// candidates count as fully relevant instead of irrelevant.
func Normalize(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	minV, maxV := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < minV {
			minV = s
		}
		if s > maxV {
			maxV = s
		}
	}

	if maxV == minV {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}

	span := maxV - minV
	for i, s := range scores {
		out[i] = (s - minV) / span
	}
	return out
}
