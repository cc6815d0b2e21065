package rag

// DefaultDistanceThreshold is the baseline cutoff used when none is configured.
const DefaultDistanceThreshold = 0.6

// FilterByDistance keeps candidates whose distance is at or below threshold.
// Survivors keep their input order. When nothing survives the returned batch
// is empty but well-formed, which callers treat as "no confident answer".
func FilterByDistance(batch Batch, threshold float64) Batch {
	kept := make([]SearchResult, 0, len(batch.Results))
	for _, r := range batch.Results {
		if r.Distance <= threshold {
			kept = append(kept, r)
		}
	}
	return Batch{Results: kept}
}
