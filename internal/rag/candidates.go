package rag

// Candidates is the input accepted by the composer. It is implemented by
// RankedList (reranker output) and Batch (threshold filter output).
type Candidates interface {
	ranked() []RankedResult
}

// RankedList is an ordered sequence of scored candidates.
type RankedList []RankedResult

func (l RankedList) ranked() []RankedResult {
	return l
}

// ranked converts a batch to scored candidates using 1 - distance as score.
func (b Batch) ranked() []RankedResult {
	sims := b.Similarities()
	out := make([]RankedResult, len(b.Results))
	for i, r := range b.Results {
		out[i] = RankedResult{
			Text:        r.Text,
			Metadata:    r.Metadata,
			Score:       sims[i],
			VectorScore: sims[i],
		}
	}
	return out
}

// Ranked returns c as ordered scored records. A nil c yields an empty slice.
func Ranked(c Candidates) []RankedResult {
	if c == nil {
		return []RankedResult{}
	}
	return c.ranked()
}
