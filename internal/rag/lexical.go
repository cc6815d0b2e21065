package rag

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

var lexicalStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "with": {},
}

// bm25Index is a BM25 index over a small, fixed set of documents.
// It is built per request over the candidate pool only.
type bm25Index struct {
	termFreqs []map[string]int
	docLens   []int
	docFreq   map[string]int
	avgDocLen float64
}

func newBM25Index(docs []string) *bm25Index {
	idx := &bm25Index{
		termFreqs: make([]map[string]int, len(docs)),
		docLens:   make([]int, len(docs)),
		docFreq:   make(map[string]int),
	}

	var totalLen int
	for i, doc := range docs {
		tokens := lexicalTokens(doc)
		freqs := make(map[string]int, len(tokens))
		for _, token := range tokens {
			freqs[token]++
		}
		for token := range freqs {
			idx.docFreq[token]++
		}
		idx.termFreqs[i] = freqs
		idx.docLens[i] = len(tokens)
		totalLen += len(tokens)
	}

	if len(docs) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(docs))
	}
	return idx
}

// idf uses the Lucene variant, which never goes negative.
func (idx *bm25Index) idf(term string) float64 {
	n := float64(len(idx.docLens))
	df := float64(idx.docFreq[term])
	return math.Log(1 + (n-df+0.5)/(df+0.5))
}

// Scores returns the BM25 score of query against every indexed document,
// in document order.
func (idx *bm25Index) Scores(query string) []float64 {
	scores := make([]float64, len(idx.docLens))
	queryTokens := lexicalTokens(query)
	if len(queryTokens) == 0 || idx.avgDocLen == 0 {
		return scores
	}

	for _, term := range queryTokens {
		if idx.docFreq[term] == 0 {
			continue
		}
		idf := idx.idf(term)
		for i, freqs := range idx.termFreqs {
			tf := float64(freqs[term])
			if tf == 0 {
				continue
			}
			lengthNorm := bm25K1 * ((1 - bm25B) + bm25B*float64(idx.docLens[i])/idx.avgDocLen)
			scores[i] += idf * tf / (lengthNorm + tf)
		}
	}
	return scores
}

// lexicalTokens lowercases, splits on non-alphanumerics, and drops
// stopwords and single-character tokens.
func lexicalTokens(text string) []string {
	return filterStopwords(tokenize(text))
}

func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	tokens := strings.Fields(builder.String())
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

func filterStopwords(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if utf8.RuneCountInString(token) < 2 {
			continue
		}
		if _, isStop := lexicalStopwords[token]; isStop {
			continue
		}
		result = append(result, token)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
