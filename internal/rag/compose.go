package rag

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultTopN is the number of candidates cited in an answer.
	DefaultTopN = 3
	// DefaultAnswerSentences is the maximum sentences kept per extracted span.
	DefaultAnswerSentences = 2
	// DefaultMinSentenceWords is the minimum words for a sentence to be kept.
	DefaultMinSentenceWords = 4

	unknownChunkID  = "unknown"
	unknownSourceID = "unknown"
	unknownTitle    = "Unknown Document"
)

// Composer turns ranked candidates into a short cited answer.
type Composer struct {
	speller   Speller
	sentences int
	minWords  int
}

// NewComposer creates a composer. speller may be nil, in which case the
// first word is only capitalized.
func NewComposer(speller Speller) *Composer {
	return &Composer{
		speller:   speller,
		sentences: DefaultAnswerSentences,
		minWords:  DefaultMinSentenceWords,
	}
}

// Compose selects the first topN candidates, extracts a short span from each
// and joins them into one compressed answer. Candidate order is preserved.
func (c *Composer) Compose(candidates Candidates, topN int) Composition {
	if topN <= 0 {
		topN = DefaultTopN
	}

	var entries []RankedResult
	if candidates != nil {
		entries = candidates.ranked()
	}
	if len(entries) > topN {
		entries = entries[:topN]
	}
	if len(entries) == 0 {
		return Composition{Citations: []Citation{}, Scores: []float64{}}
	}

	spans := make([]string, 0, len(entries))
	citations := make([]Citation, 0, len(entries))
	scores := make([]float64, 0, len(entries))
	for _, e := range entries {
		span := ExtractAnswer(e.Text, c.sentences, c.minWords)
		spans = append(spans, FixFirstWord(span, c.speller))
		citations = append(citations, newCitation(e.Metadata, e.Score))
		scores = append(scores, e.Score)
	}

	answer := ExtractAnswer(strings.Join(spans, " "), c.sentences, c.minWords)
	return Composition{
		Answer:    &answer,
		Citations: citations,
		Scores:    scores,
	}
}

func newCitation(meta ChunkMetadata, score float64) Citation {
	c := Citation{
		ChunkID:  unknownChunkID,
		SourceID: meta.SourceID,
		Title:    meta.Title,
		URL:      meta.URL,
		Score:    score,
	}
	if meta.ChunkID != 0 {
		c.ChunkID = strconv.FormatInt(meta.ChunkID, 10)
	}
	if c.SourceID == "" {
		c.SourceID = unknownSourceID
	}
	if c.Title == "" {
		c.Title = unknownTitle
	}
	return c
}

// ExtractAnswer keeps up to n sentences of text that have at least minWords
// words each and joins them with a single space.
func ExtractAnswer(text string, n, minWords int) string {
	kept := make([]string, 0, n)
	for _, sentence := range splitSentences(strings.TrimSpace(text)) {
		if len(kept) >= n {
			break
		}
		if len(strings.Fields(sentence)) >= minWords {
			kept = append(kept, strings.TrimSpace(sentence))
		}
	}
	return strings.Join(kept, " ")
}

// splitSentences splits after '.', '?' or '!' when followed by whitespace.
// The whitespace run is consumed; the punctuation stays with its sentence.
func splitSentences(text string) []string {
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !isSentenceEnd(runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		sentences = append(sentences, string(runes[start:i+1]))
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}

// FixFirstWord repairs a first word that looks truncated by upstream text
// extraction, then capitalizes it. Words are rejoined with single spaces.
func FixFirstWord(text string, speller Speller) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	first := words[0]
	r, _ := utf8.DecodeRuneInString(first)
	if speller != nil && unicode.IsLower(r) && utf8.RuneCountInString(first) > 2 {
		if clean := lettersOnly(first); clean != "" {
			if suggestion, ok := speller.Correct(clean); ok {
				words[0] = suggestion
			}
		}
	}

	words[0] = capitalize(words[0])
	return strings.Join(words, " ")
}

func lettersOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
