package rag

import (
	_ "embed"
	"strings"
	"sync"
	"unicode"

	"github.com/sajari/fuzzy"
)

//go:embed words.txt
var baseWords string

// Speller suggests a correction for a single word. ok is false when the word
// is already known or no suggestion exists.
type Speller interface {
	Correct(word string) (corrected string, ok bool)
}

// DictionarySpeller is a Speller backed by a fuzzy model over a trusted
// vocabulary. Only vocabulary words are known or suggested. Corpus text
// raises the frequency of vocabulary words it contains and never adds new
// ones, so truncated fragments in chunks stay correctable.
type DictionarySpeller struct {
	mu    sync.RWMutex
	model *fuzzy.Model
	known map[string]struct{}
}

// NewDictionarySpeller creates an empty speller. Vocabulary is added with
// Train, TrainVocabulary or TrainBaseVocabulary.
func NewDictionarySpeller() *DictionarySpeller {
	model := fuzzy.NewModel()
	model.SetThreshold(1)
	model.SetDepth(2)
	return &DictionarySpeller{
		model: model,
		known: make(map[string]struct{}),
	}
}

// Train adds words to the vocabulary. Words are lowercased and anything that
// is not purely alphabetic is skipped.
func (s *DictionarySpeller) Train(words []string) {
	clean := cleanWords(words)
	if len(clean) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range clean {
		s.known[w] = struct{}{}
	}
	s.model.Train(clean)
}

// TrainVocabulary adds every word of a word list, such as a dictionary file.
func (s *DictionarySpeller) TrainVocabulary(text string) {
	s.Train(tokenize(text))
}

// TrainBaseVocabulary adds the bundled English word list.
func (s *DictionarySpeller) TrainBaseVocabulary() {
	s.TrainVocabulary(baseWords)
}

// TrainText counts the vocabulary words that occur in corpus text so that
// suggestions favor terms the documents actually use. Words outside the
// vocabulary are ignored.
func (s *DictionarySpeller) TrainText(text string) {
	words := cleanWords(tokenize(text))
	if len(words) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range words {
		if _, ok := s.known[w]; ok {
			s.model.TrainWord(w)
		}
	}
}

// Size returns the number of distinct vocabulary words.
func (s *DictionarySpeller) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.known)
}

// Correct implements Speller.
func (s *DictionarySpeller) Correct(word string) (string, bool) {
	lower := strings.ToLower(word)
	if lower == "" {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.isKnown(lower) {
		return "", false
	}
	suggestion := s.model.SpellCheck(lower)
	if suggestion == "" || suggestion == lower {
		return "", false
	}
	return suggestion, true
}

// inflections are suffixes stripped when looking up a word, so that plurals
// and simple verb forms of vocabulary words are not rewritten.
var inflections = []string{"s", "es", "ed", "d", "ing"}

func (s *DictionarySpeller) isKnown(word string) bool {
	if _, ok := s.known[word]; ok {
		return true
	}
	for _, suffix := range inflections {
		stem, found := strings.CutSuffix(word, suffix)
		if !found || len(stem) < 3 {
			continue
		}
		if _, ok := s.known[stem]; ok {
			return true
		}
	}
	return false
}

func cleanWords(words []string) []string {
	clean := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || !isAlpha(w) {
			continue
		}
		clean = append(clean, w)
	}
	return clean
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
