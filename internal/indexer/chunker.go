package indexer

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// DefaultChunkSize is the maximum runes per chunk.
	DefaultChunkSize = 400
	// DefaultChunkOverlap is the number of runes carried into the next window.
	DefaultChunkOverlap = 50

	minViableChunkSize = 50
)

// DefaultSeparators is the ingestion split priority, highest first.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", ": ", "•", "• ", " - ", ", "}

// ErrInvalidChunkParams is returned when chunk size or overlap are unusable.
var ErrInvalidChunkParams = errors.New("invalid chunk parameters")

// Splitter cuts plain text into overlapping windows that prefer to end on a
// separator. Sizes are measured in runes.
type Splitter struct {
	ChunkSize  int
	Overlap    int
	Separators []string
}

// NewSplitter creates a splitter. A nil separators slice means hard cuts only.
func NewSplitter(chunkSize, overlap int, separators []string) (*Splitter, error) {
	s := &Splitter{ChunkSize: chunkSize, Overlap: overlap, Separators: separators}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Splitter) validate() error {
	if s.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidChunkParams, s.ChunkSize)
	}
	if s.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidChunkParams, s.Overlap)
	}
	if s.Overlap >= s.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidChunkParams, s.Overlap, s.ChunkSize)
	}
	return nil
}

// Split returns the chunks of text in order. Each chunk is trimmed and at most
// ChunkSize runes long; consecutive windows leave no gaps.
func (s *Splitter) Split(text string) ([]string, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) <= s.ChunkSize {
		if trimmed == "" {
			return []string{}, nil
		}
		return []string{trimmed}, nil
	}

	runes := []rune(text)
	seps := make([][]rune, 0, len(s.Separators))
	for _, sep := range s.Separators {
		if sep != "" {
			seps = append(seps, []rune(sep))
		}
	}

	minSize := s.minViableSize()
	n := len(runes)
	chunks := []string{}
	emit := func(from, to int) {
		chunk := strings.TrimSpace(string(runes[from:to]))
		if len([]rune(chunk)) >= minSize && chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	start := 0
	for start < n {
		if start+s.ChunkSize >= n {
			emit(start, n)
			break
		}

		end := start + s.ChunkSize
		split := end
		for _, sep := range seps {
			if idx := lastIndexInWindow(runes, sep, start, end); idx != -1 {
				split = idx + len(sep)
				break
			}
		}

		emit(start, split)

		if next := split - s.Overlap; next > start {
			start = next
		} else {
			start = split
		}
	}

	return chunks, nil
}

// minViableSize is max(50, size/8), clamped to size/2 so small windows still
// produce chunks.
func (s *Splitter) minViableSize() int {
	return min(max(minViableChunkSize, s.ChunkSize/8), s.ChunkSize/2)
}

// lastIndexInWindow returns the right-most index i of sep with
// start < i and i+len(sep) <= end, or -1.
func lastIndexInWindow(text, sep []rune, start, end int) int {
	for i := end - len(sep); i > start; i-- {
		if slices.Equal(text[i:i+len(sep)], sep) {
			return i
		}
	}
	return -1
}
