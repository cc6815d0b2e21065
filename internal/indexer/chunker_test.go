package indexer

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewSplitter_InvalidParams(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{name: "zero size", chunkSize: 0, overlap: 0},
		{name: "negative size", chunkSize: -5, overlap: 0},
		{name: "negative overlap", chunkSize: 10, overlap: -1},
		{name: "overlap equals size", chunkSize: 10, overlap: 10},
		{name: "overlap above size", chunkSize: 10, overlap: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSplitter(tt.chunkSize, tt.overlap, DefaultSeparators)
			if !errors.Is(err, ErrInvalidChunkParams) {
				t.Errorf("NewSplitter() error = %v, want ErrInvalidChunkParams", err)
			}

			s := &Splitter{ChunkSize: tt.chunkSize, Overlap: tt.overlap}
			if _, err := s.Split("some text"); !errors.Is(err, ErrInvalidChunkParams) {
				t.Errorf("Split() error = %v, want ErrInvalidChunkParams", err)
			}
		})
	}
}

func TestSplitter_Split(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		chunkSize  int
		overlap    int
		separators []string
		want       []string
	}{
		{
			name:       "short text is trimmed",
			text:       "  hello world \n",
			chunkSize:  20,
			overlap:    5,
			separators: DefaultSeparators,
			want:       []string{"hello world"},
		},
		{
			name:       "whitespace only",
			text:       " \n\t ",
			chunkSize:  20,
			overlap:    5,
			separators: DefaultSeparators,
			want:       []string{},
		},
		{
			name:       "sentence separators with overlap",
			text:       "A. B. C. D.",
			chunkSize:  5,
			overlap:    2,
			separators: []string{". "},
			want:       []string{"A.", ". B.", ". C.", ". D."},
		},
		{
			name:      "hard cut without separators",
			text:      "abcdefghij",
			chunkSize: 4,
			overlap:   1,
			want:      []string{"abcd", "defg", "ghij"},
		},
		{
			name:       "higher priority separator wins over a later one",
			text:       "aaaa bbbb\n\ncc. dd ee ff gg",
			chunkSize:  16,
			overlap:    0,
			separators: []string{"\n\n", ". "},
			want:       []string{"aaaa bbbb", "cc. dd ee ff gg"},
		},
		{
			name:       "short remainder is dropped",
			text:       strings.Repeat("a", 95) + ". tail end",
			chunkSize:  100,
			overlap:    10,
			separators: []string{". "},
			want:       []string{strings.Repeat("a", 95) + "."},
		},
		{
			name:      "sizes count runes",
			text:      "ééééééééé",
			chunkSize: 3,
			overlap:   0,
			want:      []string{"ééé", "ééé", "ééé"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSplitter(tt.chunkSize, tt.overlap, tt.separators)
			if err != nil {
				t.Fatalf("NewSplitter() unexpected error: %v", err)
			}
			got, err := s.Split(tt.text)
			if err != nil {
				t.Fatalf("Split() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitter_Split_Properties(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("The committee reviewed the annual budget in detail. ")
		if i%7 == 0 {
			b.WriteString("\n\n")
		}
		if i%5 == 0 {
			b.WriteString("Members asked: what changed? ")
		}
	}
	text := b.String()

	s, err := NewSplitter(200, 30, DefaultSeparators)
	if err != nil {
		t.Fatalf("NewSplitter() unexpected error: %v", err)
	}

	first, err := s.Split(text)
	if err != nil {
		t.Fatalf("Split() unexpected error: %v", err)
	}
	if len(first) < 2 {
		t.Fatalf("expected several chunks, got %d", len(first))
	}

	for i, chunk := range first {
		if n := utf8.RuneCountInString(chunk); n > 200 {
			t.Errorf("chunk %d has %d runes, want <= 200", i, n)
		}
		if chunk != strings.TrimSpace(chunk) {
			t.Errorf("chunk %d is not trimmed: %q", i, chunk)
		}
		if !strings.Contains(text, chunk) {
			t.Errorf("chunk %d is not a substring of the input: %q", i, chunk)
		}
	}

	second, err := s.Split(text)
	if err != nil {
		t.Fatalf("Split() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Split() is not deterministic")
	}
}

func TestSplitter_minViableSize(t *testing.T) {
	tests := []struct {
		chunkSize int
		want      int
	}{
		{chunkSize: 5, want: 2},
		{chunkSize: 100, want: 50},
		{chunkSize: 400, want: 50},
		{chunkSize: 800, want: 100},
	}

	for _, tt := range tests {
		s := &Splitter{ChunkSize: tt.chunkSize}
		if got := s.minViableSize(); got != tt.want {
			t.Errorf("minViableSize(%d) = %d, want %d", tt.chunkSize, got, tt.want)
		}
	}
}
