package rag

import (
	"reflect"
	"testing"
)

func TestLexicalTokens(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{name: "empty", input: "", expect: nil},
		{name: "stopwords only", input: "the and of", expect: nil},
		{name: "punctuation", input: "Machinery-Regulation (EU) 2023/1230!", expect: []string{"machinery", "regulation", "eu", "2023", "1230"}},
		{name: "single characters dropped", input: "a b c safety", expect: []string{"safety"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lexicalTokens(tt.input)
			if !reflect.DeepEqual(got, tt.expect) {
				t.Errorf("lexicalTokens(%q) = %v, want %v", tt.input, got, tt.expect)
			}
		})
	}
}

func TestBM25ScoresPreferMatchingDocs(t *testing.T) {
	idx := newBM25Index([]string{
		"robot safety requirements for collaborative robots",
		"general product liability rules",
		"robot",
	})

	scores := idx.Scores("robot safety")

	if len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(scores))
	}
	if scores[1] != 0 {
		t.Errorf("non-matching doc scored %f", scores[1])
	}
	if scores[0] <= scores[2] {
		t.Errorf("doc matching both terms should outscore doc matching one: %v", scores)
	}
}

func TestBM25ScoresEmptyQuery(t *testing.T) {
	idx := newBM25Index([]string{"robot safety", "liability"})
	for i, s := range idx.Scores("the of") {
		if s != 0 {
			t.Errorf("score[%d] = %f, want 0", i, s)
		}
	}
}

func TestBM25IDFNonNegative(t *testing.T) {
	idx := newBM25Index([]string{"robot", "robot", "robot"})
	if idf := idx.idf("robot"); idf <= 0 {
		t.Fatalf("idf for term in every doc = %f, want > 0", idf)
	}
}

func TestBM25RepeatedQueryTermsAccumulate(t *testing.T) {
	idx := newBM25Index([]string{"robot arm", "conveyor belt"})
	once := idx.Scores("robot")[0]
	twice := idx.Scores("robot robot")[0]
	if twice <= once {
		t.Fatalf("repeated query term should add weight: once=%f twice=%f", once, twice)
	}
}
