package rag

import "testing"

func TestDictionarySpellerCorrect(t *testing.T) {
	s := NewDictionarySpeller()
	s.Train([]string{"machinery", "regulation", "Safety", "2023", ""})

	if s.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", s.Size())
	}

	if _, ok := s.Correct("machinery"); ok {
		t.Error("known word should not be corrected")
	}
	if _, ok := s.Correct("SAFETY"); ok {
		t.Error("lookup should be case-insensitive")
	}

	got, ok := s.Correct("achinery")
	if !ok || got != "machinery" {
		t.Errorf("Correct(achinery) = %q, %v; want machinery, true", got, ok)
	}

	if _, ok := s.Correct("zzzzqqq"); ok {
		t.Error("no suggestion expected for unrelated word")
	}
}

func TestDictionarySpellerTrainTextKeepsFragmentsUnknown(t *testing.T) {
	s := NewDictionarySpeller()
	s.TrainVocabulary("collaborative robot assessment")
	s.TrainText("ollaborative robots require risk assessment.")

	if s.Size() != 3 {
		t.Errorf("Size() = %d, want 3; corpus text must not add vocabulary", s.Size())
	}
	if got, ok := s.Correct("ollaborative"); !ok || got != "collaborative" {
		t.Errorf("Correct(ollaborative) = %q, %v; want collaborative, true", got, ok)
	}
	if _, ok := s.Correct("require"); ok {
		t.Error("word outside the vocabulary with no close match should not be corrected")
	}
}

func TestDictionarySpellerTrainTextWeightsSuggestions(t *testing.T) {
	s := NewDictionarySpeller()
	s.TrainVocabulary("carts parts")
	s.TrainText("Parts are listed. Parts ship daily. Parts wear out.")

	// Both are one edit from "arts"; the corpus makes "parts" the likely one.
	if got, ok := s.Correct("arts"); !ok || got != "parts" {
		t.Errorf("Correct(arts) = %q, %v; want parts, true", got, ok)
	}
}

func TestDictionarySpellerInflections(t *testing.T) {
	s := NewDictionarySpeller()
	s.TrainVocabulary("operator guard use")

	for _, word := range []string{"operators", "guarded", "guarding", "used"} {
		if got, ok := s.Correct(word); ok {
			t.Errorf("Correct(%s) = %q; inflected vocabulary word should be kept", word, got)
		}
	}
}

func TestDictionarySpellerBaseVocabulary(t *testing.T) {
	s := NewDictionarySpeller()
	s.TrainBaseVocabulary()

	if s.Size() == 0 {
		t.Fatal("bundled vocabulary is empty")
	}
	for _, word := range []string{"the", "and", "their", "machinery", "warranty"} {
		if _, ok := s.Correct(word); ok {
			t.Errorf("common word %q should be known", word)
		}
	}
	if got, ok := s.Correct("achinery"); !ok || got != "machinery" {
		t.Errorf("Correct(achinery) = %q, %v; want machinery, true", got, ok)
	}
}

func TestComposeRepairsFragmentPresentInCorpus(t *testing.T) {
	text := "achinery must be guarded at all times. Operators need training before use."

	s := NewDictionarySpeller()
	s.TrainVocabulary("machinery hazards safety must be regulation")
	s.TrainText(text)

	got := NewComposer(s).Compose(RankedList{{Text: text, Score: 1}}, 3)

	if got.Answer == nil {
		t.Fatal("expected an answer")
	}
	want := "Machinery must be guarded at all times. Operators need training before use."
	if *got.Answer != want {
		t.Errorf("answer = %q, want %q", *got.Answer, want)
	}
}
