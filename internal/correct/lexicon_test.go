package correct

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLexicon(t *testing.T) {
	lex := DefaultLexicon()

	if len(lex.Fillers) == 0 {
		t.Error("expected non-empty filler catalogue")
	}
	if len(lex.Transitions) == 0 {
		t.Error("expected non-empty transition catalogue")
	}
	if len(lex.Contractions) != 3 {
		t.Errorf("expected 3 contractions, got %d", len(lex.Contractions))
	}
	if lex.ReviewSegmentLength != 100 {
		t.Errorf("expected review segment length 100, got %d", lex.ReviewSegmentLength)
	}
}

func TestLoadLexicon_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := `fillers:
  - um
  - like
review_segment_length: 80
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write lexicon file: %v", err)
	}

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon returned error: %v", err)
	}

	if len(lex.Fillers) != 2 {
		t.Errorf("expected 2 fillers from file, got %d", len(lex.Fillers))
	}
	if lex.ReviewSegmentLength != 80 {
		t.Errorf("expected review segment length 80, got %d", lex.ReviewSegmentLength)
	}
	// Unset catalogues fall back to the defaults.
	if len(lex.Transitions) != len(DefaultLexicon().Transitions) {
		t.Errorf("expected default transitions, got %d", len(lex.Transitions))
	}
	if len(lex.Contractions) != 3 {
		t.Errorf("expected default contractions, got %d", len(lex.Contractions))
	}
}

func TestLoadLexicon_MissingFile(t *testing.T) {
	if _, err := LoadLexicon("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadLexicon_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("fillers: [unclosed"), 0o644); err != nil {
		t.Fatalf("write lexicon file: %v", err)
	}
	if _, err := LoadLexicon(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestEngine_CustomLexicon(t *testing.T) {
	lex := Lexicon{
		Fillers:             []string{"like"},
		Transitions:         []string{"thus"},
		Contractions:        []Contraction{{From: "dunno", To: "do not know"}},
		ReviewSegmentLength: 100,
	}
	e := NewEngine(lex)

	res := e.Apply("like i dunno the answer")
	want := "I do not know the answer."
	if res.Corrected != want {
		t.Errorf("expected %q, got %q", want, res.Corrected)
	}
}
