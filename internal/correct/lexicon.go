// Package correct implements the deterministic rule-based correction
// pass applied to raw transcript text. The pass is a fixed ordering of
// rewrite stages, each recording the changes it made, so callers get
// full provenance alongside the corrected text.
package correct

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Contraction is one informal-to-expanded rewrite pair.
type Contraction struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Lexicon holds the word catalogues the correction stages match
// against. It is configuration data, not logic: tests and deployments
// can tune the lists without touching the engine.
type Lexicon struct {
	// Fillers are removed outright wherever they appear.
	Fillers []string `yaml:"fillers"`

	// Transitions trigger sentence-boundary inference when they appear
	// mid-sentence surrounded by whitespace.
	Transitions []string `yaml:"transitions"`

	// Contractions are expanded during artifact normalization.
	Contractions []Contraction `yaml:"contractions"`

	// ReviewSegmentLength is the punctuation-delimited segment length
	// above which an advisory review change is recorded.
	ReviewSegmentLength int `yaml:"review_segment_length"`
}

// DefaultLexicon returns the built-in catalogues.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Fillers: []string{
			"um", "umm", "uh", "uhh", "er", "erm", "ah", "hmm", "mmm",
			"you know", "basically", "literally", "actually",
			"sort of", "kind of", "i mean",
		},
		Transitions: []string{
			"however", "therefore", "finally", "moreover", "furthermore",
			"meanwhile", "consequently", "but", "and then", "anyway",
		},
		Contractions: []Contraction{
			{From: "gonna", To: "going to"},
			{From: "wanna", To: "want to"},
			{From: "gotta", To: "got to"},
		},
		ReviewSegmentLength: 100,
	}
}

// LoadLexicon reads a YAML lexicon file. Lists left empty in the file
// fall back to the defaults, so a file can override just one catalogue.
func LoadLexicon(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon file %s: %w", path, err)
	}

	lex := Lexicon{}
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("parse lexicon file %s: %w", path, err)
	}

	def := DefaultLexicon()
	if len(lex.Fillers) == 0 {
		lex.Fillers = def.Fillers
	}
	if len(lex.Transitions) == 0 {
		lex.Transitions = def.Transitions
	}
	if len(lex.Contractions) == 0 {
		lex.Contractions = def.Contractions
	}
	if lex.ReviewSegmentLength <= 0 {
		lex.ReviewSegmentLength = def.ReviewSegmentLength
	}
	return lex, nil
}
