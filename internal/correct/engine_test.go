package correct

import (
	"fmt"
	"strings"
	"testing"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultLexicon())
}

func countCategory(changes []Change, cat Category) int {
	n := 0
	for _, ch := range changes {
		if ch.Category == cat {
			n++
		}
	}
	return n
}

func TestApply_FillerContractionAndCasing(t *testing.T) {
	e := newTestEngine()

	res := e.Apply("um so I think gonna work")

	want := "So I think going to work."
	if res.Corrected != want {
		t.Errorf("expected corrected %q, got %q", want, res.Corrected)
	}
	if res.Original != "um so I think gonna work" {
		t.Errorf("expected original preserved, got %q", res.Original)
	}
	if countCategory(res.Changes, CategoryFiller) != 1 {
		t.Errorf("expected one filler change, got %d", countCategory(res.Changes, CategoryFiller))
	}
	if countCategory(res.Changes, CategoryCasing) != 1 {
		t.Errorf("expected one casing change, got %d", countCategory(res.Changes, CategoryCasing))
	}
	if countCategory(res.Changes, CategoryPunctuation) != 1 {
		t.Errorf("expected one punctuation change, got %d", countCategory(res.Changes, CategoryPunctuation))
	}
	if countCategory(res.Changes, CategoryArtifact) != 1 {
		t.Errorf("expected one artifact change, got %d", countCategory(res.Changes, CategoryArtifact))
	}
}

func TestApply_EmptyInput(t *testing.T) {
	e := newTestEngine()

	res := e.Apply("")

	if res.Corrected != "" {
		t.Errorf("expected empty corrected text, got %q", res.Corrected)
	}
	if len(res.Changes) != 0 {
		t.Errorf("expected no changes for empty input, got %d", len(res.Changes))
	}
}

func TestApply_WhitespaceCollapse(t *testing.T) {
	e := newTestEngine()

	res := e.Apply("hello   world  again")

	want := "Hello world again."
	if res.Corrected != want {
		t.Errorf("expected %q, got %q", want, res.Corrected)
	}
	if countCategory(res.Changes, CategorySpacing) != 2 {
		t.Errorf("expected two spacing changes, got %d", countCategory(res.Changes, CategorySpacing))
	}
}

func TestApply_SentenceBoundaryInsertion(t *testing.T) {
	e := newTestEngine()

	res := e.Apply("we tried it however it failed")

	want := "We tried it. However it failed."
	if res.Corrected != want {
		t.Errorf("expected %q, got %q", want, res.Corrected)
	}
	if countCategory(res.Changes, CategorySentenceBoundary) != 1 {
		t.Errorf("expected one sentence-boundary change, got %d", countCategory(res.Changes, CategorySentenceBoundary))
	}
}

func TestApply_BoundarySkippedAfterPunctuation(t *testing.T) {
	e := newTestEngine()

	res := e.Apply("it was late, but we kept going")

	want := "It was late, but we kept going."
	if res.Corrected != want {
		t.Errorf("expected %q, got %q", want, res.Corrected)
	}
	if countCategory(res.Changes, CategorySentenceBoundary) != 0 {
		t.Errorf("expected no boundary change after clause punctuation, got %d",
			countCategory(res.Changes, CategorySentenceBoundary))
	}
}

func TestApply_MultiWordTransition(t *testing.T) {
	e := newTestEngine()

	res := e.Apply("we ran the tests and then we shipped it")

	want := "We ran the tests. And then we shipped it."
	if res.Corrected != want {
		t.Errorf("expected %q, got %q", want, res.Corrected)
	}
	if countCategory(res.Changes, CategorySentenceBoundary) != 1 {
		t.Errorf("expected one boundary change, got %d", countCategory(res.Changes, CategorySentenceBoundary))
	}
}

func TestApply_TransitionSplitAcrossNewline(t *testing.T) {
	e := newTestEngine()

	// A lone newline inside the phrase must not defeat catalogue lookup.
	res := e.Apply("we ran the tests and\nthen we shipped it")

	want := "We ran the tests. And\nthen we shipped it."
	if res.Corrected != want {
		t.Errorf("expected %q, got %q", want, res.Corrected)
	}
	if countCategory(res.Changes, CategorySentenceBoundary) != 1 {
		t.Errorf("expected one boundary change, got %d", countCategory(res.Changes, CategorySentenceBoundary))
	}
}

func TestApply_RepeatedWordCollapse(t *testing.T) {
	e := newTestEngine()

	res := e.Apply("we review the the results")

	want := "We review the results."
	if res.Corrected != want {
		t.Errorf("expected %q, got %q", want, res.Corrected)
	}
	if countCategory(res.Changes, CategoryArtifact) != 1 {
		t.Errorf("expected one artifact change, got %d", countCategory(res.Changes, CategoryArtifact))
	}
}

func TestApply_PronounCasingWithoutChangeRecord(t *testing.T) {
	e := newTestEngine()

	res := e.Apply("i think i can")

	want := "I think I can."
	if res.Corrected != want {
		t.Errorf("expected %q, got %q", want, res.Corrected)
	}
	// Leading capitalization and the terminal period are recorded; the
	// pronoun rewrite itself is not.
	if countCategory(res.Changes, CategoryCasing) != 1 {
		t.Errorf("expected one casing change, got %d", countCategory(res.Changes, CategoryCasing))
	}
}

func TestApply_ContractionPreservesCase(t *testing.T) {
	e := newTestEngine()

	res := e.Apply("Gonna rain today")

	want := "Going to rain today."
	if res.Corrected != want {
		t.Errorf("expected %q, got %q", want, res.Corrected)
	}
}

func TestApply_SpaceBeforePunctuationRemoved(t *testing.T) {
	e := newTestEngine()

	res := e.Apply("wait , here it comes")

	want := "Wait, here it comes."
	if res.Corrected != want {
		t.Errorf("expected %q, got %q", want, res.Corrected)
	}
	if countCategory(res.Changes, CategoryArtifact) != 1 {
		t.Errorf("expected one artifact change, got %d", countCategory(res.Changes, CategoryArtifact))
	}
}

func TestApply_PostPeriodCapitalization(t *testing.T) {
	e := newTestEngine()

	res := e.Apply("First part. second part")

	want := "First part. Second part."
	if res.Corrected != want {
		t.Errorf("expected %q, got %q", want, res.Corrected)
	}
	if countCategory(res.Changes, CategoryCasing) != 1 {
		t.Errorf("expected one casing change, got %d", countCategory(res.Changes, CategoryCasing))
	}
}

func TestApply_LongSegmentAdvisoryOnly(t *testing.T) {
	e := newTestEngine()

	var b strings.Builder
	for i := 0; i < 40; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "w%d", i)
	}
	text := b.String()

	res := e.Apply(text)

	found := false
	for _, ch := range res.Changes {
		if ch.Category == CategorySentenceBoundary && strings.Contains(ch.Description, "manual review") {
			found = true
		}
	}
	if !found {
		t.Error("expected advisory review change for overlong segment")
	}
	// Advisory only: the text gains casing and a period, nothing else.
	want := "W" + text[1:] + "."
	if res.Corrected != want {
		t.Errorf("expected text unsplit, got %q", res.Corrected)
	}
}

func TestApply_CleanTextUnchanged(t *testing.T) {
	e := newTestEngine()

	in := "This is fine."
	res := e.Apply(in)

	if res.Corrected != in {
		t.Errorf("expected clean text unchanged, got %q", res.Corrected)
	}
	if len(res.Changes) != 0 {
		t.Errorf("expected no changes for clean text, got %d", len(res.Changes))
	}
}

func TestApply_TerminalPunctuationPreserved(t *testing.T) {
	e := newTestEngine()

	for _, in := range []string{"Is it done?", "Ship it!"} {
		res := e.Apply(in)
		if res.Corrected != in {
			t.Errorf("expected %q unchanged, got %q", in, res.Corrected)
		}
	}
}
