package correct

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Category classifies a recorded change.
type Category string

const (
	CategoryFiller           Category = "filler-removal"
	CategorySpacing          Category = "spacing"
	CategoryCasing           Category = "casing"
	CategorySentenceBoundary Category = "sentence-boundary"
	CategoryPunctuation      Category = "punctuation"
	// CategoryArtifact covers contraction expansion, repeated-word
	// collapse and punctuation spacing fixes from the final stage.
	CategoryArtifact Category = "artifact"
)

// Change records one applied correction. Offset is the character
// position in the text as the stage received it (each stage operates on
// the output of the previous one).
type Change struct {
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Offset      int      `json:"offset"`
}

// Result is the outcome of one correction pass. Immutable once produced.
type Result struct {
	Original  string   `json:"original"`
	Corrected string   `json:"corrected"`
	Changes   []Change `json:"changes"`
}

// sentence-ending or clause punctuation that suppresses boundary
// inference when it already precedes a transition word.
const clausePunct = ".!?,;:"

// Engine runs the correction stages with catalogues compiled from a
// Lexicon. Stateless after construction and safe for concurrent use.
type Engine struct {
	lex           Lexicon
	fillerRe      *regexp.Regexp
	runRe         *regexp.Regexp
	wordRe        *regexp.Regexp
	postPeriodRe  *regexp.Regexp
	pronounRe     *regexp.Regexp
	prePunctRe    *regexp.Regexp
	postPunctRe   *regexp.Regexp
	contractions  []compiledContraction
	transitions   map[string]bool
	maxTransWords int
}

type compiledContraction struct {
	re *regexp.Regexp
	c  Contraction
}

// NewEngine compiles the stage machinery for the given lexicon.
func NewEngine(lex Lexicon) *Engine {
	e := &Engine{
		lex:          lex,
		fillerRe:     regexp.MustCompile(`(?i)\b(?:` + alternation(lex.Fillers) + `)\b`),
		runRe:        regexp.MustCompile(`\s{2,}`),
		wordRe:       regexp.MustCompile(`\S+`),
		postPeriodRe: regexp.MustCompile(`\.(\s+)(\p{Ll})`),
		pronounRe:    regexp.MustCompile(`\bi\b`),
		prePunctRe:   regexp.MustCompile(`(\s+)([,.])`),
		postPunctRe:  regexp.MustCompile(`([,.])(\s{2,})`),
		transitions:  make(map[string]bool, len(lex.Transitions)),
	}
	for _, t := range lex.Transitions {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		e.transitions[t] = true
		if n := len(strings.Fields(t)); n > e.maxTransWords {
			e.maxTransWords = n
		}
	}
	for _, c := range lex.Contractions {
		if c.From == "" || c.To == "" {
			continue
		}
		e.contractions = append(e.contractions, compiledContraction{
			re: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(c.From) + `\b`),
			c:  c,
		})
	}
	return e
}

// Apply runs all stages in their fixed order and returns the corrected
// text with change provenance. Pure: no state survives the call.
//
// The pass aims for stability but is not guaranteed idempotent; a
// second application can occasionally record further changes (for
// example a sentence break inserted by stage 3 exposes new casing work
// to stage 4 on a rerun).
func (e *Engine) Apply(text string) Result {
	original := text
	changes := make([]Change, 0, 8)

	if text == "" {
		return Result{Original: original, Corrected: "", Changes: changes}
	}

	text = e.removeFillers(text, &changes)
	text = e.collapseWhitespace(text, &changes)
	text = e.inferSentenceBoundaries(text, &changes)
	e.flagLongSegments(text, &changes)
	text = e.capitalizeAfterPeriods(text, &changes)
	text = capitalizeLeading(text, &changes)
	text = e.pronounRe.ReplaceAllString(text, "I")
	text = appendTerminalPunctuation(text, &changes)
	text = e.normalizeArtifacts(text, &changes)

	return Result{Original: original, Corrected: strings.TrimSpace(text), Changes: changes}
}

// removeFillers strips every catalogue match. A space adjacent to the
// removed token is swallowed with it so the deletion does not leave a
// doubled or leading gap.
func (e *Engine) removeFillers(text string, changes *[]Change) string {
	matches := e.fillerRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		*changes = append(*changes, Change{
			Category:    CategoryFiller,
			Description: fmt.Sprintf("removed filler %q", text[start:end]),
			Offset:      start,
		})
		b.WriteString(text[last:start])
		atBoundary := start == 0 || isSpace(text[start-1])
		if atBoundary && end < len(text) && isSpace(text[end]) {
			end++
		}
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

func (e *Engine) collapseWhitespace(text string, changes *[]Change) string {
	runs := e.runRe.FindAllStringIndex(text, -1)
	if len(runs) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range runs {
		*changes = append(*changes, Change{
			Category:    CategorySpacing,
			Description: fmt.Sprintf("collapsed whitespace run of %d", m[1]-m[0]),
			Offset:      m[0],
		})
		b.WriteString(text[last:m[0]])
		b.WriteByte(' ')
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// inferSentenceBoundaries inserts a period before a transition word and
// capitalizes it, when the word sits surrounded by whitespace and the
// preceding text does not already end in sentence or clause punctuation.
func (e *Engine) inferSentenceBoundaries(text string, changes *[]Change) string {
	words := e.wordRe.FindAllStringIndex(text, -1)
	if len(words) < 2 {
		return text
	}

	type edit struct {
		insertAt int // end of the previous word: the period goes here
		capAt    int // start of the transition word to capitalize
	}
	var edits []edit

	for k := 1; k < len(words); {
		matched := 0
		for n := e.maxTransWords; n >= 1; n-- {
			if k+n > len(words) {
				continue
			}
			phrase := strings.ToLower(text[words[k][0]:words[k+n-1][1]])
			phrase = strings.Join(strings.Fields(phrase), " ")
			if e.transitions[phrase] {
				matched = n
				break
			}
		}
		if matched == 0 {
			k++
			continue
		}

		phraseEnd := words[k+matched-1][1]
		prevEnd := words[k-1][1]
		prevLast := text[prevEnd-1]
		followedBySpace := phraseEnd < len(text) && isSpace(text[phraseEnd])
		if followedBySpace && !strings.ContainsRune(clausePunct, rune(prevLast)) {
			edits = append(edits, edit{insertAt: prevEnd, capAt: words[k][0]})
			*changes = append(*changes, Change{
				Category:    CategorySentenceBoundary,
				Description: fmt.Sprintf("inserted sentence break before %q", text[words[k][0]:phraseEnd]),
				Offset:      words[k][0],
			})
		}
		k += matched
	}

	if len(edits) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, ed := range edits {
		b.WriteString(text[last:ed.insertAt])
		b.WriteByte('.')
		b.WriteString(text[ed.insertAt:ed.capAt])
		r, size := utf8.DecodeRuneInString(text[ed.capAt:])
		b.WriteRune(unicode.ToUpper(r))
		last = ed.capAt + size
	}
	b.WriteString(text[last:])
	return b.String()
}

// flagLongSegments records advisory review changes for overlong
// punctuation-delimited segments. No text is mutated.
func (e *Engine) flagLongSegments(text string, changes *[]Change) {
	threshold := e.lex.ReviewSegmentLength
	if threshold <= 0 {
		threshold = DefaultLexicon().ReviewSegmentLength
	}

	segStart := 0
	flush := func(end int) {
		seg := strings.TrimSpace(text[segStart:end])
		if utf8.RuneCountInString(seg) > threshold {
			*changes = append(*changes, Change{
				Category:    CategorySentenceBoundary,
				Description: fmt.Sprintf("segment of %d characters may need manual review", utf8.RuneCountInString(seg)),
				Offset:      segStart,
			})
		}
	}
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			flush(i)
			segStart = i + 1
		}
	}
	flush(len(text))
}

func (e *Engine) capitalizeAfterPeriods(text string, changes *[]Change) string {
	matches := e.postPeriodRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		letterStart, letterEnd := m[4], m[5]
		b.WriteString(text[last:letterStart])
		r, _ := utf8.DecodeRuneInString(text[letterStart:letterEnd])
		b.WriteRune(unicode.ToUpper(r))
		last = letterEnd
		*changes = append(*changes, Change{
			Category:    CategoryCasing,
			Description: fmt.Sprintf("capitalized %q after sentence end", text[letterStart:letterEnd]),
			Offset:      letterStart,
		})
	}
	b.WriteString(text[last:])
	return b.String()
}

func capitalizeLeading(text string, changes *[]Change) string {
	trimmed := strings.TrimLeft(text, " \t\n")
	r, size := utf8.DecodeRuneInString(trimmed)
	if r == utf8.RuneError || !unicode.IsLower(r) {
		return trimmed
	}
	*changes = append(*changes, Change{
		Category:    CategoryCasing,
		Description: "capitalized leading character",
		Offset:      0,
	})
	return string(unicode.ToUpper(r)) + trimmed[size:]
}

func appendTerminalPunctuation(text string, changes *[]Change) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return trimmed
	}
	last, _ := utf8.DecodeLastRuneInString(trimmed)
	if last == '.' || last == '!' || last == '?' {
		return trimmed
	}
	*changes = append(*changes, Change{
		Category:    CategoryPunctuation,
		Description: "appended terminal period",
		Offset:      len(trimmed),
	})
	return trimmed + "."
}

// normalizeArtifacts expands informal contractions, collapses
// immediately repeated words, and tidies spacing around commas and
// periods.
func (e *Engine) normalizeArtifacts(text string, changes *[]Change) string {
	for _, cc := range e.contractions {
		text = e.expandContraction(text, cc, changes)
	}
	text = e.collapseRepeatedWords(text, changes)
	text = e.fixPunctuationSpacing(text, changes)
	return text
}

func (e *Engine) expandContraction(text string, cc compiledContraction, changes *[]Change) string {
	matches := cc.re.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		repl := cc.c.To
		if r, size := utf8.DecodeRuneInString(text[m[0]:]); unicode.IsUpper(r) && size > 0 {
			first, fsize := utf8.DecodeRuneInString(repl)
			repl = string(unicode.ToUpper(first)) + repl[fsize:]
		}
		b.WriteString(repl)
		last = m[1]
		*changes = append(*changes, Change{
			Category:    CategoryArtifact,
			Description: fmt.Sprintf("expanded %q to %q", text[m[0]:m[1]], cc.c.To),
			Offset:      m[0],
		})
	}
	b.WriteString(text[last:])
	return b.String()
}

func (e *Engine) collapseRepeatedWords(text string, changes *[]Change) string {
	words := e.wordRe.FindAllStringIndex(text, -1)
	if len(words) < 2 {
		return text
	}

	var b strings.Builder
	last := 0
	prev := strings.ToLower(text[words[0][0]:words[0][1]])
	for k := 1; k < len(words); k++ {
		tok := strings.ToLower(text[words[k][0]:words[k][1]])
		if tok == prev {
			b.WriteString(text[last:words[k-1][1]])
			last = words[k][1]
			*changes = append(*changes, Change{
				Category:    CategoryArtifact,
				Description: fmt.Sprintf("collapsed repeated word %q", text[words[k][0]:words[k][1]]),
				Offset:      words[k][0],
			})
			continue
		}
		prev = tok
	}
	b.WriteString(text[last:])
	return b.String()
}

func (e *Engine) fixPunctuationSpacing(text string, changes *[]Change) string {
	if m := e.prePunctRe.FindAllStringSubmatchIndex(text, -1); len(m) > 0 {
		var b strings.Builder
		last := 0
		for _, sm := range m {
			b.WriteString(text[last:sm[2]])
			b.WriteString(text[sm[4]:sm[5]])
			last = sm[1]
			*changes = append(*changes, Change{
				Category:    CategoryArtifact,
				Description: "removed space before punctuation",
				Offset:      sm[2],
			})
		}
		b.WriteString(text[last:])
		text = b.String()
	}

	if m := e.postPunctRe.FindAllStringSubmatchIndex(text, -1); len(m) > 0 {
		var b strings.Builder
		last := 0
		for _, sm := range m {
			b.WriteString(text[last:sm[3]])
			b.WriteByte(' ')
			last = sm[1]
			*changes = append(*changes, Change{
				Category:    CategoryArtifact,
				Description: "collapsed spacing after punctuation",
				Offset:      sm[4],
			})
		}
		b.WriteString(text[last:])
		text = b.String()
	}
	return text
}

func alternation(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	// Longest first so multi-word entries win over their prefixes.
	sort.Slice(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	if len(quoted) == 0 {
		return `\x00`
	}
	return strings.Join(quoted, "|")
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
