// Package segment splits extracted contract text into an ordered sequence of
// clause units, the atomic granule everything downstream scores and projects.
package segment

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Clause is one analyzable unit of contract text.
//
// Start and End are byte offsets into the NFC-normalized document returned
// alongside the clauses; Text == doc[Start:End]. Spans are monotonically
// increasing and never overlap; gaps cover discarded whitespace.
type Clause struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Options controls segmentation behavior.
type Options struct {
	// MinClauseTokens is the minimum whitespace-token count for a clause to
	// stand on its own; shorter fragments are merged into a neighbor.
	MinClauseTokens int
	// MinDocumentLen is the minimum trimmed document length in bytes below
	// which segmentation fails with ErrEmptyDocument.
	MinDocumentLen int
	// WindowTokens is the window width used when the document has no
	// structural markers at all.
	WindowTokens int
}

// DefaultOptions returns the documented segmentation defaults.
func DefaultOptions() Options {
	return Options{
		MinClauseTokens: 4,
		MinDocumentLen:  20,
		WindowTokens:    60,
	}
}

var (
	// Numbered clause starts: "1. ", "2) ", "10.3 ", "7.1.2. " at line start.
	numberedRe = regexp.MustCompile(`(?m)^[ \t]*\d+(\.\d+)*[.)][ \t]`)
	// Section headers: "ARTICLE IV", "Section 12", "Clause 3".
	headerRe = regexp.MustCompile(`(?mi)^[ \t]*(article|section|clause)[ \t]+[0-9ivxlc]+`)
	// Paragraph breaks.
	paraRe = regexp.MustCompile(`\n[ \t]*\n`)
)

// Segment splits text into ordered, non-overlapping clauses.
//
// The document is NFC-normalized first; returned spans index the normalized
// text, which Normalize exposes to callers that need it. Structural markers
// (numbered clauses, section headers, paragraph breaks) drive the split; a
// document with none of them falls back to fixed-size token windows. Fragments
// below the token threshold are merged into the previous clause rather than
// emitted on their own.
func Segment(text string, opts Options) ([]Clause, error) {
	if opts.MinClauseTokens <= 0 {
		opts.MinClauseTokens = DefaultOptions().MinClauseTokens
	}
	if opts.MinDocumentLen <= 0 {
		opts.MinDocumentLen = DefaultOptions().MinDocumentLen
	}
	if opts.WindowTokens <= 0 {
		opts.WindowTokens = DefaultOptions().WindowTokens
	}

	doc := Normalize(text)
	if len(strings.TrimSpace(doc)) < opts.MinDocumentLen {
		return nil, ErrEmptyDocument
	}

	starts := structuralStarts(doc)
	var spans [][2]int
	if len(starts) > 0 {
		spans = spansFromStarts(doc, starts)
	} else {
		spans = windowSpans(doc, opts.WindowTokens)
	}

	clauses := buildClauses(doc, spans, opts.MinClauseTokens)
	if len(clauses) == 0 {
		// Every span was degenerate; the whole trimmed document becomes one clause.
		start, end := trimSpan(doc, 0, len(doc))
		clauses = []Clause{{Index: 0, Text: doc[start:end], Start: start, End: end}}
	}
	return clauses, nil
}

// Normalize returns the NFC-normalized form of text. Clause spans index this
// string, not the raw input.
func Normalize(text string) string {
	return norm.NFC.String(text)
}

// structuralStarts collects sorted, deduplicated offsets where a new clause
// begins: numbered-clause markers, section headers, and paragraph breaks.
// An offset of 0 alone does not count as structure.
func structuralStarts(doc string) []int {
	set := map[int]struct{}{}
	for _, m := range numberedRe.FindAllStringIndex(doc, -1) {
		set[m[0]] = struct{}{}
	}
	for _, m := range headerRe.FindAllStringIndex(doc, -1) {
		set[m[0]] = struct{}{}
	}
	for _, m := range paraRe.FindAllStringIndex(doc, -1) {
		set[m[1]] = struct{}{}
	}
	delete(set, 0)
	if len(set) == 0 {
		return nil
	}
	starts := make([]int, 0, len(set))
	for s := range set {
		starts = append(starts, s)
	}
	sort.Ints(starts)
	return starts
}

// spansFromStarts converts boundary offsets into covering [start,end) spans,
// including the text before the first boundary.
func spansFromStarts(doc string, starts []int) [][2]int {
	var spans [][2]int
	prev := 0
	for _, s := range starts {
		if s > prev {
			spans = append(spans, [2]int{prev, s})
		}
		prev = s
	}
	if prev < len(doc) {
		spans = append(spans, [2]int{prev, len(doc)})
	}
	return spans
}

// windowSpans splits doc into consecutive windows of roughly n tokens each.
// Windows never overlap so clause spans stay disjoint.
func windowSpans(doc string, n int) [][2]int {
	var spans [][2]int
	tokens := 0
	inTok := false
	winStart := 0
	for i, r := range doc {
		if unicode.IsSpace(r) {
			if inTok {
				inTok = false
				tokens++
				if tokens >= n {
					spans = append(spans, [2]int{winStart, i})
					winStart = i
					tokens = 0
				}
			}
			continue
		}
		inTok = true
	}
	if winStart < len(doc) {
		spans = append(spans, [2]int{winStart, len(doc)})
	}
	return spans
}

// buildClauses trims each span, drops pure-whitespace spans, and merges
// under-threshold fragments into the previous clause.
func buildClauses(doc string, spans [][2]int, minTokens int) []Clause {
	var out []Clause
	for _, sp := range spans {
		start, end := trimSpan(doc, sp[0], sp[1])
		if start >= end {
			continue
		}
		text := doc[start:end]
		if len(strings.Fields(text)) < minTokens {
			if len(out) > 0 {
				last := &out[len(out)-1]
				last.End = end
				last.Text = doc[last.Start:last.End]
				continue
			}
			// No previous clause yet; extend into the next span by leaving the
			// fragment as a seed that the next iteration absorbs.
			out = append(out, Clause{Index: len(out), Text: text, Start: start, End: end})
			continue
		}
		// A leading degenerate seed gets absorbed instead of standing alone.
		if len(out) == 1 && len(strings.Fields(out[0].Text)) < minTokens {
			out[0].End = end
			out[0].Text = doc[out[0].Start:out[0].End]
			continue
		}
		out = append(out, Clause{Index: len(out), Text: text, Start: start, End: end})
	}
	// Trailing fragment check: a final clause below threshold merged already;
	// a lone leading seed is handled by the caller's single-clause fallback.
	if len(out) == 1 && len(strings.Fields(out[0].Text)) < minTokens {
		return nil
	}
	return out
}

// trimSpan shrinks [start,end) to exclude surrounding whitespace.
func trimSpan(doc string, start, end int) (int, int) {
	for start < end {
		r := doc[start]
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v' {
			start++
			continue
		}
		break
	}
	for end > start {
		r := doc[end-1]
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v' {
			end--
			continue
		}
		break
	}
	return start, end
}
