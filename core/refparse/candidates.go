package refparse

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/scriptref/core/bookalias"
	"github.com/FocuswithJustin/scriptref/core/versification"
)

var (
	reColonPair   = regexp.MustCompile(`(\d+)\s*:\s*(\d+)`)
	reSingleToken = regexp.MustCompile(`(?i)^((?:[1-3]|i{1,3})?[a-z]+)(\d+)$`)
	reBookLike    = regexp.MustCompile(`(?i)^(?:[1-3](?:st|nd|rd)?|i{1,3}|[a-z][a-z.']*)$`)
	reComplex     = regexp.MustCompile(`[;,\-–—]`)
)

// accumulator collects candidates for one call. It is never shared.
type accumulator struct {
	e     *Engine
	index map[string]int
	out   []Candidate
}

// add admits a reading if it exists. A repeated key keeps the higher confidence.
func (a *accumulator) add(ref Reference, reason Reason, confidence float64) {
	if !a.e.table.IsValid(ref.Book, ref.Chapter, ref.Verse) {
		return
	}
	key := a.e.Key(ref)
	if i, ok := a.index[key]; ok {
		if confidence > a.out[i].Confidence {
			a.out[i].Reason = reason
			a.out[i].Confidence = confidence
		}
		return
	}
	a.index[key] = len(a.out)
	a.out = append(a.out, Candidate{Key: key, Ref: ref, Reason: reason, Confidence: confidence})
}

func (a *accumulator) sorted() []Candidate {
	sort.SliceStable(a.out, func(i, j int) bool {
		return a.out[i].Confidence > a.out[j].Confidence
	})
	return a.out
}

// Candidates enumerates every valid reading of a single reference, ranked by
// confidence. Invalid readings are dropped. An input no reading fits returns
// nil.
//
// Candidates is more permissive than Parse. "Book N" always offers Book 1:1
// as an alternative, so for a single-chapter book "Jude 3" yields Jude.1:1
// (ReasonAltInference) and Best returns it, while ParseKeys("Jude 3") is
// empty because Jude has no chapter 3.
func (e *Engine) Candidates(input string) []Candidate {
	s := clean(input)
	if s == "" {
		return nil
	}
	acc := &accumulator{e: e, index: make(map[string]int)}

	if !reComplex.MatchString(s) && !strings.Contains(s, ".") {
		tokens := strings.Fields(e.spaceForm(s))
		if e.spacedCandidates(acc, tokens) || e.compactCandidates(acc, tokens) {
			return acc.sorted()
		}
	}

	if pieces := e.Parse(input); len(pieces) > 0 {
		acc.add(pieces[0].Start, ReasonFallback, ConfidenceFallback)
	}
	return acc.sorted()
}

// spaceForm rewrites "jn3 16" and "jn 3:16" as space separated tokens.
func (e *Engine) spaceForm(s string) string {
	if m := reHybrid.FindStringSubmatch(s); m != nil && len(e.resolver.Aliases().Lookup(m[1]+m[2])) == 0 {
		s = m[1] + " " + m[2] + " " + m[3]
	}
	return reColonPair.ReplaceAllString(s, "$1 $2")
}

// spacedCandidates handles "book ch v" and "book ch". It reports whether the
// tokens had one of those shapes.
func (e *Engine) spacedCandidates(acc *accumulator, tokens []string) bool {
	n := len(tokens)
	switch {
	case n >= 3 && allDigits(tokens[n-1]) && allDigits(tokens[n-2]) && bookLike(tokens[:n-2]):
		ch, _ := strconv.Atoi(tokens[n-2])
		v, _ := strconv.Atoi(tokens[n-1])
		m, ok := e.resolver.Resolve(strings.Join(tokens[:n-2], " "), e.hint(ch, v))
		if !ok {
			return true
		}
		acc.add(Reference{Book: m.Book, Chapter: ch, Verse: v}, ReasonSpacePrimary, ConfidenceSpacePrimary)
		if ch >= 10 && ch%10 > 0 {
			acc.add(Reference{Book: m.Book, Chapter: ch / 10, Verse: ch % 10}, ReasonSpaceAlt, ConfidenceSpaceAlt)
		}
		return true
	case n >= 2 && allDigits(tokens[n-1]) && bookLike(tokens[:n-1]):
		ch, _ := strconv.Atoi(tokens[n-1])
		m, ok := e.resolver.Resolve(strings.Join(tokens[:n-1], " "), e.hint(ch, 1))
		if !ok {
			return true
		}
		acc.add(Reference{Book: m.Book, Chapter: ch, Verse: 1}, ReasonChapterOnly, ConfidenceChapterOnly)
		acc.add(Reference{Book: m.Book, Chapter: 1, Verse: 1}, ReasonAltInference, ConfidenceAltInference)
		return true
	}
	return false
}

// compactCandidates handles a single glued token such as "jn316". Every book
// the token may name contributes its readings.
func (e *Engine) compactCandidates(acc *accumulator, tokens []string) bool {
	if len(tokens) != 1 {
		return false
	}
	m := reSingleToken.FindStringSubmatch(tokens[0])
	if m == nil || len(m[2]) > maxDigitRun {
		return false
	}
	books, _ := e.compactBooks(m[1])
	digits := m[2]
	whole, _ := strconv.Atoi(digits)
	for _, b := range books {
		if e.table.HasChapter(b, whole) {
			acc.add(Reference{Book: b, Chapter: whole, Verse: 1}, ReasonChapterOnly, ConfidenceChapterOnly)
			acc.add(Reference{Book: b, Chapter: 1, Verse: 1}, ReasonAltInference, ConfidenceAltInference)
		} else {
			acc.add(Reference{Book: b, Chapter: whole, Verse: 1}, ReasonCompact, ConfidenceCompactWhole)
		}
		for _, sp := range splits(digits) {
			confidence := ConfidenceCompactSplit
			if len(digits) >= 3 && sp.at == 1 {
				confidence = ConfidenceCompactPrimary
			}
			acc.add(Reference{Book: b, Chapter: sp.chapter, Verse: sp.verse}, ReasonCompact, confidence)
		}
	}
	return len(books) > 0
}

func (e *Engine) hint(chapter, verse int) bookalias.Hint {
	return bookalias.Hint{Chapter: chapter, Verse: verse, PreferNT: e.opts.PreferNewTestament}
}

// bookLike reports whether tokens could spell a book name.
func bookLike(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	letters := false
	for _, t := range tokens {
		if !reBookLike.MatchString(t) {
			return false
		}
		if !allDigits(t) {
			letters = true
		}
	}
	return letters
}

// BestKey returns the canonical key of the best reading of input.
func (e *Engine) BestKey(input string) (string, bool) {
	cands := e.Candidates(input)
	if len(cands) == 0 {
		return "", false
	}
	return cands[0].Key, true
}

// Books returns the books of the engine's table in canonical order.
func (e *Engine) Books() []versification.Book {
	return e.table.Books()
}
