package bookalias

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/FocuswithJustin/scriptref/core/versification"
)

// Fuzzy thresholds. These values are tuned for compatibility with existing
// reference data and are pinned by golden tests.
const (
	// DefaultMaxDistance is the largest edit distance accepted at all.
	DefaultMaxDistance = 3
	// DefaultNTBiasMaxDistance is the largest distance at which short inputs
	// prefer New Testament books over equidistant Old Testament ones.
	DefaultNTBiasMaxDistance = 2
	// DefaultShortInputMaxLen is the longest input considered "short" for the
	// New Testament bias.
	DefaultShortInputMaxLen = 4
)

// FuzzyOptions tunes typo tolerance. Zero fields take the defaults.
type FuzzyOptions struct {
	Disabled          bool
	MaxDistance       int
	NTBiasMaxDistance int
	ShortInputMaxLen  int
}

func (o FuzzyOptions) withDefaults() FuzzyOptions {
	if o.MaxDistance == 0 {
		o.MaxDistance = DefaultMaxDistance
	}
	if o.NTBiasMaxDistance == 0 {
		o.NTBiasMaxDistance = DefaultNTBiasMaxDistance
	}
	if o.ShortInputMaxLen == 0 {
		o.ShortInputMaxLen = DefaultShortInputMaxLen
	}
	return o
}

type fuzzyCandidate struct {
	fuzzyEntry
	prefix bool
}

// FuzzyMatch resolves a misspelled token to a book by Levenshtein distance
// against every alias. Only aliases at the global minimum distance are kept,
// and only when that minimum is within opts.MaxDistance. Ties are broken by
// prefix relation, then a New Testament bias for short near misses or for
// preferNT (both only within opts.NTBiasMaxDistance), then the shortest alias.
func (t *Table) FuzzyMatch(token string, preferNT bool, opts FuzzyOptions) (versification.Book, int, bool) {
	opts = opts.withDefaults()
	if opts.Disabled {
		return versification.NoBook, 0, false
	}
	input := strings.ReplaceAll(Normalize(token), " ", "")
	if !hasLetter(input) {
		return versification.NoBook, 0, false
	}

	best := opts.MaxDistance + 1
	var cands []fuzzyCandidate
	for _, e := range t.fuzzy {
		d := matchr.Levenshtein(input, e.key)
		if d > best || d > opts.MaxDistance {
			continue
		}
		if d < best {
			best = d
			cands = cands[:0]
		}
		cands = append(cands, fuzzyCandidate{
			fuzzyEntry: e,
			prefix:     strings.HasPrefix(e.key, input) || strings.HasPrefix(input, e.key),
		})
	}
	if len(cands) == 0 {
		return versification.NoBook, 0, false
	}

	working := cands
	var prefixed []fuzzyCandidate
	for _, c := range cands {
		if c.prefix {
			prefixed = append(prefixed, c)
		}
	}
	if len(prefixed) > 0 {
		working = prefixed
	}
	if b, ok := singleBook(working); ok {
		return b, best, true
	}

	var nt, ot []fuzzyCandidate
	for _, c := range working {
		if c.book.IsNewTestament() {
			nt = append(nt, c)
		} else {
			ot = append(ot, c)
		}
	}
	if best <= opts.NTBiasMaxDistance && len(nt) > 0 {
		if preferNT || (len(input) <= opts.ShortInputMaxLen && len(ot) > 0) {
			return shortest(nt).book, best, true
		}
	}
	return shortest(working).book, best, true
}

// shortest returns the candidate with the shortest alias, earliest declared
// first on ties.
func shortest(cands []fuzzyCandidate) fuzzyCandidate {
	sorted := append([]fuzzyCandidate(nil), cands...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i].key) != len(sorted[j].key) {
			return len(sorted[i].key) < len(sorted[j].key)
		}
		return sorted[i].order < sorted[j].order
	})
	return sorted[0]
}

func singleBook(cands []fuzzyCandidate) (versification.Book, bool) {
	b := cands[0].book
	for _, c := range cands[1:] {
		if c.book != b {
			return versification.NoBook, false
		}
	}
	return b, true
}

func hasLetter(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'a' && s[i] <= 'z' {
			return true
		}
	}
	return false
}
