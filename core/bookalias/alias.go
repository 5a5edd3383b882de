// Package bookalias maps free-text book names and abbreviations to books.
//
// Resolution tries an exact lookup against the alias table first. Aliases
// shared by several books are disambiguated with a chapter/verse hint, and
// tokens with no exact match fall back to edit-distance matching.
package bookalias

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/FocuswithJustin/scriptref/core/errors"
	"github.com/FocuswithJustin/scriptref/core/versification"
)

// Entry binds one alias to one book.
type Entry struct {
	Alias string
	Book  versification.Book
}

type fuzzyEntry struct {
	key   string // normalized alias without spaces
	book  versification.Book
	order int
}

// Table is an immutable alias table. It is safe for concurrent use.
type Table struct {
	entries []Entry
	exact   map[string][]versification.Book
	fuzzy   []fuzzyEntry
	byBook  map[versification.Book][]string
}

// New builds a Table from entries in declaration order. Aliases are
// normalized; an alias that normalizes to the empty string is rejected.
// Every book's canonical tag is added as an alias when entries omit it.
func New(entries []Entry) (*Table, error) {
	t := &Table{
		exact:  make(map[string][]versification.Book),
		byBook: make(map[versification.Book][]string),
	}
	seen := make(map[Entry]bool)
	add := func(alias string, b versification.Book) error {
		if !b.Valid() {
			return errors.NewValidation("book", "unknown book for alias "+alias)
		}
		key := Normalize(alias)
		if key == "" {
			return errors.NewValidation("alias", "alias "+alias+" is empty after normalization")
		}
		e := Entry{Alias: key, Book: b}
		if seen[e] {
			return nil
		}
		seen[e] = true
		t.entries = append(t.entries, e)
		t.index(key, b)
		if spaceless := strings.ReplaceAll(key, " ", ""); spaceless != key {
			t.index(spaceless, b)
		}
		t.byBook[b] = append(t.byBook[b], key)
		return nil
	}
	for _, e := range entries {
		if err := add(e.Alias, e.Book); err != nil {
			return nil, err
		}
	}
	for _, b := range versification.Books() {
		if err := add(b.Tag(), b); err != nil {
			return nil, err
		}
	}
	for i, e := range t.entries {
		t.fuzzy = append(t.fuzzy, fuzzyEntry{
			key:   strings.ReplaceAll(e.Alias, " ", ""),
			book:  e.Book,
			order: i,
		})
	}
	return t, nil
}

func (t *Table) index(key string, b versification.Book) {
	for _, existing := range t.exact[key] {
		if existing == b {
			return
		}
	}
	t.exact[key] = append(t.exact[key], b)
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in English alias table.
func Default() *Table {
	defaultOnce.Do(func() {
		var entries []Entry
		for _, group := range defaultEntries {
			for _, alias := range group.aliases {
				entries = append(entries, Entry{Alias: alias, Book: group.book})
			}
		}
		t, err := New(entries)
		if err != nil {
			panic("bookalias: invalid built-in table: " + err.Error())
		}
		defaultTable = t
	})
	return defaultTable
}

// Lookup returns every book whose alias exactly matches token, trying the
// normalized token and its spaceless form. Books are returned in declaration
// order; more than one result means the alias is ambiguous.
func (t *Table) Lookup(token string) []versification.Book {
	key := Normalize(token)
	if key == "" {
		return nil
	}
	var out []versification.Book
	for _, variant := range []string{key, strings.ReplaceAll(key, " ", "")} {
		for _, b := range t.exact[variant] {
			if !containsBook(out, b) {
				out = append(out, b)
			}
		}
	}
	return out
}

// AliasesFor returns the normalized aliases of a book, shortest first.
func (t *Table) AliasesFor(b versification.Book) []string {
	out := append([]string(nil), t.byBook[b]...)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i]) < len(out[j])
	})
	return out
}

// Entries returns the normalized entries in declaration order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Len returns the number of distinct alias entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// StripMarks removes combining diacritical marks, so "Génesis" becomes "Genesis".
func StripMarks(s string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(tr, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize folds an alias or token for lookup: marks stripped, lowercased,
// characters outside [a-z0-9 ] dropped and whitespace collapsed.
func Normalize(s string) string {
	s = strings.ToLower(StripMarks(s))
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

func containsBook(list []versification.Book, b versification.Book) bool {
	for _, x := range list {
		if x == b {
			return true
		}
	}
	return false
}
