package bookalias

import "github.com/FocuswithJustin/scriptref/core/versification"

// Validator answers whether a verse exists. *versification.Table implements it.
type Validator interface {
	IsValid(b versification.Book, chapter, verse int) bool
}

// Hint carries the chapter and verse a token was found with, used to choose
// between books sharing an alias. A zero Chapter means no hint.
type Hint struct {
	Chapter  int
	Verse    int
	PreferNT bool
}

// Match is the outcome of resolving a book token.
type Match struct {
	Book versification.Book
	// Ambiguous is set when the alias named more than one book.
	Ambiguous bool
	// Fuzzy is set when the book was found by edit distance.
	Fuzzy    bool
	Distance int
}

// Resolver resolves tokens against an alias table and a validator.
// It holds no mutable state.
type Resolver struct {
	aliases   *Table
	validator Validator
	fuzzy     FuzzyOptions
}

// NewResolver returns a resolver. A nil validator disables hint validation.
func NewResolver(aliases *Table, validator Validator, fuzzy FuzzyOptions) *Resolver {
	if aliases == nil {
		aliases = Default()
	}
	return &Resolver{aliases: aliases, validator: validator, fuzzy: fuzzy.withDefaults()}
}

// Aliases returns the resolver's alias table.
func (r *Resolver) Aliases() *Table {
	return r.aliases
}

// Resolve maps a token to a book. For an ambiguous alias the first book in
// which the hinted verse exists wins; failing that the first New Testament
// book when PreferNT is set, otherwise the first declared book. Tokens with
// no exact match go to the fuzzy matcher.
func (r *Resolver) Resolve(token string, hint Hint) (Match, bool) {
	books := r.aliases.Lookup(token)
	switch len(books) {
	case 0:
		b, d, ok := r.aliases.FuzzyMatch(token, hint.PreferNT, r.fuzzy)
		if !ok {
			return Match{}, false
		}
		return Match{Book: b, Fuzzy: true, Distance: d}, true
	case 1:
		return Match{Book: books[0]}, true
	}

	m := Match{Book: books[0], Ambiguous: true}
	if hint.Chapter > 0 && r.validator != nil {
		verse := hint.Verse
		if verse < 1 {
			verse = 1
		}
		for _, b := range books {
			if r.validator.IsValid(b, hint.Chapter, verse) {
				m.Book = b
				return m, true
			}
		}
	}
	if hint.PreferNT {
		for _, b := range books {
			if b.IsNewTestament() {
				m.Book = b
				return m, true
			}
		}
	}
	return m, true
}
