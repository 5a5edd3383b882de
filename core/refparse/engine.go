// Package refparse resolves free-form scripture references such as
// "jn 3 16", "John316", "1 Cor 13:4-7" or "Jhon 3:16" into canonical verse
// keys of the form "Gen.1:1".
//
// The pipeline for each call is tokenize, shape match, smart digit split,
// validate, rank and format. It is a pure function of the input and the
// tables given to New: an Engine holds no mutable state and is safe for
// concurrent use. Unresolvable input yields an empty result, never an error.
package refparse

import (
	"strings"

	"github.com/FocuswithJustin/scriptref/core/bookalias"
	"github.com/FocuswithJustin/scriptref/core/errors"
	"github.com/FocuswithJustin/scriptref/core/versification"
)

// Options configures an Engine.
type Options struct {
	// PreferNewTestament breaks ties between ambiguous books in favour of the
	// New Testament.
	PreferNewTestament bool
	// ExpandFollowing extends "f" to the next verse and "ff" to the end of
	// the chapter. Otherwise a following piece ends where it starts.
	ExpandFollowing bool
	// ExpandRanges makes ParseKeys enumerate every key of a range instead of
	// returning its start key.
	ExpandRanges bool
	// StripVersePart omits the a/b/c suffix from keys.
	StripVersePart bool
	// Fuzzy tunes typo tolerance for book names.
	Fuzzy bookalias.FuzzyOptions
}

// Engine resolves references against an injected verse table and alias table.
type Engine struct {
	table    *versification.Table
	resolver *bookalias.Resolver
	opts     Options
}

// New returns an Engine. A nil table selects the built-in KJV table and nil
// aliases select the built-in alias table.
func New(table *versification.Table, aliases *bookalias.Table, opts Options) *Engine {
	if table == nil {
		table = versification.KJV()
	}
	if aliases == nil {
		aliases = bookalias.Default()
	}
	return &Engine{
		table:    table,
		resolver: bookalias.NewResolver(aliases, table, opts.Fuzzy),
		opts:     opts,
	}
}

// Table returns the verse table the engine validates against.
func (e *Engine) Table() *versification.Table {
	return e.table
}

// Aliases returns the engine's alias table.
func (e *Engine) Aliases() *bookalias.Table {
	return e.resolver.Aliases()
}

// Options returns the engine's options.
func (e *Engine) Options() Options {
	return e.opts
}

// IsValid reports whether the verse exists in the engine's table.
func (e *Engine) IsValid(b versification.Book, chapter, verse int) bool {
	return e.table.IsValid(b, chapter, verse)
}

// Parse resolves every piece of input in order. Pieces that do not resolve
// are dropped.
func (e *Engine) Parse(input string) []Piece {
	var out []Piece
	for _, o := range e.Explain(input) {
		if o.Err == nil {
			out = append(out, o.Piece)
		}
	}
	return out
}

// ParseKeys resolves input to canonical keys, one per resolved piece in input
// order. A range contributes its start key unless ExpandRanges is set.
func (e *Engine) ParseKeys(input string) []string {
	var out []string
	for _, p := range e.Parse(input) {
		if p.IsRange() && e.opts.ExpandRanges {
			out = append(out, e.Enumerate(p)...)
			continue
		}
		out = append(out, e.Key(p.Start))
	}
	return out
}

// Key formats a reference, honouring StripVersePart.
func (e *Engine) Key(r Reference) string {
	if e.opts.StripVersePart {
		return r.Key()
	}
	return Format(r)
}

// Enumerate lists every key of a piece in canonical order. A piece whose end
// precedes its start yields only the start key.
func (e *Engine) Enumerate(p Piece) []string {
	from, ok1 := e.table.Ordinal(p.Start.Book, p.Start.Chapter, p.Start.Verse)
	to, ok2 := e.table.Ordinal(p.End.Book, p.End.Chapter, p.End.Verse)
	if !ok1 || !ok2 || to <= from {
		return []string{e.Key(p.Start)}
	}
	out := make([]string, 0, to-from+1)
	out = append(out, e.Key(p.Start))
	for ord := from + 1; ord <= to; ord++ {
		b, ch, v, ok := e.table.At(ord)
		if !ok {
			break
		}
		out = append(out, versification.FormatKey(b, ch, v))
	}
	return out
}

// Outcome is the diagnostic result for one tokenized piece.
type Outcome struct {
	Input string
	Shape string
	Piece Piece
	// Ambiguous is set when the book alias named several books.
	Ambiguous bool
	// Err is a *errors.ResolveError when the piece was dropped.
	Err error
}

// Explain tokenizes input and reports the result of every piece, including
// the reason a piece was dropped.
func (e *Engine) Explain(input string) []Outcome {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	var out []Outcome
	for _, raw := range e.tokenize(input) {
		res := e.parsePiece(raw)
		o := Outcome{Input: raw, Shape: res.shape, Piece: res.piece, Ambiguous: res.ambiguous, Err: res.err}
		if res.err != nil {
			o.Piece = Piece{}
		}
		out = append(out, o)
	}
	return out
}

// Best returns the highest ranked reading of input.
func (e *Engine) Best(input string) (Reference, bool) {
	cands := e.Candidates(input)
	if len(cands) == 0 {
		return Reference{}, false
	}
	return cands[0].Ref, true
}

// validate checks a resolved reference and classifies failures.
func (e *Engine) validate(piece string, r Reference) error {
	if !e.table.HasChapter(r.Book, r.Chapter) {
		return errors.NewResolve(errors.ErrInvalidChapter, piece,
			r.Book.Tag()+" has "+itoa(e.table.ChapterCount(r.Book))+" chapters")
	}
	if !e.table.IsValid(r.Book, r.Chapter, r.Verse) {
		return errors.NewResolve(errors.ErrInvalidVerse, piece,
			r.Book.Tag()+" "+itoa(r.Chapter)+" has "+itoa(e.table.VerseCount(r.Book, r.Chapter))+" verses")
	}
	return nil
}
