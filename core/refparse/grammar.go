package refparse

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// refLexer keeps whitespace as a token: the grammars below care whether a
// verse suffix is glued to its number and whether a book is spaced from its
// chapter.
var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Roman", Pattern: `[iI]{1,3}\b`},
	{Name: "Word", Pattern: `[A-Za-z][A-Za-z']*`},
	{Name: "Punct", Pattern: `[.:,']`},
	{Name: "WS", Pattern: `\s+`},
})

// bookName is the book part of a spaced reference, kept verbatim: an
// optional ordinal prefix ("1", "2nd", "iii"), then words joined by spaces,
// dots or apostrophes. A roman numeral is only a book word in first place, so
// "Ps ii" leaves "ii" for the chapter.
//
//nolint:govet // participle grammar tags are not standard struct tags
type bookName struct {
	Tokens []string `( @Int @"."? @WS? )? @( Word | Roman ) ( @( WS | "." | "'" )+ @Word | @"." )*`
}

// text returns the book as written, or "" when the numeric prefix is not an
// ordinal 1-3.
func (b *bookName) text() string {
	if len(b.Tokens) > 0 && isDigit(b.Tokens[0][0]) {
		switch b.Tokens[0] {
		case "1", "2", "3":
		default:
			return ""
		}
	}
	return strings.Join(b.Tokens, "")
}

// spacedGrammar matches "Book C" and "Book C:V" with ':', ',', '.' or a
// space between chapter and verse. Examples: "1 Cor 13", "Ps ii",
// "Song of Songs 2:4", "John 3 16b".
//
//nolint:govet // participle grammar tags are not standard struct tags
type spacedGrammar struct {
	Book    bookName    `@@`
	Chapter string      `WS @( Int | Roman )`
	Verse   *spacedTail `@@?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type spacedTail struct {
	Verse  string `( WS? ( ":" | "," | "." ) WS? | WS ) @Int`
	Suffix string `@( Word | Roman )?`
}

// compactGrammar matches a single book word glued or spaced to its digits,
// with an optional ":V". Examples: "Gen11", "1jn3:16", "ii jn 3".
//
//nolint:govet // participle grammar tags are not standard struct tags
type compactGrammar struct {
	Prefix string `( @Int | @Roman )? WS?`
	Name   string `@Word WS?`
	Digits string `@Int`
	Verse  string `( WS? ":" WS? @Int )?`
	Suffix string `@( Word | Roman )?`
}

// rangeEndGrammar matches the bare right half of a range: "5", "4:2" or
// "4 2a".
//
//nolint:govet // participle grammar tags are not standard struct tags
type rangeEndGrammar struct {
	First string        `@Int`
	Tail  *rangeEndTail `@@?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type rangeEndTail struct {
	Verse string `( WS? ( ":" | "," | "." ) WS? | WS ) @Int`
	Part  string `@Word?`
}

var (
	spacedParser   = participle.MustBuild[spacedGrammar](participle.Lexer(refLexer), participle.UseLookahead(8))
	compactParser  = participle.MustBuild[compactGrammar](participle.Lexer(refLexer), participle.UseLookahead(8))
	rangeEndParser = participle.MustBuild[rangeEndGrammar](participle.Lexer(refLexer), participle.UseLookahead(8))
)

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// verseSuffix splits a verse suffix into its part letter and f/ff notation.
func verseSuffix(s string) (part, follow string, ok bool) {
	s = strings.ToLower(s)
	if s != "" && (s[0] == 'a' || s[0] == 'b' || s[0] == 'c') {
		part, s = s[:1], s[1:]
	}
	switch s {
	case "", "f", "ff":
		return part, s, true
	}
	return "", "", false
}

// spacedRef is a structurally matched spaced reference, book unresolved.
type spacedRef struct {
	book     string
	chapter  string
	verse    string
	hasVerse bool
	part     string
	follow   string
}

func parseSpaced(piece string) (spacedRef, bool) {
	g, err := spacedParser.ParseString("", piece)
	if err != nil {
		return spacedRef{}, false
	}
	r := spacedRef{book: g.Book.text(), chapter: strings.ToLower(g.Chapter)}
	if r.book == "" {
		return spacedRef{}, false
	}
	if g.Verse != nil {
		part, follow, ok := verseSuffix(g.Verse.Suffix)
		if !ok {
			return spacedRef{}, false
		}
		r.verse, r.hasVerse, r.part, r.follow = g.Verse.Verse, true, part, follow
	}
	return r, true
}

// compactRef is a structurally matched compact reference.
type compactRef struct {
	token  string
	digits string
	verse  string
	part   string
	follow string
}

func parseCompact(piece string) (compactRef, bool) {
	g, err := compactParser.ParseString("", piece)
	if err != nil || len(g.Prefix) > 3 || strings.Contains(g.Name, "'") {
		return compactRef{}, false
	}
	if g.Prefix != "" && isDigit(g.Prefix[0]) && len(g.Prefix) != 1 {
		return compactRef{}, false
	}
	part, follow, ok := verseSuffix(g.Suffix)
	if !ok {
		return compactRef{}, false
	}
	return compactRef{
		token:  g.Prefix + g.Name,
		digits: g.Digits,
		verse:  g.Verse,
		part:   part,
		follow: follow,
	}, true
}

// rangeEnd is the bare right half of a range. verse is "" for a lone number.
type rangeEnd struct {
	first string
	verse string
	part  string
}

func parseRangeEnd(s string) (rangeEnd, bool) {
	g, err := rangeEndParser.ParseString("", s)
	if err != nil {
		return rangeEnd{}, false
	}
	end := rangeEnd{first: g.First}
	if g.Tail != nil {
		part := strings.ToLower(g.Tail.Part)
		switch part {
		case "", "a", "b", "c":
		default:
			return rangeEnd{}, false
		}
		end.verse, end.part = g.Tail.Verse, part
	}
	return end, true
}
