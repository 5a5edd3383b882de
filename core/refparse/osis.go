package refparse

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// dotGrammar is the participle grammar for dotted references.
// Examples: "Gen.1.1", "1Cor.13.4a", "John.3:16", "Rev.22.20ff"
//
//nolint:govet // participle grammar tags are not standard struct tags
type dotGrammar struct {
	Prefix  string   `@Int?`
	Name    []string `@Ident+`
	Chapter int      `"." @Int`
	Sep     string   `@( "." | ":" )`
	Verse   int      `@Int`
	Suffix  string   `@Ident?`
}

var dotLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z]+`},
	{Name: "Punct", Pattern: `[.:]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var dotParser = participle.MustBuild[dotGrammar](
	participle.Lexer(dotLexer),
	participle.Elide("Whitespace"),
)

// dotRef is a structurally matched dotted reference, book still unresolved.
type dotRef struct {
	book    string
	chapter int
	verse   int
	colon   bool
	part    string
	follow  string
}

// parseDotted matches the OSIS "Book.C.V" and mixed "Book.C:V" forms.
func parseDotted(piece string) (dotRef, bool) {
	g, err := dotParser.ParseString("", piece)
	if err != nil {
		return dotRef{}, false
	}
	part, follow, ok := verseSuffix(g.Suffix)
	if !ok {
		return dotRef{}, false
	}
	book := strings.Join(g.Name, " ")
	if g.Prefix != "" {
		book = g.Prefix + " " + book
	}
	return dotRef{
		book:    book,
		chapter: g.Chapter,
		verse:   g.Verse,
		colon:   g.Sep == ":",
		part:    part,
		follow:  follow,
	}, true
}
