package refparse

import (
	"regexp"
	"strings"

	"github.com/FocuswithJustin/scriptref/core/bookalias"
)

var (
	// "jn 3 16" -> "jn 3:16"
	reSpaceDigits = regexp.MustCompile(`(?i)([a-z]+\d*)\s+(\d+)\s+(\d+)`)
	reSemicolon   = regexp.MustCompile(`\s*;\s*`)
	// A piece that carries only chapter:verse and inherits its book.
	reBareChapterVerse = regexp.MustCompile(`^\d+\s*[:.]\s*\d+`)
	reBookPrefix       = regexp.MustCompile(`(?i)^((?:[1-3](?:st|nd|rd)?\.?\s*)?[a-z][a-z\s.']*?)[\s.]*\d`)
	// "jn3 16" -> "jn 3:16" when "jn3" is not itself an alias.
	reHybrid = regexp.MustCompile(`(?i)^((?:\d|i{1,3})?\s*[a-z]+)(\d+)\s+(\d+)$`)
	// Splits "Jn 3:16,18" into the "Jn 3:" prefix and the "16,18" list.
	reCommaList = regexp.MustCompile(`^(.+?)\s*(\d+)\s*([: ,.])\s*(.+)$`)
	reComma     = regexp.MustCompile(`\s*,\s*`)
	reLetter    = regexp.MustCompile(`(?i)[a-z]`)
)

// clean folds diacritics, non-breaking spaces and runs of whitespace.
func clean(input string) string {
	s := bookalias.StripMarks(input)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// bookPrefix returns the book text leading a piece, or "".
func bookPrefix(piece string) string {
	m := reBookPrefix.FindStringSubmatch(piece)
	if m == nil {
		return ""
	}
	return strings.TrimRight(m[1], " .")
}

// tokenize splits input into atomic pieces in input order.
func (e *Engine) tokenize(input string) []string {
	s := clean(input)
	if s == "" {
		return nil
	}
	s = reSpaceDigits.ReplaceAllString(s, "$1 $2:$3")

	var out []string
	lastBook := ""
	for _, part := range reSemicolon.Split(s, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lastBook != "" && reBareChapterVerse.MatchString(part) {
			part = lastBook + " " + part
		}
		if b := bookPrefix(part); b != "" {
			lastBook = b
		}
		part = e.reglue(part)
		out = append(out, expandCommas(part)...)
	}
	return out
}

// reglue turns a glued "book+chapter verse" token into colon form.
func (e *Engine) reglue(piece string) string {
	m := reHybrid.FindStringSubmatch(piece)
	if m == nil {
		return piece
	}
	if len(e.resolver.Aliases().Lookup(m[1]+m[2])) > 0 {
		return piece
	}
	return m[1] + " " + m[2] + ":" + m[3]
}

// expandCommas propagates the "book chapter:" prefix onto each element of a
// comma separated verse list.
func expandCommas(piece string) []string {
	m := reCommaList.FindStringSubmatchIndex(piece)
	if m == nil {
		return []string{piece}
	}
	rest := piece[m[8]:m[9]]
	if !strings.Contains(rest, ",") {
		return []string{piece}
	}
	prefix := piece[:m[8]]
	book := strings.TrimRight(piece[m[2]:m[3]], " .")

	var out []string
	for _, item := range reComma.Split(rest, -1) {
		item = strings.TrimSpace(item)
		switch {
		case item == "":
			continue
		case reLetter.MatchString(item):
			out = append(out, item)
			if sub := reCommaList.FindStringSubmatchIndex(item); sub != nil {
				prefix = item[:sub[8]]
				book = strings.TrimRight(item[sub[2]:sub[3]], " .")
			}
		case reBareChapterVerse.MatchString(item):
			full := book + " " + item
			out = append(out, full)
			if sub := reCommaList.FindStringSubmatchIndex(full); sub != nil {
				prefix = full[:sub[8]]
			}
		default:
			out = append(out, prefix+item)
		}
	}
	return out
}
