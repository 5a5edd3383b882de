package refparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/scriptref/core/bookalias"
	"github.com/FocuswithJustin/scriptref/core/errors"
	"github.com/FocuswithJustin/scriptref/core/versification"
)

// Shape names reported by Explain.
const (
	ShapeOSIS        = "osis"
	ShapeDotColon    = "dot-colon"
	ShapeChapterOnly = "chapter-only"
	ShapeSpaced      = "spaced"
	ShapeCompactCV   = "compact-colon"
	ShapeCompact     = "compact"
	ShapeRange       = "range"
)

var reDash = regexp.MustCompile(`\s*[-–—]\s*`)

// result is what a shape produces for one piece.
type result struct {
	shape     string
	piece     Piece
	ambiguous bool
	err       error
}

// shape is one matcher in the ordered strategy list. match reports false when
// the piece does not have this shape at all; a piece that has the shape but
// fails to resolve returns true with result.err set.
type shape struct {
	name  string
	match func(e *Engine, piece string) (result, bool)
}

// shapes are tried in order; the first structural match wins.
var shapes []shape

// The range matcher recurses through parsePiece, so the list is assigned in
// init to avoid an initialization cycle.
func init() {
	shapes = []shape{
		{ShapeOSIS, matchOSIS},
		{ShapeDotColon, matchDotColon},
		{ShapeChapterOnly, matchChapterOnly},
		{ShapeSpaced, matchSpaced},
		{ShapeCompactCV, matchCompactCV},
		{ShapeCompact, matchCompact},
		{ShapeRange, matchRange},
	}
}

// parsePiece runs a piece through the shape list.
func (e *Engine) parsePiece(piece string) result {
	piece = strings.TrimSpace(piece)
	for _, s := range shapes {
		if res, ok := s.match(e, piece); ok {
			res.shape = s.name
			return res
		}
	}
	return result{err: errors.NewResolve(errors.ErrMalformedShape, piece, "")}
}

// build resolves the book, validates the verse and applies f/ff.
func (e *Engine) build(piece, bookToken string, chapter, verse int, part, follow string) result {
	m, ok := e.resolver.Resolve(bookToken, bookalias.Hint{
		Chapter:  chapter,
		Verse:    verse,
		PreferNT: e.opts.PreferNewTestament,
	})
	if !ok {
		return result{err: errors.NewResolve(errors.ErrUnrecognizedBook, piece, strings.TrimSpace(bookToken))}
	}
	ref := Reference{Book: m.Book, Chapter: chapter, Verse: verse, Part: strings.ToLower(part)}
	if err := e.validate(piece, ref); err != nil {
		return result{ambiguous: m.Ambiguous, err: err}
	}
	return result{piece: e.following(ref, strings.ToLower(follow)), ambiguous: m.Ambiguous}
}

// following turns f/ff notation into a piece.
func (e *Engine) following(ref Reference, follow string) Piece {
	if follow == "" {
		return single(ref)
	}
	p := Piece{Start: ref, End: ref, Kind: Following}
	if !e.opts.ExpandFollowing {
		return p
	}
	last := e.table.VerseCount(ref.Book, ref.Chapter)
	end := Reference{Book: ref.Book, Chapter: ref.Chapter}
	switch follow {
	case "f":
		end.Verse = min(ref.Verse+1, last)
	default:
		end.Verse = last
	}
	p.End = end
	return p
}

func hasDash(piece string) bool {
	return strings.ContainsAny(piece, "-–—")
}

func matchOSIS(e *Engine, piece string) (result, bool) {
	return matchDotted(e, piece, false)
}

func matchDotColon(e *Engine, piece string) (result, bool) {
	return matchDotted(e, piece, true)
}

func matchDotted(e *Engine, piece string, colon bool) (result, bool) {
	if hasDash(piece) {
		return result{}, false
	}
	d, ok := parseDotted(piece)
	if !ok || d.colon != colon {
		return result{}, false
	}
	return e.build(piece, d.book, d.chapter, d.verse, d.part, d.follow), true
}

func matchChapterOnly(e *Engine, piece string) (result, bool) {
	if hasDash(piece) {
		return result{}, false
	}
	r, ok := parseSpaced(piece)
	if !ok || r.hasVerse {
		return result{}, false
	}
	ch, ok := chapterNumber(r.chapter)
	if !ok {
		return result{}, false
	}
	return e.build(piece, r.book, ch, 1, "", ""), true
}

func matchSpaced(e *Engine, piece string) (result, bool) {
	if hasDash(piece) {
		return result{}, false
	}
	r, ok := parseSpaced(piece)
	if !ok || !r.hasVerse {
		return result{}, false
	}
	ch, ok := chapterNumber(r.chapter)
	if !ok {
		return result{}, false
	}
	v, _ := strconv.Atoi(r.verse)
	return e.build(piece, r.book, ch, v, r.part, r.follow), true
}

func matchCompactCV(e *Engine, piece string) (result, bool) {
	if hasDash(piece) {
		return result{}, false
	}
	c, ok := parseCompact(piece)
	if !ok || c.verse == "" {
		return result{}, false
	}
	ch, _ := strconv.Atoi(c.digits)
	v, _ := strconv.Atoi(c.verse)
	return e.build(piece, c.token, ch, v, c.part, c.follow), true
}

func matchCompact(e *Engine, piece string) (result, bool) {
	if hasDash(piece) {
		return result{}, false
	}
	c, ok := parseCompact(piece)
	if !ok || c.verse != "" {
		return result{}, false
	}
	books, ambiguous := e.compactBooks(c.token)
	if len(books) == 0 {
		return result{err: errors.NewResolve(errors.ErrUnrecognizedBook, piece, c.token)}, true
	}
	for _, b := range books {
		ch, v, ok := SplitDigits(e.table, b, c.digits)
		if !ok {
			continue
		}
		ref := Reference{Book: b, Chapter: ch, Verse: v, Part: c.part}
		return result{piece: e.following(ref, c.follow), ambiguous: ambiguous}, true
	}
	return result{
		ambiguous: ambiguous,
		err:       errors.NewResolve(errors.ErrInvalidChapter, piece, "no chapter:verse reading of "+c.digits+" exists"),
	}, true
}

// compactBooks lists the books a glued token may name, New Testament first
// when preferred. A token with no exact alias goes to the fuzzy matcher.
func (e *Engine) compactBooks(token string) ([]versification.Book, bool) {
	books := e.resolver.Aliases().Lookup(token)
	if len(books) == 0 {
		m, ok := e.resolver.Resolve(token, bookalias.Hint{PreferNT: e.opts.PreferNewTestament})
		if !ok {
			return nil, false
		}
		return []versification.Book{m.Book}, false
	}
	if e.opts.PreferNewTestament && len(books) > 1 {
		var nt, ot []versification.Book
		for _, b := range books {
			if b.IsNewTestament() {
				nt = append(nt, b)
			} else {
				ot = append(ot, b)
			}
		}
		books = append(nt, ot...)
	}
	return books, len(books) > 1
}

func matchRange(e *Engine, piece string) (result, bool) {
	halves := reDash.Split(piece, -1)
	if len(halves) != 2 {
		if hasDash(piece) {
			return result{err: errors.NewResolve(errors.ErrMalformedShape, piece, "range needs exactly two ends")}, true
		}
		return result{}, false
	}
	left, right := strings.TrimSpace(halves[0]), strings.TrimSpace(halves[1])
	if left == "" || right == "" {
		return result{err: errors.NewResolve(errors.ErrMalformedShape, piece, "range end is empty")}, true
	}

	l := e.parsePiece(left)
	if l.err != nil {
		return result{ambiguous: l.ambiguous, err: l.err}, true
	}
	start := l.piece.Start
	chapterOnly := l.shape == ShapeChapterOnly

	var ends []Reference
	if re, ok := parseRangeEnd(right); ok {
		n, _ := strconv.Atoi(re.first)
		switch {
		case re.verse != "":
			v, _ := strconv.Atoi(re.verse)
			ends = append(ends, Reference{Book: start.Book, Chapter: n, Verse: v, Part: re.part})
		case chapterOnly:
			ends = append(ends, Reference{Book: start.Book, Chapter: n, Verse: e.table.VerseCount(start.Book, n)})
		default:
			ends = append(ends, Reference{Book: start.Book, Chapter: start.Chapter, Verse: n})
		}
	}
	if r := e.parsePiece(right); r.err == nil {
		end := r.piece.Start
		if chapterOnly && r.shape == ShapeChapterOnly {
			end.Verse = e.table.VerseCount(end.Book, end.Chapter)
		}
		ends = append(ends, end)
	}

	var err error = errors.NewResolve(errors.ErrMalformedShape, piece, "unresolvable range end "+strconv.Quote(right))
	for i, end := range ends {
		verr := e.validate(piece, end)
		if verr == nil {
			return result{piece: Piece{Start: start, End: end, Kind: Span}, ambiguous: l.ambiguous}, true
		}
		if i == 0 {
			err = verr
		}
	}
	return result{ambiguous: l.ambiguous, err: err}, true
}
