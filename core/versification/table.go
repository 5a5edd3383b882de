package versification

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/scriptref/core/errors"
)

// Table holds the verse count of every chapter of every book. It is the single
// source of truth for whether a reference exists. A Table is immutable after
// construction and safe for concurrent use.
type Table struct {
	chapters [BookCount + 1][]int
	// bookStart[b] is the ordinal of the first verse of book b.
	bookStart [BookCount + 2]int
	// chapterStart[b][c-1] is the ordinal of verse 1 of chapter c.
	chapterStart [BookCount + 1][]int
	total        int
	fingerprint  string
}

// NewTable builds a Table from per-book chapter verse counts. Books missing
// from counts have no chapters, so no reference to them validates.
func NewTable(counts map[Book][]int) (*Table, error) {
	if len(counts) == 0 {
		return nil, errors.NewValidation("counts", "table has no books")
	}
	t := &Table{}
	for b, verses := range counts {
		if !b.Valid() {
			return nil, errors.NewValidation("book", fmt.Sprintf("unknown book %d", uint8(b)))
		}
		if len(verses) == 0 {
			return nil, errors.NewValidation(b.Tag(), "book has no chapters")
		}
		for i, n := range verses {
			if n < 1 {
				return nil, errors.NewValidation(b.Tag(),
					fmt.Sprintf("chapter %d has verse count %d", i+1, n))
			}
		}
		t.chapters[b] = append([]int(nil), verses...)
	}
	t.index()
	return t, nil
}

func (t *Table) index() {
	ord := 0
	var buf bytes.Buffer
	for b := Genesis; b <= Revelation; b++ {
		t.bookStart[b] = ord
		starts := make([]int, len(t.chapters[b]))
		for i, n := range t.chapters[b] {
			starts[i] = ord
			ord += n
			buf.WriteString(b.Tag())
			buf.WriteByte('.')
			buf.WriteString(strconv.Itoa(i + 1))
			buf.WriteByte('=')
			buf.WriteString(strconv.Itoa(n))
			buf.WriteByte('\n')
		}
		t.chapterStart[b] = starts
	}
	t.bookStart[BookCount+1] = ord
	t.total = ord
	sum := blake3.Sum256(buf.Bytes())
	t.fingerprint = hex.EncodeToString(sum[:])
}

// IsValid reports whether (book, chapter, verse) exists.
func (t *Table) IsValid(b Book, chapter, verse int) bool {
	n := t.VerseCount(b, chapter)
	return verse >= 1 && verse <= n
}

// HasChapter reports whether the chapter exists in the book.
func (t *Table) HasChapter(b Book, chapter int) bool {
	return chapter >= 1 && chapter <= t.ChapterCount(b)
}

// ChapterCount returns the number of chapters in a book, or 0.
func (t *Table) ChapterCount(b Book) int {
	if !b.Valid() {
		return 0
	}
	return len(t.chapters[b])
}

// VerseCount returns the number of verses in a chapter, or 0 if the chapter
// does not exist.
func (t *Table) VerseCount(b Book, chapter int) int {
	if !t.HasChapter(b, chapter) {
		return 0
	}
	return t.chapters[b][chapter-1]
}

// Chapters returns a copy of the verse counts of a book.
func (t *Table) Chapters(b Book) []int {
	if !b.Valid() {
		return nil
	}
	return append([]int(nil), t.chapters[b]...)
}

// Books returns the books present in the table in canonical order.
func (t *Table) Books() []Book {
	var out []Book
	for b := Genesis; b <= Revelation; b++ {
		if len(t.chapters[b]) > 0 {
			out = append(out, b)
		}
	}
	return out
}

// TotalVerses returns the number of verses in the table.
func (t *Table) TotalVerses() int {
	return t.total
}

// TotalChapters returns the number of chapters in the table.
func (t *Table) TotalChapters() int {
	n := 0
	for b := Genesis; b <= Revelation; b++ {
		n += len(t.chapters[b])
	}
	return n
}

// Fingerprint returns the hex BLAKE3 digest of the table contents. Two tables
// with the same books and counts have the same fingerprint.
func (t *Table) Fingerprint() string {
	return t.fingerprint
}

// Ordinal returns the zero-based canonical position of a verse.
func (t *Table) Ordinal(b Book, chapter, verse int) (int, bool) {
	if !t.IsValid(b, chapter, verse) {
		return 0, false
	}
	return t.chapterStart[b][chapter-1] + verse - 1, true
}

// At returns the verse at a canonical position.
func (t *Table) At(ordinal int) (b Book, chapter, verse int, ok bool) {
	if ordinal < 0 || ordinal >= t.total {
		return NoBook, 0, 0, false
	}
	for b = Genesis; b <= Revelation; b++ {
		if ordinal >= t.bookStart[b+1] {
			continue
		}
		starts := t.chapterStart[b]
		for c := len(starts) - 1; c >= 0; c-- {
			if ordinal >= starts[c] {
				return b, c + 1, ordinal - starts[c] + 1, true
			}
		}
	}
	return NoBook, 0, 0, false
}

// Keys returns every verse key in canonical order, formatted "Tag.ch:v".
func (t *Table) Keys() []string {
	out := make([]string, 0, t.total)
	for b := Genesis; b <= Revelation; b++ {
		for c, n := range t.chapters[b] {
			for v := 1; v <= n; v++ {
				out = append(out, FormatKey(b, c+1, v))
			}
		}
	}
	return out
}
