package versification

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/scriptref/core/errors"
)

// FormatKey renders the verse key "Tag.chapter:verse".
func FormatKey(b Book, chapter, verse int) string {
	return b.Tag() + "." + strconv.Itoa(chapter) + ":" + strconv.Itoa(verse)
}

// ParseKey parses a verse key in either "Tag.ch:v" or OSIS "Tag.ch.v" form.
func ParseKey(key string) (Book, int, int, error) {
	dot := strings.IndexByte(key, '.')
	if dot <= 0 {
		return NoBook, 0, 0, errors.NewParse("verse key", "", fmt.Sprintf("%q: missing book separator", key))
	}
	b, ok := BookFromTag(key[:dot])
	if !ok {
		return NoBook, 0, 0, errors.NewNotFound("book", key[:dot])
	}
	rest := key[dot+1:]
	sep := strings.IndexAny(rest, ":.")
	if sep <= 0 || sep == len(rest)-1 {
		return NoBook, 0, 0, errors.NewParse("verse key", "", fmt.Sprintf("%q: missing chapter or verse", key))
	}
	ch, err := strconv.Atoi(rest[:sep])
	if err != nil || ch < 1 {
		return NoBook, 0, 0, errors.NewParse("verse key", "", fmt.Sprintf("%q: bad chapter", key))
	}
	v, err := strconv.Atoi(rest[sep+1:])
	if err != nil || v < 1 {
		return NoBook, 0, 0, errors.NewParse("verse key", "", fmt.Sprintf("%q: bad verse", key))
	}
	return b, ch, v, nil
}

// FromVerseKeys derives a Table from an authoritative ordered list of verse
// keys. Within a book, keys must run contiguously from 1:1 with no gaps, and
// each book may appear only once.
func FromVerseKeys(keys []string) (*Table, error) {
	counts := make(map[Book][]int)
	var (
		cur     Book
		chapter int
		verse   int
	)
	for i, key := range keys {
		key = strings.TrimSpace(key)
		b, ch, v, err := ParseKey(key)
		if err != nil {
			return nil, errors.Wrapf(err, "key %d", i+1)
		}
		switch {
		case b != cur:
			if _, seen := counts[b]; seen {
				return nil, errors.NewValidation(key, fmt.Sprintf("book %s appears more than once", b))
			}
			if ch != 1 || v != 1 {
				return nil, errors.NewValidation(key, "book must start at 1:1")
			}
			counts[b] = []int{1}
		case ch == chapter && v == verse+1:
			counts[b][ch-1] = v
		case ch == chapter+1 && v == 1:
			counts[b] = append(counts[b], 1)
		default:
			return nil, errors.NewValidation(key,
				fmt.Sprintf("out of order after %s", FormatKey(cur, chapter, verse)))
		}
		cur, chapter, verse = b, ch, v
	}
	return NewTable(counts)
}
