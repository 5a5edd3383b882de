// Package versification defines the 66-book canon, the per-chapter verse
// count table used to validate references, and helpers to build that table
// from an ordered list of verse keys.
package versification

import "fmt"

// Book is the stable internal identity of one of the 66 canonical books.
// The zero value is not a book.
type Book uint8

// Books in canonical order.
const (
	NoBook Book = iota
	Genesis
	Exodus
	Leviticus
	Numbers
	Deuteronomy
	Joshua
	Judges
	Ruth
	FirstSamuel
	SecondSamuel
	FirstKings
	SecondKings
	FirstChronicles
	SecondChronicles
	Ezra
	Nehemiah
	Esther
	Job
	Psalms
	Proverbs
	Ecclesiastes
	SongOfSongs
	Isaiah
	Jeremiah
	Lamentations
	Ezekiel
	Daniel
	Hosea
	Joel
	Amos
	Obadiah
	Jonah
	Micah
	Nahum
	Habakkuk
	Zephaniah
	Haggai
	Zechariah
	Malachi
	Matthew
	Mark
	Luke
	John
	Acts
	Romans
	FirstCorinthians
	SecondCorinthians
	Galatians
	Ephesians
	Philippians
	Colossians
	FirstThessalonians
	SecondThessalonians
	FirstTimothy
	SecondTimothy
	Titus
	Philemon
	Hebrews
	James
	FirstPeter
	SecondPeter
	FirstJohn
	SecondJohn
	ThirdJohn
	Jude
	Revelation
)

// BookCount is the number of books in the canon.
const BookCount = int(Revelation)

type bookInfo struct {
	tag  string
	name string
}

// bookTable holds the canonical tag (OSIS id) and display name of each book.
// Index 0 is NoBook.
var bookTable = [BookCount + 1]bookInfo{
	{},
	{"Gen", "Genesis"},
	{"Exod", "Exodus"},
	{"Lev", "Leviticus"},
	{"Num", "Numbers"},
	{"Deut", "Deuteronomy"},
	{"Josh", "Joshua"},
	{"Judg", "Judges"},
	{"Ruth", "Ruth"},
	{"1Sam", "1 Samuel"},
	{"2Sam", "2 Samuel"},
	{"1Kgs", "1 Kings"},
	{"2Kgs", "2 Kings"},
	{"1Chr", "1 Chronicles"},
	{"2Chr", "2 Chronicles"},
	{"Ezra", "Ezra"},
	{"Neh", "Nehemiah"},
	{"Esth", "Esther"},
	{"Job", "Job"},
	{"Ps", "Psalms"},
	{"Prov", "Proverbs"},
	{"Eccl", "Ecclesiastes"},
	{"Song", "Song of Songs"},
	{"Isa", "Isaiah"},
	{"Jer", "Jeremiah"},
	{"Lam", "Lamentations"},
	{"Ezek", "Ezekiel"},
	{"Dan", "Daniel"},
	{"Hos", "Hosea"},
	{"Joel", "Joel"},
	{"Amos", "Amos"},
	{"Obad", "Obadiah"},
	{"Jonah", "Jonah"},
	{"Mic", "Micah"},
	{"Nah", "Nahum"},
	{"Hab", "Habakkuk"},
	{"Zeph", "Zephaniah"},
	{"Hag", "Haggai"},
	{"Zech", "Zechariah"},
	{"Mal", "Malachi"},
	{"Matt", "Matthew"},
	{"Mark", "Mark"},
	{"Luke", "Luke"},
	{"John", "John"},
	{"Acts", "Acts"},
	{"Rom", "Romans"},
	{"1Cor", "1 Corinthians"},
	{"2Cor", "2 Corinthians"},
	{"Gal", "Galatians"},
	{"Eph", "Ephesians"},
	{"Phil", "Philippians"},
	{"Col", "Colossians"},
	{"1Thess", "1 Thessalonians"},
	{"2Thess", "2 Thessalonians"},
	{"1Tim", "1 Timothy"},
	{"2Tim", "2 Timothy"},
	{"Titus", "Titus"},
	{"Phlm", "Philemon"},
	{"Heb", "Hebrews"},
	{"Jas", "James"},
	{"1Pet", "1 Peter"},
	{"2Pet", "2 Peter"},
	{"1John", "1 John"},
	{"2John", "2 John"},
	{"3John", "3 John"},
	{"Jude", "Jude"},
	{"Rev", "Revelation"},
}

var tagIndex = func() map[string]Book {
	m := make(map[string]Book, BookCount)
	for b := Genesis; b <= Revelation; b++ {
		m[bookTable[b].tag] = b
	}
	return m
}()

// Valid reports whether b is one of the 66 books.
func (b Book) Valid() bool {
	return b >= Genesis && b <= Revelation
}

// Tag returns the canonical tag used in verse keys, e.g. "Gen" or "1Cor".
func (b Book) Tag() string {
	if !b.Valid() {
		return ""
	}
	return bookTable[b].tag
}

// Name returns the display name, e.g. "1 Corinthians".
func (b Book) Name() string {
	if !b.Valid() {
		return ""
	}
	return bookTable[b].name
}

// IsNewTestament reports whether b belongs to the New Testament.
func (b Book) IsNewTestament() bool {
	return b >= Matthew && b <= Revelation
}

func (b Book) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Book(%d)", uint8(b))
	}
	return bookTable[b].tag
}

// MarshalText encodes a book as its canonical tag.
func (b Book) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("versification: invalid book %d", uint8(b))
	}
	return []byte(bookTable[b].tag), nil
}

// UnmarshalText decodes a canonical tag.
func (b *Book) UnmarshalText(text []byte) error {
	v, ok := BookFromTag(string(text))
	if !ok {
		return fmt.Errorf("versification: unknown book tag %q", text)
	}
	*b = v
	return nil
}

// BookFromTag returns the book with the given canonical tag.
func BookFromTag(tag string) (Book, bool) {
	b, ok := tagIndex[tag]
	return b, ok
}

// Books returns all 66 books in canonical order.
func Books() []Book {
	out := make([]Book, 0, BookCount)
	for b := Genesis; b <= Revelation; b++ {
		out = append(out, b)
	}
	return out
}
