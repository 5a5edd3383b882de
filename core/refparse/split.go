package refparse

import (
	"strconv"

	"github.com/FocuswithJustin/scriptref/core/bookalias"
	"github.com/FocuswithJustin/scriptref/core/versification"
)

// maxDigitRun bounds the glued chapter+verse runs we try to split. The longest
// real run is six digits (a three digit chapter and verse).
const maxDigitRun = 6

// SplitDigits resolves a glued chapter+verse digit run for book b. A single
// digit is a chapter. The whole run as a chapter is tried before any split,
// so "23" in Psalms is 23:1 and not 2:3. Splits are then tried left to right,
// shortest chapter first. The first reading that exists in v wins.
func SplitDigits(v bookalias.Validator, b versification.Book, digits string) (chapter, verse int, ok bool) {
	if digits == "" || len(digits) > maxDigitRun || !allDigits(digits) {
		return 0, 0, false
	}
	whole, _ := strconv.Atoi(digits)
	if v.IsValid(b, whole, 1) {
		return whole, 1, true
	}
	for _, sp := range splits(digits) {
		if v.IsValid(b, sp.chapter, sp.verse) {
			return sp.chapter, sp.verse, true
		}
	}
	return 0, 0, false
}

// split is one chapter:verse reading of a digit run; at is the split position.
type split struct {
	at, chapter, verse int
}

// splits lists every chapter:verse reading of a digit run, left to right,
// without validation.
func splits(digits string) []split {
	var out []split
	for i := 1; i < len(digits); i++ {
		ch, _ := strconv.Atoi(digits[:i])
		vs, _ := strconv.Atoi(digits[i:])
		if ch > 0 && vs > 0 {
			out = append(out, split{at: i, chapter: ch, verse: vs})
		}
	}
	return out
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// romanChapter maps i, ii and iii to chapter numbers.
func romanChapter(s string) (int, bool) {
	switch s {
	case "i":
		return 1, true
	case "ii":
		return 2, true
	case "iii":
		return 3, true
	}
	return 0, false
}

// chapterNumber parses a decimal or small roman chapter token.
func chapterNumber(s string) (int, bool) {
	if n, ok := romanChapter(s); ok {
		return n, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
