// Package versesource builds verse tables from authoritative verse-key
// lists stored as plain text, xz-compressed text, JSON arrays, SQLite verse
// tables or OSIS XML documents.
package versesource

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/scriptref/core/errors"
	"github.com/FocuswithJustin/scriptref/core/osisxml"
	"github.com/FocuswithJustin/scriptref/core/sqlite"
	"github.com/FocuswithJustin/scriptref/core/versification"
	"github.com/FocuswithJustin/scriptref/internal/logging"
	"github.com/FocuswithJustin/scriptref/internal/validation"
)

// headerSize is how much of a source is inspected to detect its format.
const headerSize = 512

// Load reads the verse keys stored at path and derives a table from them.
func Load(ctx context.Context, path string) (*versification.Table, error) {
	keys, ft, err := LoadKeys(ctx, path)
	if err != nil {
		return nil, err
	}
	t, err := versification.FromVerseKeys(keys)
	if err != nil {
		return nil, errors.Wrapf(err, "building table from %s", filepath.Base(path))
	}
	logging.TableLoaded(path, len(t.Books()), t.TotalChapters(), t.TotalVerses(), t.Fingerprint(),
		"format", string(ft))
	return t, nil
}

// LoadKeys returns the ordered verse keys stored at path and the detected format.
func LoadKeys(ctx context.Context, path string) ([]string, validation.FileType, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, validation.FileTypeUnknown, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, validation.FileTypeUnknown, errors.NewIO("open", path, err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, headerSize)
	ft, err := detect(br, path)
	if err != nil {
		return nil, ft, err
	}

	var keys []string
	switch ft {
	case validation.FileTypeSQLite:
		keys, err = ReadSQLite(ctx, path)
	case validation.FileTypeXZ:
		keys, ft, err = readXZ(br, strings.TrimSuffix(path, filepath.Ext(path)))
	default:
		keys, err = ReadKeys(br, ft)
	}
	if err != nil {
		return nil, ft, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return keys, ft, nil
}

// detect peeks at the head of br without consuming it.
func detect(br *bufio.Reader, name string) (validation.FileType, error) {
	head, err := br.Peek(headerSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return validation.FileTypeUnknown, errors.NewIO("read", name, err)
	}
	return validation.DetectFileType(bytes.NewReader(head), name)
}

// readXZ decompresses r and reads the inner key list. name is the source
// name without its .xz suffix and decides the inner format.
func readXZ(r io.Reader, name string) ([]string, validation.FileType, error) {
	zr, err := xz.NewReader(r)
	if err != nil {
		return nil, validation.FileTypeXZ, errors.Wrap(err, "opening xz stream")
	}
	br := bufio.NewReaderSize(zr, headerSize)
	ft, err := detect(br, name)
	if err != nil {
		return nil, ft, err
	}
	switch ft {
	case validation.FileTypeXZ, validation.FileTypeSQLite:
		return nil, ft, errors.NewUnsupported("xz member", string(ft)+" inside xz")
	}
	keys, err := ReadKeys(br, ft)
	return keys, ft, err
}

// ReadKeys reads a text, JSON or OSIS key list from r.
func ReadKeys(r io.Reader, ft validation.FileType) ([]string, error) {
	switch ft {
	case validation.FileTypeText:
		return readText(r)
	case validation.FileTypeJSON:
		return readJSON(r)
	case validation.FileTypeXML:
		return readOSIS(r)
	}
	return nil, errors.NewUnsupported("verse source", string(ft))
}

// readText reads one key per line. Blank lines and lines starting with '#'
// are skipped.
func readText(r io.Reader) ([]string, error) {
	var keys []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func readJSON(r io.Reader) ([]string, error) {
	var keys []string
	if err := json.NewDecoder(r).Decode(&keys); err != nil {
		return nil, errors.NewParse("json", "", err.Error())
	}
	return keys, nil
}

// readOSIS collects verse osisIDs in document order. A verse element may
// carry several space separated IDs, and IDs may be qualified with a work
// prefix such as "KJV:Gen.1.1".
func readOSIS(r io.Reader) ([]string, error) {
	doc, err := osisxml.Parse(r)
	if err != nil {
		return nil, errors.NewParse("osis", "", err.Error())
	}
	var keys []string
	for _, n := range doc.Select(osisxml.VerseQuery) {
		for _, id := range strings.Fields(n.Attr("osisID")) {
			if i := strings.IndexByte(id, ':'); i >= 0 && strings.Contains(id[i:], ".") {
				id = id[i+1:]
			}
			keys = append(keys, id)
		}
	}
	if len(keys) == 0 {
		return nil, errors.NewParse("osis", "", "no verse elements with osisID")
	}
	return keys, nil
}

// ReadSQLite reads keys from a verses(book, chapter, verse) table in
// insertion order. book holds the canonical tag.
func ReadSQLite(ctx context.Context, path string) ([]string, error) {
	db, err := sqlite.OpenReadOnly(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT book, chapter, verse FROM verses ORDER BY rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "querying verses")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var (
			tag            string
			chapter, verse int
		)
		if err := rows.Scan(&tag, &chapter, &verse); err != nil {
			return nil, errors.Wrap(err, "scanning verse row")
		}
		b, ok := versification.BookFromTag(tag)
		if !ok {
			return nil, errors.NewNotFound("book", tag)
		}
		keys = append(keys, versification.FormatKey(b, chapter, verse))
	}
	return keys, rows.Err()
}
