package versesource

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/scriptref/core/errors"
	"github.com/FocuswithJustin/scriptref/core/osisxml"
	"github.com/FocuswithJustin/scriptref/core/sqlite"
	"github.com/FocuswithJustin/scriptref/core/versification"
)

const verseSchema = `CREATE TABLE IF NOT EXISTS verses (
	book    TEXT    NOT NULL,
	chapter INTEGER NOT NULL,
	verse   INTEGER NOT NULL,
	PRIMARY KEY (book, chapter, verse)
)`

// WriteKeys writes every key of t to w, one per line, xz-compressed when
// compress is set.
func WriteKeys(w io.Writer, t *versification.Table, compress bool) error {
	var zw *xz.Writer
	if compress {
		var err error
		if zw, err = xz.NewWriter(w); err != nil {
			return fmt.Errorf("creating xz writer: %w", err)
		}
		w = zw
	}
	bw := bufio.NewWriter(w)
	for _, key := range t.Keys() {
		if _, err := bw.WriteString(key + "\n"); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if zw != nil {
		return zw.Close()
	}
	return nil
}

// WriteKeysFile writes the key list of t to path.
func WriteKeysFile(path string, t *versification.Table, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	if err := WriteKeys(f, t, compress); err != nil {
		f.Close()
		return errors.NewIO("write", path, err)
	}
	return f.Close()
}

// WriteOSIS writes t as an OSIS skeleton: one empty verse element per verse,
// nested in book divs and chapters. work names the osisText work.
func WriteOSIS(w io.Writer, t *versification.Table, work string) error {
	bw := bufio.NewWriter(w)
	x := osisxml.NewWriter(bw, "  ")
	x.Start("osis", osisxml.Attr{Name: "xmlns", Value: osisxml.Namespace})
	x.Start("osisText", osisxml.Attr{Name: "osisIDWork", Value: work}, osisxml.Attr{Name: "osisRefWork", Value: "Bible"})
	for _, b := range t.Books() {
		x.Start("div", osisxml.Attr{Name: "type", Value: "book"}, osisxml.Attr{Name: "osisID", Value: b.Tag()})
		for c, n := range t.Chapters(b) {
			chapterID := b.Tag() + "." + strconv.Itoa(c+1)
			x.Start("chapter", osisxml.Attr{Name: "osisID", Value: chapterID})
			for v := 1; v <= n; v++ {
				x.Empty("verse", osisxml.Attr{Name: "osisID", Value: chapterID + "." + strconv.Itoa(v)})
			}
			x.End()
		}
		x.End()
	}
	if err := x.Close(); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteOSISFile writes t as an OSIS document at path.
func WriteOSISFile(path string, t *versification.Table, work string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	if err := WriteOSIS(f, t, work); err != nil {
		f.Close()
		return errors.NewIO("write", path, err)
	}
	return f.Close()
}

// WriteSQLite stores every verse of t in a verses table at path, replacing
// any rows already there.
func WriteSQLite(ctx context.Context, path string, t *versification.Table) error {
	db, err := sqlite.Open(path)
	if err != nil {
		return errors.NewIO("open", path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, verseSchema); err != nil {
		return fmt.Errorf("creating verses table: %w", err)
	}
	return sqlite.WithTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM verses`); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO verses (book, chapter, verse) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, b := range t.Books() {
			for c, n := range t.Chapters(b) {
				for v := 1; v <= n; v++ {
					if _, err := stmt.ExecContext(ctx, b.Tag(), c+1, v); err != nil {
						return fmt.Errorf("inserting %s: %w", versification.FormatKey(b, c+1, v), err)
					}
				}
			}
		}
		return nil
	})
}
