// Package validation checks untrusted input at the API and CLI boundaries:
// reference queries from HTTP and WebSocket clients, and verse source files
// named in configuration.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits to prevent resource exhaustion (CWE-400).
const (
	// MaxQueryLength is the longest reference query accepted, in bytes.
	// Real references are short; long inputs are lists joined with ';'.
	MaxQueryLength = 512
	// MaxBatchSize is the largest number of queries in one batch request.
	MaxBatchSize = 100
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrEmptyQuery       = errors.New("query cannot be empty")
	ErrQueryTooLong     = errors.New("query too long")
	ErrBatchTooLarge    = errors.New("batch too large")
	ErrInvalidEncoding  = errors.New("query is not valid UTF-8")
	ErrInvalidCharacter = errors.New("invalid character")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
)

// ValidateQuery checks a reference query. Whitespace-only queries are
// reported as empty.
func ValidateQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return ErrEmptyQuery
	}
	if len(q) > MaxQueryLength {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrQueryTooLong, len(q), MaxQueryLength)
	}
	if !utf8.ValidString(q) {
		return ErrInvalidEncoding
	}
	for _, r := range q {
		if unicode.IsControl(r) && r != '\t' {
			return fmt.Errorf("%w: control character U+%04X", ErrInvalidCharacter, r)
		}
	}
	return nil
}

// ValidateBatch checks every query of a batch.
func ValidateBatch(queries []string) error {
	if len(queries) == 0 {
		return ErrEmptyQuery
	}
	if len(queries) > MaxBatchSize {
		return fmt.Errorf("%w: %d queries exceeds %d", ErrBatchTooLarge, len(queries), MaxBatchSize)
	}
	for i, q := range queries {
		if err := ValidateQuery(q); err != nil {
			return fmt.Errorf("query %d: %w", i, err)
		}
	}
	return nil
}

// SanitizeQuery trims whitespace and removes control characters.
func SanitizeQuery(q string) string {
	q = strings.TrimSpace(q)
	var b strings.Builder
	for _, r := range q {
		if r == utf8.RuneError || (unicode.IsControl(r) && r != '\t') {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidatePath checks for dangerous patterns, length limits and invalid
// characters without requiring a base directory.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// FileType is the detected format of a verse source file.
type FileType string

const (
	FileTypeXZ      FileType = "xz"
	FileTypeSQLite  FileType = "sqlite"
	FileTypeXML     FileType = "xml"
	FileTypeJSON    FileType = "json"
	FileTypeText    FileType = "text"
	FileTypeUnknown FileType = "unknown"
)

// magicBytes defines magic byte signatures for file type detection.
var magicBytes = []struct {
	fileType FileType
	magic    []byte
	offset   int
}{
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, 0},
	{FileTypeSQLite, []byte("SQLite format 3"), 0},
}

// DetectFileType reads the head of r and returns the file type, checking
// magic bytes against the extension of filename. Text formats that carry no
// magic are accepted on extension when the content looks like text.
func DetectFileType(r io.Reader, filename string) (FileType, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	detected := detectFileTypeFromMagic(buf)
	expected := detectFileTypeFromExtension(filename)

	if detected != FileTypeUnknown {
		if expected != FileTypeUnknown && expected != detected {
			return FileTypeUnknown, fmt.Errorf("file type mismatch: extension suggests %s but content is %s", expected, detected)
		}
		return detected, nil
	}
	if !isLikelyText(buf) {
		return FileTypeUnknown, fmt.Errorf("unrecognized binary content in %s", filepath.Base(filename))
	}
	if expected != FileTypeUnknown && expected != FileTypeXZ && expected != FileTypeSQLite {
		return expected, nil
	}
	return sniffText(buf), nil
}

// sniffText guesses the text format from its first non-blank byte.
func sniffText(buf []byte) FileType {
	trimmed := bytes.TrimLeft(buf, " \t\r\n\xef\xbb\xbf")
	switch {
	case len(trimmed) == 0:
		return FileTypeText
	case trimmed[0] == '<':
		return FileTypeXML
	case trimmed[0] == '[' || trimmed[0] == '{':
		return FileTypeJSON
	default:
		return FileTypeText
	}
}

func detectFileTypeFromMagic(buf []byte) FileType {
	for _, sig := range magicBytes {
		if sig.offset+len(sig.magic) <= len(buf) {
			if bytes.Equal(buf[sig.offset:sig.offset+len(sig.magic)], sig.magic) {
				return sig.fileType
			}
		}
	}
	return FileTypeUnknown
}

func detectFileTypeFromExtension(filename string) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xz":
		return FileTypeXZ
	case ".sqlite", ".db", ".sqlite3":
		return FileTypeSQLite
	case ".xml", ".osis":
		return FileTypeXML
	case ".json":
		return FileTypeJSON
	case ".txt", ".keys":
		return FileTypeText
	default:
		return FileTypeUnknown
	}
}

// isLikelyText reports whether the buffer appears to be text (UTF-8, ASCII).
// An empty buffer counts as text.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return true
	}
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable := 0
	control := 0
	for _, b := range buf {
		if b >= 0x20 && b <= 0x7e || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else if b < 0x20 {
			control++
		}
	}

	return printable > 0 && float64(printable)/float64(printable+control) > 0.95
}
