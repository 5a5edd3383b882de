package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestResolveError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ResolveError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with detail",
			err:      &ResolveError{Kind: ErrInvalidChapter, Piece: "Gen 999:1", Detail: "Gen has 50 chapters"},
			wantMsg:  `invalid chapter: "Gen 999:1" (Gen has 50 chapters)`,
			wantBase: ErrInvalidChapter,
		},
		{
			name:     "without detail",
			err:      &ResolveError{Kind: ErrUnrecognizedBook, Piece: "Xyzzy 1:1"},
			wantMsg:  `unrecognized book: "Xyzzy 1:1"`,
			wantBase: ErrUnrecognizedBook,
		},
		{
			name:     "missing kind defaults to malformed",
			err:      &ResolveError{Piece: "???"},
			wantMsg:  `<nil>: "???"`,
			wantBase: ErrMalformedShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, tt.wantBase) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.wantBase)
			}
		})
	}
}

func TestResolveErrorIsDistinct(t *testing.T) {
	err := NewResolve(ErrInvalidVerse, "Jn 3:99", "")
	if errors.Is(err, ErrInvalidChapter) {
		t.Error("invalid verse must not match ErrInvalidChapter")
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Error("resolution failures are not input validation errors")
	}
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "book", ID: "Bar"},
			wantMsg:  "book not found: Bar",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "table"},
			wantMsg:  "table not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("disk error")
		err := &NotFoundError{Resource: "file", ID: "kjv.keys", Err: underlyingErr}
		if got := err.Error(); got != "file not found: kjv.keys" {
			t.Errorf("Error() = %q, want %q", got, "file not found: kjv.keys")
		}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with field",
			err:      &ValidationError{Field: "q", Message: "too long"},
			wantMsg:  "validation failed for q: too long",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "without field",
			err:      &ValidationError{Message: "invalid format"},
			wantMsg:  "validation failed: invalid format",
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestIOError(t *testing.T) {
	baseErr := fmt.Errorf("permission denied")
	tests := []struct {
		name    string
		err     *IOError
		wantMsg string
	}{
		{
			name:    "with path",
			err:     &IOError{Operation: "read", Path: "/data/kjv.keys", Err: baseErr},
			wantMsg: "failed to read /data/kjv.keys: permission denied",
		},
		{
			name:    "without path",
			err:     &IOError{Operation: "write", Err: baseErr},
			wantMsg: "failed to write: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, baseErr) {
				t.Errorf("Unwrap() = %v, want %v", got, baseErr)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ParseError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with path",
			err:      &ParseError{Format: "key list", Path: "kjv.keys", Message: "line 3: bad key"},
			wantMsg:  "failed to parse key list at kjv.keys: line 3: bad key",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "without path",
			err:      &ParseError{Format: "OSIS", Message: "no verses"},
			wantMsg:  "failed to parse OSIS: no verses",
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupported("table source", ".csv")
	if got := err.Error(); got != "unsupported table source: .csv" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Error("UnsupportedError should unwrap to ErrUnsupported")
	}
}

func TestWrap(t *testing.T) {
	baseErr := fmt.Errorf("base error")
	wrapped := Wrap(baseErr, "context message")
	if !errors.Is(wrapped, baseErr) {
		t.Errorf("Wrap() error does not unwrap to base error")
	}
	if wrapped.Error() != "context message: base error" {
		t.Errorf("Wrap() = %q", wrapped.Error())
	}
	if got := Wrap(nil, "context"); got != nil {
		t.Errorf("Wrap(nil) = %v, want nil", got)
	}
	if got := Wrapf(nil, "context %s", "x"); got != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", got)
	}
	if got := Wrapf(baseErr, "load %s", "kjv"); got.Error() != "load kjv: base error" {
		t.Errorf("Wrapf() = %q", got.Error())
	}
}

func TestAs(t *testing.T) {
	var err error = fmt.Errorf("outer: %w", NewResolve(ErrInvalidVerse, "Ps 23:7", ""))
	var re *ResolveError
	if !As(err, &re) {
		t.Fatal("As() failed to match ResolveError")
	}
	if re.Piece != "Ps 23:7" {
		t.Errorf("Piece = %q, want %q", re.Piece, "Ps 23:7")
	}
	if !Is(err, ErrInvalidVerse) {
		t.Error("Is() failed through wrap chain")
	}
}
