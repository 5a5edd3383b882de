package refparse

import (
	"strconv"

	"github.com/FocuswithJustin/scriptref/core/versification"
)

// Reference is one resolved verse. Chapter and Verse are 1-based and always
// exist in the engine's table. Part is "", "a", "b" or "c".
type Reference struct {
	Book    versification.Book `json:"book"`
	Chapter int                `json:"chapter"`
	Verse   int                `json:"verse"`
	Part    string             `json:"part,omitempty"`
}

// Key returns the canonical key without the verse part.
func (r Reference) Key() string {
	return versification.FormatKey(r.Book, r.Chapter, r.Verse)
}

func (r Reference) String() string {
	return Format(r)
}

// Format renders the canonical key "{Tag}.{chapter}:{verse}[part]".
func Format(r Reference) string {
	return r.Book.Tag() + "." + strconv.Itoa(r.Chapter) + ":" + strconv.Itoa(r.Verse) + r.Part
}

// Kind distinguishes single references from spans.
type Kind uint8

const (
	// Single is one verse; End equals Start.
	Single Kind = iota
	// Span is an explicit range such as "Jn 3:16-18".
	Span
	// Following is f/ff notation such as "Jn 3:16ff".
	Following
)

func (k Kind) String() string {
	switch k {
	case Span:
		return "range"
	case Following:
		return "following"
	default:
		return "single"
	}
}

// Piece is the parse result for one atomic piece of input.
type Piece struct {
	Start Reference
	End   Reference
	Kind  Kind
}

// IsRange reports whether the piece spans more than its start.
func (p Piece) IsRange() bool {
	return p.Kind != Single
}

func single(r Reference) Piece {
	return Piece{Start: r, End: r, Kind: Single}
}

// Reason tags why a candidate was proposed.
type Reason string

// Candidate reasons.
const (
	ReasonSpacePrimary Reason = "space-primary"
	ReasonSpaceAlt     Reason = "space-alt"
	ReasonChapterOnly  Reason = "chapter-only"
	ReasonCompact      Reason = "compact"
	ReasonAltInference Reason = "alt-inference"
	ReasonFallback     Reason = "fallback"
)

// Prior confidences per reading.
const (
	ConfidenceSpacePrimary   = 1.0
	ConfidenceChapterOnly    = 0.95
	ConfidenceFallback       = 0.9
	ConfidenceCompactPrimary = 0.85
	ConfidenceCompactSplit   = 0.8
	ConfidenceCompactWhole   = 0.7
	ConfidenceSpaceAlt       = 0.6
	ConfidenceAltInference   = 0.55
)

// Candidate is one admissible reading of ambiguous input.
type Candidate struct {
	Key        string    `json:"key"`
	Ref        Reference `json:"ref"`
	Reason     Reason    `json:"reason"`
	Confidence float64   `json:"confidence"`
}
