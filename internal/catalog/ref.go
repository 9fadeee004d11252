// Package catalog models the identifiers used by persisted world records.
//
// A Ref names one position in one segment of a catalog, such as "misc.100".
// The same text is valid for rooms, monsters and objects; the Kind a ref is
// read as decides which catalog it points into.
package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

const (
	// Unresolved marks a ref whose position has not been chosen yet. A
	// relocation target in this state means "the next free slot".
	Unresolved = -1
	// MaxPosition bounds every segment; valid positions are below it.
	MaxPosition = 20000

	maxSegmentLen = 20
)

var (
	ErrEmptyRef       = errors.New("empty identifier")
	ErrInvalidSegment = errors.New("invalid segment name")
	ErrInvalidID      = errors.New("invalid position")
)

// Ref is a (segment, position) pair.
type Ref struct {
	Segment string `json:"segment" yaml:"segment"`
	ID      int    `json:"id" yaml:"id"`
}

// New builds a ref with a normalised segment name.
func New(segment string, id int) Ref {
	return Ref{Segment: NormalizeSegment(segment), ID: id}
}

// NormalizeSegment folds case and truncates long segment names.
func NormalizeSegment(segment string) string {
	folded := cases.Fold().String(strings.TrimSpace(segment))
	runes := []rune(folded)
	if len(runes) > maxSegmentLen {
		runes = runes[:maxSegmentLen]
	}
	return string(runes)
}

// Parse reads "seg.N", "seg:N", a bare "N" (in defaultSegment) or a bare
// segment name, which yields an unresolved ref.
func Parse(text, defaultSegment string) (Ref, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Ref{}, ErrEmptyRef
	}
	segment, position, split := cutRef(text)
	if !split {
		if isDigits(text) {
			segment, position = defaultSegment, text
		} else {
			segment, position = text, ""
		}
	}
	if strings.TrimSpace(segment) == "" {
		segment = defaultSegment
	}
	segment = NormalizeSegment(segment)
	if !validSegment(segment) {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidSegment, segment)
	}
	if position == "" {
		return Ref{Segment: segment, ID: Unresolved}, nil
	}
	if !isDigits(position) {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidID, position)
	}
	id, err := strconv.Atoi(position)
	if err != nil || id >= MaxPosition {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidID, position)
	}
	return Ref{Segment: segment, ID: id}, nil
}

func cutRef(text string) (string, string, bool) {
	idx := strings.IndexAny(text, ".:")
	if idx < 0 {
		return "", "", false
	}
	return text[:idx], text[idx+1:], true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validSegment(segment string) bool {
	if segment == "" {
		return false
	}
	for _, r := range segment {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}

// Resolved reports whether the ref names a concrete position.
func (r Ref) Resolved() bool {
	return r.Segment != "" && r.ID >= 0
}

// IsZero reports whether the ref was never set.
func (r Ref) IsZero() bool {
	return r.Segment == "" && r.ID == 0
}

// IsRoot reports whether the ref names the reserved position zero.
func (r Ref) IsRoot() bool {
	return r.ID == 0
}

// InSegment compares segments only.
func (r Ref) InSegment(segment string) bool {
	return r.Segment == NormalizeSegment(segment)
}

// String renders the reloadable form "seg.N", or just "seg" when unresolved.
func (r Ref) String() string {
	if r.ID < 0 {
		return r.Segment
	}
	return r.Segment + "." + strconv.Itoa(r.ID)
}

// Display renders "seg:N" for player-facing output.
func (r Ref) Display() string {
	if r.ID < 0 {
		return r.Segment + ":<next free>"
	}
	return r.Segment + ":" + strconv.Itoa(r.ID)
}

// Next returns the ref offset by n positions, leaving unresolved refs alone.
func (r Ref) Next(n int) Ref {
	if !r.Resolved() {
		return r
	}
	return Ref{Segment: r.Segment, ID: r.ID + n}
}

// Range is a contiguous run of positions in one segment. A Low position of
// Unresolved covers the whole segment.
type Range struct {
	Low  Ref `json:"low" yaml:"low"`
	High int `json:"high" yaml:"high"`
}

// Contains reports whether ref falls inside the range.
func (rg Range) Contains(ref Ref) bool {
	if ref.Segment != rg.Low.Segment {
		return false
	}
	if rg.Low.ID < 0 {
		return true
	}
	return ref.ID >= rg.Low.ID && ref.ID <= rg.High
}

func (rg Range) String() string {
	if rg.Low.ID < 0 {
		return rg.Low.Segment + ":*"
	}
	return fmt.Sprintf("%s:%d-%d", rg.Low.Segment, rg.Low.ID, rg.High)
}
