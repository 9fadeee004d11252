package catalog

import (
	"fmt"
	"strings"
)

// Kind selects the catalog a ref points into.
type Kind int

const (
	KindNone Kind = iota
	KindRoom
	KindMonster
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindRoom:
		return "room"
	case KindMonster:
		return "monster"
	case KindObject:
		return "object"
	default:
		return "none"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	if len(text) == 0 || string(text) == "none" {
		*k = KindNone
		return nil
	}
	parsed, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown kind %q", text)
	}
	*k = parsed
	return nil
}

// ParseKind accepts the long names and the usual single-letter shorthands.
func ParseKind(text string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "room", "rooms", "r":
		return KindRoom, true
	case "monster", "monsters", "mob", "m":
		return KindMonster, true
	case "object", "objects", "obj", "o":
		return KindObject, true
	}
	return KindNone, false
}

// Swap exchanges two positions of one kind. Every ref equal to Origin
// becomes Target and every ref equal to Target becomes Origin, so applying a
// swap twice restores the original values.
type Swap struct {
	Kind   Kind `json:"kind" yaml:"kind"`
	Origin Ref  `json:"origin" yaml:"origin"`
	Target Ref  `json:"target" yaml:"target"`
}

func (s Swap) String() string {
	return fmt.Sprintf("%s %s -> %s", s.Kind, s.Origin.Display(), s.Target.Display())
}

// Resolved reports whether both ends name concrete positions.
func (s Swap) Resolved() bool {
	return s.Origin.Resolved() && s.Target.Resolved()
}

// Touches reports whether ref is one of the two ends.
func (s Swap) Touches(ref Ref) bool {
	if !ref.Resolved() {
		return false
	}
	return ref == s.Origin || (s.Target.Resolved() && ref == s.Target)
}

// Exchange rewrites a single ref in place and reports whether it changed.
func (s Swap) Exchange(ref *Ref) bool {
	if ref == nil || !s.Touches(*ref) {
		return false
	}
	if *ref == s.Origin {
		*ref = s.Target
	} else {
		*ref = s.Origin
	}
	return true
}

// AnyTouched reports whether Exchange would change at least one of refs.
func (s Swap) AnyTouched(refs ...*Ref) bool {
	for _, ref := range refs {
		if ref != nil && s.Touches(*ref) {
			return true
		}
	}
	return false
}

// ExchangeAll rewrites every ref and reports whether any changed.
func (s Swap) ExchangeAll(refs ...*Ref) bool {
	changed := false
	for _, ref := range refs {
		if s.Exchange(ref) {
			changed = true
		}
	}
	return changed
}

// Relocatable is implemented by every record that can hold refs.
//
// Affected must return true exactly when Relocate would change the record.
// Implementations only rewrite refs of the swap's Kind.
type Relocatable interface {
	Affected(Swap) bool
	Relocate(Swap) bool
}
