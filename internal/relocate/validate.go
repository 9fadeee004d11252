package relocate

import (
	"fmt"

	"golang.org/x/exp/slices"

	"ClayCatalog/internal/catalog"
	"ClayCatalog/internal/game"
)

// Rules are the site-specific limits on relocation.
type Rules struct {
	QueueLimit   int
	MaxPosition  int
	StreamBuffer int
	// Restricted lists segments per kind that may not take part at all.
	Restricted map[catalog.Kind][]string
	// Reserved lists fixed positions per kind that the code refers to
	// directly and so can never move.
	Reserved map[catalog.Kind][]catalog.Ref
}

// DefaultRules returns the stock limits.
func DefaultRules() Rules {
	return Rules{
		QueueLimit:   100,
		MaxPosition:  catalog.MaxPosition,
		StreamBuffer: defaultStreamBuffer,
		Restricted: map[catalog.Kind][]string{
			catalog.KindRoom: {"area", "stor", "shop", "guild"},
		},
		Reserved: map[catalog.Kind][]catalog.Ref{
			catalog.KindRoom: {catalog.New("test", 1)},
			catalog.KindObject: {
				catalog.New("misc", 349),
				catalog.New("misc", 800),
				catalog.New("misc", 21),
				catalog.New("misc", 39),
				catalog.New("misc", 200),
			},
		},
	}
}

// ValidationError carries the reason shown to the requester.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Lookup is the read-only world view the validator needs.
type Lookup interface {
	SegmentInfo(segment string) (game.SegmentInfo, bool)
	Requester(name string) (game.PlayerRecord, bool)
}

// Validator checks a request for basic legality. It never changes state.
type Validator struct {
	rules  Rules
	lookup Lookup
}

func NewValidator(rules Rules, lookup Lookup) *Validator {
	return &Validator{rules: rules, lookup: lookup}
}

// Check returns a *ValidationError for an illegal request. Checks that need
// a concrete target are skipped while the target is unresolved.
func (v *Validator) Check(req Request) error {
	if req.Kind == catalog.KindNone {
		return invalid("invalid relocation kind")
	}
	if !req.Origin.Resolved() {
		return invalid("the origin must name a position")
	}
	resolved := req.Target.Resolved()
	if req.Target.Segment == "" {
		return invalid("the target must name at least a segment")
	}
	if resolved && req.Origin == req.Target {
		return invalid("cannot relocate an entity to itself")
	}
	if req.Origin.IsRoot() || (resolved && req.Target.IsRoot()) {
		return invalid("cannot relocate the reserved root entity")
	}
	limit := v.rules.MaxPosition
	if limit <= 0 {
		limit = catalog.MaxPosition
	}
	if req.Origin.ID >= limit || req.Target.ID >= limit {
		return invalid("positions must be below %d", limit)
	}
	for _, segment := range []string{req.Origin.Segment, req.Target.Segment} {
		if slices.Contains(v.rules.Restricted[req.Kind], segment) {
			return invalid("%s is a restricted segment for %ss", segment, req.Kind)
		}
	}
	for _, reserved := range v.rules.Reserved[req.Kind] {
		if req.Origin == reserved || (resolved && req.Target == reserved) {
			return invalid("%s %s is hard-coded and cannot be relocated", req.Kind, reserved.Display())
		}
	}
	if req.Kind == catalog.KindRoom {
		if err := v.checkSpecialRooms(req); err != nil {
			return err
		}
	}
	return v.checkRanges(req)
}

func (v *Validator) checkSpecialRooms(req Request) error {
	if v.lookup == nil || req.Origin.Segment == req.Target.Segment {
		return nil
	}
	ends := []catalog.Ref{req.Origin}
	if req.Target.Resolved() {
		ends = append(ends, req.Target)
	}
	for _, end := range ends {
		info, ok := v.lookup.SegmentInfo(end.Segment)
		if ok && info.IsSpecial(end) {
			return invalid("%s is a limbo or recall room and cannot leave its segment", end.Display())
		}
	}
	return nil
}

func (v *Validator) checkRanges(req Request) error {
	if v.lookup == nil {
		return nil
	}
	record, ok := v.lookup.Requester(req.Requester)
	if !ok || record.Class >= game.ClassCaretaker {
		return nil
	}
	if !record.CanBuild(req.Origin) {
		return invalid("%s is outside your allotted ranges", req.Origin.Display())
	}
	if req.Target.Resolved() && !record.CanBuild(req.Target) {
		return invalid("%s is outside your allotted ranges", req.Target.Display())
	}
	return nil
}
