package game

import (
	"fmt"
	"strings"
	"time"

	"ClayCatalog/internal/catalog"
)

// Class orders player privileges.
type Class int

const (
	ClassPlayer Class = iota
	ClassBuilder
	ClassCaretaker
	ClassDungeonmaster
)

func (c Class) String() string {
	switch c {
	case ClassBuilder:
		return "builder"
	case ClassCaretaker:
		return "caretaker"
	case ClassDungeonmaster:
		return "dungeonmaster"
	default:
		return "player"
	}
}

func (c Class) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Class) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "", "player":
		*c = ClassPlayer
	case "builder":
		*c = ClassBuilder
	case "caretaker", "ct":
		*c = ClassCaretaker
	case "dungeonmaster", "dm":
		*c = ClassDungeonmaster
	default:
		return fmt.Errorf("unknown class %q", text)
	}
	return nil
}

// IsStaff reports whether the class may use building tools.
func (c Class) IsStaff() bool { return c >= ClassBuilder }

// Anchor is a named recall point a player has set.
type Anchor struct {
	Name string      `json:"name"`
	Room catalog.Ref `json:"room"`
}

const maxAnchors = 3

// PlayerRecord is the persisted part of a player.
type PlayerRecord struct {
	Name      string          `json:"name"`
	Class     Class           `json:"class"`
	Bound     catalog.Ref     `json:"bound"`
	Location  catalog.Ref     `json:"location"`
	Anchors   []Anchor        `json:"anchors,omitempty"`
	Visited   []catalog.Ref   `json:"visited,omitempty"`
	Inventory []catalog.Ref   `json:"inventory,omitempty"`
	Ranges    []catalog.Range `json:"ranges,omitempty"`
}

func (p *PlayerRecord) refs(kind catalog.Kind) []*catalog.Ref {
	switch kind {
	case catalog.KindRoom:
		refs := []*catalog.Ref{&p.Bound, &p.Location}
		for i := range p.Anchors {
			refs = append(refs, &p.Anchors[i].Room)
		}
		return append(refs, refPointers(p.Visited)...)
	case catalog.KindObject:
		return refPointers(p.Inventory)
	}
	return nil
}

func (p *PlayerRecord) Affected(s catalog.Swap) bool { return s.AnyTouched(p.refs(s.Kind)...) }

func (p *PlayerRecord) Relocate(s catalog.Swap) bool { return s.ExchangeAll(p.refs(s.Kind)...) }

// CanBuild reports whether ref lies in one of the player's allotted ranges.
// Caretakers and above may build anywhere.
func (p *PlayerRecord) CanBuild(ref catalog.Ref) bool {
	if p.Class >= ClassCaretaker {
		return true
	}
	for _, rg := range p.Ranges {
		if rg.Contains(ref) {
			return true
		}
	}
	return false
}

// SetAnchor stores a recall point, replacing one with the same name.
func (p *PlayerRecord) SetAnchor(name string, room catalog.Ref) error {
	for i := range p.Anchors {
		if strings.EqualFold(p.Anchors[i].Name, name) {
			p.Anchors[i].Room = room
			return nil
		}
	}
	if len(p.Anchors) >= maxAnchors {
		return fmt.Errorf("you may only keep %d anchors", maxAnchors)
	}
	p.Anchors = append(p.Anchors, Anchor{Name: name, Room: room})
	return nil
}

// Visit records a room in the visited list once.
func (p *PlayerRecord) Visit(room catalog.Ref) {
	for _, seen := range p.Visited {
		if seen == room {
			return
		}
	}
	p.Visited = append(p.Visited, room)
}

// Player is a connected session wrapped around its record.
type Player struct {
	PlayerRecord
	Session  *Session
	Output   chan string
	Alive    bool
	JoinedAt time.Time
	history  []time.Time
}

const (
	commandLimit  = 5
	commandWindow = time.Second
)

func (p *Player) allowCommand(now time.Time) bool {
	cutoff := now.Add(-commandWindow)
	filtered := p.history[:0]
	for _, t := range p.history {
		if t.After(cutoff) {
			filtered = append(filtered, t)
		}
	}
	p.history = filtered
	if len(p.history) >= commandLimit {
		return false
	}
	p.history = append(p.history, now)
	return true
}

// Send queues output without blocking the caller.
func (p *Player) Send(msg string) bool {
	if p == nil || p.Output == nil {
		return false
	}
	select {
	case p.Output <- msg:
		return true
	default:
		return false
	}
}
