package game

import (
	"fmt"
	"strconv"
	"strings"

	"ClayCatalog/internal/catalog"
)

// MapMarker locates a room on an overland area grid.
type MapMarker struct {
	Area int `yaml:"area"`
	X    int `yaml:"x"`
	Y    int `yaml:"y"`
	Z    int `yaml:"z"`
}

func (m MapMarker) String() string {
	return fmt.Sprintf("%d:%d:%d:%d", m.Area, m.X, m.Y, m.Z)
}

// ParseMarker reads the "area:x:y:z" form produced by String.
func ParseMarker(text string) (MapMarker, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 4 {
		return MapMarker{}, fmt.Errorf("map marker %q: want area:x:y:z", text)
	}
	var values [4]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return MapMarker{}, fmt.Errorf("map marker %q: %w", text, err)
		}
		values[i] = n
	}
	return MapMarker{Area: values[0], X: values[1], Y: values[2], Z: values[3]}, nil
}

// AreaRoom is a hand-built overland room. Unique links it to a unique room
// that players enter from the map.
type AreaRoom struct {
	Marker   MapMarker      `yaml:"marker"`
	Unique   catalog.Ref    `yaml:"unique,omitempty"`
	Exits    []Exit         `yaml:"exits,omitempty"`
	Monsters []MonsterReset `yaml:"monsters,omitempty"`
}

func (a *AreaRoom) refs(kind catalog.Kind) []*catalog.Ref {
	switch kind {
	case catalog.KindRoom:
		return append([]*catalog.Ref{&a.Unique}, exitTargets(a.Exits)...)
	case catalog.KindMonster:
		return monsterRefs(a.Monsters)
	case catalog.KindObject:
		refs := make([]*catalog.Ref, 0, len(a.Exits))
		for i := range a.Exits {
			refs = append(refs, &a.Exits[i].Key)
		}
		return refs
	}
	return nil
}

func (a *AreaRoom) Affected(s catalog.Swap) bool { return s.AnyTouched(a.refs(s.Kind)...) }

func (a *AreaRoom) Relocate(s catalog.Swap) bool { return s.ExchangeAll(a.refs(s.Kind)...) }

// Zone is a region of an area that routes players into a unique room.
type Zone struct {
	Name   string      `yaml:"name"`
	Unique catalog.Ref `yaml:"unique"`
}

func (z *Zone) Affected(s catalog.Swap) bool {
	return s.Kind == catalog.KindRoom && s.AnyTouched(&z.Unique)
}

func (z *Zone) Relocate(s catalog.Swap) bool {
	return s.Kind == catalog.KindRoom && s.ExchangeAll(&z.Unique)
}

// Area is an overland map with its hand-built rooms and zones.
type Area struct {
	ID    int         `yaml:"id"`
	Name  string      `yaml:"name"`
	Rooms []*AreaRoom `yaml:"rooms,omitempty"`
	Zones []*Zone     `yaml:"zones,omitempty"`
}

// ShipExit appears in Origin while the ship is docked and leads to Target.
type ShipExit struct {
	Name   string      `yaml:"name"`
	Origin catalog.Ref `yaml:"origin"`
	Target catalog.Ref `yaml:"target"`
}

// ShipRaid names where raiders put captured players and their loot.
type ShipRaid struct {
	Prison catalog.Ref `yaml:"prison"`
	Dump   catalog.Ref `yaml:"dump"`
}

type ShipStop struct {
	Name  string      `yaml:"name"`
	Exits []*ShipExit `yaml:"exits,omitempty"`
	Raid  *ShipRaid   `yaml:"raid,omitempty"`
}

// Ship travels between stops on a schedule.
type Ship struct {
	Name  string      `yaml:"name"`
	Stops []*ShipStop `yaml:"stops,omitempty"`
}

func (s *Ship) refs(kind catalog.Kind) []*catalog.Ref {
	if kind != catalog.KindRoom {
		return nil
	}
	var refs []*catalog.Ref
	for _, stop := range s.Stops {
		for _, exit := range stop.Exits {
			refs = append(refs, &exit.Origin, &exit.Target)
		}
		if stop.Raid != nil {
			refs = append(refs, &stop.Raid.Prison, &stop.Raid.Dump)
		}
	}
	return refs
}

func (s *Ship) Affected(sw catalog.Swap) bool { return sw.AnyTouched(s.refs(sw.Kind)...) }

func (s *Ship) Relocate(sw catalog.Swap) bool { return sw.ExchangeAll(s.refs(sw.Kind)...) }

// StartLoc is a place new characters may be bound to.
type StartLoc struct {
	Name     string      `yaml:"name"`
	Bind     catalog.Ref `yaml:"bind"`
	Required catalog.Ref `yaml:"required,omitempty"`
}

func (l *StartLoc) Affected(s catalog.Swap) bool {
	return s.Kind == catalog.KindRoom && s.AnyTouched(&l.Bind, &l.Required)
}

func (l *StartLoc) Relocate(s catalog.Swap) bool {
	return s.Kind == catalog.KindRoom && s.ExchangeAll(&l.Bind, &l.Required)
}

// SegmentInfo carries per-segment metadata. Limbo and Recall are positions
// inside the segment itself.
type SegmentInfo struct {
	Segment string `yaml:"segment"`
	Limbo   int    `yaml:"limbo,omitempty"`
	Recall  int    `yaml:"recall,omitempty"`
}

// IsSpecial reports whether ref is the segment's limbo or recall room.
func (si *SegmentInfo) IsSpecial(ref catalog.Ref) bool {
	if !ref.InSegment(si.Segment) || ref.ID <= 0 {
		return false
	}
	return ref.ID == si.Limbo || ref.ID == si.Recall
}

func (si *SegmentInfo) exchange(s catalog.Swap, id *int, apply bool) bool {
	if s.Kind != catalog.KindRoom || *id <= 0 {
		return false
	}
	ref := catalog.Ref{Segment: si.Segment, ID: *id}
	if !s.Exchange(&ref) || ref.Segment != si.Segment {
		return false
	}
	if apply {
		*id = ref.ID
	}
	return true
}

func (si *SegmentInfo) Affected(s catalog.Swap) bool {
	limbo, recall := si.Limbo, si.Recall
	return si.exchange(s, &limbo, false) || si.exchange(s, &recall, false)
}

func (si *SegmentInfo) Relocate(s catalog.Swap) bool {
	a := si.exchange(s, &si.Limbo, true)
	b := si.exchange(s, &si.Recall, true)
	return a || b
}

// Metadata is the in-memory world state that lives outside the record
// catalogs. It is saved as a single YAML document.
type Metadata struct {
	Areas     []*Area        `yaml:"areas,omitempty"`
	Ships     []*Ship        `yaml:"ships,omitempty"`
	StartLocs []*StartLoc    `yaml:"start_locations,omitempty"`
	Segments  []*SegmentInfo `yaml:"segments,omitempty"`
}

// Segment returns the info block for a segment.
func (m *Metadata) Segment(name string) (*SegmentInfo, bool) {
	name = catalog.NormalizeSegment(name)
	for _, info := range m.Segments {
		if catalog.NormalizeSegment(info.Segment) == name {
			return info, true
		}
	}
	return nil, false
}

// AreaRoom finds an overland room by marker.
func (m *Metadata) AreaRoom(marker MapMarker) (*AreaRoom, bool) {
	for _, area := range m.Areas {
		if area.ID != marker.Area {
			continue
		}
		for _, room := range area.Rooms {
			if room.Marker == marker {
				return room, true
			}
		}
	}
	return nil, false
}
