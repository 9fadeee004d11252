package game

import (
	"sort"
	"strings"

	"ClayCatalog/internal/catalog"
)

// Exit links a room to another room. Lockable exits may name the object
// that opens them.
type Exit struct {
	Name     string      `json:"name"`
	Target   catalog.Ref `json:"target"`
	Lockable bool        `json:"lockable,omitempty"`
	Key      catalog.Ref `json:"key,omitempty"`
}

// MonsterReset places copies of a monster template in a room.
type MonsterReset struct {
	Monster catalog.Ref `json:"monster"`
	Count   int         `json:"count,omitempty"`
}

// ObjectReset places copies of an object template in a room.
type ObjectReset struct {
	Object catalog.Ref `json:"object"`
	Count  int         `json:"count,omitempty"`
}

// Room is a persisted unique room.
type Room struct {
	Ref         catalog.Ref    `json:"ref"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Shop        bool           `json:"shop,omitempty"`
	TrapExit    catalog.Ref    `json:"trap_exit,omitempty"`
	Exits       []Exit         `json:"exits,omitempty"`
	Monsters    []MonsterReset `json:"monsters,omitempty"`
	Objects     []ObjectReset  `json:"objects,omitempty"`
	Hooks       []Hook         `json:"hooks,omitempty"`
}

func (r *Room) refs(kind catalog.Kind) []*catalog.Ref {
	var refs []*catalog.Ref
	switch kind {
	case catalog.KindRoom:
		refs = append(refs, &r.Ref, &r.TrapExit)
		refs = append(refs, exitTargets(r.Exits)...)
	case catalog.KindMonster:
		for i := range r.Monsters {
			refs = append(refs, &r.Monsters[i].Monster)
		}
	case catalog.KindObject:
		for i := range r.Objects {
			refs = append(refs, &r.Objects[i].Object)
		}
		for i := range r.Exits {
			refs = append(refs, &r.Exits[i].Key)
		}
	}
	return append(refs, hookRefs(r.Hooks, kind)...)
}

func (r *Room) Affected(s catalog.Swap) bool { return s.AnyTouched(r.refs(s.Kind)...) }

func (r *Room) Relocate(s catalog.Swap) bool { return s.ExchangeAll(r.refs(s.Kind)...) }

// HasKeyedExit reports whether any exit is lockable and opened by a key.
func (r *Room) HasKeyedExit() bool {
	for _, exit := range r.Exits {
		if exit.Lockable && exit.Key.Resolved() {
			return true
		}
	}
	return false
}

// ExitList renders exit names for room descriptions.
func ExitList(exits []Exit) string {
	if len(exits) == 0 {
		return "none"
	}
	names := make([]string, 0, len(exits))
	for _, exit := range exits {
		names = append(names, exit.Name)
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}

func exitTargets(exits []Exit) []*catalog.Ref {
	refs := make([]*catalog.Ref, 0, len(exits))
	for i := range exits {
		refs = append(refs, &exits[i].Target)
	}
	return refs
}

func monsterRefs(resets []MonsterReset) []*catalog.Ref {
	refs := make([]*catalog.Ref, 0, len(resets))
	for i := range resets {
		refs = append(refs, &resets[i].Monster)
	}
	return refs
}

func refPointers(list []catalog.Ref) []*catalog.Ref {
	refs := make([]*catalog.Ref, 0, len(list))
	for i := range list {
		refs = append(refs, &list[i])
	}
	return refs
}
