// Package relocate moves catalog records from one position to another while
// the world keeps running.
//
// A relocation is a symmetric catalog.Swap. The Coordinator accepts requests,
// runs at most one at a time, and hands the slow parts (finding a free
// position, walking every persisted record) to worker goroutines whose
// results are streamed back and drained on each game loop tick. When the
// scan ends the ApplyEngine rewrites every touched record and the next
// queued request starts.
package relocate

import (
	"errors"
	"fmt"
	"strings"

	"ClayCatalog/internal/catalog"
	"ClayCatalog/internal/game"
)

var (
	ErrDuplicate      = errors.New("that entity is already queued for relocation")
	ErrQueueFull      = errors.New("the relocation queue is full")
	ErrSearchRunning  = errors.New("another identifier search is already running")
	ErrNoFreeSlot     = errors.New("no free slot")
	ErrTargetTaken    = errors.New("the free slot was taken before it could be used")
	ErrWorker         = errors.New("relocation worker failed")
	ErrNoSuchPosition = errors.New("no relocation at that position")
)

// Request is a relocation asked for by a player.
type Request struct {
	Requester string
	catalog.Swap
}

// Match offers an applied swap to a queued request. A queued request that
// names either end of the applied swap is rewritten so it still refers to
// the same entity after the move.
func (r *Request) Match(applied catalog.Swap) bool {
	if r.Kind != applied.Kind {
		return false
	}
	return applied.ExchangeAll(&r.Origin, &r.Target)
}

func (r Request) sameOrigin(other Request) bool {
	return r.Kind == other.Kind && r.Origin == other.Origin
}

// TagKind is the one-letter prefix of a touched-set entry.
type TagKind byte

const (
	TagPlayer   TagKind = 'p'
	TagBackup   TagKind = 'b'
	TagRoom     TagKind = 'r'
	TagMonster  TagKind = 'm'
	TagObject   TagKind = 'o'
	TagAreaRoom TagKind = 'a'
)

// Tag identifies one record that must be rewritten when a relocation is
// applied. Its string form is the line format workers stream back.
type Tag struct {
	Kind TagKind
	Key  string
}

func (t Tag) String() string { return string(t.Kind) + t.Key }

// ParseTag reads a streamed tag line.
func ParseTag(line string) (Tag, error) {
	line = strings.TrimSpace(line)
	if len(line) < 2 {
		return Tag{}, fmt.Errorf("malformed tag %q", line)
	}
	kind := TagKind(line[0])
	switch kind {
	case TagPlayer, TagBackup, TagRoom, TagMonster, TagObject, TagAreaRoom:
	default:
		return Tag{}, fmt.Errorf("unknown tag kind in %q", line)
	}
	return Tag{Kind: kind, Key: line[1:]}, nil
}

// isPlayer reports whether the tag names a player or player backup.
func (t Tag) isPlayer() bool {
	return t.Kind == TagPlayer || t.Kind == TagBackup
}

func refTag(kind catalog.Kind, ref catalog.Ref) Tag {
	switch kind {
	case catalog.KindMonster:
		return Tag{Kind: TagMonster, Key: ref.String()}
	case catalog.KindObject:
		return Tag{Kind: TagObject, Key: ref.String()}
	default:
		return Tag{Kind: TagRoom, Key: ref.String()}
	}
}

func partitionTag(partition game.Partition, key string) (Tag, bool) {
	switch partition {
	case game.PartitionPlayers:
		return Tag{Kind: TagPlayer, Key: key}, true
	case game.PartitionBackups:
		return Tag{Kind: TagBackup, Key: key}, true
	case game.PartitionRooms:
		return Tag{Kind: TagRoom, Key: key}, true
	case game.PartitionMonsters:
		return Tag{Kind: TagMonster, Key: key}, true
	case game.PartitionObjects:
		return Tag{Kind: TagObject, Key: key}, true
	}
	return Tag{}, false
}
