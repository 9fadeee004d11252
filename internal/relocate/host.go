package relocate

import (
	"ClayCatalog/internal/catalog"
	"ClayCatalog/internal/game"
)

// Host is the live world as seen by the coordinator and apply engine.
// *game.World implements it.
type Host interface {
	Lookup

	Store() *game.Store
	Metadata() *game.Metadata
	SaveMetadata() error
	StartRoom() catalog.Ref
	SetStartRoom(ref catalog.Ref)
	AreaRoom(marker game.MapMarker) (*game.AreaRoom, bool)
	ForEachAreaRoom(fn func(*game.AreaRoom))

	Room(ref catalog.Ref) (*game.Room, error)
	Monster(ref catalog.Ref) (*game.Monster, error)
	Object(ref catalog.Ref) (*game.Object, error)
	SaveRoom(room *game.Room) error
	SaveMonster(monster *game.Monster) error
	SaveObject(object *game.Object) error
	Evict(kind catalog.Kind, ref catalog.Ref)

	Players() []*game.Player
	ActivePlayer(name string) (*game.Player, bool)
	SavePlayer(p *game.Player) error
	IsDungeonmaster(name string) bool

	Notify(name, msg string)
	NotifyStaff(class game.Class, msg string)
}

var _ Host = (*game.World)(nil)
