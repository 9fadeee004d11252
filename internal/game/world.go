package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ClayCatalog/internal/catalog"
)

// World holds everything the live game keeps in memory: connected players,
// records materialised from the store, and the world metadata document.
type World struct {
	mu sync.RWMutex

	store    *Store
	meta     *Metadata
	players  map[string]*Player
	rooms    map[catalog.Ref]*Room
	monsters map[catalog.Ref]*Monster
	objects  map[catalog.Ref]*Object

	scripts        *scriptEngine
	defaultSegment string
	startRoom      catalog.Ref
	logger         zerolog.Logger
}

// WorldOption customises a World.
type WorldOption func(*World)

func WithDefaultSegment(segment string) WorldOption {
	return func(w *World) {
		if trimmed := strings.TrimSpace(segment); trimmed != "" {
			w.defaultSegment = catalog.NormalizeSegment(trimmed)
		}
	}
}

func WithStartRoom(ref catalog.Ref) WorldOption {
	return func(w *World) {
		if ref.Resolved() {
			w.startRoom = ref
		}
	}
}

func WithWorldLogger(logger zerolog.Logger) WorldOption {
	return func(w *World) {
		w.logger = logger.With().Str("component", "world").Logger()
	}
}

// NewWorld loads the world metadata from store.
func NewWorld(store *Store, opts ...WorldOption) (*World, error) {
	meta, err := store.LoadMetadata()
	if err != nil {
		return nil, err
	}
	w := &World{
		store:          store,
		meta:           meta,
		players:        make(map[string]*Player),
		rooms:          make(map[catalog.Ref]*Room),
		monsters:       make(map[catalog.Ref]*Monster),
		objects:        make(map[catalog.Ref]*Object),
		scripts:        newScriptEngine(),
		defaultSegment: "misc",
		startRoom:      catalog.New("misc", 1),
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (w *World) Store() *Store { return w.store }

func (w *World) DefaultSegment() string { return w.defaultSegment }

// StartRoom is where new characters are bound and placed.
func (w *World) StartRoom() catalog.Ref {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.startRoom
}

// SetStartRoom moves the start room for characters created from now on.
func (w *World) SetStartRoom(ref catalog.Ref) {
	w.mu.Lock()
	w.startRoom = ref
	w.mu.Unlock()
}

// Metadata exposes the live metadata document. Callers run on the game loop.
func (w *World) Metadata() *Metadata { return w.meta }

// SaveMetadata persists the metadata document.
func (w *World) SaveMetadata() error {
	return w.store.SaveMetadata(w.meta)
}

// SegmentInfo returns a copy of a segment's info block.
func (w *World) SegmentInfo(segment string) (SegmentInfo, bool) {
	info, ok := w.meta.Segment(segment)
	if !ok {
		return SegmentInfo{}, false
	}
	return *info, true
}

// AreaRoom finds a live overland room.
func (w *World) AreaRoom(marker MapMarker) (*AreaRoom, bool) {
	return w.meta.AreaRoom(marker)
}

// ForEachAreaRoom visits every live overland room.
func (w *World) ForEachAreaRoom(fn func(*AreaRoom)) {
	for _, area := range w.meta.Areas {
		for _, room := range area.Rooms {
			fn(room)
		}
	}
}

// Room returns a cached room, loading it from the store on first use.
func (w *World) Room(ref catalog.Ref) (*Room, error) {
	return cached(w, w.rooms, ref, w.store.LoadRoom)
}

func (w *World) Monster(ref catalog.Ref) (*Monster, error) {
	return cached(w, w.monsters, ref, w.store.LoadMonster)
}

func (w *World) Object(ref catalog.Ref) (*Object, error) {
	return cached(w, w.objects, ref, w.store.LoadObject)
}

func cached[T any](w *World, cache map[catalog.Ref]*T, ref catalog.Ref, load func(catalog.Ref) (*T, error)) (*T, error) {
	w.mu.RLock()
	record, ok := cache[ref]
	w.mu.RUnlock()
	if ok {
		return record, nil
	}
	record, err := load(ref)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	if existing, ok := cache[ref]; ok {
		record = existing
	} else {
		cache[ref] = record
	}
	w.mu.Unlock()
	return record, nil
}

// Resident reports whether a record is already cached.
func (w *World) Resident(kind catalog.Kind, ref catalog.Ref) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	switch kind {
	case catalog.KindRoom:
		_, ok := w.rooms[ref]
		return ok
	case catalog.KindMonster:
		_, ok := w.monsters[ref]
		return ok
	case catalog.KindObject:
		_, ok := w.objects[ref]
		return ok
	}
	return false
}

// Evict drops a cached record so the next lookup reads the store.
func (w *World) Evict(kind catalog.Kind, ref catalog.Ref) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch kind {
	case catalog.KindRoom:
		delete(w.rooms, ref)
	case catalog.KindMonster:
		delete(w.monsters, ref)
	case catalog.KindObject:
		delete(w.objects, ref)
	}
}

// SaveRoom writes a room and caches it under its current ref.
func (w *World) SaveRoom(room *Room) error {
	if err := w.store.SaveRoom(room); err != nil {
		return err
	}
	w.mu.Lock()
	w.rooms[room.Ref] = room
	w.mu.Unlock()
	return nil
}

func (w *World) SaveMonster(monster *Monster) error {
	if err := w.store.SaveMonster(monster); err != nil {
		return err
	}
	w.mu.Lock()
	w.monsters[monster.Ref] = monster
	w.mu.Unlock()
	return nil
}

func (w *World) SaveObject(object *Object) error {
	if err := w.store.SaveObject(object); err != nil {
		return err
	}
	w.mu.Lock()
	w.objects[object.Ref] = object
	w.mu.Unlock()
	return nil
}

// SavePlayer persists a connected player's record.
func (w *World) SavePlayer(p *Player) error {
	return w.store.SavePlayer(&p.PlayerRecord, false)
}

// LoadOrCreatePlayer reads a player record, creating one bound to the start
// room when none exists.
func (w *World) LoadOrCreatePlayer(name string, class Class) (*PlayerRecord, error) {
	record, err := w.store.LoadPlayer(name, false)
	if err == nil {
		if class > record.Class {
			record.Class = class
		}
		return record, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	start := w.StartRoom()
	record = &PlayerRecord{
		Name:     name,
		Class:    class,
		Bound:    start,
		Location: start,
	}
	if err := w.store.SavePlayer(record, false); err != nil {
		return nil, err
	}
	return record, nil
}

// Requester returns the record of a connected or stored player.
func (w *World) Requester(name string) (PlayerRecord, bool) {
	if p, ok := w.ActivePlayer(name); ok {
		return p.PlayerRecord, true
	}
	record, err := w.store.LoadPlayer(name, false)
	if err != nil {
		return PlayerRecord{}, false
	}
	return *record, true
}

// IsDungeonmaster reports whether name belongs to the top staff class.
func (w *World) IsDungeonmaster(name string) bool {
	record, ok := w.Requester(name)
	return ok && record.Class >= ClassDungeonmaster
}

// AddPlayer registers a connected player, replacing any stale session.
func (w *World) AddPlayer(record *PlayerRecord, session *Session) (*Player, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := strings.ToLower(record.Name)
	if existing, ok := w.players[key]; ok && existing.Alive {
		return nil, fmt.Errorf("%s is already connected", record.Name)
	}
	p := &Player{
		PlayerRecord: *record,
		Session:      session,
		Output:       make(chan string, 64),
		Alive:        true,
		JoinedAt:     time.Now().UTC(),
	}
	w.players[key] = p
	return p, nil
}

// AddPlayerForTest registers a pre-built player.
func (w *World) AddPlayerForTest(p *Player) {
	w.mu.Lock()
	w.players[strings.ToLower(p.Name)] = p
	w.mu.Unlock()
}

func (w *World) RemovePlayer(name string) {
	w.mu.Lock()
	delete(w.players, strings.ToLower(name))
	w.mu.Unlock()
}

// ActivePlayer finds a connected player by name.
func (w *World) ActivePlayer(name string) (*Player, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.players[strings.ToLower(name)]
	return p, ok
}

// Players returns the connected players sorted by name.
func (w *World) Players() []*Player {
	w.mu.RLock()
	out := make([]*Player, 0, len(w.players))
	for _, p := range w.players {
		out = append(out, p)
	}
	w.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Notify sends a message to a connected player. Offline players miss it.
func (w *World) Notify(name, msg string) {
	if p, ok := w.ActivePlayer(name); ok {
		p.Send(msg)
	}
}

// NotifyStaff messages every connected player at or above class.
func (w *World) NotifyStaff(class Class, msg string) {
	for _, p := range w.Players() {
		if p.Class >= class {
			p.Send(msg)
		}
	}
}

// BroadcastToRoom messages everyone standing in room except skip.
func (w *World) BroadcastToRoom(room catalog.Ref, msg string, skip *Player) {
	for _, p := range w.Players() {
		if p != skip && p.Location == room {
			p.Send(msg)
		}
	}
}

// PlayersIn lists the names of players in a room.
func (w *World) PlayersIn(room catalog.Ref) []string {
	var names []string
	for _, p := range w.Players() {
		if p.Location == room {
			names = append(names, p.Name)
		}
	}
	return names
}

// MoveToRoom relocates a player after checking the destination exists.
func (w *World) MoveToRoom(p *Player, room catalog.Ref) error {
	if _, err := w.Room(room); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("no such room %s", room.Display())
		}
		return err
	}
	p.Location = room
	p.Visit(room)
	return nil
}
