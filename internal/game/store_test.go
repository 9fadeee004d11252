package game

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ClayCatalog/internal/catalog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestStoreRoomLifecycle(t *testing.T) {
	store := newTestStore(t)
	room := &Room{Ref: catalog.New("misc", 100), Title: "Atrium", Exits: []Exit{{Name: "east", Target: catalog.New("misc", 101)}}}

	assert.False(t, store.Exists(catalog.KindRoom, room.Ref))
	require.NoError(t, store.SaveRoom(room))
	assert.True(t, store.Exists(catalog.KindRoom, room.Ref))
	assert.FileExists(t, filepath.Join(store.Root(), "rooms", "misc", "r00100.json"))

	loaded, err := store.LoadRoom(room.Ref)
	require.NoError(t, err)
	assert.Equal(t, room, loaded)

	require.NoError(t, store.Remove(catalog.KindRoom, room.Ref))
	assert.False(t, store.Exists(catalog.KindRoom, room.Ref))
	require.NoError(t, store.Remove(catalog.KindRoom, room.Ref))

	_, err = store.LoadRoom(room.Ref)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStorePlayersAndBackupsAreSeparate(t *testing.T) {
	store := newTestStore(t)
	live := &PlayerRecord{Name: "Ash", Location: catalog.New("misc", 1)}
	backup := &PlayerRecord{Name: "Ash", Location: catalog.New("misc", 2)}
	require.NoError(t, store.SavePlayer(live, false))
	require.NoError(t, store.SavePlayer(backup, true))

	got, err := store.LoadPlayer("ash", false)
	require.NoError(t, err)
	assert.Equal(t, catalog.New("misc", 1), got.Location)

	got, err = store.LoadPlayer("ASH", true)
	require.NoError(t, err)
	assert.Equal(t, catalog.New("misc", 2), got.Location)
}

func TestStoreWalkSkipsCorruptRecords(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []int{3, 1, 2} {
		require.NoError(t, store.SaveMonster(&Monster{Ref: catalog.New("misc", id), Name: "rat"}))
	}
	bad := filepath.Join(store.Root(), "monsters", "misc", "m00009.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))

	var seen []int
	require.NoError(t, store.WalkMonsters(context.Background(), func(m *Monster) error {
		seen = append(seen, m.Ref.ID)
		return nil
	}))
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestStoreWalkStopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveObject(&Object{Ref: catalog.New("misc", 1)}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := store.WalkObjects(ctx, func(*Object) error { return nil })
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStoreObserversAndFaults(t *testing.T) {
	store := newTestStore(t)
	var keys []string
	store.OnSave(func(p Partition, key string, record catalog.Relocatable) {
		keys = append(keys, string(p)+":"+key)
	})
	require.NoError(t, store.SaveObject(&Object{Ref: catalog.New("misc", 7)}))
	require.NoError(t, store.SavePlayer(&PlayerRecord{Name: "Ash"}, false))
	assert.Equal(t, []string{"objects:misc.7", "players:Ash"}, keys)

	boom := errors.New("disk full")
	store.SetSaveFaultForTest(func(p Partition, key string) error {
		if p == PartitionObjects {
			return boom
		}
		return nil
	})
	err := store.SaveObject(&Object{Ref: catalog.New("misc", 8)})
	assert.True(t, errors.Is(err, boom))
	assert.False(t, store.Exists(catalog.KindObject, catalog.New("misc", 8)))
	assert.Len(t, keys, 2)
}

func TestStoreMetadataRoundTrip(t *testing.T) {
	store := newTestStore(t)
	empty, err := store.LoadMetadata()
	require.NoError(t, err)
	assert.Empty(t, empty.Areas)

	meta := &Metadata{
		Areas: []*Area{{ID: 1, Name: "Overland", Rooms: []*AreaRoom{{Marker: MapMarker{Area: 1, X: 4, Y: 5}, Unique: catalog.New("misc", 3)}}}},
		Ships: []*Ship{{Name: "Gull", Stops: []*ShipStop{{Name: "pier", Raid: &ShipRaid{Prison: catalog.New("misc", 8)}}}}},
		StartLocs: []*StartLoc{{Name: "town", Bind: catalog.New("misc", 1)}},
		Segments:  []*SegmentInfo{{Segment: "misc", Limbo: 2, Recall: 4}},
	}
	require.NoError(t, store.SaveMetadata(meta))
	loaded, err := store.LoadMetadata()
	require.NoError(t, err)
	assert.Equal(t, meta, loaded)

	room, ok := loaded.AreaRoom(MapMarker{Area: 1, X: 4, Y: 5})
	require.True(t, ok)
	assert.Equal(t, catalog.New("misc", 3), room.Unique)

	marker, err := ParseMarker(room.Marker.String())
	require.NoError(t, err)
	assert.Equal(t, room.Marker, marker)
}
