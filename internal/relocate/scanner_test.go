package relocate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ClayCatalog/internal/catalog"
	"ClayCatalog/internal/game"
)

func collectScan(t *testing.T, records Records, s catalog.Swap) []string {
	t.Helper()
	sup := NewSupervisor(0)
	var tags []string
	done := false
	sup.Spawn(JobScan, "ash", ScanRecords(records, s), func(line string) {
		tags = append(tags, line)
	}, func(err error) {
		require.NoError(t, err)
		done = true
	})
	pollSupervisor(t, sup, func() bool { return done })
	return tags
}

func TestScanRecordsFindsEveryPartition(t *testing.T) {
	w := newTestWorld(t)
	store := w.Store()
	origin, target := catalog.New("misc", 10), catalog.New("misc", 11)

	require.NoError(t, store.SaveRoom(&game.Room{Ref: origin, Title: "Origin"}))
	require.NoError(t, store.SaveRoom(&game.Room{Ref: catalog.New("misc", 1), Exits: []game.Exit{{Name: "east", Target: origin}}}))
	require.NoError(t, store.SaveRoom(&game.Room{Ref: catalog.New("misc", 2), Exits: []game.Exit{{Name: "west", Target: catalog.New("misc", 3)}}}))
	require.NoError(t, store.SaveMonster(&game.Monster{Ref: catalog.New("misc", 10), Home: target}))
	require.NoError(t, store.SaveObject(&game.Object{Ref: catalog.New("misc", 10)}))
	require.NoError(t, store.SavePlayer(&game.PlayerRecord{Name: "Ash", Location: origin}, false))
	require.NoError(t, store.SavePlayer(&game.PlayerRecord{Name: "Ash", Bound: target}, true))
	require.NoError(t, store.SavePlayer(&game.PlayerRecord{Name: "Bob", Location: catalog.New("misc", 2)}, false))

	s := catalog.Swap{Kind: catalog.KindRoom, Origin: origin, Target: target}
	first := collectScan(t, store, s)
	assert.Equal(t, []string{"pAsh", "bAsh", "rmisc.1", "mmisc.10"}, first)

	second := collectScan(t, store, s)
	assert.ElementsMatch(t, first, second)
}

func TestScanRecordsStopsOnCancel(t *testing.T) {
	w := newTestWorld(t)
	require.NoError(t, w.Store().SaveRoom(&game.Room{Ref: catalog.New("misc", 1), Exits: []game.Exit{{Target: catalog.New("misc", 5)}}}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ScanRecords(w.Store(), catalog.Swap{Kind: catalog.KindRoom, Origin: catalog.New("misc", 5), Target: catalog.New("misc", 6)})(ctx, &Stream{lines: make(chan string, 8)})
	assert.ErrorIs(t, err, context.Canceled)
}
