package relocate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ClayCatalog/internal/catalog"
	"ClayCatalog/internal/game"
)

func newTestWorld(t *testing.T) *game.World {
	t.Helper()
	store, err := game.NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	world, err := game.NewWorld(store)
	require.NoError(t, err)
	return world
}

func pollUntil(t *testing.T, c *Coordinator, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out while %s", c.Phase())
		}
		c.Poll()
		time.Sleep(time.Millisecond)
	}
}

func idle(c *Coordinator) func() bool {
	return func() bool { return !c.Busy() }
}

func online(w *game.World, name string, class game.Class, location catalog.Ref) *game.Player {
	p := &game.Player{
		PlayerRecord: game.PlayerRecord{Name: name, Class: class, Location: location, Bound: location},
		Output:       make(chan string, 512),
		Alive:        true,
	}
	w.AddPlayerForTest(p)
	return p
}

func messages(p *game.Player) []string {
	var out []string
	for {
		select {
		case msg := <-p.Output:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func saveRooms(t *testing.T, w *game.World, rooms ...*game.Room) {
	t.Helper()
	for _, room := range rooms {
		require.NoError(t, w.Store().SaveRoom(room))
	}
}

// gatedScan wraps ScanRecords so that scans of the listed origins report
// their lines and then wait until released or killed.
type gatedScan struct {
	gated   map[catalog.Ref]bool
	release chan struct{}
	exited  chan struct{}
	once    sync.Once
	started []catalog.Swap
}

func newGatedScan(origins ...catalog.Ref) *gatedScan {
	g := &gatedScan{gated: make(map[catalog.Ref]bool), release: make(chan struct{}), exited: make(chan struct{})}
	for _, o := range origins {
		g.gated[o] = true
	}
	return g
}

func (g *gatedScan) scan(records Records, s catalog.Swap) WorkFunc {
	g.started = append(g.started, s)
	inner := ScanRecords(records, s)
	if !g.gated[s.Origin] {
		return inner
	}
	return func(ctx context.Context, out *Stream) error {
		defer g.once.Do(func() { close(g.exited) })
		if err := inner(ctx, out); err != nil {
			return err
		}
		select {
		case <-g.release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func TestSubmitUnresolvedTargetFindsFreeSlot(t *testing.T) {
	w := newTestWorld(t)
	saveRooms(t, w,
		&game.Room{Ref: catalog.New("misc", 1), Title: "Gate", Exits: []game.Exit{{Name: "north", Target: catalog.New("misc", 100)}}},
		&game.Room{Ref: catalog.New("misc", 2)},
		&game.Room{Ref: catalog.New("misc", 3)},
		&game.Room{Ref: catalog.New("misc", 100), Title: "Vault"},
	)
	c := NewCoordinator(w, DefaultRules())

	pos, err := c.Submit(roomSwap("ash", "misc:100", "misc"))
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	assert.Equal(t, PhaseSearching, c.Phase())

	pollUntil(t, c, idle(c))
	report, ok := c.LastReport()
	require.True(t, ok)
	assert.Equal(t, catalog.New("misc", 4), report.Swap.Target)
	assert.Empty(t, report.Failed)

	moved, err := w.Store().LoadRoom(catalog.New("misc", 4))
	require.NoError(t, err)
	assert.Equal(t, "Vault", moved.Title)
	assert.Equal(t, catalog.New("misc", 4), moved.Ref)
	assert.False(t, w.Store().Exists(catalog.KindRoom, catalog.New("misc", 100)), "vacated origin must be removed")

	gate, err := w.Store().LoadRoom(catalog.New("misc", 1))
	require.NoError(t, err)
	assert.Equal(t, catalog.New("misc", 4), gate.Exits[0].Target)
}

func TestSubmitRejectsInvalid(t *testing.T) {
	c := NewCoordinator(newTestWorld(t), DefaultRules())

	_, err := c.Submit(roomSwap("ash", "misc:100", "misc:100"))
	assert.EqualError(t, err, "cannot relocate an entity to itself")

	_, err = c.Submit(roomSwap("ash", "misc:0", "misc:5"))
	assert.EqualError(t, err, "cannot relocate the reserved root entity")
	assert.False(t, c.Busy())
}

func TestDuplicateRequestsAreRejected(t *testing.T) {
	gate := newGatedScan(catalog.New("misc", 10))
	c := NewCoordinator(newTestWorld(t), DefaultRules(), WithScanner(gate.scan))

	_, err := c.Submit(roomSwap("ash", "misc:10", "misc:20"))
	require.NoError(t, err)
	pos, err := c.Submit(roomSwap("ash", "misc:11", "misc:21"))
	require.NoError(t, err)
	assert.Equal(t, 2, pos)

	_, err = c.Submit(roomSwap("bob", "misc:11", "misc:30"))
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = c.Submit(roomSwap("bob", "misc:10", "misc:31"))
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Len(t, c.Queue(), 1)

	obj := roomSwap("bob", "misc:11", "misc:30")
	obj.Kind = catalog.KindObject
	_, err = c.Submit(obj)
	assert.NoError(t, err, "the same position in another catalog is a different entity")

	c.Abort()
}

func TestQueueLimit(t *testing.T) {
	gate := newGatedScan(catalog.New("misc", 10))
	rules := DefaultRules()
	rules.QueueLimit = 1
	c := NewCoordinator(newTestWorld(t), rules, WithScanner(gate.scan))

	_, err := c.Submit(roomSwap("ash", "misc:10", "misc:20"))
	require.NoError(t, err)
	_, err = c.Submit(roomSwap("ash", "misc:11", "misc:21"))
	require.NoError(t, err)
	_, err = c.Submit(roomSwap("ash", "misc:12", "misc:22"))
	assert.ErrorIs(t, err, ErrQueueFull)
	c.Abort()
}

func TestRelocationsRunInOrder(t *testing.T) {
	gate := newGatedScan()
	c := NewCoordinator(newTestWorld(t), DefaultRules(), WithScanner(gate.scan))

	a := roomSwap("ash", "misc:10", "misc:20")
	b := roomSwap("bob", "misc:11", "misc:21")
	d := roomSwap("cy", "misc:12", "misc:22")
	for i, req := range []Request{a, b, d} {
		pos, err := c.Submit(req)
		require.NoError(t, err)
		assert.Equal(t, i+1, pos)
		cur, ok := c.Current()
		require.True(t, ok)
		assert.Equal(t, a.Swap, cur.Swap, "only the first request may be current")
	}

	pollUntil(t, c, idle(c))
	assert.Equal(t, []catalog.Swap{a.Swap, b.Swap, d.Swap}, gate.started)
}

func TestQueuedRequestFollowsAppliedSwap(t *testing.T) {
	gate := newGatedScan()
	w := newTestWorld(t)
	saveRooms(t, w, &game.Room{Ref: catalog.New("misc", 6), Title: "Y"})
	c := NewCoordinator(w, DefaultRules(), WithScanner(gate.scan))

	_, err := c.Submit(roomSwap("ash", "misc:6", "misc:7"))
	require.NoError(t, err)
	_, err = c.Submit(roomSwap("bob", "misc:5", "misc:6"))
	require.NoError(t, err)

	pollUntil(t, c, idle(c))
	require.Len(t, gate.started, 2)
	assert.Equal(t, catalog.New("misc", 5), gate.started[1].Origin)
	assert.Equal(t, catalog.New("misc", 7), gate.started[1].Target)

	report, ok := c.LastReport()
	require.True(t, ok)
	assert.Equal(t, catalog.New("misc", 7), report.Swap.Target)
}

func TestPersistenceFailureIsReportedAndQueueAdvances(t *testing.T) {
	w := newTestWorld(t)
	moved := catalog.New("misc", 50)
	saveRooms(t, w,
		&game.Room{Ref: catalog.New("misc", 1), Exits: []game.Exit{{Name: "a", Target: moved}}},
		&game.Room{Ref: catalog.New("misc", 2), Exits: []game.Exit{{Name: "b", Target: moved}}},
		&game.Room{Ref: catalog.New("misc", 3), Exits: []game.Exit{{Name: "c", Target: moved}}},
	)
	w.Store().SetSaveFaultForTest(func(p game.Partition, key string) error {
		if p == game.PartitionRooms && key == "misc.3" {
			return errors.New("disk full")
		}
		return nil
	})
	gate := newGatedScan(catalog.New("misc", 70))
	c := NewCoordinator(w, DefaultRules(), WithScanner(gate.scan))

	_, err := c.Submit(roomSwap("ash", "misc:50", "misc:60"))
	require.NoError(t, err)
	next := roomSwap("bob", "misc:70", "misc:80")
	_, err = c.Submit(next)
	require.NoError(t, err)

	pollUntil(t, c, func() bool {
		cur, ok := c.Current()
		return ok && cur.Origin == next.Origin
	})

	report, ok := c.LastReport()
	require.True(t, ok)
	assert.Equal(t, []string{"rmisc.1", "rmisc.2"}, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "rmisc.3", report.Failed[0].Label)
	assert.Contains(t, report.Summary(), "2 succeeded, 1 failed")

	third, err := w.Store().LoadRoom(catalog.New("misc", 3))
	require.NoError(t, err)
	assert.Equal(t, moved, third.Exits[0].Target, "failed record keeps its old reference")

	c.Abort()
}

func TestAbortMidScan(t *testing.T) {
	w := newTestWorld(t)
	origin := catalog.New("misc", 40)
	saveRooms(t, w, &game.Room{Ref: catalog.New("misc", 1), Exits: []game.Exit{{Name: "in", Target: origin}}})
	gate := newGatedScan(origin)
	c := NewCoordinator(w, DefaultRules(), WithScanner(gate.scan))

	_, err := c.Submit(roomSwap("ash", "misc:40", "misc:41"))
	require.NoError(t, err)
	_, err = c.Submit(roomSwap("ash", "misc:42", "misc:43"))
	require.NoError(t, err)
	pollUntil(t, c, func() bool { return len(c.Touched()) > 0 })
	require.Len(t, c.Workers(), 1)

	assert.Equal(t, 2, c.Abort())
	assert.False(t, c.Busy())
	assert.Empty(t, c.Queue())
	assert.Empty(t, c.Touched())
	assert.Empty(t, c.Workers())

	select {
	case <-gate.exited:
	case <-time.After(5 * time.Second):
		t.Fatalf("scan worker kept running after abort")
	}

	c.Advance()
	assert.False(t, c.Busy())
	_, ok := c.LastReport()
	assert.False(t, ok, "aborted relocation must not be applied")

	room, err := w.Store().LoadRoom(catalog.New("misc", 1))
	require.NoError(t, err)
	assert.Equal(t, origin, room.Exits[0].Target)
}

func TestCancelByPosition(t *testing.T) {
	gate := newGatedScan(catalog.New("misc", 10), catalog.New("misc", 11))
	c := NewCoordinator(newTestWorld(t), DefaultRules(), WithScanner(gate.scan))

	for _, req := range []Request{
		roomSwap("ash", "misc:10", "misc:20"),
		roomSwap("ash", "misc:11", "misc:21"),
		roomSwap("ash", "misc:12", "misc:22"),
	} {
		_, err := c.Submit(req)
		require.NoError(t, err)
	}

	removed, err := c.Cancel(3)
	require.NoError(t, err)
	assert.Equal(t, catalog.New("misc", 12), removed.Origin)
	assert.Len(t, c.Queue(), 1)

	_, err = c.Cancel(9)
	assert.ErrorIs(t, err, ErrNoSuchPosition)

	removed, err = c.Cancel(1)
	require.NoError(t, err)
	assert.Equal(t, catalog.New("misc", 10), removed.Origin)
	cur, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, catalog.New("misc", 11), cur.Origin)
	assert.Empty(t, c.Queue())

	c.Abort()
}

func TestSearchRaceRetriesOnce(t *testing.T) {
	w := newTestWorld(t)
	saveRooms(t, w, &game.Room{Ref: catalog.New("misc", 2)}, &game.Room{Ref: catalog.New("misc", 100)})
	answers := []catalog.Ref{catalog.New("misc", 2), catalog.New("misc", 9)}
	calls := 0
	finder := func(_ Prober, _ catalog.Kind, _ string, _ int) WorkFunc {
		ref := answers[calls]
		calls++
		return func(ctx context.Context, out *Stream) error {
			return out.Emit(ctx, ref.String())
		}
	}
	c := NewCoordinator(w, DefaultRules(), WithFinder(finder))

	_, err := c.Submit(roomSwap("ash", "misc:100", "misc"))
	require.NoError(t, err)
	pollUntil(t, c, idle(c))

	assert.Equal(t, 2, calls)
	report, ok := c.LastReport()
	require.True(t, ok)
	assert.Equal(t, catalog.New("misc", 9), report.Swap.Target)
}

func TestSearchRaceGivesUpAfterRetry(t *testing.T) {
	w := newTestWorld(t)
	saveRooms(t, w, &game.Room{Ref: catalog.New("misc", 2)})
	ash := online(w, "Ash", game.ClassBuilder, catalog.New("misc", 1))
	calls := 0
	finder := func(_ Prober, _ catalog.Kind, _ string, _ int) WorkFunc {
		calls++
		return func(ctx context.Context, out *Stream) error {
			return out.Emit(ctx, "misc.2")
		}
	}
	rules := DefaultRules()
	ash.Ranges = []catalog.Range{{Low: catalog.Ref{Segment: "misc", ID: catalog.Unresolved}}}
	c := NewCoordinator(w, rules, WithFinder(finder))

	_, err := c.Submit(roomSwap("Ash", "misc:100", "misc"))
	require.NoError(t, err)
	pollUntil(t, c, idle(c))

	assert.Equal(t, 2, calls)
	_, ok := c.LastReport()
	assert.False(t, ok)
	out := strings.Join(messages(ash), "\n")
	assert.Contains(t, out, ErrTargetTaken.Error())
}

func TestTargetFilledDuringScanRetriesSearch(t *testing.T) {
	w := newTestWorld(t)
	saveRooms(t, w, &game.Room{Ref: catalog.New("misc", 100)})
	answers := []catalog.Ref{catalog.New("misc", 9), catalog.New("misc", 10)}
	calls := 0
	finder := func(_ Prober, _ catalog.Kind, _ string, _ int) WorkFunc {
		ref := answers[calls]
		calls++
		return func(ctx context.Context, out *Stream) error {
			return out.Emit(ctx, ref.String())
		}
	}
	gate := newGatedScan(catalog.New("misc", 100))
	c := NewCoordinator(w, DefaultRules(), WithFinder(finder), WithScanner(gate.scan))

	_, err := c.Submit(roomSwap("ash", "misc:100", "misc"))
	require.NoError(t, err)
	pollUntil(t, c, func() bool { return c.Phase() == PhaseScanning })

	require.NoError(t, w.SaveRoom(&game.Room{Ref: catalog.New("misc", 9), Title: "Squatter"}))
	gate.gated = nil
	close(gate.release)
	pollUntil(t, c, idle(c))

	report, ok := c.LastReport()
	require.True(t, ok)
	assert.Equal(t, catalog.New("misc", 10), report.Swap.Target)
	squatter, err := w.Store().LoadRoom(catalog.New("misc", 9))
	require.NoError(t, err)
	assert.Equal(t, "Squatter", squatter.Title)
}

func TestSwapExchangesExistingRecords(t *testing.T) {
	w := newTestWorld(t)
	a, b := catalog.New("misc", 5), catalog.New("misc", 6)
	saveRooms(t, w,
		&game.Room{Ref: a, Title: "Alpha", Exits: []game.Exit{{Name: "east", Target: b}}},
		&game.Room{Ref: b, Title: "Beta", Exits: []game.Exit{{Name: "west", Target: a}}},
	)
	_, err := w.Room(a)
	require.NoError(t, err)
	c := NewCoordinator(w, DefaultRules())

	_, err = c.Submit(roomSwap("ash", "misc:5", "misc:6"))
	require.NoError(t, err)
	pollUntil(t, c, idle(c))

	alpha, err := w.Store().LoadRoom(b)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", alpha.Title)
	assert.Equal(t, a, alpha.Exits[0].Target)

	beta, err := w.Room(a)
	require.NoError(t, err)
	assert.Equal(t, "Beta", beta.Title)
	assert.Equal(t, a, beta.Ref)
	assert.Equal(t, b, beta.Exits[0].Target)
}

func TestApplyRewritesOnlinePlayersAndMetadata(t *testing.T) {
	w := newTestWorld(t)
	origin, target := catalog.New("misc", 20), catalog.New("misc", 21)
	saveRooms(t, w, &game.Room{Ref: origin, Title: "Square"})
	meta := w.Metadata()
	meta.Areas = []*game.Area{{ID: 1, Name: "Wilds",
		Rooms: []*game.AreaRoom{{Marker: game.MapMarker{Area: 1, X: 3, Y: 4}, Exits: []game.Exit{{Name: "in", Target: origin}}}},
		Zones: []*game.Zone{{Name: "market", Unique: origin}},
	}}
	meta.StartLocs = []*game.StartLoc{{Name: "town", Bind: origin}}
	meta.Segments = []*game.SegmentInfo{{Segment: "misc", Recall: 20}}
	require.NoError(t, w.SaveMetadata())

	ash := online(w, "Ash", game.ClassCaretaker, origin)
	require.NoError(t, w.SavePlayer(ash))

	c := NewCoordinator(w, DefaultRules())
	_, err := c.Submit(roomSwap("ash", "misc:20", "misc:21"))
	require.NoError(t, err)
	pollUntil(t, c, idle(c))

	assert.Equal(t, target, ash.Location)
	assert.Equal(t, target, ash.Bound)
	stored, err := w.Store().LoadPlayer("Ash", false)
	require.NoError(t, err)
	assert.Equal(t, target, stored.Location)

	reloaded, err := w.Store().LoadMetadata()
	require.NoError(t, err)
	assert.Equal(t, target, reloaded.Areas[0].Rooms[0].Exits[0].Target)
	assert.Equal(t, target, reloaded.Areas[0].Zones[0].Unique)
	assert.Equal(t, target, reloaded.StartLocs[0].Bind)
	assert.Equal(t, 21, reloaded.Segments[0].Recall)

	report, ok := c.LastReport()
	require.True(t, ok)
	assert.Contains(t, report.Succeeded, "a1:3:4:0")
	assert.Contains(t, report.Succeeded, "pAsh")
	assert.Empty(t, report.Failed)
	details := report.Details()
	assert.Contains(t, details, "Starting locations changed (town)")
	assert.Contains(t, details, "Segment info changed (misc)")
	assert.NotContains(t, details, "Ship routes changed")

	out := strings.Join(messages(ash), "\n")
	assert.Contains(t, out, "Receiving")
	assert.Contains(t, out, "succeeded")
}

func TestApplyMovesStartRoom(t *testing.T) {
	w := newTestWorld(t)
	start := w.StartRoom()
	moved := catalog.New("misc", 500)
	saveRooms(t, w, &game.Room{Ref: start, Title: "Landing"})
	ash := online(w, "Ash", game.ClassCaretaker, start)

	c := NewCoordinator(w, DefaultRules())
	_, err := c.Submit(roomSwap("Ash", start.String(), "misc:500"))
	require.NoError(t, err)
	pollUntil(t, c, idle(c))

	assert.Equal(t, moved, w.StartRoom())
	assert.False(t, w.Store().Exists(catalog.KindRoom, start))

	rec, err := w.LoadOrCreatePlayer("Newbie", game.ClassPlayer)
	require.NoError(t, err)
	assert.Equal(t, moved, rec.Location)
	assert.Equal(t, moved, rec.Bound)
	room, err := w.Room(rec.Location)
	require.NoError(t, err)
	assert.Equal(t, "Landing", room.Title)

	report, ok := c.LastReport()
	require.True(t, ok)
	assert.Contains(t, report.Succeeded, "start room")
	assert.Contains(t, report.Details(), "The start room is now misc:500; update start_room")
	assert.Contains(t, strings.Join(messages(ash), "\n"), "update start_room")
}

func TestApplyRewritesAreaRoomsAddedDuringScan(t *testing.T) {
	w := newTestWorld(t)
	origin, target := catalog.New("misc", 40), catalog.New("misc", 41)
	saveRooms(t, w, &game.Room{Ref: origin, Title: "Hut"})
	w.Metadata().Areas = []*game.Area{{ID: 1, Name: "Wilds"}}

	gate := newGatedScan(origin)
	c := NewCoordinator(w, DefaultRules(), WithScanner(gate.scan))
	_, err := c.Submit(roomSwap("ash", "misc:40", "misc:41"))
	require.NoError(t, err)
	require.Equal(t, PhaseScanning, c.Phase())

	late := &game.AreaRoom{Marker: game.MapMarker{Area: 1, X: 2, Y: 2}, Unique: origin}
	area := w.Metadata().Areas[0]
	area.Rooms = append(area.Rooms, late)

	close(gate.release)
	pollUntil(t, c, idle(c))

	assert.Equal(t, target, late.Unique)
	reloaded, err := w.Store().LoadMetadata()
	require.NoError(t, err)
	require.Len(t, reloaded.Areas[0].Rooms, 1)
	assert.Equal(t, target, reloaded.Areas[0].Rooms[0].Unique)

	report, ok := c.LastReport()
	require.True(t, ok)
	assert.Contains(t, report.Succeeded, "a1:2:2:0")
}

func TestSearchSkipsReservedPositions(t *testing.T) {
	w := newTestWorld(t)
	saveRooms(t, w, &game.Room{Ref: catalog.New("misc", 5), Title: "Lab"})
	c := NewCoordinator(w, DefaultRules())

	_, err := c.Submit(roomSwap("ash", "misc:5", "test"))
	require.NoError(t, err)
	pollUntil(t, c, idle(c))

	report, ok := c.LastReport()
	require.True(t, ok, "the search must not stop at a reserved position")
	assert.Equal(t, catalog.New("test", 2), report.Swap.Target)
	assert.Empty(t, report.Failed)
	assert.False(t, w.Store().Exists(catalog.KindRoom, catalog.New("test", 1)))
}

func TestSavesDuringScanAreNoted(t *testing.T) {
	w := newTestWorld(t)
	origin := catalog.New("misc", 30)
	gate := newGatedScan(origin)
	c := NewCoordinator(w, DefaultRules(), WithScanner(gate.scan))

	_, err := c.Submit(roomSwap("ash", "misc:30", "misc:31"))
	require.NoError(t, err)
	require.Equal(t, PhaseScanning, c.Phase())

	require.NoError(t, w.SaveRoom(&game.Room{Ref: catalog.New("misc", 7), Exits: []game.Exit{{Name: "up", Target: origin}}}))
	require.NoError(t, w.SaveRoom(&game.Room{Ref: catalog.New("misc", 8)}))
	assert.Equal(t, []Tag{{Kind: TagRoom, Key: "misc.7"}}, c.Touched())

	close(gate.release)
	pollUntil(t, c, idle(c))
	room, err := w.Store().LoadRoom(catalog.New("misc", 7))
	require.NoError(t, err)
	assert.Equal(t, catalog.New("misc", 31), room.Exits[0].Target)
}

func TestStatusRedactsPlayerTags(t *testing.T) {
	w := newTestWorld(t)
	origin := catalog.New("misc", 1)
	saveRooms(t, w, &game.Room{Ref: origin})
	for _, rec := range []game.PlayerRecord{
		{Name: "Dm", Class: game.ClassDungeonmaster, Location: origin},
		{Name: "Care", Class: game.ClassCaretaker},
		{Name: "Bob", Class: game.ClassBuilder},
		{Name: "Pat", Class: game.ClassPlayer, Location: origin},
	} {
		rec := rec
		require.NoError(t, w.Store().SavePlayer(&rec, false))
	}
	gate := newGatedScan(origin)
	c := NewCoordinator(w, DefaultRules(), WithScanner(gate.scan))
	_, err := c.Submit(roomSwap("Care", "misc:1", "misc:2"))
	require.NoError(t, err)
	pollUntil(t, c, func() bool { return len(c.Touched()) == 3 })

	dm := c.Status("Dm")
	assert.ElementsMatch(t, []string{"rmisc.1", "pDm", "pPat"}, dm.Touched)
	assert.Zero(t, dm.Hidden)

	care := c.Status("Care")
	assert.ElementsMatch(t, []string{"rmisc.1", "pPat"}, care.Touched)
	assert.Equal(t, 1, care.Hidden)

	bob := c.Status("Bob")
	assert.Equal(t, []string{"rmisc.1"}, bob.Touched)
	assert.Equal(t, 2, bob.Hidden)
	require.NotNil(t, bob.Current)
	assert.Equal(t, 1, bob.Current.Position)
	assert.Contains(t, strings.Join(bob.Lines(), "\n"), "+2 hidden")

	c.Abort()
}

func TestSubmitRange(t *testing.T) {
	gate := newGatedScan(catalog.New("misc", 10))
	c := NewCoordinator(newTestWorld(t), DefaultRules(), WithScanner(gate.scan))

	n, err := c.SubmitRange(roomSwap("ash", "misc:10", "misc:20"), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	queue := c.Queue()
	require.Len(t, queue, 2)
	assert.Equal(t, catalog.New("misc", 12), queue[1].Origin)
	assert.Equal(t, catalog.New("misc", 22), queue[1].Target)

	_, err = c.SubmitRange(roomSwap("ash", "misc:11", "misc:40"), 2)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Len(t, c.Queue(), 2, "a rejected range submits nothing")

	c.Abort()
}

func TestSubmitRangeRespectsQueueLimit(t *testing.T) {
	rules := DefaultRules()
	rules.QueueLimit = 2
	c := NewCoordinator(newTestWorld(t), rules)

	_, err := c.SubmitRange(roomSwap("ash", "misc:10", "misc:20"), 4)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.False(t, c.Busy())
}
