package relocate

import (
	"context"

	"ClayCatalog/internal/catalog"
	"ClayCatalog/internal/game"
)

// Records is the read-only persisted data a scan walks.
type Records interface {
	WalkPlayers(ctx context.Context, backup bool, fn func(*game.PlayerRecord) error) error
	WalkRooms(ctx context.Context, fn func(*game.Room) error) error
	WalkMonsters(ctx context.Context, fn func(*game.Monster) error) error
	WalkObjects(ctx context.Context, fn func(*game.Object) error) error
}

// ScanFunc builds the worker that finds records referring to a swap.
type ScanFunc func(records Records, s catalog.Swap) WorkFunc

// ScanRecords walks players, player backups, rooms, monsters and objects and
// emits a tag for every record the swap affects. The two records that are
// themselves being moved are skipped; the coordinator notes them directly.
func ScanRecords(records Records, s catalog.Swap) WorkFunc {
	return func(ctx context.Context, out *Stream) error {
		emit := func(tag Tag) error { return out.Emit(ctx, tag.String()) }
		identity := func(kind catalog.Kind, ref catalog.Ref) bool {
			return kind == s.Kind && s.Touches(ref)
		}

		for _, backup := range []bool{false, true} {
			kind := TagPlayer
			if backup {
				kind = TagBackup
			}
			err := records.WalkPlayers(ctx, backup, func(p *game.PlayerRecord) error {
				if p.Affected(s) {
					return emit(Tag{Kind: kind, Key: p.Name})
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		err := records.WalkRooms(ctx, func(r *game.Room) error {
			if identity(catalog.KindRoom, r.Ref) || !r.Affected(s) {
				return nil
			}
			return emit(Tag{Kind: TagRoom, Key: r.Ref.String()})
		})
		if err != nil {
			return err
		}
		err = records.WalkMonsters(ctx, func(m *game.Monster) error {
			if identity(catalog.KindMonster, m.Ref) || !m.Affected(s) {
				return nil
			}
			return emit(Tag{Kind: TagMonster, Key: m.Ref.String()})
		})
		if err != nil {
			return err
		}
		return records.WalkObjects(ctx, func(o *game.Object) error {
			if identity(catalog.KindObject, o.Ref) || !o.Affected(s) {
				return nil
			}
			return emit(Tag{Kind: TagObject, Key: o.Ref.String()})
		})
	}
}

// scanAreaRooms notes the live overland rooms a swap affects when the scan
// starts. The tags only feed progress and status; apply offers the swap to
// every area room itself.
func scanAreaRooms(host Host, s catalog.Swap, note func(Tag)) {
	host.ForEachAreaRoom(func(room *game.AreaRoom) {
		if room.Affected(s) {
			note(Tag{Kind: TagAreaRoom, Key: room.Marker.String()})
		}
	})
}
