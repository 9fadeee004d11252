package relocate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ClayCatalog/internal/catalog"
	"ClayCatalog/internal/game"
)

// Failure is one record the apply step could not rewrite.
type Failure struct {
	Label string
	Err   error
}

// Report is the outcome of applying one relocation.
type Report struct {
	Requester string
	Swap      catalog.Swap
	Succeeded []string
	Unchanged []string
	Failed    []Failure
	Requeued  int
	// Reminders are follow-ups for the operator, such as config that
	// still names the old position.
	Reminders []string
}

// Summary is the one line shown to the requester.
func (r Report) Summary() string {
	line := fmt.Sprintf("Relocated %s: %d succeeded, %d failed", r.Swap, len(r.Succeeded), len(r.Failed))
	if len(r.Unchanged) > 0 {
		line += fmt.Sprintf(", %d unchanged", len(r.Unchanged))
	}
	if r.Requeued > 0 {
		line += fmt.Sprintf(", %d queued requests rewritten", r.Requeued)
	}
	return line + "."
}

// Details lists the failures and then the reminders, one per line.
func (r Report) Details() string {
	var b strings.Builder
	for _, f := range r.Failed {
		fmt.Fprintf(&b, "  failed %s: %v\n", f.Label, f.Err)
	}
	for _, reminder := range r.Reminders {
		fmt.Fprintf(&b, "  %s\n", reminder)
	}
	return b.String()
}

func (r *Report) record(label string, changed bool, err error) {
	switch {
	case err != nil:
		r.Failed = append(r.Failed, Failure{Label: label, Err: err})
	case changed:
		r.Succeeded = append(r.Succeeded, label)
	default:
		r.Unchanged = append(r.Unchanged, label)
	}
}

// ApplyEngine performs the authoritative rewrite of a relocation.
type ApplyEngine struct {
	host   Host
	logger zerolog.Logger
}

func NewApplyEngine(host Host, logger zerolog.Logger) *ApplyEngine {
	return &ApplyEngine{host: host, logger: logger}
}

// Apply rewrites the world metadata, online players, the queue and every
// touched record. A record that cannot be saved is reported and skipped.
func (e *ApplyEngine) Apply(req Request, touched []Tag, queue []Request) Report {
	s := req.Swap
	report := Report{Requester: req.Requester, Swap: s}
	log := e.logger.With().Str("swap", s.String()).Str("requester", req.Requester).Logger()

	e.applyMetadata(s, &report, log)
	online := e.applyPlayers(s, &report, log)

	for i := range queue {
		if queue[i].Match(s) {
			report.Requeued++
		}
	}
	if report.Requeued > 0 {
		log.Info().Int("count", report.Requeued).Msg("queued requests rewritten")
	}

	e.applyRecords(s, touched, online, &report, log)

	log.Info().
		Int("succeeded", len(report.Succeeded)).
		Int("failed", len(report.Failed)).
		Int("unchanged", len(report.Unchanged)).
		Msg("relocation applied")
	return report
}

// applyMetadata rewrites everything the world keeps in memory outside the
// record catalogs. Every area room is offered the swap, not only the ones
// tagged when the scan began.
func (e *ApplyEngine) applyMetadata(s catalog.Swap, report *Report, log zerolog.Logger) {
	meta := e.host.Metadata()
	var changed []string
	groups := make(map[string][]string)
	relocate := func(group, label string, entity catalog.Relocatable) {
		if entity.Relocate(s) {
			changed = append(changed, group+":"+label)
			groups[group] = append(groups[group], label)
		}
	}
	for _, area := range meta.Areas {
		for _, zone := range area.Zones {
			relocate("zone", zone.Name, zone)
		}
	}
	e.host.ForEachAreaRoom(func(room *game.AreaRoom) {
		if room.Relocate(s) {
			changed = append(changed, Tag{Kind: TagAreaRoom, Key: room.Marker.String()}.String())
		}
	})
	for _, ship := range meta.Ships {
		relocate("ship", ship.Name, ship)
	}
	for _, loc := range meta.StartLocs {
		relocate("start", loc.Name, loc)
	}
	for _, info := range meta.Segments {
		relocate("segment", info.Segment, info)
	}

	if start := e.host.StartRoom(); s.Kind == catalog.KindRoom && s.Exchange(&start) {
		e.host.SetStartRoom(start)
		report.record("start room", true, nil)
		report.Reminders = append(report.Reminders,
			fmt.Sprintf("The start room is now %s; update start_room in the server config.", start.Display()))
		log.Info().Str("start_room", start.String()).Msg("start room moved")
	}
	if names := groups["start"]; len(names) > 0 {
		report.Reminders = append(report.Reminders,
			fmt.Sprintf("Starting locations changed (%s); check them in world.yaml.", strings.Join(names, ", ")))
	}
	if names := groups["ship"]; len(names) > 0 {
		report.Reminders = append(report.Reminders,
			fmt.Sprintf("Ship routes changed (%s); check the ship schedules in world.yaml.", strings.Join(names, ", ")))
	}
	if names := groups["segment"]; len(names) > 0 {
		report.Reminders = append(report.Reminders,
			fmt.Sprintf("Segment info changed (%s); check limbo and recall rooms in world.yaml.", strings.Join(names, ", ")))
	}

	if len(changed) == 0 {
		return
	}
	err := e.host.SaveMetadata()
	if err != nil {
		log.Error().Err(err).Msg("save world metadata")
	}
	for _, label := range changed {
		report.record(label, true, err)
	}
}

// applyPlayers rewrites connected players and returns their lower-cased
// names so their stored copies are not rewritten a second time.
func (e *ApplyEngine) applyPlayers(s catalog.Swap, report *Report, log zerolog.Logger) map[string]bool {
	online := make(map[string]bool)
	for _, p := range e.host.Players() {
		online[strings.ToLower(p.Name)] = true
		if !p.Relocate(s) {
			continue
		}
		err := e.host.SavePlayer(p)
		if err != nil {
			log.Error().Err(err).Str("player", p.Name).Msg("save player")
		}
		report.record(Tag{Kind: TagPlayer, Key: p.Name}.String(), true, err)
	}
	return online
}

func (e *ApplyEngine) applyRecords(s catalog.Swap, touched []Tag, online map[string]bool, report *Report, log zerolog.Logger) {
	// Both ends are read before anything is written, since saving one end
	// overwrites the other's file.
	ends := []catalog.Ref{s.Origin, s.Target}
	identity := make(map[Tag]catalog.Relocatable, len(ends))
	for _, end := range ends {
		tag := refTag(s.Kind, end)
		if !end.Resolved() || !touchedHas(touched, tag) {
			continue
		}
		record, err := e.load(tag)
		if err != nil {
			if !errors.Is(err, game.ErrNotFound) {
				report.record(tag.String(), false, err)
			}
			continue
		}
		identity[tag] = record
	}
	for _, end := range ends {
		e.host.Evict(s.Kind, end)
	}
	moved := make(map[Tag]bool, len(ends))

	for _, tag := range touched {
		if tag.Kind == TagAreaRoom {
			continue
		}
		if tag.Kind == TagPlayer && online[strings.ToLower(tag.Key)] {
			continue
		}
		label := tag.String()
		record, isIdentity := identity[tag]
		if !isIdentity {
			if isIdentityTag(s, tag) {
				continue
			}
			loaded, err := e.load(tag)
			if err != nil {
				log.Warn().Err(err).Str("tag", label).Msg("load touched record")
				report.record(label, false, err)
				continue
			}
			record = loaded
		}
		if !record.Relocate(s) {
			report.record(label, false, nil)
			continue
		}
		err := e.save(tag, record)
		if err != nil {
			log.Error().Err(err).Str("tag", label).Msg("save touched record")
		} else if isIdentity {
			moved[tag] = true
		}
		report.record(label, true, err)
	}

	// A record that moved into an empty slot leaves its old file behind.
	for i, end := range ends {
		other := refTag(s.Kind, ends[1-i])
		if !moved[refTag(s.Kind, end)] || identity[other] != nil {
			continue
		}
		if err := e.host.Store().Remove(s.Kind, end); err != nil {
			log.Error().Err(err).Str("ref", end.String()).Msg("remove vacated record")
			report.record("vacated "+end.Display(), false, err)
		}
	}
}

func isIdentityTag(s catalog.Swap, tag Tag) bool {
	for _, end := range []catalog.Ref{s.Origin, s.Target} {
		if end.Resolved() && tag == refTag(s.Kind, end) {
			return true
		}
	}
	return false
}

func (e *ApplyEngine) load(tag Tag) (catalog.Relocatable, error) {
	switch tag.Kind {
	case TagPlayer, TagBackup:
		return e.host.Store().LoadPlayer(tag.Key, tag.Kind == TagBackup)
	}
	ref, err := catalog.Parse(tag.Key, "")
	if err != nil || !ref.Resolved() {
		return nil, fmt.Errorf("malformed tag %s", tag)
	}
	switch tag.Kind {
	case TagRoom:
		return e.host.Room(ref)
	case TagMonster:
		return e.host.Monster(ref)
	case TagObject:
		return e.host.Object(ref)
	}
	return nil, fmt.Errorf("unknown tag %s", tag)
}

func (e *ApplyEngine) save(tag Tag, record catalog.Relocatable) error {
	switch r := record.(type) {
	case *game.PlayerRecord:
		return e.host.Store().SavePlayer(r, tag.Kind == TagBackup)
	case *game.Room:
		return e.host.SaveRoom(r)
	case *game.Monster:
		return e.host.SaveMonster(r)
	case *game.Object:
		return e.host.SaveObject(r)
	}
	return fmt.Errorf("cannot save %T", record)
}

func touchedHas(touched []Tag, tag Tag) bool {
	for _, t := range touched {
		if t == tag {
			return true
		}
	}
	return false
}
