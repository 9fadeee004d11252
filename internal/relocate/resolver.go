package relocate

import (
	"context"
	"fmt"

	"golang.org/x/exp/slices"

	"ClayCatalog/internal/catalog"
)

// Prober answers whether a position is occupied.
type Prober interface {
	Exists(kind catalog.Kind, ref catalog.Ref) bool
}

// reservedProber reports hard-coded positions as occupied so a search
// walks past them instead of handing them to the validator.
type reservedProber struct {
	Prober
	reserved map[catalog.Kind][]catalog.Ref
}

func (p reservedProber) Exists(kind catalog.Kind, ref catalog.Ref) bool {
	return slices.Contains(p.reserved[kind], ref) || p.Prober.Exists(kind, ref)
}

// FindFunc builds the worker that looks for a free position.
type FindFunc func(probe Prober, kind catalog.Kind, segment string, limit int) WorkFunc

// FindFree walks positions 1..limit-1 and emits the first unoccupied one.
// It emits nothing when the segment is full.
func FindFree(probe Prober, kind catalog.Kind, segment string, limit int) WorkFunc {
	return func(ctx context.Context, out *Stream) error {
		for id := 1; id < limit; id++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			ref := catalog.Ref{Segment: segment, ID: id}
			if !probe.Exists(kind, ref) {
				return out.Emit(ctx, ref.String())
			}
		}
		return nil
	}
}

// TargetResolver runs the single free-position search.
type TargetResolver struct {
	sup   *Supervisor
	probe Prober
	find  FindFunc
	limit int
}

// NewTargetResolver builds a resolver whose searches never offer a position
// listed in reserved.
func NewTargetResolver(sup *Supervisor, probe Prober, find FindFunc, limit int, reserved map[catalog.Kind][]catalog.Ref) *TargetResolver {
	if len(reserved) > 0 {
		probe = reservedProber{Prober: probe, reserved: reserved}
	}
	if find == nil {
		find = FindFree
	}
	if limit <= 0 {
		limit = catalog.MaxPosition
	}
	return &TargetResolver{sup: sup, probe: probe, find: find, limit: limit}
}

// Start launches a search in the request's target segment. onDone receives
// the found position, or an error wrapping ErrNoFreeSlot or ErrWorker.
func (r *TargetResolver) Start(req Request, onDone func(catalog.Ref, error)) (*Job, error) {
	if r.sup.Active(JobFind) {
		return nil, ErrSearchRunning
	}
	segment := req.Target.Segment
	var found catalog.Ref
	var got bool
	onLine := func(line string) {
		if got {
			return
		}
		ref, err := catalog.Parse(line, segment)
		if err == nil && ref.Resolved() {
			found, got = ref, true
		}
	}
	onExit := func(err error) {
		switch {
		case err != nil:
			onDone(catalog.Ref{}, fmt.Errorf("%w: search in %s: %v", ErrWorker, segment, err))
		case !got:
			onDone(catalog.Ref{}, fmt.Errorf("%w in %s", ErrNoFreeSlot, segment))
		default:
			onDone(found, nil)
		}
	}
	job := r.sup.Spawn(JobFind, req.Requester, r.find(r.probe, req.Kind, segment, r.limit), onLine, onExit)
	return job, nil
}
