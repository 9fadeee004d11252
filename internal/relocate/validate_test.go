package relocate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ClayCatalog/internal/catalog"
	"ClayCatalog/internal/game"
)

type fakeLookup struct {
	segments map[string]game.SegmentInfo
	players  map[string]game.PlayerRecord
}

func (f fakeLookup) SegmentInfo(segment string) (game.SegmentInfo, bool) {
	info, ok := f.segments[segment]
	return info, ok
}

func (f fakeLookup) Requester(name string) (game.PlayerRecord, bool) {
	rec, ok := f.players[name]
	return rec, ok
}

func roomSwap(requester, origin, target string) Request {
	o, err := catalog.Parse(origin, "misc")
	if err != nil {
		panic(err)
	}
	tg, err := catalog.Parse(target, "misc")
	if err != nil {
		panic(err)
	}
	return Request{Requester: requester, Swap: catalog.Swap{Kind: catalog.KindRoom, Origin: o, Target: tg}}
}

func TestValidatorChecks(t *testing.T) {
	lookup := fakeLookup{
		segments: map[string]game.SegmentInfo{"town": {Segment: "town", Limbo: 3, Recall: 4}},
		players: map[string]game.PlayerRecord{
			"bob":  {Name: "bob", Class: game.ClassBuilder, Ranges: []catalog.Range{{Low: catalog.New("keep", 1), High: 50}}},
			"cara": {Name: "cara", Class: game.ClassCaretaker},
		},
	}
	v := NewValidator(DefaultRules(), lookup)

	object := func(origin, target string) Request {
		req := roomSwap("cara", origin, target)
		req.Kind = catalog.KindObject
		return req
	}

	cases := []struct {
		name string
		req  Request
		want string
	}{
		{"self", roomSwap("cara", "misc:100", "misc:100"), "cannot relocate an entity to itself"},
		{"root origin", roomSwap("cara", "misc:0", "misc:5"), "cannot relocate the reserved root entity"},
		{"root target", roomSwap("cara", "misc:5", "misc:0"), "cannot relocate the reserved root entity"},
		{"restricted", roomSwap("cara", "misc:5", "shop:2"), "shop is a restricted segment for rooms"},
		{"reserved room", roomSwap("cara", "test:1", "misc:9"), "hard-coded"},
		{"reserved object", object("misc:349", "misc:9"), "hard-coded"},
		{"limbo leaves segment", roomSwap("cara", "town:3", "misc:9"), "limbo or recall"},
		{"out of range", roomSwap("bob", "keep:10", "keep:90"), "keep:90 is outside your allotted ranges"},
		{"kind", Request{Swap: catalog.Swap{Origin: catalog.New("misc", 1), Target: catalog.New("misc", 2)}}, "invalid relocation kind"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Check(tc.req)
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.True(t, strings.Contains(verr.Reason, tc.want), "got %q", verr.Reason)
		})
	}
}

func TestValidatorAccepts(t *testing.T) {
	lookup := fakeLookup{
		segments: map[string]game.SegmentInfo{"town": {Segment: "town", Limbo: 3}},
		players: map[string]game.PlayerRecord{
			"bob": {Name: "bob", Class: game.ClassBuilder, Ranges: []catalog.Range{{Low: catalog.Ref{Segment: "keep", ID: catalog.Unresolved}}}},
		},
	}
	v := NewValidator(DefaultRules(), lookup)

	for _, req := range []Request{
		roomSwap("bob", "keep:10", "keep:90"),
		roomSwap("bob", "keep:10", "keep"),
		roomSwap("cara", "town:3", "town:8"),
		roomSwap("cara", "misc:349", "misc:9"),
	} {
		assert.NoError(t, v.Check(req), req.Swap.String())
	}
}

func TestValidatorUnresolvedTargetSkipsTargetChecks(t *testing.T) {
	v := NewValidator(DefaultRules(), nil)
	req := roomSwap("ash", "misc:100", "misc")
	require.False(t, req.Target.Resolved())
	assert.NoError(t, v.Check(req))

	req.Target = catalog.Ref{}
	assert.Error(t, v.Check(req))
}
