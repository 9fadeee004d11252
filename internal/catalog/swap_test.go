package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExchangeIsSelfInverse(t *testing.T) {
	s := Swap{Kind: KindRoom, Origin: New("misc", 1), Target: New("misc", 2)}
	refs := []Ref{New("misc", 1), New("misc", 2), New("misc", 3), {}}
	original := append([]Ref(nil), refs...)

	ptrs := make([]*Ref, len(refs))
	for i := range refs {
		ptrs[i] = &refs[i]
	}
	assert.True(t, s.ExchangeAll(ptrs...))
	assert.Equal(t, New("misc", 2), refs[0])
	assert.Equal(t, New("misc", 1), refs[1])
	assert.Equal(t, New("misc", 3), refs[2])

	s.ExchangeAll(ptrs...)
	assert.Equal(t, original, refs)
}

func TestAnyTouchedAgreesWithExchange(t *testing.T) {
	s := Swap{Kind: KindObject, Origin: New("misc", 5), Target: New("town", 9)}
	for _, ref := range []Ref{New("misc", 5), New("town", 9), New("misc", 9), {}, {Segment: "misc", ID: Unresolved}} {
		copyRef := ref
		touched := s.AnyTouched(&copyRef)
		assert.Equal(t, touched, s.Exchange(&copyRef), ref.String())
	}
}

func TestUnresolvedTargetNeverMatches(t *testing.T) {
	s := Swap{Kind: KindRoom, Origin: New("misc", 5), Target: Ref{Segment: "misc", ID: Unresolved}}
	assert.False(t, s.Resolved())
	assert.False(t, s.Touches(Ref{Segment: "misc", ID: Unresolved}))
	assert.True(t, s.Touches(New("misc", 5)))
}

func TestParseKind(t *testing.T) {
	kind, ok := ParseKind("mob")
	assert.True(t, ok)
	assert.Equal(t, KindMonster, kind)

	_, ok = ParseKind("spell")
	assert.False(t, ok)
	assert.Equal(t, "object", KindObject.String())
}
