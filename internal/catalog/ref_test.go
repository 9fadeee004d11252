package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseForms(t *testing.T) {
	cases := []struct {
		in   string
		want Ref
	}{
		{"misc.100", Ref{Segment: "misc", ID: 100}},
		{"Misc:7", Ref{Segment: "misc", ID: 7}},
		{"42", Ref{Segment: "town", ID: 42}},
		{"oceancrest", Ref{Segment: "oceancrest", ID: Unresolved}},
		{".5", Ref{Segment: "town", ID: 5}},
		{"avery_long_segment_name_indeed.3", Ref{Segment: "avery_long_segment_n", ID: 3}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in, "town")
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("", "misc")
	assert.True(t, errors.Is(err, ErrEmptyRef))

	_, err = Parse("misc.abc", "misc")
	assert.True(t, errors.Is(err, ErrInvalidID))

	_, err = Parse("misc.20000", "misc")
	assert.True(t, errors.Is(err, ErrInvalidID))

	_, err = Parse("bad seg.1", "misc")
	assert.True(t, errors.Is(err, ErrInvalidSegment))
}

func TestRefRendering(t *testing.T) {
	ref := New("Misc", 12)
	assert.Equal(t, "misc.12", ref.String())
	assert.Equal(t, "misc:12", ref.Display())
	assert.True(t, ref.InSegment("MISC"))

	open := Ref{Segment: "misc", ID: Unresolved}
	assert.False(t, open.Resolved())
	assert.Equal(t, "misc", open.String())
	assert.Equal(t, open, open.Next(3))
	assert.Equal(t, Ref{Segment: "misc", ID: 15}, ref.Next(3))
}

func TestRangeContains(t *testing.T) {
	rg := Range{Low: New("misc", 10), High: 20}
	assert.True(t, rg.Contains(New("misc", 10)))
	assert.True(t, rg.Contains(New("misc", 20)))
	assert.False(t, rg.Contains(New("misc", 21)))
	assert.False(t, rg.Contains(New("town", 15)))

	whole := Range{Low: Ref{Segment: "town", ID: Unresolved}}
	assert.True(t, whole.Contains(New("town", 19999)))
	assert.Equal(t, "town:*", whole.String())
	assert.Equal(t, "misc:10-20", rg.String())
}
