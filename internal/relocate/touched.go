package relocate

import "golang.org/x/exp/slices"

// TouchedSet is an ordered set of tags. Adding a tag that is already present
// moves it to the end.
type TouchedSet struct {
	tags []Tag
}

func (s *TouchedSet) Add(tag Tag) {
	if i := slices.Index(s.tags, tag); i >= 0 {
		s.tags = slices.Delete(s.tags, i, i+1)
	}
	s.tags = append(s.tags, tag)
}

func (s *TouchedSet) Contains(tag Tag) bool {
	return slices.Contains(s.tags, tag)
}

func (s *TouchedSet) Len() int { return len(s.tags) }

// Tags returns a copy in insertion order.
func (s *TouchedSet) Tags() []Tag {
	return slices.Clone(s.tags)
}

func (s *TouchedSet) Clear() {
	s.tags = nil
}
