package game

import "ClayCatalog/internal/catalog"

// Monster is a persisted monster template.
type Monster struct {
	Ref         catalog.Ref   `json:"ref"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Home        catalog.Ref   `json:"home,omitempty"`
	Jail        catalog.Ref   `json:"jail,omitempty"`
	Carries     []catalog.Ref `json:"carries,omitempty"`
	Hooks       []Hook        `json:"hooks,omitempty"`
}

func (m *Monster) refs(kind catalog.Kind) []*catalog.Ref {
	var refs []*catalog.Ref
	switch kind {
	case catalog.KindRoom:
		refs = append(refs, &m.Home, &m.Jail)
	case catalog.KindMonster:
		refs = append(refs, &m.Ref)
	case catalog.KindObject:
		refs = append(refs, refPointers(m.Carries)...)
	}
	return append(refs, hookRefs(m.Hooks, kind)...)
}

func (m *Monster) Affected(s catalog.Swap) bool { return s.AnyTouched(m.refs(s.Kind)...) }

func (m *Monster) Relocate(s catalog.Swap) bool { return s.ExchangeAll(m.refs(s.Kind)...) }

// Object is a persisted object template. Containers list the templates they
// are created holding.
type Object struct {
	Ref         catalog.Ref   `json:"ref"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Contents    []catalog.Ref `json:"contents,omitempty"`
	Hooks       []Hook        `json:"hooks,omitempty"`
}

func (o *Object) refs(kind catalog.Kind) []*catalog.Ref {
	var refs []*catalog.Ref
	if kind == catalog.KindObject {
		refs = append(refs, &o.Ref)
		refs = append(refs, refPointers(o.Contents)...)
	}
	return append(refs, hookRefs(o.Hooks, kind)...)
}

func (o *Object) Affected(s catalog.Swap) bool { return s.AnyTouched(o.refs(s.Kind)...) }

func (o *Object) Relocate(s catalog.Swap) bool { return s.ExchangeAll(o.refs(s.Kind)...) }
