package game

import "ClayCatalog/internal/catalog"

// HookArg is a named catalog reference handed to a hook script.
type HookArg struct {
	Name string       `json:"name"`
	Kind catalog.Kind `json:"kind"`
	Ref  catalog.Ref  `json:"ref"`
}

// Hook binds a script to an event. Scripts never embed refs in their source;
// they read them from Args so relocation can rewrite them.
type Hook struct {
	Event  string    `json:"event"`
	Script string    `json:"script"`
	Args   []HookArg `json:"args,omitempty"`
}

func hookRefs(hooks []Hook, kind catalog.Kind) []*catalog.Ref {
	var refs []*catalog.Ref
	for i := range hooks {
		for j := range hooks[i].Args {
			if hooks[i].Args[j].Kind == kind {
				refs = append(refs, &hooks[i].Args[j].Ref)
			}
		}
	}
	return refs
}

func (h Hook) argMap() map[string]string {
	out := make(map[string]string, len(h.Args))
	for _, arg := range h.Args {
		out[arg.Name] = arg.Ref.String()
	}
	return out
}
