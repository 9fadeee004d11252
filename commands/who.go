package commands

import (
	"strings"

	"ClayCatalog/internal/game"
)

var Who = Define(Definition{
	Name:        "who",
	Usage:       "who",
	Description: "list connected players",
}, func(ctx *Context) bool {
	var names []string
	for _, p := range ctx.World.Players() {
		names = append(names, p.Name)
	}
	others := game.FilterOut(names, ctx.Player.Name)
	if len(others) == 0 {
		reply(ctx, "You are the only adventurer online.")
		return false
	}
	reply(ctx, "Other adventurers online: "+strings.Join(game.HighlightNames(others), ", "))
	return false
})
