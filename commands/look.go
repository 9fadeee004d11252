package commands

import "ClayCatalog/internal/game"

var Look = Define(Definition{
	Name:        "look",
	Aliases:     []string{"l"},
	Usage:       "look",
	Description: "describe your surroundings",
}, func(ctx *Context) bool {
	game.LookRoom(ctx.World, ctx.Player)
	return false
})
