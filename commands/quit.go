package commands

import "ClayCatalog/internal/game"

var Quit = Define(Definition{
	Name:        "quit",
	Aliases:     []string{"q"},
	Usage:       "quit",
	Description: "disconnect",
}, func(ctx *Context) bool {
	ctx.Player.Send(game.Ansi("\r\nGoodbye.\r\n"))
	return true
})
