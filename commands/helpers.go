package commands

import (
	"strings"

	"ClayCatalog/internal/game"
)

func reply(ctx *Context, msg string) {
	ctx.Player.Send(game.Ansi("\r\n" + msg))
}

func warn(ctx *Context, msg string) {
	ctx.Player.Send(game.Ansi(game.Style("\r\n"+msg, game.AnsiYellow)))
}

func replyLines(ctx *Context, lines []string) {
	ctx.Player.Send(game.Ansi("\r\n" + strings.Join(lines, "\r\n")))
}
