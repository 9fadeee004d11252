package commands

import (
	"fmt"
	"strings"

	"ClayCatalog/internal/catalog"
	"ClayCatalog/internal/game"
)

var Goto = Define(Definition{
	Name:        "goto",
	Usage:       "goto <room>",
	Description: "teleport to a room",
	Group:       GroupBuilder,
	MinClass:    game.ClassBuilder,
}, func(ctx *Context) bool {
	target := strings.TrimSpace(ctx.Arg)
	if target == "" {
		warn(ctx, "Usage: goto <room>")
		return false
	}
	room, err := catalog.Parse(target, ctx.Player.Location.Segment)
	if err != nil || !room.Resolved() {
		warn(ctx, "Rooms are named like misc.100.")
		return false
	}
	prev := ctx.Player.Location
	if prev == room {
		game.EnterRoom(ctx.World, ctx.Player)
		return false
	}
	if err := ctx.World.MoveToRoom(ctx.Player, room); err != nil {
		warn(ctx, err.Error())
		return false
	}
	ctx.World.BroadcastToRoom(prev, game.Ansi(fmt.Sprintf("\r\n%s vanishes in a shimmer of light.", game.HighlightName(ctx.Player.Name))), ctx.Player)
	ctx.World.BroadcastToRoom(room, game.Ansi(fmt.Sprintf("\r\n%s appears in a shimmer of light.", game.HighlightName(ctx.Player.Name))), ctx.Player)
	game.EnterRoom(ctx.World, ctx.Player)
	return false
})
