package commands

import (
	"fmt"
	"strings"

	"ClayCatalog/internal/game"
)

var Help = Define(Definition{
	Name:        "help",
	Aliases:     []string{"?"},
	Usage:       "help",
	Description: "show this message",
}, func(ctx *Context) bool {
	message := helpMessage("Commands:", commandsForGroup(GroupGeneral, ctx.Player.Class))
	if ctx.Player.Class.IsStaff() {
		message += "\r\nType 'buildhelp' for building commands."
	}
	ctx.Player.Send(game.Ansi(message))
	return false
})

var BuildHelp = Define(Definition{
	Name:        "buildhelp",
	Usage:       "buildhelp",
	Description: "list building and staff commands",
	Group:       GroupBuilder,
	MinClass:    game.ClassBuilder,
}, func(ctx *Context) bool {
	message := helpMessage("Building commands:", commandsForGroup(GroupBuilder, ctx.Player.Class))
	if staff := commandsForGroup(GroupStaff, ctx.Player.Class); len(staff) > 0 {
		message += helpMessage("Staff commands:", staff)
	}
	ctx.Player.Send(game.Ansi(message))
	return false
})

func helpMessage(title string, commands []*Command) string {
	var builder strings.Builder
	builder.WriteString(game.Style("\r\n"+title+"\r\n", game.AnsiBold, game.AnsiUnderline))
	for _, cmd := range commands {
		usage := cmd.Usage
		if strings.TrimSpace(usage) == "" {
			usage = cmd.Name
		}
		builder.WriteString(fmt.Sprintf("  %-24s - %s\r\n", usage, cmd.Description))
	}
	return builder.String()
}

func commandsForGroup(group CommandGroup, class game.Class) []*Command {
	all := All()
	filtered := make([]*Command, 0, len(all))
	for _, cmd := range all {
		if cmd.Group == group && class >= cmd.MinClass {
			filtered = append(filtered, cmd)
		}
	}
	return filtered
}
