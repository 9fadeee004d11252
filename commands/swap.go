package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ClayCatalog/internal/catalog"
	"ClayCatalog/internal/game"
	"ClayCatalog/internal/relocate"
)

const swapControlUsage = "swap -info | -cancel [#] | -abort"

var RSwap = Define(Definition{
	Name:        "rswap",
	Usage:       "rswap <target> [confirm]",
	Description: "relocate the room you are standing in",
	Group:       GroupBuilder,
	MinClass:    game.ClassBuilder,
}, func(ctx *Context) bool {
	return runSwap(ctx, catalog.KindRoom)
})

var MSwap = Define(Definition{
	Name:        "mswap",
	Usage:       "mswap <origin> <target>",
	Description: "relocate a monster template",
	Group:       GroupBuilder,
	MinClass:    game.ClassBuilder,
}, func(ctx *Context) bool {
	return runSwap(ctx, catalog.KindMonster)
})

var OSwap = Define(Definition{
	Name:        "oswap",
	Usage:       "oswap <origin> <target>",
	Description: "relocate an object template",
	Group:       GroupBuilder,
	MinClass:    game.ClassBuilder,
}, func(ctx *Context) bool {
	return runSwap(ctx, catalog.KindObject)
})

var SwapControl = Define(Definition{
	Name:        "swap",
	Usage:       swapControlUsage,
	Description: "inspect or manage the relocation queue",
	Group:       GroupBuilder,
	MinClass:    game.ClassBuilder,
}, func(ctx *Context) bool {
	return runSwap(ctx, catalog.KindNone)
})

func swapUsage(kind catalog.Kind) []string {
	lines := []string{"Usage:"}
	switch kind {
	case catalog.KindRoom:
		lines = append(lines,
			"  rswap <target>                  move this room to target (seg.N, N or seg)",
			"  rswap -range <seg.N:M> <target> move rooms N..M, targets counting up from target",
			"  rswap -range <seg.N> <target> <n>  move room N and the n rooms after it")
	case catalog.KindMonster, catalog.KindObject:
		name := "mswap"
		if kind == catalog.KindObject {
			name = "oswap"
		}
		lines = append(lines,
			fmt.Sprintf("  %s <origin> <target>", name),
			fmt.Sprintf("  %s -range <seg.N:M> <target>", name),
			fmt.Sprintf("  %s -range <seg.N> <target> <n>", name))
	default:
		lines = append(lines, "  rswap, mswap or oswap start a relocation.")
	}
	return append(lines, "  "+swapControlUsage)
}

func runSwap(ctx *Context, kind catalog.Kind) bool {
	if ctx.Swaps == nil {
		warn(ctx, "Relocation is not available right now.")
		return false
	}
	args := strings.Fields(ctx.Arg)
	if len(args) == 0 {
		replyLines(ctx, swapUsage(kind))
		return false
	}
	if strings.HasPrefix(args[0], "-") {
		swapFlag(ctx, kind, args)
		return false
	}
	switch kind {
	case catalog.KindNone:
		replyLines(ctx, swapUsage(kind))
	case catalog.KindRoom:
		swapRoom(ctx, args)
	default:
		swapTemplate(ctx, kind, args)
	}
	return false
}

func swapFlag(ctx *Context, kind catalog.Kind, args []string) {
	switch strings.ToLower(args[0]) {
	case "-info", "-i":
		replyLines(ctx, ctx.Swaps.Status(ctx.Player.Name).Lines())
	case "-cancel", "-c":
		position := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(strings.TrimPrefix(args[1], "#"))
			if err != nil {
				warn(ctx, "Cancel takes a queue position, such as 'swap -cancel 2'.")
				return
			}
			position = n
		}
		swapCancel(ctx, position)
	case "-abort":
		if ctx.Player.Class < game.ClassCaretaker {
			warn(ctx, "Only caretakers may clear the relocation queue.")
			return
		}
		dropped := ctx.Swaps.Abort()
		ctx.World.NotifyStaff(game.ClassBuilder, game.Ansi(game.Style(
			fmt.Sprintf("\r\n%s cleared the relocation queue (%d dropped).", ctx.Player.Name, dropped), game.AnsiYellow)))
	case "-range", "-r":
		if kind == catalog.KindNone {
			warn(ctx, "Use rswap, mswap or oswap with -range.")
			return
		}
		swapRange(ctx, kind, args[1:])
	default:
		warn(ctx, "Flag not understood.")
	}
}

func swapCancel(ctx *Context, position int) {
	req, ok := ctx.Swaps.At(position)
	if !ok {
		warn(ctx, fmt.Sprintf("There is no relocation at position %d.", position))
		return
	}
	owner := strings.EqualFold(req.Requester, ctx.Player.Name)
	if !owner && ctx.Player.Class < game.ClassCaretaker {
		warn(ctx, fmt.Sprintf("Only %s or a caretaker may cancel that relocation.", req.Requester))
		return
	}
	if _, err := ctx.Swaps.Cancel(position); err != nil {
		warn(ctx, err.Error())
		return
	}
	reply(ctx, fmt.Sprintf("Cancelled %s.", req.Swap))
	if !owner {
		ctx.World.Notify(req.Requester, game.Ansi(game.Style(
			fmt.Sprintf("\r\n%s cancelled your relocation %s.", ctx.Player.Name, req.Swap), game.AnsiYellow)))
	}
}

func swapRoom(ctx *Context, args []string) {
	origin := ctx.Player.Location
	room, err := ctx.World.Room(origin)
	if err != nil {
		warn(ctx, "You must be standing in a catalogued room.")
		return
	}
	target, err := catalog.Parse(args[0], origin.Segment)
	if err != nil {
		warn(ctx, fmt.Sprintf("Bad target %q: %v.", args[0], err))
		return
	}
	confirmed := len(args) > 1 && strings.EqualFold(args[1], "confirm")
	if target.Segment != origin.Segment && room.HasKeyedExit() && !confirmed {
		warn(ctx, "This room has a lockable exit opened by a key. Moving it to another segment may "+
			"leave the key behind; repeat the command with 'confirm' to proceed.")
		return
	}
	if !submitSwap(ctx, relocate.Request{
		Requester: ctx.Player.Name,
		Swap:      catalog.Swap{Kind: catalog.KindRoom, Origin: origin, Target: target},
	}) {
		return
	}
	switch {
	case room.Shop:
		storage := room.TrapExit
		if !storage.Resolved() {
			storage = origin.Next(1)
		}
		reply(ctx, fmt.Sprintf("Reminder: this room is a shop; relocate its storage room %s as well.", game.HighlightRef(storage.Display())))
	case room.TrapExit.Resolved():
		reply(ctx, fmt.Sprintf("Reminder: this room has a trap exit to %s.", game.HighlightRef(room.TrapExit.Display())))
	}
}

func swapTemplate(ctx *Context, kind catalog.Kind, args []string) {
	if len(args) < 2 {
		replyLines(ctx, swapUsage(kind))
		return
	}
	origin, err := catalog.Parse(args[0], ctx.Player.Location.Segment)
	if err != nil || !origin.Resolved() {
		warn(ctx, fmt.Sprintf("The origin must be a position such as %s.100.", ctx.Player.Location.Segment))
		return
	}
	target, err := catalog.Parse(args[1], origin.Segment)
	if err != nil {
		warn(ctx, fmt.Sprintf("Bad target %q: %v.", args[1], err))
		return
	}
	submitSwap(ctx, relocate.Request{
		Requester: ctx.Player.Name,
		Swap:      catalog.Swap{Kind: kind, Origin: origin, Target: target},
	})
}

func swapRange(ctx *Context, kind catalog.Kind, args []string) {
	if len(args) < 2 {
		replyLines(ctx, swapUsage(kind))
		return
	}
	origin, high, hasHigh, err := parseRangeOrigin(args[0], ctx.Player.Location.Segment)
	if err != nil {
		warn(ctx, err.Error())
		return
	}
	target, err := catalog.Parse(args[1], origin.Segment)
	if err != nil {
		warn(ctx, fmt.Sprintf("Bad target %q: %v.", args[1], err))
		return
	}
	var count int
	switch {
	case hasHigh:
		if high < origin.ID {
			warn(ctx, "The end of the range must not be below its start.")
			return
		}
		count = high - origin.ID + 1
	case len(args) > 2:
		n, err := strconv.Atoi(args[2])
		if err != nil || n < 0 {
			warn(ctx, "The count must be a non-negative number.")
			return
		}
		count = n + 1
	default:
		warn(ctx, "Give the range as seg.N:M, or follow the target with a count.")
		return
	}

	base := relocate.Request{
		Requester: ctx.Player.Name,
		Swap:      catalog.Swap{Kind: kind, Origin: origin, Target: target},
	}
	submitted, err := ctx.Swaps.SubmitRange(base, count)
	if err != nil {
		if submitted > 0 {
			warn(ctx, fmt.Sprintf("Submitted %d of %d relocations: %v.", submitted, count, err))
			return
		}
		warn(ctx, swapRefusal(err))
		return
	}
	reply(ctx, fmt.Sprintf("Submitted %d %s relocations starting at %s.", submitted, kind, game.HighlightRef(origin.Display())))
}

// parseRangeOrigin reads "seg.N", "seg.N:M" or "N:M".
func parseRangeOrigin(text, defaultSegment string) (catalog.Ref, int, bool, error) {
	low, high, hasHigh := text, "", false
	if idx := strings.LastIndex(text, ":"); idx > 0 {
		head := text[:idx]
		if strings.ContainsAny(head, ".:") || strings.Trim(head, "0123456789") == "" {
			low, high, hasHigh = head, text[idx+1:], true
		}
	}
	origin, err := catalog.Parse(low, defaultSegment)
	if err != nil || !origin.Resolved() {
		return catalog.Ref{}, 0, false, fmt.Errorf("the range must start at a position such as %s.100", defaultSegment)
	}
	if !hasHigh {
		return origin, 0, false, nil
	}
	end, err := strconv.Atoi(high)
	if err != nil {
		return catalog.Ref{}, 0, false, fmt.Errorf("bad range end %q", high)
	}
	return origin, end, true, nil
}

func submitSwap(ctx *Context, req relocate.Request) bool {
	position, err := ctx.Swaps.Submit(req)
	if err != nil {
		warn(ctx, swapRefusal(err))
		return false
	}
	if position == 1 {
		reply(ctx, fmt.Sprintf("Relocating %s.", req.Swap))
		return true
	}
	if current, ok := ctx.Swaps.Current(); ok {
		reply(ctx, fmt.Sprintf("%s is currently running the relocation utility.", current.Requester))
	}
	reply(ctx, fmt.Sprintf("Your request has been queued at position %d.", position))
	return true
}

func swapRefusal(err error) string {
	var verr *relocate.ValidationError
	switch {
	case errors.As(err, &verr):
		return "Refused: " + verr.Reason + "."
	case errors.Is(err, relocate.ErrDuplicate):
		return "That is already in the queue."
	default:
		return "Refused: " + err.Error() + "."
	}
}
