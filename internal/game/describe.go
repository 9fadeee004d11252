package game

import (
	"fmt"
	"strings"
)

// DescribeRoom renders the player's current room.
func DescribeRoom(w *World, p *Player) string {
	room, err := w.Room(p.Location)
	if err != nil {
		return Ansi(Style("\r\nYou float in a formless void.", AnsiYellow))
	}
	var b strings.Builder
	b.WriteString("\r\n")
	b.WriteString(Style(room.Title, AnsiBold, AnsiCyan))
	if p.Class.IsStaff() {
		b.WriteString(" " + Style("["+room.Ref.Display()+"]", AnsiDim))
	}
	if desc := strings.TrimSpace(room.Description); desc != "" {
		b.WriteString("\r\n" + Style(desc, AnsiItalic, AnsiDim))
	}
	b.WriteString("\r\nExits: " + Style(ExitList(room.Exits), AnsiGreen))
	others := FilterOut(w.PlayersIn(room.Ref), p.Name)
	if len(others) > 0 {
		b.WriteString(fmt.Sprintf("\r\nYou see: %s", strings.Join(HighlightNames(others), ", ")))
	}
	return Ansi(b.String())
}

// EnterRoom shows the room to the player and fires its enter hooks.
func EnterRoom(w *World, p *Player) {
	p.Send(DescribeRoom(w, p))
	room, err := w.Room(p.Location)
	if err != nil {
		return
	}
	w.runRoomHooks(room, p, HookEnter)
}

// LookRoom shows the room again and fires its look hooks.
func LookRoom(w *World, p *Player) {
	p.Send(DescribeRoom(w, p))
	room, err := w.Room(p.Location)
	if err != nil {
		return
	}
	w.runRoomHooks(room, p, HookLook)
}

// FilterOut removes name from list, ignoring case.
func FilterOut(list []string, name string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if !strings.EqualFold(item, name) {
			out = append(out, item)
		}
	}
	return out
}
