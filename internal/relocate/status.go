package relocate

import (
	"fmt"
	"strings"

	"ClayCatalog/internal/game"
)

// Entry is one line of the relocation queue as shown to operators.
type Entry struct {
	Position int
	Request
}

// Status is a snapshot of the coordinator, redacted for one viewer.
type Status struct {
	Phase   Phase
	Current *Entry
	Queue   []Entry
	Touched []string
	// Hidden counts touched entries the viewer may not see.
	Hidden     int
	Workers    []JobInfo
	LastReport *Report
}

// Status reports the coordinator state as viewer is allowed to see it.
// Builders never see player tags, and only dungeonmasters see tags for
// dungeonmaster characters.
func (c *Coordinator) Status(viewer string) Status {
	record, _ := c.host.Requester(viewer)
	st := Status{Phase: c.phase, Workers: c.sup.Jobs()}
	if c.current != nil {
		st.Current = &Entry{Position: 1, Request: *c.current}
	}
	for i, req := range c.queue {
		st.Queue = append(st.Queue, Entry{Position: i + 2, Request: req})
	}
	for _, tag := range c.touched.Tags() {
		if c.visible(record, tag) {
			st.Touched = append(st.Touched, tag.String())
		} else {
			st.Hidden++
		}
	}
	if c.lastReport != nil {
		report := *c.lastReport
		st.LastReport = &report
	}
	return st
}

func (c *Coordinator) visible(viewer game.PlayerRecord, tag Tag) bool {
	if !tag.isPlayer() {
		return true
	}
	switch {
	case viewer.Class >= game.ClassDungeonmaster:
		return true
	case viewer.Class >= game.ClassCaretaker:
		return !c.host.IsDungeonmaster(tag.Key)
	}
	return false
}

// Lines renders the status for the -info command.
func (st Status) Lines() []string {
	var lines []string
	if st.Current == nil {
		lines = append(lines, "No relocation is running.")
	} else {
		lines = append(lines, fmt.Sprintf("Current: %s (%s) by %s, %s.",
			st.Current.Swap, st.Current.Kind, st.Current.Requester, st.Phase))
	}
	if len(st.Queue) == 0 {
		lines = append(lines, "The queue is empty.")
	} else {
		lines = append(lines, fmt.Sprintf("Queued (%d):", len(st.Queue)))
		for _, e := range st.Queue {
			lines = append(lines, fmt.Sprintf("  %3d. %-8s %-22s %s", e.Position, e.Kind, e.Swap, e.Requester))
		}
	}
	if len(st.Touched) > 0 || st.Hidden > 0 {
		touched := fmt.Sprintf("Touched (%d): %s", len(st.Touched), strings.Join(st.Touched, " "))
		if st.Hidden > 0 {
			touched += fmt.Sprintf(" (+%d hidden)", st.Hidden)
		}
		lines = append(lines, touched)
	}
	for _, job := range st.Workers {
		lines = append(lines, fmt.Sprintf("Worker %s: %s for %s since %s.", job.ID, job.Purpose, job.Owner, job.Started.Format("15:04:05")))
	}
	if st.LastReport != nil {
		lines = append(lines, "Last: "+st.LastReport.Summary())
	}
	return lines
}
