package realtime

import (
	"sort"

	"github.com/comalice/gametestx"
)

// Command is applied to the scheduler at a tick boundary.
type Command struct {
	Name  string
	Apply func(s *gametestx.Scheduler) error
}

// Cancel returns a command that cancels one test by ID.
func Cancel(id, reason string) Command {
	return Command{
		Name:  "cancel " + id,
		Apply: func(s *gametestx.Scheduler) error { return s.Cancel(id, reason) },
	}
}

// CancelAll returns a command that cancels every remaining test.
func CancelAll(reason string) Command {
	return Command{
		Name:  "cancel all",
		Apply: func(s *gametestx.Scheduler) error { return s.CancelAll(reason) },
	}
}

// CommandWithMeta adds sequencing metadata for deterministic ordering
type CommandWithMeta struct {
	Command     Command
	SequenceNum uint64
	Priority    int
}

// sortCommands orders commands by priority, then submission order.
func sortCommands(cmds []CommandWithMeta) {
	sort.SliceStable(cmds, func(i, j int) bool {
		if cmds[i].Priority != cmds[j].Priority {
			return cmds[i].Priority > cmds[j].Priority
		}
		return cmds[i].SequenceNum < cmds[j].SequenceNum
	})
}
