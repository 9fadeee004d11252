package commands

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"ClayCatalog/internal/game"
	"ClayCatalog/internal/relocate"
)

// CommandGroup buckets commands for the help listings.
type CommandGroup int

const (
	GroupGeneral CommandGroup = iota
	GroupBuilder
	GroupStaff
)

// Definition describes a single command's metadata.
type Definition struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
	Group       CommandGroup
	// MinClass is the lowest class allowed to run the command.
	MinClass game.Class
}

// Handler executes a command.
// Returning true indicates the connection should terminate.
type Handler func(*Context) bool

// Command couples metadata with the executable handler.
type Command struct {
	Definition
	Handler Handler
}

// Context provides the runtime data available to a command handler.
type Context struct {
	World   *game.World
	Player  *game.Player
	Swaps   *relocate.Coordinator
	Raw     string
	Arg     string
	Input   string
	Command *Command
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Command)
	ordered    []*Command
)

// Define registers a new command using the provided definition and handler.
// It panics when metadata is incomplete or duplicates an existing command.
func Define(def Definition, handler Handler) *Command {
	if handler == nil {
		panic("commands: handler must not be nil")
	}
	if strings.TrimSpace(def.Name) == "" {
		panic("commands: command must have a name")
	}

	cmd := &Command{Definition: def, Handler: handler}

	registryMu.Lock()
	defer registryMu.Unlock()

	registerName := func(name string) {
		key := strings.ToLower(name)
		if _, exists := registry[key]; exists {
			panic(fmt.Sprintf("commands: duplicate registration for %q", name))
		}
		registry[key] = cmd
	}

	registerName(def.Name)
	for _, alias := range def.Aliases {
		if strings.TrimSpace(alias) == "" {
			continue
		}
		registerName(alias)
	}

	ordered = append(ordered, cmd)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Name < ordered[j].Name
	})

	return cmd
}

// All returns the registered commands sorted by primary name.
func All() []*Command {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]*Command, len(ordered))
	copy(out, ordered)
	return out
}

// Find looks a command up by name or alias.
func Find(name string) (*Command, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	cmd, ok := registry[strings.ToLower(name)]
	return cmd, ok
}

// NewDispatcher binds the command table to a relocation coordinator. The
// returned dispatcher runs on the game loop goroutine.
func NewDispatcher(swaps *relocate.Coordinator) game.Dispatcher {
	return func(world *game.World, player *game.Player, line string) bool {
		return dispatch(world, swaps, player, line)
	}
}

func dispatch(world *game.World, swaps *relocate.Coordinator, player *game.Player, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}

	cmd, ok := Find(parts[0])
	if !ok || player.Class < cmd.MinClass {
		player.Send(game.Ansi("\r\nUnknown command. Type 'help'."))
		return false
	}

	arg := strings.TrimSpace(strings.TrimPrefix(line, parts[0]))
	ctx := &Context{
		World:   world,
		Player:  player,
		Swaps:   swaps,
		Raw:     line,
		Arg:     arg,
		Input:   parts[0],
		Command: cmd,
	}
	return cmd.Handler(ctx)
}
