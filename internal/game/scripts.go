package game

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Hook events understood by the script engine, and the script function
// each one calls.
const (
	HookEnter = "enter"
	HookLook  = "look"
)

var hookFunctions = map[string]string{
	HookEnter: "OnEnter",
	HookLook:  "OnLook",
}

type scriptEntry struct {
	script *compiledScript
	err    error
}

type compiledScript struct {
	handlers map[string]func(map[string]any)
}

type scriptEngine struct {
	mu      sync.RWMutex
	scripts map[string]*scriptEntry
}

func newScriptEngine() *scriptEngine {
	return &scriptEngine{scripts: make(map[string]*scriptEntry)}
}

// roomScriptContext is what a room hook may act on.
type roomScriptContext struct {
	world  *World
	room   *Room
	player *Player
}

func (ctx *roomScriptContext) narrate(text string) {
	cleaned := strings.TrimSpace(text)
	if ctx.player == nil || cleaned == "" {
		return
	}
	ctx.player.Send(Ansi("\r\n" + Style(cleaned, AnsiItalic, AnsiDim)))
}

func (ctx *roomScriptContext) broadcast(text string) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return
	}
	ctx.world.BroadcastToRoom(ctx.room.Ref, Ansi("\r\nThe atmosphere whispers: "+cleaned), nil)
}

// runRoomHooks calls every hook on room bound to event.
func (w *World) runRoomHooks(room *Room, player *Player, event string) {
	for _, hook := range room.Hooks {
		if !strings.EqualFold(hook.Event, event) {
			continue
		}
		ctx := &roomScriptContext{world: w, room: room, player: player}
		payload := map[string]any{
			"narrate":   ctx.narrate,
			"broadcast": ctx.broadcast,
			"room":      room.Ref.String(),
			"hook":      event,
			"args":      hook.argMap(),
		}
		if player != nil {
			payload["player"] = player.Name
		}
		if err := w.scripts.call(hook.Script, event, payload); err != nil {
			w.logger.Warn().Err(err).Str("room", room.Ref.String()).Str("event", event).Msg("room hook failed")
		}
	}
}

func (e *scriptEngine) call(source, event string, payload map[string]any) (err error) {
	script, err := e.scriptFor(source)
	if err != nil || script == nil {
		return err
	}
	fn := script.handlers[event]
	if fn == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", hookFunctions[event], r)
		}
	}()
	fn(payload)
	return nil
}

func (e *scriptEngine) scriptFor(source string) (*compiledScript, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, nil
	}
	key := hashScript(trimmed)
	e.mu.RLock()
	entry, ok := e.scripts[key]
	e.mu.RUnlock()
	if ok {
		return entry.script, entry.err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if entry, ok := e.scripts[key]; ok {
		return entry.script, entry.err
	}
	script, err := compileScript(trimmed)
	e.scripts[key] = &scriptEntry{script: script, err: err}
	return script, err
}

func compileScript(source string) (*compiledScript, error) {
	interpreter := interp.New(interp.Options{})
	if err := interpreter.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib: %w", err)
	}
	if _, err := interpreter.Eval(source); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	compiled := &compiledScript{handlers: make(map[string]func(map[string]any))}
	for event, name := range hookFunctions {
		value, err := interpreter.Eval(name)
		if err != nil {
			if isUndefinedSymbol(err) {
				continue
			}
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		fn, ok := value.Interface().(func(map[string]any))
		if !ok {
			return nil, fmt.Errorf("%s has unexpected type %T", name, value.Interface())
		}
		compiled.handlers[event] = fn
	}
	return compiled, nil
}

func hashScript(src string) string {
	sum := sha1.Sum([]byte(src))
	return hex.EncodeToString(sum[:])
}

func isUndefinedSymbol(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "undefined") || strings.Contains(msg, "not declared")
}
