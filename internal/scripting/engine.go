package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding the add-on rule hooks.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script under the seat/ and
// wrench/ sub-directories of scriptsDir. Missing directories are skipped, so
// an empty scriptsDir yields an engine where every hook uses its fallback.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if scriptsDir == "" {
		return e, nil
	}
	for _, sub := range []string{"seat", "wrench"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			e.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// NewEngineFromSource builds an engine from inline Lua source.
func NewEngineFromSource(src string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if err := e.vm.DoString(src); err != nil {
		e.Close()
		return nil, fmt.Errorf("load inline script: %w", err)
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &Engine{vm: vm, log: log}
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DefaultSeatYaw maps a cardinal facing to the seat yaw in degrees.
// Unknown or missing facings face north.
func DefaultSeatYaw(direction string) float64 {
	switch strings.ToLower(direction) {
	case "north":
		return 0
	case "west":
		return 270
	case "south":
		return 180
	case "east":
		return 90
	}
	return 0
}

// SeatYaw calls the Lua seat_yaw(direction) hook, falling back to
// DefaultSeatYaw when the hook is absent, fails or returns a non-number.
func (e *Engine) SeatYaw(direction string) float64 {
	fn := e.vm.GetGlobal("seat_yaw")
	if fn == lua.LNil {
		return DefaultSeatYaw(direction)
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LString(direction)); err != nil {
		e.log.Error("lua seat_yaw failed", zap.String("direction", direction), zap.Error(err))
		return DefaultSeatYaw(direction)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok {
		return DefaultSeatYaw(direction)
	}
	return float64(n)
}

// defaultCycles are the wrench cycles used when no wrench_cycle hook exists.
var defaultCycles = map[string][]string{
	"minecraft:cardinal_direction": {"north", "east", "south", "west"},
	"minecraft:facing_direction":   {"down", "up", "north", "south", "west", "east"},
	"minecraft:vertical_half":      {"bottom", "top"},
	"minecraft:block_face":         {"down", "up", "north", "south", "west", "east"},
	"pillar_axis":                  {"y", "x", "z"},
	"upside_down_bit":              {"false", "true"},
	"weirdo_direction":             {"0", "1", "2", "3"},
	"direction":                    {"0", "1", "2", "3"},
	"open_bit":                     {"false", "true"},
}

// WrenchCycle returns the ordered values the wrench cycles state through, or
// nil if the state is not adjustable. The Lua wrench_cycle(state) hook wins
// when it returns a table; a nil return from the hook means "not adjustable".
func (e *Engine) WrenchCycle(state string) []string {
	fn := e.vm.GetGlobal("wrench_cycle")
	if fn == lua.LNil {
		return defaultCycles[state]
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LString(state)); err != nil {
		e.log.Error("lua wrench_cycle failed", zap.String("state", state), zap.Error(err))
		return defaultCycles[state]
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil
	}
	var out []string
	tbl.ForEach(func(_, v lua.LValue) {
		out = append(out, v.String())
	})
	return out
}

// Close releases the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
