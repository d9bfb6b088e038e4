package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/warcraft/internal/game/hero"
)

// Manager owns one sandboxed LState holding every skill effect script
// and adapts the scripts' global functions into hero callbacks. It
// implements catalog.HookSource.
//
// Hook execution is serialized by a mutex. Skill callbacks arrive on
// the game loop, so contention is the exception, not the rule.
type Manager struct {
	mu     sync.Mutex
	state  *lua.LState
	cancel func()
	logger *zap.Logger
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: logger must be non-nil.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger}
}

// LoadDir creates a sandboxed VM, registers the engine modules, then
// executes every *.lua file in dir in lexicographic order. Calling
// LoadDir again replaces the previous VM.
//
// Precondition: dir must be a readable directory.
// Postcondition: Hook resolves functions defined by the loaded
// scripts; returns an error on any Lua load failure.
func (m *Manager) LoadDir(dir string, instLimit int) error {
	L := NewSandboxedState(instLimit)
	m.registerModules(L)

	entries, err := os.ReadDir(dir)
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	if m.state != nil {
		m.state.Close()
	}
	m.state = L
	m.mu.Unlock()
	return nil
}

// Hook returns a hero callback that invokes the Lua global function
// named name, or false if no loaded script defines it. The returned
// callback marshals the skill's state and the event arguments into a
// Lua table; Lua runtime errors are logged and never propagated into
// the dispatch path.
func (m *Manager) Hook(name string) (hero.Callback, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return nil, false
	}
	if fn := m.state.GetGlobal(name); fn.Type() != lua.LTFunction {
		return nil, false
	}

	cb := func(s *hero.Skill, args hero.Args) {
		m.call(name, s, args)
	}
	return cb, true
}

// Close releases the Lua VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.state.Close()
		m.state = nil
	}
}

func (m *Manager) call(name string, s *hero.Skill, args hero.Args) {
	m.mu.Lock()
	defer m.mu.Unlock()

	L := m.state
	if L == nil {
		return
	}
	fn := L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, eventTable(L, s, args)); err != nil {
		m.logger.Warn("scripting: Lua runtime error in skill hook",
			zap.String("hook", name),
			zap.String("skill", s.ClassID()),
			zap.Error(err),
		)
	}
}

// eventTable builds the single table argument passed to a hook:
// skill {id, name, level}, hero {id, level}, player (owner UID), and
// every scalar event argument under its own name.
func eventTable(L *lua.LState, s *hero.Skill, args hero.Args) *lua.LTable {
	tbl := L.NewTable()

	skillTbl := L.NewTable()
	skillTbl.RawSetString("id", lua.LString(s.ClassID()))
	skillTbl.RawSetString("name", lua.LString(s.Name()))
	skillTbl.RawSetString("level", lua.LNumber(s.Level()))
	tbl.RawSetString("skill", skillTbl)

	if h := s.Hero(); h != nil {
		heroTbl := L.NewTable()
		heroTbl.RawSetString("id", lua.LString(h.ClassID()))
		heroTbl.RawSetString("level", lua.LNumber(h.Level()))
		tbl.RawSetString("hero", heroTbl)
		if owner := h.Owner(); owner != nil {
			tbl.RawSetString("player", lua.LString(owner.UID()))
		}
	}

	for k, v := range args {
		if lv, ok := luaValue(v); ok {
			tbl.RawSetString(k, lv)
		}
	}
	return tbl
}

// luaValue converts a scalar event argument to its Lua form. Resolved
// player references shrink to their UID; unconvertible values are
// omitted from the hook's table.
func luaValue(v any) (lua.LValue, bool) {
	switch x := v.(type) {
	case string:
		return lua.LString(x), true
	case bool:
		return lua.LBool(x), true
	case int:
		return lua.LNumber(x), true
	case int64:
		return lua.LNumber(x), true
	case float64:
		return lua.LNumber(x), true
	case interface{ UID() string }:
		return lua.LString(x.UID()), true
	default:
		return lua.LNil, false
	}
}
