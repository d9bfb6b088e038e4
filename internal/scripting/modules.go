package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// registerModules registers the engine.* Lua table into L. Scripts use
// engine.log to report through the host's structured logger.
//
// Precondition: L must be from NewSandboxedState.
func (m *Manager) registerModules(L *lua.LState) {
	engine := L.NewTable()

	engine.RawSetString("log", L.NewFunction(func(L *lua.LState) int {
		msg := L.CheckString(1)
		m.logger.Info("skill script", zap.String("message", msg))
		return 0
	}))

	L.SetGlobal("engine", engine)
}
