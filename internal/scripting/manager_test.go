package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/warcraft/internal/game/hero"
)

type testOwner struct{ uid string }

func (o *testOwner) UID() string { return o.uid }

func writeScript(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func loadedManager(t *testing.T, scripts map[string]string) *Manager {
	t.Helper()
	dir := t.TempDir()
	for name, content := range scripts {
		writeScript(t, dir, name, content)
	}
	m := NewManager(zaptest.NewLogger(t))
	t.Cleanup(m.Close)
	require.NoError(t, m.LoadDir(dir, 0))
	return m
}

func testSkill(t *testing.T, cb hero.Callback) *hero.Skill {
	t.Helper()
	table := hero.NewCallbackTable()
	require.NoError(t, table.Bind(cb, "player_kill"))
	h, err := hero.NewHero(
		hero.EntityDef{ClassID: "undead_scourge", MaxLevel: hero.Unlimited},
		[]hero.SkillBlueprint{{
			Def:       hero.EntityDef{ClassID: "vampiric_aura", Name: "Vampiric Aura", MaxLevel: 8},
			Callbacks: table,
		}},
		&testOwner{uid: "player-1"}, nil, 3, 0,
	)
	require.NoError(t, err)
	s, ok := h.Skill("vampiric_aura")
	require.True(t, ok)
	require.NoError(t, s.SetLevel(2))
	return s
}

func TestHook_ResolvesLoadedFunctions(t *testing.T) {
	m := loadedManager(t, map[string]string{
		"aura.lua": `function vampiric_aura_kill(ev) end`,
	})

	_, ok := m.Hook("vampiric_aura_kill")
	assert.True(t, ok)

	_, ok = m.Hook("missing_hook")
	assert.False(t, ok)

	// Non-function globals are not hooks.
	_, ok = m.Hook("string")
	assert.False(t, ok)
}

func TestHook_CallbackReceivesEventTable(t *testing.T) {
	m := loadedManager(t, map[string]string{
		"aura.lua": `
function vampiric_aura_kill(ev)
  seen_skill = ev.skill.id
  seen_skill_level = ev.skill.level
  seen_hero = ev.hero.id
  seen_hero_level = ev.hero.level
  seen_player = ev.player
  seen_headshot = ev.headshot
  seen_damage = ev.damage
end
`,
	})

	cb, ok := m.Hook("vampiric_aura_kill")
	require.True(t, ok)

	s := testSkill(t, cb)
	cb(s, hero.Args{"headshot": true, "damage": 42, "weapon": struct{}{}})

	L := m.state
	assert.Equal(t, lua.LString("vampiric_aura"), L.GetGlobal("seen_skill"))
	assert.Equal(t, lua.LNumber(2), L.GetGlobal("seen_skill_level"))
	assert.Equal(t, lua.LString("undead_scourge"), L.GetGlobal("seen_hero"))
	assert.Equal(t, lua.LNumber(3), L.GetGlobal("seen_hero_level"))
	assert.Equal(t, lua.LString("player-1"), L.GetGlobal("seen_player"))
	assert.Equal(t, lua.LTrue, L.GetGlobal("seen_headshot"))
	assert.Equal(t, lua.LNumber(42), L.GetGlobal("seen_damage"))
}

func TestHook_LuaErrorDoesNotPropagate(t *testing.T) {
	m := loadedManager(t, map[string]string{
		"broken.lua": `function broken_hook(ev) error("boom") end`,
	})

	cb, ok := m.Hook("broken_hook")
	require.True(t, ok)

	// Must not panic; the error is logged and swallowed.
	cb(testSkill(t, cb), hero.Args{})
}

func TestLoadDir_SyntaxErrorFails(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken.lua", `function incomplete(`)

	m := NewManager(zaptest.NewLogger(t))
	defer m.Close()
	require.Error(t, m.LoadDir(dir, 0))
}

func TestLoadDir_ReplacesPreviousScripts(t *testing.T) {
	m := loadedManager(t, map[string]string{
		"first.lua": `function first_hook(ev) end`,
	})

	dir := t.TempDir()
	writeScript(t, dir, "second.lua", `function second_hook(ev) end`)
	require.NoError(t, m.LoadDir(dir, 0))

	_, ok := m.Hook("first_hook")
	assert.False(t, ok)
	_, ok = m.Hook("second_hook")
	assert.True(t, ok)
}

func TestLoadDir_MissingDirFails(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t))
	defer m.Close()
	require.Error(t, m.LoadDir(filepath.Join(t.TempDir(), "absent"), 0))
}

func TestEngineLog_AvailableToScripts(t *testing.T) {
	m := loadedManager(t, map[string]string{
		"logging.lua": `function log_hook(ev) engine.log("hello from " .. ev.skill.id) end`,
	})

	cb, ok := m.Hook("log_hook")
	require.True(t, ok)
	cb(testSkill(t, cb), hero.Args{})
}

func TestHook_AfterCloseIsInert(t *testing.T) {
	m := loadedManager(t, map[string]string{
		"aura.lua": `function vampiric_aura_kill(ev) end`,
	})
	cb, ok := m.Hook("vampiric_aura_kill")
	require.True(t, ok)

	m.Close()
	_, ok = m.Hook("vampiric_aura_kill")
	assert.False(t, ok)

	// A callback captured before Close is a safe no-op afterwards.
	cb(testSkill(t, cb), hero.Args{})
}
