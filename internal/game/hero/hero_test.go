package hero

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"
)

type testOwner struct {
	uid string
}

func (o *testOwner) UID() string { return o.uid }

func testBlueprints(t *testing.T, skillMax int) []SkillBlueprint {
	t.Helper()
	table := NewCallbackTable()
	require.NoError(t, table.Bind(func(s *Skill, args Args) {}, "player_spawn"))
	return []SkillBlueprint{
		{
			Def:       EntityDef{ClassID: "alpha_strike", Name: "Alpha Strike", MaxLevel: skillMax},
			Callbacks: table,
		},
		{
			Def:       EntityDef{ClassID: "beta_guard", Name: "Beta Guard", MaxLevel: skillMax},
			Callbacks: NewCallbackTable(),
		},
	}
}

func testHero(t *testing.T, notifier *Notifier, level, xp int) *Hero {
	t.Helper()
	h, err := NewHero(
		EntityDef{ClassID: "test_hero", Name: "Test Hero", MaxLevel: Unlimited},
		testBlueprints(t, 8),
		&testOwner{uid: "player-1"},
		notifier,
		level, xp,
	)
	require.NoError(t, err)
	return h
}

func TestNewHero_RejectsNegativeXP(t *testing.T) {
	_, err := NewHero(
		EntityDef{ClassID: "test_hero", MaxLevel: Unlimited},
		nil, &testOwner{uid: "player-1"}, nil, 0, -1,
	)
	var perr *PreconditionError
	require.ErrorAs(t, err, &perr)
}

func TestNewHero_RejectsDuplicateSkillVariant(t *testing.T) {
	bps := []SkillBlueprint{
		{Def: EntityDef{ClassID: "alpha_strike", MaxLevel: 8}},
		{Def: EntityDef{ClassID: "alpha_strike", MaxLevel: 8}},
	}
	_, err := NewHero(
		EntityDef{ClassID: "test_hero", MaxLevel: Unlimited},
		bps, &testOwner{uid: "player-1"}, nil, 0, 0,
	)
	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)
}

func TestXPQuota_LinearCurve(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{level: 0, want: 80},
		{level: 1, want: 95},
		{level: 2, want: 110},
		{level: 10, want: 230},
	}
	for _, tt := range tests {
		h := testHero(t, nil, tt.level, 0)
		assert.Equal(t, tt.want, h.XPQuota(), "level %d", tt.level)
	}
}

func TestXPQuota_UnlimitedAtMaxLevel(t *testing.T) {
	h, err := NewHero(
		EntityDef{ClassID: "capped_hero", MaxLevel: 3},
		nil, &testOwner{uid: "player-1"}, nil, 3, 0,
	)
	require.NoError(t, err)
	assert.Equal(t, Unlimited, h.XPQuota())
}

func TestGiveXP_BelowQuotaBanksXP(t *testing.T) {
	h := testHero(t, nil, 0, 0)
	require.NoError(t, h.GiveXP(79))
	assert.Equal(t, 0, h.Level())
	assert.Equal(t, 79, h.XP())
}

func TestGiveXP_ExactQuotaLevelsUp(t *testing.T) {
	h := testHero(t, nil, 0, 0)
	require.NoError(t, h.GiveXP(80))
	assert.Equal(t, 1, h.Level())
	assert.Equal(t, 0, h.XP())
}

func TestGiveXP_CrossesMultipleQuotas(t *testing.T) {
	// 80 for level 0->1, then 95 for 1->2.
	h := testHero(t, nil, 0, 0)
	require.NoError(t, h.GiveXP(175))
	assert.Equal(t, 2, h.Level())
	assert.Equal(t, 0, h.XP())
}

func TestGiveXP_Remainder(t *testing.T) {
	h := testHero(t, nil, 0, 0)
	require.NoError(t, h.GiveXP(100))
	assert.Equal(t, 1, h.Level())
	assert.Equal(t, 20, h.XP())
}

func TestGiveXP_SingleNotificationForMultiLevelGain(t *testing.T) {
	notifier := NewNotifier(zaptest.NewLogger(t))
	var events []LevelUpEvent
	notifier.OnHeroLevelUp(func(ev LevelUpEvent) { events = append(events, ev) })

	h := testHero(t, notifier, 0, 0)
	require.NoError(t, h.GiveXP(175))

	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].Levels)
	assert.Same(t, h, events[0].Hero)
}

func TestGiveXP_RejectsNegativeAmount(t *testing.T) {
	h := testHero(t, nil, 0, 0)
	var perr *PreconditionError
	require.ErrorAs(t, h.GiveXP(-1), &perr)
	assert.Equal(t, 0, h.XP())
}

func TestGiveXP_CappedHeroBanksAtMaxLevel(t *testing.T) {
	h, err := NewHero(
		EntityDef{ClassID: "capped_hero", MaxLevel: 2},
		nil, &testOwner{uid: "player-1"}, nil, 0, 0,
	)
	require.NoError(t, err)
	require.NoError(t, h.GiveXP(1000))
	// 80 + 95 consumed, the rest banks at the cap.
	assert.Equal(t, 2, h.Level())
	assert.Equal(t, 825, h.XP())
	assert.True(t, h.OnMaxLevel())
}

func TestTakeXP_LevelsDownWithRefund(t *testing.T) {
	h := testHero(t, nil, 2, 10)
	require.NoError(t, h.TakeXP(20))
	// 10 - 20 = -10, refund quota of level 1 (95): 85.
	assert.Equal(t, 1, h.Level())
	assert.Equal(t, 85, h.XP())
}

func TestTakeXP_SingleNotificationForMultiLevelLoss(t *testing.T) {
	notifier := NewNotifier(zaptest.NewLogger(t))
	var events []LevelDownEvent
	notifier.OnHeroLevelDown(func(ev LevelDownEvent) { events = append(events, ev) })

	h := testHero(t, notifier, 2, 0)
	require.NoError(t, h.TakeXP(150))

	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].Levels)
	assert.Equal(t, 0, h.Level())
}

func TestTakeXP_GoesNegativeAtLevelZero(t *testing.T) {
	h := testHero(t, nil, 0, 10)
	require.NoError(t, h.TakeXP(25))
	assert.Equal(t, 0, h.Level())
	assert.Equal(t, -15, h.XP())
}

func TestTakeXP_RejectsNegativeAmount(t *testing.T) {
	h := testHero(t, nil, 0, 10)
	var perr *PreconditionError
	require.ErrorAs(t, h.TakeXP(-1), &perr)
	assert.Equal(t, 10, h.XP())
}

func TestSetXP_ForwardsDelta(t *testing.T) {
	h := testHero(t, nil, 0, 10)
	require.NoError(t, h.SetXP(100))
	assert.Equal(t, 1, h.Level())
	assert.Equal(t, 20, h.XP())

	require.NoError(t, h.SetXP(20))
	assert.Equal(t, 1, h.Level())
	assert.Equal(t, 20, h.XP())
}

func TestGiveTakeXP_Symmetry(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		level := rapid.IntRange(0, 20).Draw(t, "level")
		amount := rapid.IntRange(0, 5000).Draw(t, "amount")

		h, err := NewHero(
			EntityDef{ClassID: "test_hero", MaxLevel: Unlimited},
			nil, &testOwner{uid: "player-1"}, nil, level, 0,
		)
		require.NoError(t, err)

		require.NoError(t, h.GiveXP(amount))
		require.NoError(t, h.TakeXP(amount))

		assert.Equal(t, level, h.Level())
		assert.Equal(t, 0, h.XP())
	})
}

func TestXPInvariants_RandomWalk(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h, err := NewHero(
			EntityDef{ClassID: "test_hero", MaxLevel: Unlimited},
			nil, &testOwner{uid: "player-1"}, nil, 0, 0,
		)
		require.NoError(t, err)

		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			amount := rapid.IntRange(0, 500).Draw(t, "amount")
			if rapid.Bool().Draw(t, "give") {
				require.NoError(t, h.GiveXP(amount))
			} else {
				require.NoError(t, h.TakeXP(amount))
			}

			assert.GreaterOrEqual(t, h.Level(), 0)
			assert.Less(t, h.XP(), h.XPQuota())
			if h.Level() > 0 {
				assert.GreaterOrEqual(t, h.XP(), 0)
			}
		}
	})
}

func TestSkillPoints_LevelMinusSpent(t *testing.T) {
	h := testHero(t, nil, 5, 0)
	assert.Equal(t, 5, h.SkillPoints())

	s, ok := h.Skill("alpha_strike")
	require.True(t, ok)
	require.NoError(t, h.UpgradeSkill(s))
	require.NoError(t, h.UpgradeSkill(s))
	assert.Equal(t, 3, h.SkillPoints())
	assert.Equal(t, 2, s.Level())
}

func TestUpgradeSkill_GatedByPoints(t *testing.T) {
	h := testHero(t, nil, 1, 0)
	s, ok := h.Skill("alpha_strike")
	require.True(t, ok)

	require.NoError(t, h.UpgradeSkill(s))
	assert.Equal(t, 0, h.SkillPoints())

	var perr *PreconditionError
	require.ErrorAs(t, h.UpgradeSkill(s), &perr)
	assert.Equal(t, 1, s.Level())
}

func TestUpgradeSkill_GatedBySkillMaxLevel(t *testing.T) {
	table := NewCallbackTable()
	h, err := NewHero(
		EntityDef{ClassID: "test_hero", MaxLevel: Unlimited},
		[]SkillBlueprint{{Def: EntityDef{ClassID: "alpha_strike", MaxLevel: 1}, Callbacks: table}},
		&testOwner{uid: "player-1"}, nil, 10, 0,
	)
	require.NoError(t, err)

	s, ok := h.Skill("alpha_strike")
	require.True(t, ok)
	require.NoError(t, h.UpgradeSkill(s))
	assert.False(t, h.CanUpgradeSkill(s))

	var perr *PreconditionError
	require.ErrorAs(t, h.UpgradeSkill(s), &perr)
	assert.Equal(t, 1, s.Level())
}

func TestUpgradeSkill_ForeignSkillIsOwnershipError(t *testing.T) {
	h := testHero(t, nil, 5, 0)
	other := testHero(t, nil, 5, 0)
	foreign, ok := other.Skill("alpha_strike")
	require.True(t, ok)

	var oerr *OwnershipError
	require.ErrorAs(t, h.UpgradeSkill(foreign), &oerr)
	assert.Equal(t, 0, foreign.Level())
}

func TestDowngradeSkill_AtZeroIsPreconditionError(t *testing.T) {
	h := testHero(t, nil, 5, 0)
	s, ok := h.Skill("alpha_strike")
	require.True(t, ok)

	var perr *PreconditionError
	require.ErrorAs(t, h.DowngradeSkill(s), &perr)
	assert.Equal(t, 0, s.Level())
}

func TestDowngradeSkill_RefundsPoint(t *testing.T) {
	notifier := NewNotifier(zaptest.NewLogger(t))
	var downs []SkillDowngradeEvent
	notifier.OnSkillDowngrade(func(ev SkillDowngradeEvent) { downs = append(downs, ev) })

	h := testHero(t, notifier, 3, 0)
	s, ok := h.Skill("alpha_strike")
	require.True(t, ok)
	require.NoError(t, h.UpgradeSkill(s))
	require.NoError(t, h.DowngradeSkill(s))

	assert.Equal(t, 0, s.Level())
	assert.Equal(t, 3, h.SkillPoints())
	require.Len(t, downs, 1)
	assert.Same(t, s, downs[0].Skill)
}

func TestResetSkills_RefundsEverything(t *testing.T) {
	h := testHero(t, nil, 6, 0)
	alpha, _ := h.Skill("alpha_strike")
	beta, _ := h.Skill("beta_guard")
	require.NoError(t, h.UpgradeSkill(alpha))
	require.NoError(t, h.UpgradeSkill(alpha))
	require.NoError(t, h.UpgradeSkill(beta))

	h.ResetSkills()

	assert.Equal(t, 0, alpha.Level())
	assert.Equal(t, 0, beta.Level())
	assert.Equal(t, 6, h.SkillPoints())
}

func TestSkillPoints_NeverNegativeThroughEconomy(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h, err := NewHero(
			EntityDef{ClassID: "test_hero", MaxLevel: Unlimited},
			testBlueprintsRapid(), &testOwner{uid: "player-1"}, nil,
			rapid.IntRange(0, 10).Draw(t, "level"), 0,
		)
		require.NoError(t, err)

		skills := h.Skills()
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			s := skills[rapid.IntRange(0, len(skills)-1).Draw(t, "skill")]
			if rapid.Bool().Draw(t, "upgrade") {
				if h.CanUpgradeSkill(s) {
					require.NoError(t, h.UpgradeSkill(s))
				}
			} else {
				if h.CanDowngradeSkill(s) {
					require.NoError(t, h.DowngradeSkill(s))
				}
			}
			assert.GreaterOrEqual(t, h.SkillPoints(), 0)
		}
	})
}

func testBlueprintsRapid() []SkillBlueprint {
	return []SkillBlueprint{
		{Def: EntityDef{ClassID: "alpha_strike", MaxLevel: 8}},
		{Def: EntityDef{ClassID: "beta_guard", MaxLevel: 8}},
	}
}

func TestExecuteSkills_SkipsInertSkills(t *testing.T) {
	var fired []string
	table := NewCallbackTable()
	require.NoError(t, table.Bind(func(s *Skill, args Args) {
		fired = append(fired, s.ClassID())
	}, "player_spawn"))

	h, err := NewHero(
		EntityDef{ClassID: "test_hero", MaxLevel: Unlimited},
		[]SkillBlueprint{
			{Def: EntityDef{ClassID: "alpha_strike", MaxLevel: 8}, Callbacks: table},
			{Def: EntityDef{ClassID: "beta_guard", MaxLevel: 8}, Callbacks: table},
		},
		&testOwner{uid: "player-1"}, nil, 2, 0,
	)
	require.NoError(t, err)

	h.ExecuteSkills("player_spawn", Args{})
	assert.Empty(t, fired, "level-0 skills must stay inert")

	beta, _ := h.Skill("beta_guard")
	require.NoError(t, h.UpgradeSkill(beta))
	h.ExecuteSkills("player_spawn", Args{})
	assert.Equal(t, []string{"beta_guard"}, fired)
}

func TestExecuteSkills_DeclarationOrder(t *testing.T) {
	var fired []string
	table := NewCallbackTable()
	require.NoError(t, table.Bind(func(s *Skill, args Args) {
		fired = append(fired, s.ClassID())
	}, "player_spawn"))

	h, err := NewHero(
		EntityDef{ClassID: "test_hero", MaxLevel: Unlimited},
		[]SkillBlueprint{
			{Def: EntityDef{ClassID: "zulu_ward", MaxLevel: 8}, Callbacks: table},
			{Def: EntityDef{ClassID: "alpha_strike", MaxLevel: 8}, Callbacks: table},
		},
		&testOwner{uid: "player-1"}, nil, 2, 0,
	)
	require.NoError(t, err)
	for _, s := range h.Skills() {
		require.NoError(t, h.UpgradeSkill(s))
	}

	h.ExecuteSkills("player_spawn", Args{})
	assert.Equal(t, []string{"zulu_ward", "alpha_strike"}, fired)
}

func TestNotifier_PanickingListenerIsIsolated(t *testing.T) {
	notifier := NewNotifier(zaptest.NewLogger(t))
	var reached bool
	notifier.OnHeroLevelUp(func(ev LevelUpEvent) { panic("listener bug") })
	notifier.OnHeroLevelUp(func(ev LevelUpEvent) { reached = true })

	h := testHero(t, notifier, 0, 0)
	require.NoError(t, h.GiveXP(80))

	assert.True(t, reached, "second listener must still run")
	assert.Equal(t, 1, h.Level())
}

func TestNilNotifier_DropsNotifications(t *testing.T) {
	h := testHero(t, nil, 0, 0)
	require.NoError(t, h.GiveXP(200))
	assert.Equal(t, 2, h.Level())
}
