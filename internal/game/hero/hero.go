package hero

// Owner is the non-owning back-reference from a hero to the player it
// belongs to, used only for attribution in callbacks and notifications.
type Owner interface {
	// UID returns the player's unique identifier.
	UID() string
}

// SkillBlueprint pairs a skill variant's constants with its callback
// table, ready to be instantiated at hero construction.
type SkillBlueprint struct {
	Def       EntityDef
	Callbacks *CallbackTable
}

// Hero is a player-owned progressible character. It banks XP within the
// current level, levels up and down along a linear quota curve, and
// spends the resulting skill points on its fixed roster of skills.
//
// A hero's state is exclusive to the calling context: the host game
// loop serializes event delivery, so no internal locking is performed.
type Hero struct {
	Entity
	owner    Owner
	notifier *Notifier
	xp       int

	// order preserves skill declaration order for iteration and display.
	order  []string
	skills map[string]*Skill
}

// NewHero constructs a hero at the given level and xp, instantiating
// one level-0 skill per blueprint in declaration order. Persisted skill
// levels are restored afterwards through Skill lookups and SetLevel.
//
// Precondition: 0 <= level <= def.MaxLevel; xp >= 0; blueprint class
// IDs must be unique. notifier may be nil for heroes that need no
// progression notifications.
func NewHero(def EntityDef, blueprints []SkillBlueprint, owner Owner, notifier *Notifier, level, xp int) (*Hero, error) {
	e, err := newEntity(def, level)
	if err != nil {
		return nil, err
	}
	if xp < 0 {
		return nil, &PreconditionError{Op: "NewHero", Reason: "negative initial xp"}
	}
	h := &Hero{
		Entity:   e,
		owner:    owner,
		notifier: notifier,
		xp:       xp,
		skills:   make(map[string]*Skill, len(blueprints)),
	}
	for _, bp := range blueprints {
		if _, dup := h.skills[bp.Def.ClassID]; dup {
			return nil, &ConfigurationError{
				Subject: "hero " + def.ClassID,
				Reason:  "duplicate skill variant " + bp.Def.ClassID,
			}
		}
		s, err := newSkill(bp.Def, bp.Callbacks, h, 0)
		if err != nil {
			return nil, err
		}
		h.order = append(h.order, bp.Def.ClassID)
		h.skills[bp.Def.ClassID] = s
	}
	return h, nil
}

// Owner returns the player this hero belongs to.
func (h *Hero) Owner() Owner { return h.owner }

// XP returns the hero's banked experience within the current level.
func (h *Hero) XP() int { return h.xp }

// XPQuota returns the XP threshold to advance from the current level,
// 80 + 15*level. Once a capped hero reaches its max level the quota is
// Unlimited and no further level-up is possible.
func (h *Hero) XPQuota() int {
	if h.OnMaxLevel() {
		return Unlimited
	}
	return 80 + 15*h.level
}

// SkillPoints returns the hero's unspent skill points: level minus the
// sum of all skill levels. Upgrades are gated so this never goes
// negative through the skill economy itself.
func (h *Hero) SkillPoints() int {
	spent := 0
	for _, s := range h.skills {
		spent += s.level
	}
	return h.level - spent
}

// GiveXP grants amount XP, leveling the hero up while the banked XP
// fills the current level's quota. A single large grant may cross
// several quotas, each consuming its own growing amount. Fires one
// HeroLevelUp with the total levels gained.
//
// Precondition: amount >= 0; use TakeXP for negative deltas.
func (h *Hero) GiveXP(amount int) error {
	if amount < 0 {
		return &PreconditionError{Op: "GiveXP", Reason: "negative amount, use TakeXP instead"}
	}
	initial := h.level
	h.xp += amount
	for !h.OnMaxLevel() && h.xp >= h.XPQuota() {
		h.xp -= h.XPQuota()
		h.level++
	}
	if gained := h.level - initial; gained > 0 {
		h.notifier.heroLevelUp(LevelUpEvent{Hero: h, Levels: gained})
	}
	return nil
}

// TakeXP removes amount XP, leveling the hero down while the banked XP
// is negative, refunding the quota of each level entered. XP is not
// floored at level 0 and may end negative there. Fires one
// HeroLevelDown with the total levels lost.
//
// Precondition: amount >= 0; use GiveXP for positive deltas.
func (h *Hero) TakeXP(amount int) error {
	if amount < 0 {
		return &PreconditionError{Op: "TakeXP", Reason: "negative amount, use GiveXP instead"}
	}
	initial := h.level
	h.xp -= amount
	for h.level > 0 && h.xp < 0 {
		h.level--
		h.xp += h.XPQuota()
	}
	if lost := initial - h.level; lost > 0 {
		h.notifier.heroLevelDown(LevelDownEvent{Hero: h, Levels: lost})
	}
	return nil
}

// SetXP moves the hero to the absolute XP value v by forwarding the
// delta to GiveXP or TakeXP. Setting the current value is a no-op.
func (h *Hero) SetXP(v int) error {
	if v >= h.xp {
		return h.GiveXP(v - h.xp)
	}
	return h.TakeXP(h.xp - v)
}

// Skill returns the hero's skill instance for the given variant.
func (h *Hero) Skill(classID string) (*Skill, bool) {
	s, ok := h.skills[classID]
	return s, ok
}

// Skills returns the hero's skills in declaration order.
func (h *Hero) Skills() []*Skill {
	out := make([]*Skill, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.skills[id])
	}
	return out
}

// CanUpgradeSkill reports whether s can be upgraded: the hero owns it,
// has a skill point to spend, and the skill is below its own max level.
func (h *Hero) CanUpgradeSkill(s *Skill) bool {
	return h.owns(s) && h.SkillPoints() > 0 && !s.OnMaxLevel()
}

// UpgradeSkill spends a skill point to raise s by one level and fires
// SkillUpgrade.
//
// Precondition: CanUpgradeSkill(s). A foreign skill fails with
// *OwnershipError, an ungated upgrade with *PreconditionError; the
// skill is unchanged either way.
func (h *Hero) UpgradeSkill(s *Skill) error {
	if !h.owns(s) {
		return &OwnershipError{Owner: h.ClassID(), Subject: s.ClassID()}
	}
	if !h.CanUpgradeSkill(s) {
		return &PreconditionError{Op: "UpgradeSkill", Reason: "skill " + s.ClassID() + " cannot be upgraded"}
	}
	s.level++
	h.notifier.skillUpgradeNotify(SkillUpgradeEvent{Skill: s, Hero: h})
	return nil
}

// CanDowngradeSkill reports whether s can be downgraded: the hero owns
// it and its level is above zero.
func (h *Hero) CanDowngradeSkill(s *Skill) bool {
	return h.owns(s) && s.level > 0
}

// DowngradeSkill refunds a skill point by lowering s one level and
// fires SkillDowngrade.
//
// Precondition: CanDowngradeSkill(s). A foreign skill fails with
// *OwnershipError, a level-0 skill with *PreconditionError; the skill
// is unchanged either way.
func (h *Hero) DowngradeSkill(s *Skill) error {
	if !h.owns(s) {
		return &OwnershipError{Owner: h.ClassID(), Subject: s.ClassID()}
	}
	if !h.CanDowngradeSkill(s) {
		return &PreconditionError{Op: "DowngradeSkill", Reason: "skill " + s.ClassID() + " cannot be downgraded"}
	}
	s.level--
	h.notifier.skillDowngradeNotify(SkillDowngradeEvent{Skill: s, Hero: h})
	return nil
}

// ResetSkills downgrades every skill back to level 0, refunding all
// spent points through the normal downgrade path (one SkillDowngrade
// notification per level removed).
func (h *Hero) ResetSkills() {
	for _, id := range h.order {
		s := h.skills[id]
		for s.level > 0 {
			// Guarded by the loop condition; cannot fail.
			_ = h.DowngradeSkill(s)
		}
	}
}

// ExecuteSkills forwards the event to every owned skill above level 0,
// in declaration order. Level-0 skills stay inert even when their
// variant registers a matching callback.
func (h *Hero) ExecuteSkills(eventName string, args Args) {
	for _, id := range h.order {
		if s := h.skills[id]; s.level > 0 {
			s.Execute(eventName, args)
		}
	}
}

func (h *Hero) owns(s *Skill) bool {
	if s == nil {
		return false
	}
	owned, ok := h.skills[s.ClassID()]
	return ok && owned == s
}
