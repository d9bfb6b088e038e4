package hero

import "go.uber.org/zap"

// LevelUpEvent is delivered when a hero gains one or more levels from a
// single XP grant. Levels is the total gained, not one per level.
type LevelUpEvent struct {
	Hero   *Hero
	Levels int
}

// LevelDownEvent is delivered when a hero loses one or more levels from
// a single XP removal. Levels is the total lost.
type LevelDownEvent struct {
	Hero   *Hero
	Levels int
}

// SkillUpgradeEvent is delivered when a skill point is spent on a skill.
type SkillUpgradeEvent struct {
	Skill *Skill
	Hero  *Hero
}

// SkillDowngradeEvent is delivered when a skill level is refunded.
type SkillDowngradeEvent struct {
	Skill *Skill
	Hero  *Hero
}

// Notifier broadcasts progression transitions to registered listeners.
// Listeners run synchronously, in registration order, on the caller's
// goroutine. A panicking listener is recovered and logged; it never
// prevents sibling listeners or the triggering operation from
// completing.
//
// A nil *Notifier is valid and drops all notifications.
type Notifier struct {
	logger *zap.Logger

	levelUp        []func(LevelUpEvent)
	levelDown      []func(LevelDownEvent)
	skillUpgrade   []func(SkillUpgradeEvent)
	skillDowngrade []func(SkillDowngradeEvent)
}

// NewNotifier creates a Notifier reporting listener failures to logger.
//
// Precondition: logger must be non-nil.
func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// OnHeroLevelUp appends a HeroLevelUp listener.
func (n *Notifier) OnHeroLevelUp(fn func(LevelUpEvent)) {
	n.levelUp = append(n.levelUp, fn)
}

// OnHeroLevelDown appends a HeroLevelDown listener.
func (n *Notifier) OnHeroLevelDown(fn func(LevelDownEvent)) {
	n.levelDown = append(n.levelDown, fn)
}

// OnSkillUpgrade appends a SkillUpgrade listener.
func (n *Notifier) OnSkillUpgrade(fn func(SkillUpgradeEvent)) {
	n.skillUpgrade = append(n.skillUpgrade, fn)
}

// OnSkillDowngrade appends a SkillDowngrade listener.
func (n *Notifier) OnSkillDowngrade(fn func(SkillDowngradeEvent)) {
	n.skillDowngrade = append(n.skillDowngrade, fn)
}

func (n *Notifier) heroLevelUp(ev LevelUpEvent) {
	if n == nil {
		return
	}
	for _, fn := range n.levelUp {
		n.safeCall("HeroLevelUp", func() { fn(ev) })
	}
}

func (n *Notifier) heroLevelDown(ev LevelDownEvent) {
	if n == nil {
		return
	}
	for _, fn := range n.levelDown {
		n.safeCall("HeroLevelDown", func() { fn(ev) })
	}
}

func (n *Notifier) skillUpgradeNotify(ev SkillUpgradeEvent) {
	if n == nil {
		return
	}
	for _, fn := range n.skillUpgrade {
		n.safeCall("SkillUpgrade", func() { fn(ev) })
	}
}

func (n *Notifier) skillDowngradeNotify(ev SkillDowngradeEvent) {
	if n == nil {
		return
	}
	for _, fn := range n.skillDowngrade {
		n.safeCall("SkillDowngrade", func() { fn(ev) })
	}
}

func (n *Notifier) safeCall(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("progression listener panicked",
				zap.String("kind", kind),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}
