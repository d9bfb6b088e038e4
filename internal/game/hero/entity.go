// Package hero implements the progression core: leveled entities,
// skills with event-bound callbacks, heroes with the XP/level state
// machine and the skill-point economy, and the progression notifier.
package hero

import "math"

// Unlimited marks an entity with no level cap. An entity's level can
// never equal Unlimited through finite XP arithmetic, so OnMaxLevel is
// permanently false for uncapped entities.
const Unlimited = math.MaxInt

// EntityDef carries the per-variant constants shared by every instance
// of a hero or skill variant. Defs are built once at catalog
// registration and never mutated afterwards.
type EntityDef struct {
	// ClassID is the stable unique identifier of the variant.
	ClassID string
	// Name is the display name of the variant.
	Name string
	// Description is a short display description of the variant.
	Description string
	// MaxLevel is the level cap, Unlimited when uncapped.
	MaxLevel int
	// RequiredLevel is the minimum owner level before the variant
	// becomes available.
	RequiredLevel int
}

// Entity is the base state shared by heroes and skills: variant
// constants plus the current level, kept within [0, MaxLevel].
type Entity struct {
	def   EntityDef
	level int
}

func newEntity(def EntityDef, level int) (Entity, error) {
	e := Entity{def: def}
	if err := e.SetLevel(level); err != nil {
		return Entity{}, err
	}
	return e, nil
}

// ClassID returns the stable unique identifier of the entity's variant.
func (e *Entity) ClassID() string { return e.def.ClassID }

// Name returns the display name of the entity's variant.
func (e *Entity) Name() string { return e.def.Name }

// Description returns the display description of the entity's variant.
func (e *Entity) Description() string { return e.def.Description }

// MaxLevel returns the entity's level cap, Unlimited when uncapped.
func (e *Entity) MaxLevel() int { return e.def.MaxLevel }

// RequiredLevel returns the minimum owner level needed before the
// entity becomes available.
func (e *Entity) RequiredLevel() int { return e.def.RequiredLevel }

// Level returns the entity's current level.
func (e *Entity) Level() int { return e.level }

// SetLevel moves the entity to level v.
//
// Precondition: 0 <= v <= MaxLevel.
// Postcondition: Level() == v, or a *RangeError is returned and the
// level is unchanged.
func (e *Entity) SetLevel(v int) error {
	if v < 0 || v > e.def.MaxLevel {
		return &RangeError{ClassID: e.def.ClassID, Value: v, Max: e.def.MaxLevel}
	}
	e.level = v
	return nil
}

// OnMaxLevel reports whether the entity has reached its level cap.
// Always false for uncapped entities.
func (e *Entity) OnMaxLevel() bool {
	return e.level == e.def.MaxLevel
}
