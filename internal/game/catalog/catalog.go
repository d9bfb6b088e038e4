// Package catalog holds the closed set of hero and skill variants. The
// catalog is built once at startup from content definitions and is
// never mutated at runtime; heroes are instantiated from it on demand.
package catalog

import (
	"github.com/cory-johannsen/warcraft/internal/game/hero"
)

// SkillSpec describes one skill variant: its constants plus the
// callback table shared by every instance of the variant.
type SkillSpec struct {
	def       hero.EntityDef
	callbacks *hero.CallbackTable
}

// NewSkillSpec creates a skill variant with an empty callback table.
//
// Precondition: def.ClassID must be non-empty.
func NewSkillSpec(def hero.EntityDef) (*SkillSpec, error) {
	if def.ClassID == "" {
		return nil, &hero.ConfigurationError{Subject: "skill variant", Reason: "empty class ID"}
	}
	return &SkillSpec{def: def, callbacks: hero.NewCallbackTable()}, nil
}

// Def returns the variant's constants.
func (s *SkillSpec) Def() hero.EntityDef { return s.def }

// Handle binds cb to the given event names. One callback may serve
// several names; a second callback claiming an already-bound name is a
// *hero.ConfigurationError.
func (s *SkillSpec) Handle(cb hero.Callback, eventNames ...string) error {
	if err := s.callbacks.Bind(cb, eventNames...); err != nil {
		return &hero.ConfigurationError{Subject: "skill " + s.def.ClassID, Reason: err.Error()}
	}
	return nil
}

func (s *SkillSpec) blueprint() hero.SkillBlueprint {
	return hero.SkillBlueprint{Def: s.def, Callbacks: s.callbacks}
}

// HeroSpec describes one hero variant and its fixed, ordered skill
// variant list.
type HeroSpec struct {
	def    hero.EntityDef
	skills []*SkillSpec
}

// NewHeroSpec creates a hero variant with no skills.
//
// Precondition: def.ClassID must be non-empty.
func NewHeroSpec(def hero.EntityDef) (*HeroSpec, error) {
	if def.ClassID == "" {
		return nil, &hero.ConfigurationError{Subject: "hero variant", Reason: "empty class ID"}
	}
	return &HeroSpec{def: def}, nil
}

// Def returns the variant's constants.
func (h *HeroSpec) Def() hero.EntityDef { return h.def }

// Skills returns the variant's skill specs in declaration order.
func (h *HeroSpec) Skills() []*SkillSpec { return h.skills }

// AddSkill appends a skill variant to the hero's roster. Declaration
// order is preserved for every hero instantiated from this spec.
func (h *HeroSpec) AddSkill(s *SkillSpec) error {
	for _, existing := range h.skills {
		if existing.def.ClassID == s.def.ClassID {
			return &hero.ConfigurationError{
				Subject: "hero " + h.def.ClassID,
				Reason:  "skill " + s.def.ClassID + " already added",
			}
		}
	}
	h.skills = append(h.skills, s)
	return nil
}

// New instantiates a hero of this variant for owner, with one level-0
// skill per declared skill variant.
func (h *HeroSpec) New(owner hero.Owner, notifier *hero.Notifier, level, xp int) (*hero.Hero, error) {
	blueprints := make([]hero.SkillBlueprint, 0, len(h.skills))
	for _, s := range h.skills {
		blueprints = append(blueprints, s.blueprint())
	}
	return hero.NewHero(h.def, blueprints, owner, notifier, level, xp)
}

// Registry is the closed catalog of hero variants, keyed by class ID.
// It is populated once at startup and read-only afterwards.
type Registry struct {
	order  []string
	heroes map[string]*HeroSpec
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{heroes: make(map[string]*HeroSpec)}
}

// Register adds a hero variant to the catalog. Registering the same
// class ID twice is a *hero.ConfigurationError.
func (r *Registry) Register(spec *HeroSpec) error {
	id := spec.def.ClassID
	if _, dup := r.heroes[id]; dup {
		return &hero.ConfigurationError{Subject: "catalog", Reason: "hero " + id + " already registered"}
	}
	r.order = append(r.order, id)
	r.heroes[id] = spec
	return nil
}

// Hero returns the hero variant with the given class ID.
func (r *Registry) Hero(classID string) (*HeroSpec, bool) {
	spec, ok := r.heroes[classID]
	return spec, ok
}

// Heroes returns all hero variants in registration order.
func (r *Registry) Heroes() []*HeroSpec {
	out := make([]*HeroSpec, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.heroes[id])
	}
	return out
}

// Len returns the number of registered hero variants.
func (r *Registry) Len() int { return len(r.order) }
