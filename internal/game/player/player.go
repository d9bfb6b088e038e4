// Package player defines the player aggregate: the ordered collection
// of owned heroes and the active-hero reference.
package player

import (
	"github.com/cory-johannsen/warcraft/internal/game/hero"
)

// Player owns a collection of heroes and tracks which one is active.
// The active hero always points into the owned collection; it is unset
// only transiently between construction and the first AddHero.
type Player struct {
	uid string

	// order preserves hero acquisition order for iteration and display.
	order  []string
	heroes map[string]*hero.Hero
	active string
}

// New creates a player with no heroes.
//
// Precondition: uid must be non-empty.
func New(uid string) *Player {
	return &Player{
		uid:    uid,
		heroes: make(map[string]*hero.Hero),
	}
}

// UID returns the player's unique identifier.
func (p *Player) UID() string { return p.uid }

// AddHero adds h to the player's collection. The first hero added
// becomes the active hero.
//
// Precondition: no hero with the same class ID is already owned.
func (p *Player) AddHero(h *hero.Hero) error {
	id := h.ClassID()
	if _, dup := p.heroes[id]; dup {
		return &hero.PreconditionError{Op: "AddHero", Reason: "hero " + id + " already owned"}
	}
	p.order = append(p.order, id)
	p.heroes[id] = h
	if p.active == "" {
		p.active = id
	}
	return nil
}

// Hero returns the owned hero with the given class ID.
func (p *Player) Hero(classID string) (*hero.Hero, bool) {
	h, ok := p.heroes[classID]
	return h, ok
}

// Heroes returns the player's heroes in acquisition order.
func (p *Player) Heroes() []*hero.Hero {
	out := make([]*hero.Hero, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.heroes[id])
	}
	return out
}

// ActiveHero returns the hero the player is currently playing, or nil
// if the player owns no heroes yet.
func (p *Player) ActiveHero() *hero.Hero {
	if p.active == "" {
		return nil
	}
	return p.heroes[p.active]
}

// SetActiveHero makes h the active hero.
//
// Precondition: h must be non-nil and owned by this player; otherwise
// a *hero.OwnershipError is returned and the active hero is unchanged.
func (p *Player) SetActiveHero(h *hero.Hero) error {
	if h == nil {
		return &hero.OwnershipError{Owner: p.uid, Subject: "<nil>"}
	}
	owned, ok := p.heroes[h.ClassID()]
	if !ok || owned != h {
		return &hero.OwnershipError{Owner: p.uid, Subject: h.ClassID()}
	}
	p.active = h.ClassID()
	return nil
}

// TotalLevel returns the sum of all owned hero levels. It gates which
// hero variants are unlocked for the player.
func (p *Player) TotalLevel() int {
	total := 0
	for _, h := range p.heroes {
		total += h.Level()
	}
	return total
}
