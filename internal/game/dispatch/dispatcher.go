// Package dispatch translates raw game events from the host event feed
// into semantic skill events and routes them to the owning players'
// active heroes. It also awards kill experience.
package dispatch

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/warcraft/internal/game/hero"
	"github.com/cory-johannsen/warcraft/internal/game/player"
)

// Argument bag keys used by the event feed and set for skill callbacks.
const (
	// KeyUserID carries the acting (or victim) player's UID.
	KeyUserID = "userid"
	// KeyAttacker carries the instigating player's UID.
	KeyAttacker = "attacker"
	// KeyHeadshot marks a kill event as a headshot.
	KeyHeadshot = "headshot"
	// KeyPlayer identifies, per perspective, who is acting.
	KeyPlayer = "player"
	// KeyVictim carries the resolved victim player.
	KeyVictim = "victim"
)

// Event is one named game event with its argument bag. Subject UIDs
// travel under KeyUserID and KeyAttacker.
type Event struct {
	Name string
	Args hero.Args
}

// PairNames holds the two semantic names a two-subject raw event is
// translated into, one per perspective.
type PairNames struct {
	// Instigator is the name dispatched to the acting player's hero.
	Instigator string
	// Target is the name dispatched to the receiving player's hero.
	Target string
}

// Routes is the declarative routing table: which raw events are
// single-subject and how each two-subject raw event translates.
type Routes struct {
	Single []string
	Pairs  map[string]PairNames
}

// DefaultRoutes returns the routing table for the stock event feed.
func DefaultRoutes() Routes {
	return Routes{
		Single: []string{"player_spawn", "player_jump", "player_disconnect"},
		Pairs: map[string]PairNames{
			"player_death": {Instigator: "player_kill", Target: "player_death"},
			"player_hurt":  {Instigator: "player_attack", Target: "player_victim"},
		},
	}
}

// XPRules configures experience awards made by the dispatcher.
type XPRules struct {
	// KillEvent is the raw event name that awards kill XP.
	KillEvent string
	// KillXP is awarded to the killer's active hero per kill.
	KillXP int
	// HeadshotXP replaces KillXP when the kill was a headshot.
	HeadshotXP int
}

// DefaultXPRules returns the stock kill rewards.
func DefaultXPRules() XPRules {
	return XPRules{KillEvent: "player_death", KillXP: 30, HeadshotXP: 45}
}

// Resolver looks up connected players by UID. The session manager is
// the production implementation. An unresolved UID is never an error:
// players may be mid-connect or mid-disconnect when events arrive.
type Resolver interface {
	Player(uid string) (*player.Player, bool)
}

// Dispatcher routes game events to heroes. It is driven synchronously
// by the host game loop; nothing here blocks or runs concurrently.
type Dispatcher struct {
	resolver Resolver
	singles  map[string]struct{}
	pairs    map[string]PairNames
	xp       XPRules
	logger   *zap.Logger
}

// New validates the routing table and builds a Dispatcher.
//
// Precondition: resolver and logger must be non-nil.
// Postcondition: Returns a *hero.ConfigurationError if any declared
// two-subject event lacks a complete name pair, if a name is routed
// both ways, or if the XP rules reference an unrouted event or carry
// negative amounts.
func New(resolver Resolver, routes Routes, xp XPRules, logger *zap.Logger) (*Dispatcher, error) {
	singles := make(map[string]struct{}, len(routes.Single))
	for _, name := range routes.Single {
		singles[name] = struct{}{}
	}
	for raw, names := range routes.Pairs {
		if names.Instigator == "" || names.Target == "" {
			return nil, &hero.ConfigurationError{
				Subject: "dispatch routes",
				Reason:  "two-subject event " + raw + " has an incomplete name pair",
			}
		}
		if _, both := singles[raw]; both {
			return nil, &hero.ConfigurationError{
				Subject: "dispatch routes",
				Reason:  "event " + raw + " routed as both single- and two-subject",
			}
		}
	}
	if xp.KillXP < 0 || xp.HeadshotXP < 0 {
		return nil, &hero.ConfigurationError{Subject: "xp rules", Reason: "negative kill reward"}
	}
	if xp.KillEvent != "" {
		if _, ok := routes.Pairs[xp.KillEvent]; !ok {
			return nil, &hero.ConfigurationError{
				Subject: "xp rules",
				Reason:  "kill event " + xp.KillEvent + " is not a routed two-subject event",
			}
		}
	}
	return &Dispatcher{
		resolver: resolver,
		singles:  singles,
		pairs:    routes.Pairs,
		xp:       xp,
		logger:   logger,
	}, nil
}

// Dispatch routes one game event. Unresolved players are skipped, not
// errors. An event name carrying an attacker subject without a routing
// entry is reported as a configuration gap.
func (d *Dispatcher) Dispatch(ev Event) {
	if _, ok := d.singles[ev.Name]; ok {
		d.dispatchSingle(ev)
		return
	}
	if names, ok := d.pairs[ev.Name]; ok {
		d.dispatchPair(ev, names)
		return
	}
	if _, twoSubject := ev.Args[KeyAttacker]; twoSubject {
		d.logger.Error("unmapped two-subject event",
			zap.String("event", ev.Name),
		)
		return
	}
	d.logger.Debug("unrouted event skipped", zap.String("event", ev.Name))
}

func (d *Dispatcher) dispatchSingle(ev Event) {
	uid, _ := ev.Args[KeyUserID].(string)
	p, ok := d.resolver.Player(uid)
	if !ok {
		return
	}
	h := p.ActiveHero()
	if h == nil {
		return
	}
	args := forwardArgs(ev.Args)
	args[KeyPlayer] = p
	h.ExecuteSkills(ev.Name, args)
}

func (d *Dispatcher) dispatchPair(ev Event, names PairNames) {
	attackerUID, _ := ev.Args[KeyAttacker].(string)
	victimUID, _ := ev.Args[KeyUserID].(string)

	// Environmental and self-inflicted causes have no distinct
	// instigator and are not dispatched at all.
	if attackerUID == "" || attackerUID == victimUID {
		return
	}

	attacker, ok := d.resolver.Player(attackerUID)
	if !ok {
		return
	}
	victim, ok := d.resolver.Player(victimUID)
	if !ok {
		return
	}

	args := forwardArgs(ev.Args)
	args[KeyAttacker] = attacker
	args[KeyVictim] = victim

	if attackerHero := attacker.ActiveHero(); attackerHero != nil {
		args[KeyPlayer] = attacker
		attackerHero.ExecuteSkills(names.Instigator, args)
	}
	if victimHero := victim.ActiveHero(); victimHero != nil {
		args[KeyPlayer] = victim
		victimHero.ExecuteSkills(names.Target, args)
	}

	if ev.Name == d.xp.KillEvent {
		d.awardKillXP(ev, attacker)
	}
}

func (d *Dispatcher) awardKillXP(ev Event, attacker *player.Player) {
	h := attacker.ActiveHero()
	if h == nil {
		return
	}
	amount := d.xp.KillXP
	if headshot, _ := ev.Args[KeyHeadshot].(bool); headshot {
		amount = d.xp.HeadshotXP
	}
	// Amounts are validated non-negative at construction.
	if err := h.GiveXP(amount); err != nil {
		d.logger.Error("awarding kill xp",
			zap.String("player", attacker.UID()),
			zap.String("hero", h.ClassID()),
			zap.Error(err),
		)
	}
}

// forwardArgs copies the raw argument bag, stripping the subject UID
// keys that are replaced by resolved player references.
func forwardArgs(in hero.Args) hero.Args {
	out := make(hero.Args, len(in)+2)
	for k, v := range in {
		if k == KeyUserID || k == KeyAttacker {
			continue
		}
		out[k] = v
	}
	return out
}
