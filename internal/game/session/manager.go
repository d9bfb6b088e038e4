// Package session tracks connected players and orchestrates loading
// and saving their progression state around connect, disconnect, and
// periodic flush points. Persistence is never invoked mid-computation;
// the core mutates heroes only between Store calls.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/warcraft/internal/game/catalog"
	"github.com/cory-johannsen/warcraft/internal/game/hero"
	"github.com/cory-johannsen/warcraft/internal/game/player"
)

// HeroRow is one persisted hero: class ID, level, and banked XP.
type HeroRow struct {
	ClassID string
	Level   int
	XP      int
}

// SkillRow is one persisted skill level under a hero.
type SkillRow struct {
	ClassID string
	Level   int
}

// HeroSnapshot is a hero's state with its skill levels, ready to save.
type HeroSnapshot struct {
	ClassID string
	Level   int
	XP      int
	Skills  []SkillRow
}

// PlayerSnapshot is a player's saveable state. Only the active hero is
// snapshotted: heroes can only progress while active, so the active
// hero is the only one with unsaved changes.
type PlayerSnapshot struct {
	PlayerID     string
	ActiveHeroID string
	Hero         HeroSnapshot
}

// Store is the persistence collaborator. The manager calls it at
// connect (load), disconnect, and explicit save points only.
type Store interface {
	// ActiveHeroID returns the persisted active hero class ID for the
	// player, or "" when none is recorded.
	ActiveHeroID(ctx context.Context, playerID string) (string, error)
	// Heroes returns all persisted heroes for the player.
	Heroes(ctx context.Context, playerID string) ([]HeroRow, error)
	// Skills returns the persisted skill levels for one of the
	// player's heroes.
	Skills(ctx context.Context, playerID, heroClassID string) ([]SkillRow, error)
	// SavePlayer persists one player's snapshot.
	SavePlayer(ctx context.Context, snap PlayerSnapshot) error
	// SaveAll persists every snapshot in a single batch.
	SaveAll(ctx context.Context, snaps []PlayerSnapshot) error
}

// Session is one connected player.
type Session struct {
	// ConnID uniquely identifies this connection.
	ConnID string
	// Player is the player's progression aggregate.
	Player *player.Player
	// ConnectedAt records when the session was established.
	ConnectedAt time.Time
}

// Manager tracks connected players and implements dispatch.Resolver.
// All methods are safe for concurrent use, though per-hero mutation is
// still expected to stay on the game loop.
type Manager struct {
	store    Store
	registry *catalog.Registry
	notifier *hero.Notifier
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager with no connected players.
//
// Precondition: store, registry, and logger must be non-nil; notifier
// may be nil to drop progression notifications.
func NewManager(store Store, registry *catalog.Registry, notifier *hero.Notifier, logger *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		registry: registry,
		notifier: notifier,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Connect loads the player's persisted heroes, grants every hero
// variant unlocked by the player's total level, restores the active
// hero, and registers the session.
//
// Postcondition: Returns the new Session, or an error if the UID is
// already connected or loading fails. Persisted heroes whose variant
// is no longer in the catalog are skipped with a warning.
func (m *Manager) Connect(ctx context.Context, uid string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[uid]; exists {
		return nil, fmt.Errorf("player %q already connected", uid)
	}

	p := player.New(uid)

	rows, err := m.store.Heroes(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("loading heroes for %q: %w", uid, err)
	}
	for _, row := range rows {
		spec, ok := m.registry.Hero(row.ClassID)
		if !ok {
			m.logger.Warn("persisted hero variant not in catalog",
				zap.String("player", uid),
				zap.String("hero", row.ClassID),
			)
			continue
		}
		h, err := spec.New(p, m.notifier, row.Level, row.XP)
		if err != nil {
			return nil, fmt.Errorf("restoring hero %q for %q: %w", row.ClassID, uid, err)
		}
		skills, err := m.store.Skills(ctx, uid, row.ClassID)
		if err != nil {
			return nil, fmt.Errorf("loading skills of %q for %q: %w", row.ClassID, uid, err)
		}
		for _, sr := range skills {
			s, ok := h.Skill(sr.ClassID)
			if !ok {
				m.logger.Warn("persisted skill variant not in catalog",
					zap.String("player", uid),
					zap.String("hero", row.ClassID),
					zap.String("skill", sr.ClassID),
				)
				continue
			}
			if err := s.SetLevel(sr.Level); err != nil {
				return nil, fmt.Errorf("restoring skill %q of %q for %q: %w", sr.ClassID, row.ClassID, uid, err)
			}
		}
		if err := p.AddHero(h); err != nil {
			return nil, err
		}
	}

	// Grant every variant the player's total level has unlocked.
	total := p.TotalLevel()
	for _, spec := range m.registry.Heroes() {
		if _, owned := p.Hero(spec.Def().ClassID); owned {
			continue
		}
		if spec.Def().RequiredLevel > total {
			continue
		}
		h, err := spec.New(p, m.notifier, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("granting hero %q to %q: %w", spec.Def().ClassID, uid, err)
		}
		if err := p.AddHero(h); err != nil {
			return nil, err
		}
	}

	activeID, err := m.store.ActiveHeroID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("loading active hero for %q: %w", uid, err)
	}
	if activeID != "" {
		if h, ok := p.Hero(activeID); ok {
			if err := p.SetActiveHero(h); err != nil {
				return nil, err
			}
		} else {
			m.logger.Warn("persisted active hero not owned, falling back to first hero",
				zap.String("player", uid),
				zap.String("hero", activeID),
			)
		}
	}

	sess := &Session{
		ConnID:      uuid.NewString(),
		Player:      p,
		ConnectedAt: time.Now(),
	}
	m.sessions[uid] = sess
	return sess, nil
}

// Disconnect saves the player's state and drops the session.
//
// Postcondition: The player is no longer resolvable. Returns an error
// if the UID is unknown or the save fails; the session is kept on save
// failure so a later flush can retry.
func (m *Manager) Disconnect(ctx context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[uid]
	if !ok {
		return fmt.Errorf("player %q not connected", uid)
	}
	if snap, ok := snapshot(sess.Player); ok {
		if err := m.store.SavePlayer(ctx, snap); err != nil {
			return fmt.Errorf("saving %q on disconnect: %w", uid, err)
		}
	}
	delete(m.sessions, uid)
	return nil
}

// SaveAll persists every connected player's snapshot in one batch.
func (m *Manager) SaveAll(ctx context.Context) error {
	m.mu.RLock()
	snaps := make([]PlayerSnapshot, 0, len(m.sessions))
	for _, sess := range m.sessions {
		if snap, ok := snapshot(sess.Player); ok {
			snaps = append(snaps, snap)
		}
	}
	m.mu.RUnlock()

	if len(snaps) == 0 {
		return nil
	}
	return m.store.SaveAll(ctx, snaps)
}

// Player resolves a connected player by UID. Implements
// dispatch.Resolver.
func (m *Manager) Player(uid string) (*player.Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[uid]
	if !ok {
		return nil, false
	}
	return sess.Player, true
}

// Session returns the session for a connected player.
func (m *Manager) Session(uid string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[uid]
	return sess, ok
}

// Count returns the number of connected players.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func snapshot(p *player.Player) (PlayerSnapshot, bool) {
	h := p.ActiveHero()
	if h == nil {
		return PlayerSnapshot{}, false
	}
	skills := h.Skills()
	rows := make([]SkillRow, 0, len(skills))
	for _, s := range skills {
		rows = append(rows, SkillRow{ClassID: s.ClassID(), Level: s.Level()})
	}
	return PlayerSnapshot{
		PlayerID:     p.UID(),
		ActiveHeroID: h.ClassID(),
		Hero: HeroSnapshot{
			ClassID: h.ClassID(),
			Level:   h.Level(),
			XP:      h.XP(),
			Skills:  rows,
		},
	}, true
}
