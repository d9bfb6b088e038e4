package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/warcraft/internal/game/session"
)

// ProgressionRepository persists player, hero, and skill progression.
// It implements session.Store over three tables: players (active hero
// per player), heroes (level and xp per owned hero), and skills (level
// per hero skill).
type ProgressionRepository struct {
	db *pgxpool.Pool
}

// NewProgressionRepository creates a ProgressionRepository backed by
// the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewProgressionRepository(db *pgxpool.Pool) *ProgressionRepository {
	return &ProgressionRepository{db: db}
}

// ActiveHeroID returns the persisted active hero class ID for the
// player, or "" when the player has no row yet.
func (r *ProgressionRepository) ActiveHeroID(ctx context.Context, playerID string) (string, error) {
	var heroID string
	err := r.db.QueryRow(ctx, `
		SELECT active_hero_id FROM players WHERE id = $1`,
		playerID,
	).Scan(&heroID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("querying active hero: %w", err)
	}
	return heroID, nil
}

// Heroes returns all persisted heroes for the player, ordered by class
// ID for determinism.
func (r *ProgressionRepository) Heroes(ctx context.Context, playerID string) ([]session.HeroRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT class_id, level, xp
		FROM heroes WHERE player_id = $1 ORDER BY class_id ASC`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing heroes: %w", err)
	}
	defer rows.Close()

	out := make([]session.HeroRow, 0)
	for rows.Next() {
		var h session.HeroRow
		if err := rows.Scan(&h.ClassID, &h.Level, &h.XP); err != nil {
			return nil, fmt.Errorf("scanning hero row: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Skills returns the persisted skill levels for one of the player's
// heroes, ordered by class ID.
func (r *ProgressionRepository) Skills(ctx context.Context, playerID, heroClassID string) ([]session.SkillRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT class_id, level
		FROM skills WHERE player_id = $1 AND hero_class_id = $2 ORDER BY class_id ASC`,
		playerID, heroClassID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing skills: %w", err)
	}
	defer rows.Close()

	out := make([]session.SkillRow, 0)
	for rows.Next() {
		var s session.SkillRow
		if err := rows.Scan(&s.ClassID, &s.Level); err != nil {
			return nil, fmt.Errorf("scanning skill row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SavePlayer upserts one player's snapshot in a single transaction.
func (r *ProgressionRepository) SavePlayer(ctx context.Context, snap session.PlayerSnapshot) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := saveSnapshot(ctx, tx, snap); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}
	return nil
}

// SaveAll upserts every snapshot in one transaction, so a periodic
// flush either lands completely or not at all.
func (r *ProgressionRepository) SaveAll(ctx context.Context, snaps []session.PlayerSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning batch save: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, snap := range snaps {
		if err := saveSnapshot(ctx, tx, snap); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing batch save: %w", err)
	}
	return nil
}

func saveSnapshot(ctx context.Context, tx pgx.Tx, snap session.PlayerSnapshot) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO players (id, active_hero_id)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET active_hero_id = EXCLUDED.active_hero_id`,
		snap.PlayerID, snap.ActiveHeroID,
	); err != nil {
		return fmt.Errorf("upserting player %q: %w", snap.PlayerID, err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO heroes (player_id, class_id, level, xp)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_id, class_id) DO UPDATE
			SET level = EXCLUDED.level, xp = EXCLUDED.xp`,
		snap.PlayerID, snap.Hero.ClassID, snap.Hero.Level, snap.Hero.XP,
	); err != nil {
		return fmt.Errorf("upserting hero %q of %q: %w", snap.Hero.ClassID, snap.PlayerID, err)
	}

	for _, skill := range snap.Hero.Skills {
		if _, err := tx.Exec(ctx, `
			INSERT INTO skills (player_id, hero_class_id, class_id, level)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (player_id, hero_class_id, class_id) DO UPDATE
				SET level = EXCLUDED.level`,
			snap.PlayerID, snap.Hero.ClassID, skill.ClassID, skill.Level,
		); err != nil {
			return fmt.Errorf("upserting skill %q of %q: %w", skill.ClassID, snap.PlayerID, err)
		}
	}
	return nil
}
