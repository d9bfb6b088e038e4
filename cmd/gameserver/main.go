// Package main provides the progression server binary: it loads the
// hero catalog and skill scripts, connects to PostgreSQL, and feeds
// game events from the host into the dispatcher.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/warcraft/internal/config"
	"github.com/cory-johannsen/warcraft/internal/game/catalog"
	"github.com/cory-johannsen/warcraft/internal/game/dispatch"
	"github.com/cory-johannsen/warcraft/internal/game/hero"
	"github.com/cory-johannsen/warcraft/internal/game/session"
	"github.com/cory-johannsen/warcraft/internal/observability"
	"github.com/cory-johannsen/warcraft/internal/scripting"
	"github.com/cory-johannsen/warcraft/internal/server"
	"github.com/cory-johannsen/warcraft/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	heroesDir := flag.String("heroes-dir", "", "override for the hero definitions directory")
	scriptsDir := flag.String("scripts-dir", "", "override for the skill scripts directory")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *heroesDir != "" {
		cfg.Game.HeroesDir = *heroesDir
	}
	if *scriptsDir != "" {
		cfg.Game.SkillScriptsDir = *scriptsDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Load skill effect scripts before the catalog so hook names
	// resolve during catalog construction.
	scripts := scripting.NewManager(logger)
	defer scripts.Close()
	if cfg.Game.SkillScriptsDir != "" {
		scriptStart := time.Now()
		if err := scripts.LoadDir(cfg.Game.SkillScriptsDir, cfg.Game.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading skill scripts", zap.Error(err))
		}
		logger.Info("skill scripts loaded",
			zap.String("dir", cfg.Game.SkillScriptsDir),
			zap.Duration("elapsed", time.Since(scriptStart)),
		)
	}

	catalogStart := time.Now()
	registry, err := catalog.Load(cfg.Game.HeroesDir, scripts)
	if err != nil {
		logger.Fatal("loading hero catalog", zap.Error(err))
	}
	logger.Info("hero catalog loaded",
		zap.Int("heroes", registry.Len()),
		zap.Duration("elapsed", time.Since(catalogStart)),
	)

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	repo := postgres.NewProgressionRepository(pool.DB())

	notifier := hero.NewNotifier(logger)
	registerProgressionLogging(notifier, logger)

	manager := session.NewManager(repo, registry, notifier, logger)

	dispatcher, err := dispatch.New(manager, dispatch.DefaultRoutes(), dispatch.XPRules{
		KillEvent:  "player_death",
		KillXP:     cfg.Game.XPPerKill,
		HeadshotXP: cfg.Game.XPPerHeadshotKill,
	}, logger)
	if err != nil {
		logger.Fatal("building dispatcher", zap.Error(err))
	}

	saver := session.NewSaver(manager, cfg.Game.SaveInterval, logger)
	feed := newStdinFeed(manager, dispatcher, logger)

	logger.Info("progression server ready",
		zap.Duration("startup", time.Since(start)),
	)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("saver", saver)
	lifecycle.Add("event-feed", feed)
	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// registerProgressionLogging mirrors the in-game progression messages:
// every level or skill transition is reported on the structured log.
func registerProgressionLogging(n *hero.Notifier, logger *zap.Logger) {
	n.OnHeroLevelUp(func(ev hero.LevelUpEvent) {
		logger.Info("hero leveled up",
			zap.String("player", ownerUID(ev.Hero)),
			zap.String("hero", ev.Hero.ClassID()),
			zap.Int("levels", ev.Levels),
			zap.Int("level", ev.Hero.Level()),
		)
	})
	n.OnHeroLevelDown(func(ev hero.LevelDownEvent) {
		logger.Info("hero leveled down",
			zap.String("player", ownerUID(ev.Hero)),
			zap.String("hero", ev.Hero.ClassID()),
			zap.Int("levels", ev.Levels),
			zap.Int("level", ev.Hero.Level()),
		)
	})
	n.OnSkillUpgrade(func(ev hero.SkillUpgradeEvent) {
		logger.Info("skill upgraded",
			zap.String("player", ownerUID(ev.Hero)),
			zap.String("hero", ev.Hero.ClassID()),
			zap.String("skill", ev.Skill.ClassID()),
			zap.Int("level", ev.Skill.Level()),
		)
	})
	n.OnSkillDowngrade(func(ev hero.SkillDowngradeEvent) {
		logger.Info("skill downgraded",
			zap.String("player", ownerUID(ev.Hero)),
			zap.String("hero", ev.Hero.ClassID()),
			zap.String("skill", ev.Skill.ClassID()),
			zap.Int("level", ev.Skill.Level()),
		)
	})
}

func ownerUID(h *hero.Hero) string {
	if owner := h.Owner(); owner != nil {
		return owner.UID()
	}
	return ""
}
