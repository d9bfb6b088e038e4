package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/warcraft/internal/game/hero"
)

// HookSource resolves a named effect hook from the content layer into
// a runnable callback. The scripting manager is the production
// implementation.
type HookSource interface {
	// Hook returns the callback registered under name, if any.
	Hook(name string) (hero.Callback, bool)
}

// HookMap is a HookSource backed by a plain map, used for native Go
// hooks and in tests.
type HookMap map[string]hero.Callback

// Hook returns the callback registered under name, if any.
func (m HookMap) Hook(name string) (hero.Callback, bool) {
	cb, ok := m[name]
	return cb, ok
}

type heroDoc struct {
	ID            string     `yaml:"id"`
	Name          string     `yaml:"name"`
	Description   string     `yaml:"description"`
	MaxLevel      int        `yaml:"max_level"`
	RequiredLevel int        `yaml:"required_level"`
	Skills        []skillDoc `yaml:"skills"`
}

type skillDoc struct {
	ID            string       `yaml:"id"`
	Name          string       `yaml:"name"`
	Description   string       `yaml:"description"`
	MaxLevel      int          `yaml:"max_level"`
	RequiredLevel int          `yaml:"required_level"`
	Events        []bindingDoc `yaml:"events"`
}

// bindingDoc binds one hook to one or more event names, mirroring a
// single callback registered under several events.
type bindingDoc struct {
	On   []string `yaml:"on"`
	Hook string   `yaml:"hook"`
}

// Load reads all .yaml files in dir, parses each as one hero variant,
// resolves every event binding through hooks, and returns the built
// Registry. Files are processed in lexicographic order so registration
// order is deterministic.
//
// Precondition: dir must be a readable directory; hooks must be non-nil.
// Postcondition: Returns a complete Registry or a non-nil error; an
// unresolved hook name or a duplicate event binding is a
// *hero.ConfigurationError.
func Load(dir string, hooks HookSource) (*Registry, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}

	reg := NewRegistry()
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var doc heroDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing hero file %s: %w", path, err)
		}
		spec, err := buildHero(doc, hooks)
		if err != nil {
			return nil, fmt.Errorf("building hero from %s: %w", path, err)
		}
		if err := reg.Register(spec); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func buildHero(doc heroDoc, hooks HookSource) (*HeroSpec, error) {
	if doc.ID == "" {
		return nil, &hero.ConfigurationError{Subject: "hero variant", Reason: "missing id"}
	}
	spec, err := NewHeroSpec(hero.EntityDef{
		ClassID:       doc.ID,
		Name:          doc.Name,
		Description:   doc.Description,
		MaxLevel:      maxLevel(doc.MaxLevel),
		RequiredLevel: doc.RequiredLevel,
	})
	if err != nil {
		return nil, err
	}

	for _, sd := range doc.Skills {
		if sd.ID == "" {
			return nil, &hero.ConfigurationError{Subject: "hero " + doc.ID, Reason: "skill with missing id"}
		}
		skill, err := NewSkillSpec(hero.EntityDef{
			ClassID:       sd.ID,
			Name:          sd.Name,
			Description:   sd.Description,
			MaxLevel:      maxLevel(sd.MaxLevel),
			RequiredLevel: sd.RequiredLevel,
		})
		if err != nil {
			return nil, err
		}
		for _, b := range sd.Events {
			cb, ok := hooks.Hook(b.Hook)
			if !ok {
				return nil, &hero.ConfigurationError{
					Subject: "skill " + sd.ID,
					Reason:  fmt.Sprintf("unknown hook %q", b.Hook),
				}
			}
			if err := skill.Handle(cb, b.On...); err != nil {
				return nil, err
			}
		}
		if err := spec.AddSkill(skill); err != nil {
			return nil, err
		}
	}
	return spec, nil
}

// maxLevel translates the content representation of a level cap into
// the engine's: zero or negative means uncapped.
func maxLevel(v int) int {
	if v <= 0 {
		return hero.Unlimited
	}
	return v
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
