// Package catalog holds the static registry of mission templates. Selection
// policy does not live here; the engine picks from the slice this package
// returns.
package catalog

import (
	"fmt"

	"humanping/internal/config"
	"humanping/internal/domain"
)

// Catalog indexes mission templates by difficulty tier.
type Catalog struct {
	byTier map[domain.Difficulty][]domain.MissionTemplate
}

// New builds a catalog from config. It fails fast when any tier is empty so
// the engine can rely on TemplatesFor never returning an empty slice for a
// valid tier.
func New(cfg *config.Config) (*Catalog, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Catalog{byTier: make(map[domain.Difficulty][]domain.MissionTemplate)}
	for _, t := range cfg.Catalog.Templates {
		c.byTier[t.Difficulty] = append(c.byTier[t.Difficulty], t)
	}
	return c, nil
}

// Default returns the catalog built from the built-in config.
func Default() *Catalog {
	c, err := New(config.Default())
	if err != nil {
		// The built-in template set covers every tier; reaching this means
		// the embedded defaults are broken.
		panic(err)
	}
	return c
}

// TemplatesFor returns the ordered candidate templates for a tier.
func (c *Catalog) TemplatesFor(tier domain.Difficulty) ([]domain.MissionTemplate, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("unknown difficulty %q", tier)
	}
	return c.byTier[tier], nil
}

// Size returns the total number of templates.
func (c *Catalog) Size() int {
	n := 0
	for _, ts := range c.byTier {
		n += len(ts)
	}
	return n
}
