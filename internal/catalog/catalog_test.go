package catalog_test

import (
	"strings"
	"testing"

	"humanping/internal/catalog"
	"humanping/internal/config"
	"humanping/internal/domain"
)

func TestDefaultCatalogCoversEveryTier(t *testing.T) {
	c := catalog.Default()
	if c.Size() == 0 {
		t.Fatalf("expected templates in the default catalog")
	}
	for _, tier := range domain.Difficulties {
		ts, err := c.TemplatesFor(tier)
		if err != nil {
			t.Fatalf("tier %s: %v", tier, err)
		}
		if len(ts) == 0 {
			t.Fatalf("tier %s has no templates", tier)
		}
		for _, tpl := range ts {
			if tpl.Difficulty != tier {
				t.Fatalf("template %q indexed under %s but has difficulty %s", tpl.Title, tier, tpl.Difficulty)
			}
		}
	}
}

func TestNewRejectsEmptyTier(t *testing.T) {
	cfg := &config.Config{}
	cfg.Catalog.Templates = []domain.MissionTemplate{
		{Title: "a", Description: "d", Difficulty: domain.DifficultyEasy, Location: domain.LocationSafe},
		{Title: "b", Description: "d", Difficulty: domain.DifficultyMedium, Location: domain.LocationSafe},
	}
	_, err := catalog.New(cfg)
	if err == nil {
		t.Fatalf("expected error for missing hard tier")
	}
	if !strings.Contains(err.Error(), "hard") {
		t.Fatalf("expected the empty tier to be named, got %v", err)
	}
}

func TestNewRejectsInvalidTemplate(t *testing.T) {
	cfg := &config.Config{}
	cfg.Catalog.Templates = []domain.MissionTemplate{
		{Title: "a", Description: "d", Difficulty: "brutal", Location: domain.LocationSafe},
	}
	if _, err := catalog.New(cfg); err == nil {
		t.Fatalf("expected error for unknown difficulty")
	}
}

func TestTemplatesForUnknownTier(t *testing.T) {
	if _, err := catalog.Default().TemplatesFor("impossible"); err == nil {
		t.Fatalf("expected error for unknown tier")
	}
}
