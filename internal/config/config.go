package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"humanping/internal/domain"
)

// Config models humanping.yml.
type Config struct {
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Catalog struct {
		Templates []domain.MissionTemplate `yaml:"templates"`
	} `yaml:"catalog"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; run hp config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure. A tier with no
// templates is a fatal configuration error and must be caught here, before
// any traffic is served, never at assignment time.
func (c *Config) Validate() error {
	if len(c.Catalog.Templates) == 0 {
		return fmt.Errorf("config.catalog.templates is required")
	}
	perTier := map[domain.Difficulty]int{}
	for i, t := range c.Catalog.Templates {
		if t.Title == "" {
			return fmt.Errorf("template %d is missing a title", i)
		}
		if t.Description == "" {
			return fmt.Errorf("template %q is missing a description", t.Title)
		}
		if !t.Difficulty.Valid() {
			return fmt.Errorf("template %q has unknown difficulty %q", t.Title, t.Difficulty)
		}
		if !t.Location.Valid() {
			return fmt.Errorf("template %q has unknown location %q", t.Title, t.Location)
		}
		perTier[t.Difficulty]++
	}
	for _, tier := range domain.Difficulties {
		if perTier[tier] == 0 {
			return fmt.Errorf("config.catalog.templates has no %s templates", tier)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "humanping.yml")
}

// GenerateDefault returns the default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the built-in Config.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `server:
  addr: 127.0.0.1:8080
  base_path: /v1

auth:
  jwt_secret: ""

catalog:
  templates:
    - title: Say hi to your neighbor
      description: Make eye contact and greet someone in your building or neighborhood
      category: Greetings
      difficulty: easy
      location: safe

    - title: Smile at a stranger
      description: Offer a genuine smile to someone you pass today
      category: Greetings
      difficulty: easy
      location: anywhere

    - title: Thank someone by name
      description: Read a name tag and thank a cashier or barista using their name
      category: Gratitude
      difficulty: easy
      location: safe

    - title: Ask a small question
      description: Ask a shop assistant or passerby for a recommendation or directions
      category: Small talk
      difficulty: medium
      location: anywhere

    - title: Give a compliment
      description: Compliment a stranger on something specific you noticed
      category: Kindness
      difficulty: medium
      location: anywhere

    - title: Start a short chat
      description: Keep a conversation with someone new going for at least a minute
      category: Small talk
      difficulty: medium
      location: safe

    - title: Share an opinion with a group
      description: Say what you think in a group conversation with people you barely know
      category: Conversations
      difficulty: hard
      location: anywhere

    - title: Invite someone for coffee
      description: Ask an acquaintance to grab a coffee or lunch with you this week
      category: Connections
      difficulty: hard
      location: safe

    - title: Tell a story to a stranger
      description: Share a short personal story with someone you just met
      category: Conversations
      difficulty: hard
      location: anywhere
`
