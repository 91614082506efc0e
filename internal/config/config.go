package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models loanline.yml.
type Config struct {
	Server struct {
		Listen string `yaml:"listen"`
	} `yaml:"server"`
	Automation struct {
		StartDelayMS    int `yaml:"start_delay_ms"`
		CompleteDelayMS int `yaml:"complete_delay_ms"`
		StaggerMS       int `yaml:"stagger_ms"`
	} `yaml:"automation"`
	Users []User `yaml:"users"`
	Seed  struct {
		Demo bool `yaml:"demo"`
	} `yaml:"seed"`
}

// User is a directory entry surfaces use for assignment defaults and display.
// The core treats assignees as free-form strings; this list is advisory.
type User struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; generate with ll config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("config.server.listen is required")
	}
	if c.Automation.StartDelayMS < 0 || c.Automation.CompleteDelayMS < 0 || c.Automation.StaggerMS < 0 {
		return fmt.Errorf("config.automation delays must not be negative")
	}
	seen := map[string]bool{}
	for i, u := range c.Users {
		if u.ID == "" {
			return fmt.Errorf("config.users[%d] has empty id", i)
		}
		if u.Name == "" {
			return fmt.Errorf("user %s has empty name", u.ID)
		}
		switch u.Role {
		case "loan_officer", "processor", "underwriter", "admin", "ai":
		default:
			return fmt.Errorf("user %s has unknown role %s", u.ID, u.Role)
		}
		if seen[u.ID] {
			return fmt.Errorf("config.users contains duplicate id %s", u.ID)
		}
		seen[u.ID] = true
	}
	return nil
}

// StartDelay returns the automation start delay.
func (c *Config) StartDelay() time.Duration {
	return time.Duration(c.Automation.StartDelayMS) * time.Millisecond
}

// CompleteDelay returns the automation completion delay.
func (c *Config) CompleteDelay() time.Duration {
	return time.Duration(c.Automation.CompleteDelayMS) * time.Millisecond
}

// Stagger returns the per-task extra delay within one automation batch.
func (c *Config) Stagger() time.Duration {
	return time.Duration(c.Automation.StaggerMS) * time.Millisecond
}

// UserName resolves a directory id to a display name, falling back to the id
// itself for free-form assignees.
func (c *Config) UserName(id string) string {
	for _, u := range c.Users {
		if u.ID == id {
			return u.Name
		}
	}
	return id
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "loanline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
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

const defaultTemplate = `server:
  listen: 127.0.0.1:8080

automation:
  start_delay_ms: 500
  complete_delay_ms: 2000
  stagger_ms: 1000

users:
  - id: john.smith
    name: John Smith
    email: john.smith@fintegral.example
    role: loan_officer
  - id: jane.doe
    name: Jane Doe
    email: jane.doe@fintegral.example
    role: processor
  - id: sarah.johnson
    name: Sarah Johnson
    email: sarah.johnson@fintegral.example
    role: underwriter
  - id: ai_agent
    name: AI Agent
    role: ai

seed:
  demo: true
`
