package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Server.Listen != "127.0.0.1:8080" {
		t.Fatalf("unexpected listen %s", cfg.Server.Listen)
	}
	if cfg.StartDelay() != 500*time.Millisecond || cfg.CompleteDelay() != 2*time.Second || cfg.Stagger() != time.Second {
		t.Fatalf("unexpected delays %v/%v/%v", cfg.StartDelay(), cfg.CompleteDelay(), cfg.Stagger())
	}
	if !cfg.Seed.Demo {
		t.Fatalf("default should seed the demo dataset")
	}
}

func TestGenerateDefaultRoundTrips(t *testing.T) {
	cfg, err := FromYAML([]byte(GenerateDefault()))
	if err != nil {
		t.Fatalf("generated template invalid: %v", err)
	}
	if len(cfg.Users) != 4 {
		t.Fatalf("expected 4 directory users, got %d", len(cfg.Users))
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			"missing listen",
			"server:\n  listen: \"\"\n",
			"listen is required",
		},
		{
			"negative delay",
			"server:\n  listen: :8080\nautomation:\n  start_delay_ms: -1\n",
			"must not be negative",
		},
		{
			"unknown role",
			"server:\n  listen: :8080\nusers:\n  - id: x\n    name: X\n    role: wizard\n",
			"unknown role",
		},
		{
			"duplicate user id",
			"server:\n  listen: :8080\nusers:\n  - id: x\n    name: X\n    role: admin\n  - id: x\n    name: Y\n    role: admin\n",
			"duplicate id",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromYAML([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestUserNameFallsBackToID(t *testing.T) {
	cfg := Default()
	if got := cfg.UserName("jane.doe"); got != "Jane Doe" {
		t.Fatalf("directory lookup failed: %s", got)
	}
	if got := cfg.UserName("freeform assignee"); got != "freeform assignee" {
		t.Fatalf("free-form assignee must pass through, got %s", got)
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	if err != nil || cfg != nil {
		t.Fatalf("missing file should be nil,nil; got %v, %v", cfg, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "loanline.yml"), []byte(GenerateDefault()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err = LoadOptional(dir)
	if err != nil || cfg == nil {
		t.Fatalf("load failed: %v", err)
	}

	if _, err := Load(filepath.Join(dir, "nope")); err == nil || !strings.Contains(err.Error(), "config init") {
		t.Fatalf("expected hint to run config init, got %v", err)
	}
}
