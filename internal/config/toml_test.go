package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected missing config to be ignored, got %v", err)
	}
	if cfg.Display.FPS != nil || len(cfg.Games) != 0 {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[display]
fps = 45

[scoring]
persist-negative = true

[games.bubble-popper]
duration = "45s"
lives = 2
hazard-ratio = 0.2
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Display.FPS == nil || *cfg.Display.FPS != 45 {
		t.Fatalf("expected fps 45, got %v", cfg.Display.FPS)
	}
	if cfg.Scoring.PersistNegative == nil || !*cfg.Scoring.PersistNegative {
		t.Fatalf("expected persist-negative to be set")
	}
	if cfg.Scoring.SaveOnManualEnd != nil {
		t.Fatalf("expected unset keys to stay nil")
	}
	game, ok := cfg.Games["bubble-popper"]
	if !ok {
		t.Fatalf("expected game override table")
	}
	if game.Duration == nil || *game.Duration != "45s" {
		t.Fatalf("unexpected duration override: %v", game.Duration)
	}
	if game.Lives == nil || *game.Lives != 2 {
		t.Fatalf("unexpected lives override: %v", game.Lives)
	}
}

func TestLoadEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DOPAMIND_TEST_KEY=from-file\nDOPAMIND_TEST_OTHER=other\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("DOPAMIND_TEST_KEY", "from-env")
	t.Setenv("DOPAMIND_TEST_OTHER", "")
	if err := os.Unsetenv("DOPAMIND_TEST_OTHER"); err != nil {
		t.Fatalf("unset: %v", err)
	}
	if err := LoadEnv(path); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if got := LookupSecret("DOPAMIND_TEST_KEY"); got != "from-env" {
		t.Fatalf("expected existing variable to win, got %q", got)
	}
	if got := LookupSecret("DOPAMIND_TEST_OTHER"); got != "other" {
		t.Fatalf("expected file variable to load, got %q", got)
	}
	if err := LoadEnv(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}
