package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/dopamind/internal/config"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func TestResolveSettingsPrecedence(t *testing.T) {
	fileCfg := config.FileConfig{
		Display:   config.DisplayConfig{FPS: intPtr(90), Theme: strPtr("light")},
		Scoring:   config.ScoringConfig{SaveOnManualEnd: boolPtr(false)},
		Challenge: config.ChallengeConfig{Timeout: strPtr("7s"), APIKeyEnv: strPtr("MY_KEY")},
		Log:       config.LogConfig{Level: strPtr("warn")},
	}

	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--fps", "60"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	set, err := resolveSettings(cmd, fileCfg)
	if err != nil {
		t.Fatalf("resolve settings: %v", err)
	}
	if set.fps != 60 {
		t.Fatalf("expected the flag to win, got fps %d", set.fps)
	}
	if set.theme != "light" || !set.themeFromUser {
		t.Fatalf("expected the config theme, got %q", set.theme)
	}
	if set.saveOnManualEnd {
		t.Fatalf("expected config to disable saving manual ends")
	}
	if set.timeout != 7*time.Second || set.apiKeyEnv != "MY_KEY" {
		t.Fatalf("unexpected challenge settings %+v", set)
	}
	if set.logLevel != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %s", set.logLevel)
	}
	if set.region != defaultAWSRegion || set.queueURL != "" {
		t.Fatalf("expected default sink settings")
	}
}

func TestResolveSettingsDefaults(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	set, err := resolveSettings(cmd, config.FileConfig{})
	if err != nil {
		t.Fatalf("resolve settings: %v", err)
	}
	if set.fps != defaultFPS || set.theme != defaultTheme || set.themeFromUser {
		t.Fatalf("unexpected defaults %+v", set)
	}
	if !set.saveOnManualEnd || set.persistNegative {
		t.Fatalf("unexpected scoring defaults %+v", set)
	}
}

func TestResolveSettingsRejectsInvalidValues(t *testing.T) {
	cases := []config.FileConfig{
		{Display: config.DisplayConfig{FPS: intPtr(500)}},
		{Display: config.DisplayConfig{Theme: strPtr("sepia")}},
		{Challenge: config.ChallengeConfig{Timeout: strPtr("soon")}},
		{Audio: config.AudioConfig{Track: strPtr("Jazz")}},
		{Log: config.LogConfig{Level: strPtr("loud")}},
	}
	for i, fileCfg := range cases {
		cmd := newRootCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatalf("parse flags: %v", err)
		}
		if _, err := resolveSettings(cmd, fileCfg); err == nil {
			t.Fatalf("case %d: expected an error", i)
		}
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "art.png")
	if err := writeFileAtomic(path, []byte("png")); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "png" {
		t.Fatalf("expected the file contents, got %q err=%v", data, err)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected no temp files left, got %d entries", len(entries))
	}
}
