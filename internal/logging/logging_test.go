package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	if err != nil || level != zerolog.InfoLevel {
		t.Fatalf("expected info default, got %v %v", level, err)
	}
	level, err = ParseLevel("WARN")
	if err != nil || level != zerolog.WarnLevel {
		t.Fatalf("expected warn, got %v %v", level, err)
	}
	level, err = ParseLevel("off")
	if err != nil || level != zerolog.Disabled {
		t.Fatalf("expected disabled, got %v %v", level, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.WarnLevel)
	log.Info().Msg("hidden")
	log.Warn().Str("game", "calm-orbs").Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info to be filtered: %s", out)
	}
	if !strings.Contains(out, `"game":"calm-orbs"`) || !strings.Contains(out, `"time"`) {
		t.Fatalf("expected structured warn line with timestamp: %s", out)
	}
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "dopamind.log")
	log, closer, err := OpenFile(path, zerolog.InfoLevel)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	log.Info().Msg("first")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "first") {
		t.Fatalf("expected log line in file, got %q", data)
	}
}
