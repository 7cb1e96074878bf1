package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
server:
  port: 9090
map:
  path: maps/meadow.yaml
  watch: true
search:
  max_expansions: 500
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Addr() != ":9090" {
		t.Fatalf("expected port 9090, got %d (%s)", cfg.Server.Port, cfg.Addr())
	}
	if cfg.Server.TickRate != 20 || cfg.Agent.Speed != 2 {
		t.Fatalf("expected default tick rate and speed, got %d / %v", cfg.Server.TickRate, cfg.Agent.Speed)
	}
	if cfg.Map.Path != "maps/meadow.yaml" || !cfg.Map.Watch {
		t.Fatalf("map section not read: %+v", cfg.Map)
	}
	if cfg.Search.MaxExpansions != 500 {
		t.Fatalf("expected max_expansions 500, got %d", cfg.Search.MaxExpansions)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("expected default log settings, got %+v", cfg.Log)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	bad := writeFile(t, dir, "bad.yaml", "server: [not, a, map")
	if _, err := LoadConfig(bad); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Fatalf("expected parse error, got %v", err)
	}

	negative := writeFile(t, dir, "negative.yaml", "search:\n  max_expansions: -1\n")
	if _, err := LoadConfig(negative); err == nil {
		t.Fatalf("expected error for negative max_expansions")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Addr() != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.Addr())
	}
	if cfg.Map.Path != "" {
		t.Fatalf("default config must use the built-in map")
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "debug", Format: "json"}.NewLogger(&buf)
	logger.Debug("hello", "agent", "a1")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a JSON log line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "hello" || line["agent"] != "a1" {
		t.Fatalf("unexpected log line %v", line)
	}

	buf.Reset()
	logger = LogConfig{Level: "warn", Format: "text"}.NewLogger(&buf)
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at warn level, got %q", buf.String())
	}
	logger.Warn("kept")
	if !strings.Contains(buf.String(), "msg=kept") {
		t.Fatalf("expected text line, got %q", buf.String())
	}
}
