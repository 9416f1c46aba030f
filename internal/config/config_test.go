package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docpress/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsForMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Worker.Script != "main.py" {
		t.Fatalf("default worker script = %q", cfg.Worker.Script)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("default logging = %+v", cfg.Logging)
	}
	if !filepath.IsAbs(cfg.Paths.WorkerDir) {
		t.Fatalf("worker dir not absolute: %q", cfg.Paths.WorkerDir)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
[paths]
worker_dir = "`+dir+`/worker"
output_dir = "`+dir+`/out"
log_dir = "`+dir+`/logs"

[worker]
script = "  convert.py  "

[logging]
format = "JSON"
level = "Debug"
`)

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Worker.Script != "convert.py" {
		t.Fatalf("script not trimmed: %q", cfg.Worker.Script)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not lowercased: %+v", cfg.Logging)
	}
}

func TestLoadRejectsBadLoggingValues(t *testing.T) {
	path := writeConfig(t, `
[logging]
format = "yaml"
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unsupported log format")
	}

	path = writeConfig(t, `
[logging]
level = "verbose"
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unsupported log level")
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := config.ExpandPath("~/docs")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "docs") {
		t.Fatalf("ExpandPath = %q", got)
	}
}

func TestEnsureDirectoriesCreatesLogDir(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.OutputDir = filepath.Join(dir, "out")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.LogDir); err != nil {
		t.Fatalf("log dir missing: %v", err)
	}
}

func TestSampleConfigParses(t *testing.T) {
	sample := config.SampleConfig()
	if !strings.Contains(sample, "[worker]") {
		t.Fatal("sample config missing worker section")
	}
	path := writeConfig(t, sample)
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestSocketPathUnderLogDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = "/var/log/docpress"
	if got := cfg.SocketPath(); got != filepath.Join("/var/log/docpress", "docpressd.sock") {
		t.Fatalf("SocketPath = %q", got)
	}
}
