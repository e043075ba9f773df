package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("log_level = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.PollInterval() != 50*time.Millisecond {
		t.Errorf("poll interval = %v, want 50ms", cfg.PollInterval())
	}
	if cfg.ReadLength != DefaultReadLength {
		t.Errorf("read_length = %d, want %d", cfg.ReadLength, DefaultReadLength)
	}
	if !cfg.TrimNewlines() {
		t.Error("expected trailing newlines to be trimmed by default")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeFile(t, filepath.Join(xdg, "extproc", "config.toml"), `
log_level = "debug"
keep_trailing_newlines = true
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("level = %v, want debug", cfg.Level())
	}
	if cfg.TrimNewlines() {
		t.Error("expected keep_trailing_newlines to disable trimming")
	}
	if cfg.PollIntervalMs != DefaultPollIntervalMs {
		t.Errorf("poll_interval_ms = %d, want default %d", cfg.PollIntervalMs, DefaultPollIntervalMs)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad toml", content: `log_level = `},
		{name: "unknown level", content: `log_level = "loud"`},
		{name: "negative poll interval", content: `poll_interval_ms = -1`},
		{name: "negative read length", content: `read_length = -5`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xdg := t.TempDir()
			t.Setenv("XDG_CONFIG_HOME", xdg)
			writeFile(t, filepath.Join(xdg, "extproc", "config.toml"), tt.content)

			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	keep := true
	cfg := &Config{
		LogLevel:             "info",
		PollIntervalMs:       10,
		ReadLength:           1024,
		KeepTrailingNewlines: &keep,
	}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.LogLevel != "info" {
		t.Errorf("log_level = %q, want info", loaded.LogLevel)
	}
	if loaded.PollInterval() != 10*time.Millisecond {
		t.Errorf("poll interval = %v, want 10ms", loaded.PollInterval())
	}
	if loaded.ReadLength != 1024 {
		t.Errorf("read_length = %d, want 1024", loaded.ReadLength)
	}
	if loaded.TrimNewlines() {
		t.Error("expected keep_trailing_newlines to round-trip")
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{level: "debug", want: slog.LevelDebug},
		{level: "INFO", want: slog.LevelInfo},
		{level: "warn", want: slog.LevelWarn},
		{level: "error", want: slog.LevelError},
		{level: "", want: slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.level}
			if got := cfg.Level(); got != tt.want {
				t.Errorf("Level() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadWithProject(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeFile(t, filepath.Join(xdg, "extproc", "config.toml"), `
log_level = "info"
read_length = 2048
`)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".extproc", "config.toml"), `
log_level = "debug"
keep_trailing_newlines = true
`)

	cfg, err := LoadWithProject(root)
	if err != nil {
		t.Fatalf("LoadWithProject: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q, want project value debug", cfg.LogLevel)
	}
	if cfg.ReadLength != 2048 {
		t.Errorf("read_length = %d, want global value 2048", cfg.ReadLength)
	}
	if cfg.TrimNewlines() {
		t.Error("expected project keep_trailing_newlines to apply")
	}
}

func TestLoadWithProject_NoProjectConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadWithProject(t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithProject: %v", err)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("log_level = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".extproc"), 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(nested, "script.sh")
	writeFile(t, file, "#!/bin/sh\n")

	for _, start := range []string{nested, file} {
		got, err := FindProjectRoot(start)
		if err != nil {
			t.Fatalf("FindProjectRoot(%s): %v", start, err)
		}
		if got != root {
			t.Errorf("FindProjectRoot(%s) = %q, want %q", start, got, root)
		}
	}
}

func TestProjectConfigPath(t *testing.T) {
	root := t.TempDir()
	if got := ProjectConfigPath(root); got != "" {
		t.Errorf("expected no project config, got %q", got)
	}

	path := filepath.Join(root, ".extproc", "config.toml")
	writeFile(t, path, "")
	if got := ProjectConfigPath(root); got != path {
		t.Errorf("ProjectConfigPath = %q, want %q", got, path)
	}
}
