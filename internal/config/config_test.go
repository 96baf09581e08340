package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.DatabaseDriver != "sqlite" {
		t.Errorf("DatabaseDriver = %q, want sqlite", cfg.DatabaseDriver)
	}
	if cfg.WatchInterval != 10*time.Second {
		t.Errorf("WatchInterval = %s, want 10s", cfg.WatchInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("explicit path that does not exist should error")
	}
	_ = cfg

	// no explicit path: fall back to defaults
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lottery.yaml")
	content := `database_driver: postgres
database_dsn: postgres://localhost/lottery
log_level: debug
log_format: json
watch_interval: 3s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DatabaseDriver != "postgres" || cfg.DatabaseDSN != "postgres://localhost/lottery" {
		t.Errorf("database: %+v", cfg)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("logging: %+v", cfg)
	}
	if cfg.WatchInterval != 3*time.Second {
		t.Errorf("WatchInterval = %s, want 3s", cfg.WatchInterval)
	}
	// unset keys keep their defaults
	if cfg.ConfigDir != Default().ConfigDir {
		t.Errorf("ConfigDir = %q", cfg.ConfigDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"defaults", func(*AppConfig) {}, false},
		{"postgres", func(c *AppConfig) { c.DatabaseDriver = "postgres" }, false},
		{"bad driver", func(c *AppConfig) { c.DatabaseDriver = "oracle" }, true},
		{"bad format", func(c *AppConfig) { c.LogFormat = "xml" }, true},
		{"zero interval", func(c *AppConfig) { c.WatchInterval = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() should return error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() returned unexpected error: %v", err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	if lvl := NewLogger("debug", "json").GetLevel(); lvl != zerolog.DebugLevel {
		t.Errorf("level = %s, want debug", lvl)
	}
	if lvl := NewLogger("nonsense", "console").GetLevel(); lvl != zerolog.InfoLevel {
		t.Errorf("unknown level should fall back to info, got %s", lvl)
	}
}

func TestFileWatcher(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "rollout.yaml")
	if err := os.WriteFile(file, []byte("features: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 8)
	w := NewFileWatcher([]string{file, dir}, 5*time.Millisecond, func(p string) {
		changed <- p
	}, zerolog.Nop())
	w.Start()
	defer w.Stop()

	// keep bumping the mtime until the watcher reports it; a single bump can
	// race the priming scan
	bump := time.NewTicker(50 * time.Millisecond)
	defer bump.Stop()
	deadline := time.After(2 * time.Second)
	future := time.Now()
	for {
		select {
		case p := <-changed:
			if p != file {
				t.Fatalf("changed path = %q, want %q", p, file)
			}
			return
		case <-bump.C:
			future = future.Add(time.Hour)
			if err := os.Chtimes(file, future, future); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("watcher did not report the change")
		}
	}
}

func TestFileWatcherSeesNewFiles(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan string, 8)
	w := NewFileWatcher([]string{dir}, 5*time.Millisecond, func(p string) {
		changed <- p
	}, zerolog.Nop())
	w.Start()
	defer w.Stop()

	newFile := filepath.Join(dir, "camp-42.yaml")
	if err := os.WriteFile(newFile, []byte("campaign:\n  id: camp-42\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	bump := time.NewTicker(50 * time.Millisecond)
	defer bump.Stop()
	deadline := time.After(2 * time.Second)
	future := time.Now()
	for {
		select {
		case p := <-changed:
			if p != newFile {
				t.Fatalf("changed path = %q, want %q", p, newFile)
			}
			return
		case <-bump.C:
			future = future.Add(time.Hour)
			if err := os.Chtimes(newFile, future, future); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("watcher did not notice the new file")
		}
	}
}
