package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaultsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "storage:\n  backend: sqlite\n  sqlitePath: /tmp/quiz.db\nquestions:\n  source: de\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUIZ_STORAGE_QUOTA_BYTES", "4096")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Backend != BackendSQLite || cfg.Storage.SQLitePath != "/tmp/quiz.db" {
		t.Fatalf("expected sqlite storage from file, got %+v", cfg.Storage)
	}
	if cfg.Questions.Source != "de" || cfg.Questions.Dir != "questions" {
		t.Fatalf("expected file source with default dir, got %+v", cfg.Questions)
	}
	if cfg.Storage.QuotaBytes != 4096 {
		t.Fatalf("expected env quota override, got %d", cfg.Storage.QuotaBytes)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Server.Port)
	}
}

func TestLoadRejectsRedisWithoutAddr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  backend: redis\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for redis backend without addr")
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad input, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}
