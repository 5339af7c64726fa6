package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DatabasePath != "progrid.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "progrid.db")
	}
	if len(cfg.AdminIDs) != 0 {
		t.Errorf("AdminIDs = %v, want empty", cfg.AdminIDs)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DATABASE_PATH", "/tmp/grid.db")
	t.Setenv("ADMIN_IDS", "ops-1,ops-2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
	if cfg.DatabasePath != "/tmp/grid.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "/tmp/grid.db")
	}
	if len(cfg.AdminIDs) != 2 || cfg.AdminIDs[0] != "ops-1" || cfg.AdminIDs[1] != "ops-2" {
		t.Errorf("AdminIDs = %v, want [ops-1 ops-2]", cfg.AdminIDs)
	}
}

func TestLoad_Error(t *testing.T) {
	t.Setenv("PORT", "not-an-int")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
