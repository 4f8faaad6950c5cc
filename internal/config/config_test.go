package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFirstRunWritesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "app")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DBPath != filepath.Join(dir, DatabaseFileName) {
		t.Errorf("db_path = %q, want default next to settings", cfg.DBPath)
	}
	if cfg.FontSize != 10 {
		t.Errorf("font_size = %d, want 10", cfg.FontSize)
	}
	if cfg.Hospital != "" || cfg.Department != "" {
		t.Errorf("hospital/department = %q/%q, want empty defaults", cfg.Hospital, cfg.Department)
	}

	if _, err := os.Stat(filepath.Join(dir, SettingsFileName)); err != nil {
		t.Fatalf("settings file not written on first run: %v", err)
	}
}

func TestLoadReadsExistingSettings(t *testing.T) {
	dir := t.TempDir()
	settings := `{"db_path": "/data/registry.sqlite", "hospital": "KCMC", "department": "Oncology", "font_size": 12}`
	if err := os.WriteFile(filepath.Join(dir, SettingsFileName), []byte(settings), 0o644); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/data/registry.sqlite" {
		t.Errorf("db_path = %q", cfg.DBPath)
	}
	if cfg.Hospital != "KCMC" || cfg.Department != "Oncology" {
		t.Errorf("hospital/department = %q/%q", cfg.Hospital, cfg.Department)
	}
	if cfg.FontSize != 12 {
		t.Errorf("font_size = %d", cfg.FontSize)
	}
}

func TestLoadRejectsMalformedSettings(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SettingsFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected an error for malformed settings")
	}
}

func TestValidateRequiresDBPath(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for empty db_path")
	}
	cfg.DBPath = "/data/registry.sqlite"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestInitialized(t *testing.T) {
	dir := t.TempDir()

	if Initialized(dir) {
		t.Fatal("fresh directory reported initialized")
	}

	// Load creates the settings file, but the database does not exist yet.
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if Initialized(dir) {
		t.Fatal("initialized without a database file")
	}

	if err := os.WriteFile(cfg.DBPath, nil, 0o644); err != nil {
		t.Fatalf("touch database: %v", err)
	}
	if !Initialized(dir) {
		t.Fatal("expected initialized once settings and database exist")
	}
}
