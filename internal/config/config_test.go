package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	os.Clearenv()

	// Run from a directory with no config.toml
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	defer os.Chdir(oldWd) //nolint:errcheck

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.BindAddr != DefaultBindAddr {
		t.Errorf("BindAddr = %q, want %q", cfg.BindAddr, DefaultBindAddr)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.DatabasePath != "lyricfetch.db" {
		t.Errorf("DatabasePath = %q, want lyricfetch.db", cfg.DatabasePath)
	}
	if !filepath.IsAbs(cfg.CacheDir) {
		t.Errorf("CacheDir = %q, want an absolute path", cfg.CacheDir)
	}
	if !filepath.IsAbs(cfg.OutputDir) {
		t.Errorf("OutputDir = %q, want an absolute path", cfg.OutputDir)
	}
}

func TestEnvOverrides(t *testing.T) {
	os.Clearenv()

	envVars := map[string]string{
		"LYRICFETCH_BIND_ADDR":     "127.0.0.1",
		"LYRICFETCH_PORT":          "8080",
		"LYRICFETCH_DATABASE_PATH": "/tmp/test.db",
		"LYRICFETCH_CACHE_DIR":     "/tmp/cache",
		"LYRICFETCH_OUTPUT_DIR":    "/tmp/out",
		"LYRICFETCH_VERBOSITY":     "2",
	}
	for k, v := range envVars {
		os.Setenv(k, v) //nolint:errcheck // Test setup
	}
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.BindAddr != "127.0.0.1" {
		t.Errorf("BindAddr = %q, want 127.0.0.1", cfg.BindAddr)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DatabasePath != "/tmp/test.db" {
		t.Errorf("DatabasePath = %q, want /tmp/test.db", cfg.DatabasePath)
	}
	if cfg.CacheDir != "/tmp/cache" {
		t.Errorf("CacheDir = %q, want /tmp/cache", cfg.CacheDir)
	}
	if cfg.Verbosity != 2 {
		t.Errorf("Verbosity = %d, want 2", cfg.Verbosity)
	}
	if got, want := cfg.ListenAddr(), "127.0.0.1:8080"; got != want {
		t.Errorf("ListenAddr() = %q, want %q", got, want)
	}
}

func TestInvalidPortEnv(t *testing.T) {
	os.Clearenv()
	os.Setenv("LYRICFETCH_PORT", "not-a-port") //nolint:errcheck // Test setup
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() with invalid port should return an error")
	}
}

func TestConfigFile(t *testing.T) {
	os.Clearenv()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	content := `
bind_addr = "localhost"
port = 9999
database_path = "custom.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	os.Setenv("LYRICFETCH_CONFIG", configPath) //nolint:errcheck // Test setup
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.BindAddr != "localhost" {
		t.Errorf("BindAddr = %q, want localhost", cfg.BindAddr)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
	if cfg.DatabasePath != "custom.db" {
		t.Errorf("DatabasePath = %q, want custom.db", cfg.DatabasePath)
	}
}
