package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("APP_ENV", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("default port: %q", cfg.Port)
	}
	if cfg.DatabaseDSN == "" {
		t.Fatal("a bare startup must still get a usable DSN")
	}
	if cfg.Env != "development" {
		t.Fatalf("default env: %q", cfg.Env)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://u:p@dbhost:5432/shop")
	t.Setenv("PORT", "9090")

	cfg := Load()
	if cfg.DatabaseDSN != "postgres://u:p@dbhost:5432/shop" {
		t.Fatalf("dsn override: %q", cfg.DatabaseDSN)
	}
	if cfg.Port != "9090" {
		t.Fatalf("port override: %q", cfg.Port)
	}
}
