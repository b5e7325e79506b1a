package db

import (
	"strings"
	"testing"
)

func TestNormalizeDSN(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"url passthrough", "postgres://u:p@host:5432/storefront?sslmode=disable", "postgres://u:p@host:5432/storefront?sslmode=disable"},
		{"quoted url", `"postgresql://u:p@host/db"`, "postgresql://u:p@host/db"},
		{"kv adds sslmode", "host=localhost user=u dbname=storefront", "host=localhost user=u dbname=storefront sslmode=disable"},
		{"kv keeps sslmode", "host=localhost sslmode=require", "host=localhost sslmode=require"},
		{"kv collapses whitespace", "  host=localhost   user=u  ", "host=localhost user=u sslmode=disable"},
		{"unknown passthrough", "file:test.db", "file:test.db"},
		{"empty", "", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := NormalizeDSN(c.in); got != c.want {
				t.Fatalf("NormalizeDSN(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestConnectAndMigrateRejectsEmptyDSN(t *testing.T) {
	if _, err := ConnectAndMigrate("   "); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty-DSN error, got %v", err)
	}
}
