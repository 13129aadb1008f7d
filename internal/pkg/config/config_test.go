package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const strongSecret = "0123456789abcdef0123456789abcdef"

func TestFromLookuper_Defaults(t *testing.T) {
	cfg, err := FromLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "dev",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.Env != "development" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Session.TTL != 24*time.Hour || cfg.Session.CookieName != "token" || cfg.Session.SameSite != "strict" {
		t.Fatalf("unexpected session defaults: %+v", cfg.Session)
	}
	if cfg.Session.Revocation {
		t.Fatalf("revocation must be off by default")
	}
	if cfg.BcryptCost != 10 || cfg.AuditWorkers != 4 {
		t.Fatalf("unexpected defaults: cost=%d workers=%d", cfg.BcryptCost, cfg.AuditWorkers)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if !cfg.IsLocal() {
		t.Fatalf("development must count as local")
	}
}

func TestFromLookuper_Overrides(t *testing.T) {
	cfg, err := FromLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":                  "production",
		"JWT_SECRET":           strongSecret,
		"SESSION_TTL":          "2h",
		"SESSION_SAMESITE":     "lax",
		"SESSION_REVOCATION":   "true",
		"CORS_ALLOWED_ORIGINS": "https://app.example.com,https://admin.example.com",
		"REDIS_ADDR":           "redis:6379",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.IsLocal() {
		t.Fatalf("production must not count as local")
	}
	if cfg.Session.TTL != 2*time.Hour || !cfg.Session.Revocation || cfg.Session.SameSite != "lax" {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Fatalf("unexpected redis addr %q", cfg.Redis.Addr)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET is required"},
		{"weak secret in production", map[string]string{"ENV": "production", "JWT_SECRET": "short"}, "at least 32 bytes"},
		{"bad samesite", map[string]string{"JWT_SECRET": "dev", "SESSION_SAMESITE": "none"}, "SESSION_SAMESITE"},
		{"zero ttl", map[string]string{"JWT_SECRET": "dev", "SESSION_TTL": "0s"}, "SESSION_TTL"},
	}
	for _, tc := range cases {
		_, err := FromLookuper(context.Background(), envconfig.MapLookuper(tc.env))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}
