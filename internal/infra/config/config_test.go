package config

import (
	"runtime"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("JWT_ACCESS_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AccessTokenTTL != 5*time.Minute {
		t.Fatalf("AccessTokenTTL want 5m, got %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 168*time.Hour {
		t.Fatalf("RefreshTokenTTL want 168h, got %v", cfg.RefreshTokenTTL)
	}
	if cfg.HashWorkers != runtime.NumCPU() || cfg.HashQueueSize != 64 {
		t.Fatalf("unexpected pool size %d/%d", cfg.HashWorkers, cfg.HashQueueSize)
	}
	if cfg.RefreshStore != RefreshStorePostgres {
		t.Fatalf("RefreshStore want postgres, got %q", cfg.RefreshStore)
	}
	if cfg.HTTPAddress != ":8080" || cfg.GRPCAddress != ":50051" {
		t.Fatalf("unexpected addresses %q %q", cfg.HTTPAddress, cfg.GRPCAddress)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL", "2m")
	t.Setenv("REFRESH_TOKEN_TTL", "3h")
	t.Setenv("HASH_WORKERS", "3")
	t.Setenv("REFRESH_STORE", "redis")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("PASSWORD_PEPPER", "pepper")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("ALLOW_CREDENTIALS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AccessTokenTTL != 2*time.Minute || cfg.RefreshTokenTTL != 3*time.Hour {
		t.Fatalf("unexpected ttls %v %v", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if cfg.HashWorkers != 3 || cfg.RedisDB != 2 || cfg.PasswordPepper != "pepper" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://admin.example.com" {
		t.Fatalf("unexpected origins %q", cfg.AllowedOrigins)
	}
	if !cfg.AllowCredentials {
		t.Fatal("AllowCredentials want true")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, missing := range []string{"DATABASE_URL", "JWT_ACCESS_SECRET", "JWT_REFRESH_SECRET"} {
		t.Run(missing, func(t *testing.T) {
			setRequired(t)
			t.Setenv(missing, "")

			if _, err := Load(); err == nil {
				t.Fatalf("expected error due to missing %s, got nil", missing)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"same secrets":       {"JWT_REFRESH_SECRET", "access"},
		"unknown store":      {"REFRESH_STORE", "memcached"},
		"redis without addr": {"REFRESH_STORE", "redis"},
		"zero workers":       {"HASH_WORKERS", "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(kv[0], kv[1])

			if _, err := Load(); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}
