package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "DB_MAX_CONNS", "SHUTDOWN_TIMEOUT_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected default addr: %q", cfg.HTTPAddr)
	}
	if cfg.DBMaxConns != 8 {
		t.Fatalf("unexpected default pool size: %d", cfg.DBMaxConns)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected default shutdown timeout: %v", cfg.ShutdownTimeout)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_MAX_CONNS", "32")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "5")

	cfg := FromEnv()
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("unexpected addr: %q", cfg.HTTPAddr)
	}
	if cfg.DBMaxConns != 32 {
		t.Fatalf("unexpected pool size: %d", cfg.DBMaxConns)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("unexpected shutdown timeout: %v", cfg.ShutdownTimeout)
	}
}

func TestFromEnvRejectsBadPoolSize(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	if cfg := FromEnv(); cfg.DBMaxConns != 8 {
		t.Fatalf("expected default on unparseable value, got %d", cfg.DBMaxConns)
	}
	t.Setenv("DB_MAX_CONNS", "-3")
	if cfg := FromEnv(); cfg.DBMaxConns != 8 {
		t.Fatalf("expected default on non-positive value, got %d", cfg.DBMaxConns)
	}
}
