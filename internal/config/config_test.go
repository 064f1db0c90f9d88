package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.SessionTTL != 60*time.Minute {
		t.Errorf("Expected default session TTL 60m, got %v", cfg.SessionTTL)
	}
	if cfg.Cache.Backend != CacheBackendMemory {
		t.Errorf("Expected memory cache backend, got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.MaxEntries != 1024 {
		t.Errorf("Expected default max entries 1024, got %d", cfg.Cache.MaxEntries)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CACHE_TTL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %q", cfg.Port)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Errorf("Expected TTL 15m, got %v", cfg.SessionTTL)
	}
	if cfg.Cache.Backend != CacheBackendRedis {
		t.Errorf("Expected redis backend (case-insensitive), got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Expected cache TTL 5m, got %v", cfg.Cache.TTL)
	}
}

func TestLoadRejectsUnknownCacheBackend(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memcached")
	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown cache backend")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("CACHE_MAX_ENTRIES", "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SessionTTL != 60*time.Minute {
		t.Errorf("Expected fallback TTL, got %v", cfg.SessionTTL)
	}
	if cfg.Cache.MaxEntries != 1024 {
		t.Errorf("Expected fallback max entries, got %d", cfg.Cache.MaxEntries)
	}
}

func TestIsDevelopment(t *testing.T) {
	cases := []struct {
		frontendURL string
		want        bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"http://127.0.0.1:3000", true},
		{"https://app.example.com", false},
	}
	for _, tc := range cases {
		c := &Config{FrontendURL: tc.frontendURL}
		if got := c.IsDevelopment(); got != tc.want {
			t.Errorf("IsDevelopment(%q) = %v, want %v", tc.frontendURL, got, tc.want)
		}
	}
}
