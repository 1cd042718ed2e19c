package config

import (
	"testing"
	"time"

	"github.com/antonio59/standard-notes-kanban/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.Transport != TransportSSE {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.FallbackTimeout != time.Second {
		t.Fatalf("expected 1s fallback, got %v", cfg.FallbackTimeout)
	}
	if cfg.Policy != domain.MembershipDuplicate {
		t.Fatalf("expected duplicate policy, got %q", cfg.Policy)
	}
	if len(cfg.AllowOrigins) != 1 || cfg.AllowOrigins[0] != "*" {
		t.Fatalf("unexpected origins %v", cfg.AllowOrigins)
	}
}

func TestLoadRedisTransport(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"TRANSPORT":               "redis",
		"REDIS_CONNECTION_STRING": "localhost:6379",
		"MEMBERSHIP_POLICY":       "first",
		"FALLBACK_TIMEOUT":        "250ms",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Policy != domain.MembershipFirst || cfg.FallbackTimeout != 250*time.Millisecond {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{name: "redis without connection", vars: map[string]string{"TRANSPORT": "redis"}},
		{name: "queue without storage", vars: map[string]string{"TRANSPORT": "azqueue"}},
		{name: "unknown transport", vars: map[string]string{"TRANSPORT": "carrier-pigeon"}},
		{name: "unknown policy", vars: map[string]string{"MEMBERSHIP_POLICY": "random"}},
		{name: "zero fallback", vars: map[string]string{"FALLBACK_TIMEOUT": "0s"}},
		{name: "bad duration", vars: map[string]string{"FALLBACK_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFrom(tt.vars); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
