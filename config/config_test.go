package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestLoadServiceConfigDefaults(t *testing.T) {
	cfg, err := LoadServiceConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GRPCPort != "50070" || cfg.HTTPPort != "8080" {
		t.Fatalf("unexpected ports: %s %s", cfg.GRPCPort, cfg.HTTPPort)
	}
	if cfg.CloudinaryUploadPreset != "My smallest server" {
		t.Fatalf("unexpected preset: %q", cfg.CloudinaryUploadPreset)
	}
	if cfg.PresenceHeartbeatTTL != 45*time.Second {
		t.Fatalf("unexpected heartbeat ttl: %v", cfg.PresenceHeartbeatTTL)
	}
}

func TestLoadServiceConfigRejectsUnknownBackends(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DOCUMENT_STORE", "mongo"},
		{"REALTIME_STORE", "etcd"},
		{"MEDIA_HOST", "s3"},
		{"DOCUMENT_STORE", "firestore"},
		{"PRESENCE_SWEEP_INTERVAL", "1m"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadServiceConfig(); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestEnvHelpersFallBack(t *testing.T) {
	t.Setenv("ALIGHTGRAM_TEST_INT", "nope")
	t.Setenv("ALIGHTGRAM_TEST_BOOL", "false")

	if got := getEnvAsInt("ALIGHTGRAM_TEST_INT", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
	if got := getEnvAsBool("ALIGHTGRAM_TEST_BOOL", true); got {
		t.Fatalf("expected false")
	}
	if got := getEnvAsDuration("ALIGHTGRAM_TEST_MISSING", time.Second); got != time.Second {
		t.Fatalf("expected fallback duration, got %v", got)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	if lvl := NewLogger("debug", "text").GetLevel(); lvl != logrus.DebugLevel {
		t.Fatalf("expected debug, got %v", lvl)
	}
	if lvl := NewLogger("loud", "json").GetLevel(); lvl != logrus.InfoLevel {
		t.Fatalf("expected info fallback, got %v", lvl)
	}
}
