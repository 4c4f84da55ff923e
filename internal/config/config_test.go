package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func missingFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(missingFile(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.Rules().TurnsPerRound != 6 || cfg.Rules().MaxHP != 100 {
		t.Fatalf("unexpected default rules %+v", cfg.Rules())
	}
	if got := cfg.Timing().TurnTimeout; got != 10*time.Second {
		t.Fatalf("expected 10s turn timeout, got %v", got)
	}
	if got := cfg.Timing().RoomIdleTimeout; got != 5*time.Minute {
		t.Fatalf("expected 5m room idle timeout, got %v", got)
	}
	if cfg.DBDriver != "" || cfg.ReadyGate {
		t.Fatalf("storage and ready gate should be off by default: %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DUEL_TURNS_PER_ROUND", "3")
	t.Setenv("DUEL_TURN_TIMEOUT", "250ms")
	t.Setenv("DUEL_READY_GATE", "true")

	cfg, err := Load(missingFile(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TurnsPerRound != 3 || cfg.TurnTimeout != 250*time.Millisecond || !cfg.ReadyGate {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	// register cleanup for keys the file will set, then clear them
	for _, k := range []string{"DUEL_MAX_HP", "DUEL_ADDR"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("DUEL_ADDR", ":9999") // process env wins over the file

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DUEL_MAX_HP=42\nDUEL_ADDR=:1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxHP != 42 {
		t.Fatalf("expected MaxHP from file, got %d", cfg.MaxHP)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("expected env to override file, got %q", cfg.Addr)
	}
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("DUEL_MAX_HP", "not-an-int")

	_, err := Load(missingFile(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"zero turns", map[string]string{"DUEL_TURNS_PER_ROUND": "0"}},
		{"negative hp", map[string]string{"DUEL_MAX_HP": "-1"}},
		{"zero grace", map[string]string{"DUEL_GRACE_PERIOD": "0s"}},
		{"negative idle timeout", map[string]string{"DUEL_ROOM_IDLE_TIMEOUT": "-1s"}},
		{"driver without dsn", map[string]string{"DUEL_DB_DRIVER": "sqlite"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(missingFile(t))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}
