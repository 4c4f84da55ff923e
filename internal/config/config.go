package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/DoyleJ11/dice-duel-backend/internal/engine"
	"github.com/DoyleJ11/dice-duel-backend/internal/match"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Addr     string `env:"DUEL_ADDR" envDefault:":8080"`
	LogLevel string `env:"DUEL_LOG_LEVEL" envDefault:"info"`

	// Empty driver disables round history.
	DBDriver string `env:"DUEL_DB_DRIVER"`
	DBDSN    string `env:"DUEL_DB_DSN"`

	TurnsPerRound int `env:"DUEL_TURNS_PER_ROUND" envDefault:"6"`
	MaxHP         int `env:"DUEL_MAX_HP" envDefault:"100"`

	PrepareDelay      time.Duration `env:"DUEL_PREPARE_DELAY" envDefault:"1500ms"`
	TurnTimeout       time.Duration `env:"DUEL_TURN_TIMEOUT" envDefault:"10s"`
	AnimTimeout       time.Duration `env:"DUEL_ANIM_TIMEOUT" envDefault:"15s"`
	RoundRestartDelay time.Duration `env:"DUEL_ROUND_RESTART_DELAY" envDefault:"12s"`
	GracePeriod       time.Duration `env:"DUEL_GRACE_PERIOD" envDefault:"30s"`
	RoomIdleTimeout   time.Duration `env:"DUEL_ROOM_IDLE_TIMEOUT" envDefault:"5m"`

	ReadyGate bool `env:"DUEL_READY_GATE" envDefault:"false"`
}

// Load reads an optional .env file in the working directory, then the
// process environment. Variables already set win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.TurnsPerRound <= 0:
		return fmt.Errorf("%w: DUEL_TURNS_PER_ROUND must be positive", ErrInvalid)
	case c.MaxHP <= 0:
		return fmt.Errorf("%w: DUEL_MAX_HP must be positive", ErrInvalid)
	case c.PrepareDelay < 0, c.TurnTimeout <= 0, c.AnimTimeout <= 0,
		c.RoundRestartDelay <= 0, c.GracePeriod <= 0:
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalid)
	case c.RoomIdleTimeout < 0:
		return fmt.Errorf("%w: DUEL_ROOM_IDLE_TIMEOUT must not be negative", ErrInvalid)
	case c.DBDriver != "" && c.DBDSN == "":
		return fmt.Errorf("%w: DUEL_DB_DSN is required with DUEL_DB_DRIVER", ErrInvalid)
	}
	return nil
}

func (c Config) Rules() engine.Rules {
	return engine.Rules{TurnsPerRound: c.TurnsPerRound, MaxHP: c.MaxHP}
}

func (c Config) Timing() match.Timing {
	return match.Timing{
		PrepareDelay:      c.PrepareDelay,
		TurnTimeout:       c.TurnTimeout,
		AnimTimeout:       c.AnimTimeout,
		RoundRestartDelay: c.RoundRestartDelay,
		GracePeriod:       c.GracePeriod,
		RoomIdleTimeout:   c.RoomIdleTimeout,
	}
}
