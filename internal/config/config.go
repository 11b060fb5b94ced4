package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort string `env:"PORT" envDefault:"8080"`

	// DatabaseType is one of sqlite, sqlite-pure, postgres or mysql
	DatabaseType string `env:"DATABASE_TYPE" envDefault:"sqlite"`
	DatabasePath string `env:"DB_PATH" envDefault:"./goalbingo.db"`
	DatabaseURL  string `env:"DATABASE_URL"`

	JWTSecret       string        `env:"JWT_SECRET"`
	CSRFSecret      string        `env:"CSRF_SECRET"`
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"168h"`

	// GameStateStore selects where game state snapshots live: sql, memory or file
	GameStateStore string `env:"GAME_STATE_STORE" envDefault:"sql"`
	LocalStateDir  string `env:"LOCAL_STATE_DIR" envDefault:"./data/state"`

	AWSRegion     string `env:"AWS_REGION" envDefault:"us-east-1"`
	SESFromEmail  string `env:"SES_FROM_EMAIL"`
	SESFromName   string `env:"SES_FROM_NAME" envDefault:"Goal Bingo"`
	AppBaseURL    string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	SeedBadWords  bool   `env:"SEED_BAD_WORDS" envDefault:"false"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`

	BattleSweepInterval time.Duration `env:"BATTLE_SWEEP_INTERVAL" envDefault:"5m"`
}

// Load reads a .env file when present, then environment variables with defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseType {
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for DATABASE_TYPE=%s", c.DatabaseType)
		}
	}
	switch c.GameStateStore {
	case "sql", "memory", "file":
	default:
		return fmt.Errorf("unsupported GAME_STATE_STORE: %s", c.GameStateStore)
	}
	if c.SessionDuration <= 0 {
		return errors.New("SESSION_DURATION must be positive")
	}
	if c.BattleSweepInterval <= 0 {
		return errors.New("BATTLE_SWEEP_INTERVAL must be positive")
	}
	return nil
}
