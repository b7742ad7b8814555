// Package config loads dodepa settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MJE43/dodepa/internal/engine"
	"github.com/MJE43/dodepa/internal/games"
)

const (
	appConfigDirName = "dodepa"
	configFileName   = "config.yaml"
	dbFileName       = "dodepa.db"
	fallbackFileName = "keyring.json"
)

const (
	BackendSQLite  = "sqlite"
	BackendKeyring = "keyring"
	BackendMemory  = "memory"

	RandomMath = "math"
	RandomFair = "fair"
)

var (
	ErrUnknownBackend    = errors.New("config: unknown backend")
	ErrUnknownRandomMode = errors.New("config: unknown random mode")
)

// Random selects the engine's randomness.
type Random struct {
	Mode string `yaml:"mode"`
	// Seed seeds math mode; zero means time-seeded.
	Seed       int64  `yaml:"seed"`
	ServerSeed string `yaml:"server_seed"`
	ClientSeed string `yaml:"client_seed"`
	Nonce      uint64 `yaml:"nonce"`
}

type Config struct {
	DataDir        string      `yaml:"data_dir"`
	Backend        string      `yaml:"backend"`
	SaveKey        string      `yaml:"save_key"`
	KeyringService string      `yaml:"keyring_service"`
	LogLevel       string      `yaml:"log_level"`
	Random         Random      `yaml:"random"`
	Rules          games.Rules `yaml:"rules"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:        appDataDir(),
		Backend:        BackendSQLite,
		SaveKey:        "dodepaSave",
		KeyringService: "dodepa",
		LogLevel:       "info",
		Random:         Random{Mode: RandomMath},
		Rules:          games.DefaultRules(),
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(appDataDir(), configFileName)
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path reads DefaultPath if it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if s := os.Getenv("DODEPA_BACKEND"); s != "" {
		c.Backend = s
	}
	if s := os.Getenv("DODEPA_DATA_DIR"); s != "" {
		c.DataDir = s
	}
	if s := os.Getenv("DODEPA_SAVE_KEY"); s != "" {
		c.SaveKey = s
	}
	if s := os.Getenv("DODEPA_LOG_LEVEL"); s != "" {
		c.LogLevel = s
	}
	c.Random.Seed = envInt64("DODEPA_SEED", c.Random.Seed)
}

// Validate reports the first problem with c.
func (c Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendSQLite, BackendKeyring, BackendMemory:
	default:
		return fmt.Errorf("%w %q (want sqlite, keyring or memory)", ErrUnknownBackend, c.Backend)
	}
	switch c.Random.Mode {
	case RandomMath:
	case RandomFair:
		if c.Random.ServerSeed == "" {
			return fmt.Errorf("config: random.server_seed is required in fair mode")
		}
	default:
		return fmt.Errorf("%w %q", ErrUnknownRandomMode, c.Random.Mode)
	}
	if strings.TrimSpace(c.SaveKey) == "" {
		return fmt.Errorf("config: save_key must not be empty")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// BackendName is the normalized backend identifier.
func (c Config) BackendName() string {
	return strings.ToLower(strings.TrimSpace(c.Backend))
}

func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, dbFileName)
}

func (c Config) KeyringFallbackPath() string {
	return filepath.Join(c.DataDir, fallbackFileName)
}

// Source builds the random source the engine should use. A nil Source
// lets the engine seed itself from the clock.
func (c Config) Source() engine.Source {
	if c.Random.Mode == RandomFair {
		return engine.NewFairSource(c.Random.ServerSeed, c.Random.ClientSeed, c.Random.Nonce)
	}
	if c.Random.Seed != 0 {
		return engine.NewMathSource(c.Random.Seed)
	}
	return nil
}

// Level is the slog level named by LogLevel, info when unparsable.
func (c Config) Level() slog.Level {
	l, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("config: log_level: %w", err)
	}
	return l, nil
}

func appDataDir() string {
	if d, err := os.UserConfigDir(); err == nil && d != "" {
		return filepath.Join(d, appConfigDirName)
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, "."+appConfigDirName)
	}
	return "."
}

func envInt64(k string, def int64) int64 {
	if s := os.Getenv(k); s != "" {
		var v int64
		if _, err := fmt.Sscanf(s, "%d", &v); err == nil {
			return v
		}
	}
	return def
}
