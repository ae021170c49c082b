// Package config loads server configuration from a TOML file with
// GACHA_BATTLE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GACHA_BATTLE_"

// Config represents the server configuration.
type Config struct {
	HTTP      HTTPConfig      `toml:"http"`
	GRPC      GRPCConfig      `toml:"grpc"`
	Data      DataConfig      `toml:"data"`
	Store     StoreConfig     `toml:"store"`
	Gacha     GachaConfig     `toml:"gacha"`
	Arena     ArenaConfig     `toml:"arena"`
	Log       LogConfig       `toml:"log"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

type HTTPConfig struct {
	Addr string `toml:"addr" env:"HTTP_ADDR"` // empty disables the listener
}

type GRPCConfig struct {
	Addr string `toml:"addr" env:"GRPC_ADDR"` // empty disables the listener
}

// DataConfig locates YAML game data.
type DataConfig struct {
	Dir    string `toml:"dir" env:"DATA_DIR"`
	Banner string `toml:"banner" env:"BANNER"` // empty serves gacha/default.yaml alone
	Watch  bool   `toml:"watch" env:"DATA_WATCH"`
}

type StoreConfig struct {
	Driver string `toml:"driver" env:"STORE_DRIVER"` // sqlite | memory
	Path   string `toml:"path" env:"STORE_PATH"`
}

type GachaConfig struct {
	StartingTickets int     `toml:"starting_tickets" env:"STARTING_TICKETS"`
	PullsPerSecond  float64 `toml:"pulls_per_second" env:"PULLS_PER_SECOND"` // per user; 0 = unlimited
	PullBurst       int     `toml:"pull_burst" env:"PULL_BURST"`
	Seed            uint64  `toml:"seed" env:"SEED"` // 0 = crypto source
}

type ArenaConfig struct {
	BotDelay    string `toml:"bot_delay" env:"BOT_DELAY"`
	SessionTTL  string `toml:"session_ttl" env:"SESSION_TTL"`
	MaxSessions int    `toml:"max_sessions" env:"MAX_SESSIONS"`
}

type LogConfig struct {
	Level  string `toml:"level" env:"LOG_LEVEL"`   // debug | info | warn | error
	Format string `toml:"format" env:"LOG_FORMAT"` // json | text
}

type TelemetryConfig struct {
	Endpoint    string `toml:"endpoint" env:"OTEL_ENDPOINT"` // empty disables tracing
	ServiceName string `toml:"service_name" env:"SERVICE_NAME"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{Addr: ":8080"},
		GRPC: GRPCConfig{Addr: ":9090"},
		Data: DataConfig{Dir: "configs/data", Watch: true},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "data/gacha-battle.db",
		},
		Gacha: GachaConfig{
			StartingTickets: 20,
			PullsPerSecond:  5,
			PullBurst:       10,
		},
		Arena: ArenaConfig{
			BotDelay:    "0s",
			SessionTTL:  "30m",
			MaxSessions: 1000,
		},
		Log:       LogConfig{Level: "info", Format: "json"},
		Telemetry: TelemetryConfig{ServiceName: "gacha-battle"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []string
	if c.Data.Dir == "" {
		errs = append(errs, "data.dir is required")
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required for the sqlite driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or memory, got %q", c.Store.Driver))
	}
	if c.Gacha.StartingTickets < 0 {
		errs = append(errs, "gacha.starting_tickets must be >= 0")
	}
	if c.Gacha.PullsPerSecond < 0 {
		errs = append(errs, "gacha.pulls_per_second must be >= 0")
	}
	if c.Gacha.PullsPerSecond > 0 && c.Gacha.PullBurst < 1 {
		errs = append(errs, "gacha.pull_burst must be >= 1 when rate limiting")
	}
	for name, v := range map[string]string{"arena.bot_delay": c.Arena.BotDelay, "arena.session_ttl": c.Arena.SessionTTL} {
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s %q", name, v))
		}
	}
	if c.Arena.MaxSessions < 0 {
		errs = append(errs, "arena.max_sessions must be >= 0")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}
	if c.HTTP.Addr == "" && c.GRPC.Addr == "" {
		errs = append(errs, "at least one of http.addr, grpc.addr must be set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// BotDelayDuration is the pause before a bot acts. Call after Validate.
func (a ArenaConfig) BotDelayDuration() time.Duration {
	d, _ := time.ParseDuration(a.BotDelay)
	return d
}

// SessionTTLDuration is how long an idle battle is kept. Call after Validate.
func (a ArenaConfig) SessionTTLDuration() time.Duration {
	d, _ := time.ParseDuration(a.SessionTTL)
	return d
}

// NewLogger builds the process logger described by c.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level must be debug, info, warn or error, got %q", s)
	}
	return l, nil
}
