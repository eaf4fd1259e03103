package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfig []byte

// Config holds every tunable of the server
type Config struct {
	Addr      string `yaml:"addr"`
	PublicURL string `yaml:"public_url"`
	DBPath    string `yaml:"db_path"`
	// browser clients are usually served from another port than the socket
	AllowAnyOrigin bool `yaml:"allow_any_origin"`

	Limits LimitsConfig `yaml:"limits"`
	World  WorldConfig  `yaml:"world"`
	Move   MovePolicy   `yaml:"move"`
	Timers TimersConfig `yaml:"timers"`
	Admin  AdminConfig  `yaml:"admin"`
}

// LimitsConfig caps occupancy of the shared world
type LimitsConfig struct {
	MaxPlayers    int     `yaml:"max_players"`
	MaxConnsPerIP int     `yaml:"max_conns_per_ip"`
	MaxTotalConns int     `yaml:"max_total_conns"`
	UpgradeRate   float64 `yaml:"upgrade_rate"`  // websocket upgrades per second per IP
	UpgradeBurst  int     `yaml:"upgrade_burst"`
}

// WorldConfig describes the playable volume and hitboxes
type WorldConfig struct {
	Bound             float64 `yaml:"bound"`
	HitRadius         float64 `yaml:"hit_radius"`
	OriginToleranceSq float64 `yaml:"origin_tolerance_sq"`
	SpawnHalfWidth    float64 `yaml:"spawn_half_width"`
	SpawnMinY         float64 `yaml:"spawn_min_y"`
	SpawnMaxY         float64 `yaml:"spawn_max_y"`
}

// MovePolicy bounds how far a ship may travel between two accepted updates.
type MovePolicy struct {
	TickDistanceSq float64       `yaml:"tick_distance_sq"`
	BaseInterval   time.Duration `yaml:"base_interval"`
	Margin         float64       `yaml:"margin"`
	Exponent       float64       `yaml:"displacement_exponent"`
}

// TimersConfig holds periodic task and heartbeat intervals
type TimersConfig struct {
	LedgerReset  time.Duration `yaml:"ledger_reset"`
	TimeSync     time.Duration `yaml:"time_sync"`
	PingInterval time.Duration `yaml:"ping_interval"`
	PongTimeout  time.Duration `yaml:"pong_timeout"`
}

// AdminConfig gates the HTTP admin endpoints. An empty password hash
// disables them.
type AdminConfig struct {
	PasswordHash string        `yaml:"password_hash"`
	TokenSecret  string        `yaml:"token_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// LoadConfig parses the embedded defaults and layers each file in paths on top.
func LoadConfig(paths ...string) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(DefaultConfig, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid default config: %w", err)
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("could not read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations the server cannot run with
func (c Config) Validate() error {
	var errs []error
	if c.Limits.MaxPlayers <= 0 {
		errs = append(errs, errors.New("limits.max_players must be positive"))
	}
	if c.Limits.MaxConnsPerIP <= 0 {
		errs = append(errs, errors.New("limits.max_conns_per_ip must be positive"))
	}
	if c.Limits.MaxTotalConns <= 0 {
		errs = append(errs, errors.New("limits.max_total_conns must be positive"))
	}
	if c.World.Bound <= 0 || c.World.HitRadius <= 0 {
		errs = append(errs, errors.New("world.bound and world.hit_radius must be positive"))
	}
	if c.World.SpawnMaxY < c.World.SpawnMinY {
		errs = append(errs, errors.New("world.spawn_max_y must not be below spawn_min_y"))
	}
	if c.Move.BaseInterval <= 0 || c.Move.TickDistanceSq <= 0 {
		errs = append(errs, errors.New("move.base_interval and move.tick_distance_sq must be positive"))
	}
	if c.Move.Margin < 1 {
		errs = append(errs, errors.New("move.margin must be at least 1"))
	}
	if c.Timers.PingInterval <= 0 || c.Timers.PongTimeout <= c.Timers.PingInterval {
		errs = append(errs, errors.New("timers.pong_timeout must exceed a positive ping_interval"))
	}
	if c.Timers.LedgerReset <= 0 || c.Timers.TimeSync <= 0 {
		errs = append(errs, errors.New("timers.ledger_reset and timers.time_sync must be positive"))
	}
	return errors.Join(errs...)
}
