// Package config loads the aco-server configuration from an optional YAML
// file, applies environment overrides and validates the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-aco/pkg/network"
	"github.com/dd0wney/cluso-aco/pkg/parallel"
	"github.com/dd0wney/cluso-aco/pkg/simulation"
	"github.com/dd0wney/cluso-aco/pkg/validation"
)

// Environment variables read by ApplyEnv.
const (
	EnvPort          = "PORT"
	EnvLogLevel      = "LOG_LEVEL"
	EnvSeed          = "ACO_SEED"
	EnvNetworkFile   = "ACO_NETWORK_FILE"
	EnvBroadcastAddr = "ACO_BROADCAST_ADDR"
)

// DefaultMaxBodyBytes caps JSON request bodies.
const DefaultMaxBodyBytes = 1 << 20

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// Config is the complete server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Simulation SimulationConfig `yaml:"simulation"`
	Network    NetworkConfig    `yaml:"network"`
	Broadcast  BroadcastConfig  `yaml:"broadcast"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// Addr returns the listen address for Port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// SimulationConfig configures the session. Seed 0 means "pick one at
// startup". When AutoConfigure is set the server configures the session with
// Run at boot so that POST /session/start works without a body.
type SimulationConfig struct {
	Seed          int64             `yaml:"seed"`
	TickInterval  time.Duration     `yaml:"tick_interval"`
	Workers       int               `yaml:"workers"`
	Disruption    float64           `yaml:"disruption"`
	AutoConfigure bool              `yaml:"auto_configure"`
	Run           simulation.Config `yaml:"run"`
}

// NetworkConfig selects the graph. An empty File uses the built-in rail
// network.
type NetworkConfig struct {
	File string `yaml:"file"`
}

// BroadcastConfig enables the mangos status publisher when Addr is set.
type BroadcastConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    DefaultMaxBodyBytes,
		},
		Simulation: SimulationConfig{
			TickInterval:  simulation.DefaultTickInterval,
			Disruption:    simulation.DefaultDisruption,
			AutoConfigure: true,
			Run:           simulation.DefaultConfig(network.RailDefaultStart, network.RailDefaultEnd),
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (when non-empty) over the defaults, applies the process
// environment and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := Decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode reads YAML from r into cfg. Keys absent from the document keep
// their current values; unknown keys are an error.
func Decode(r io.Reader, cfg *Config) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables looked up with
// lookup (os.LookupEnv in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		c.Simulation.Seed = seed
	}
	if v, ok := lookup(EnvNetworkFile); ok {
		c.Network.File = v
	}
	if v, ok := lookup(EnvBroadcastAddr); ok {
		c.Broadcast.Addr = v
	}
	return nil
}

// Validate checks everything that does not depend on the loaded network.
// The run's node indices are checked by the session at configure time.
func (c Config) Validate() error {
	return validation.NewConfigValidator("Config").
		RangeInt("Server.Port", c.Server.Port, 1, 65535).
		MinDuration("Server.ReadTimeout", c.Server.ReadTimeout, time.Millisecond).
		MinDuration("Server.WriteTimeout", c.Server.WriteTimeout, time.Millisecond).
		MinDuration("Server.ShutdownTimeout", c.Server.ShutdownTimeout, 0).
		Custom("Server.MaxBodyBytes", func() error {
			if c.Server.MaxBodyBytes <= 0 {
				return fmt.Errorf("value %d must be positive", c.Server.MaxBodyBytes)
			}
			return nil
		}).
		MinDuration("Simulation.TickInterval", c.Simulation.TickInterval, simulation.MinTickInterval).
		RangeInt("Simulation.Workers", c.Simulation.Workers, 0, parallel.MaxWorkers).
		PositiveFloat("Simulation.Disruption", c.Simulation.Disruption).
		Custom("Simulation.Run", func() error {
			return c.Simulation.Run.Params.Validate()
		}).
		MinInt("Simulation.Run.MaxIterations", c.Simulation.Run.MaxIterations, 1).
		OneOf("Log.Level", strings.ToLower(c.Log.Level), logLevels).
		When(c.Broadcast.Addr != "", func(cv *validation.ConfigValidator) {
			cv.Custom("Broadcast.Addr", func() error {
				if !strings.Contains(c.Broadcast.Addr, "://") {
					return fmt.Errorf("address %q has no transport scheme", c.Broadcast.Addr)
				}
				return nil
			})
		}).
		Validate()
}

// Graph loads the configured network.
func (c Config) Graph() (*network.Graph, error) {
	if c.Network.File == "" {
		return network.RailNetwork(), nil
	}
	return network.LoadFile(c.Network.File)
}
