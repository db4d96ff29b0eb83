// Package config loads daemon configuration from a YAML file with
// environment variable overrides. Every setting has a usable default so an
// empty config starts a working standalone daemon.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML accepts "30s" style values
type Duration time.Duration

// UnmarshalYAML parses a duration string
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("failed to parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the underlying time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DatabaseConfig selects the persistence backend
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	Path   string `yaml:"path"`   // sqlite file path
	DSN    string `yaml:"dsn"`    // postgres connection string
}

// NATSConfig configures the JetStream event sink
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream"`
}

// RedisConfig configures the shared cache backend
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SchedulerConfig tunes the background progression loop
type SchedulerConfig struct {
	Interval      Duration `yaml:"interval"`
	PhaseDuration Duration `yaml:"phase_duration"`
	MaxConcurrent int64    `yaml:"max_concurrent"`
	AllowAll      bool     `yaml:"allow_all"`
}

// ProviderConfig configures the AI text provider
type ProviderConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Type     string `yaml:"type"` // openai, anthropic, local, custom, ollama, mock
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// TrainingConfig tunes the orchestrator
type TrainingConfig struct {
	PassingScores  []int   `yaml:"passing_scores"`  // per ladder rung
	QuestionCounts []int   `yaml:"question_counts"` // per ladder rung
	MaxIterations  int     `yaml:"max_iterations"`
	AutoAccuracy   float64 `yaml:"auto_accuracy"` // unattended answer accuracy, 0..1
}

// ServerConfig configures the HTTP listener for metrics and health
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AgentConfig declares one agent in the standalone roster
type AgentConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Role string `yaml:"role"`
}

// Config is the daemon's full configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	NATS      NATSConfig      `yaml:"nats"`
	Redis     RedisConfig     `yaml:"redis"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Provider  ProviderConfig  `yaml:"provider"`
	Training  TrainingConfig  `yaml:"training"`
	Server    ServerConfig    `yaml:"server"`
	// Agents seeds the standalone agent roster. Deployments embedded in a
	// larger platform resolve agents through its directory instead.
	Agents []AgentConfig `yaml:"agents"`
}

// Default returns the standalone configuration: sqlite storage, mock
// provider, no external services.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "sqlite", Path: "praxis.db"},
		NATS:     NATSConfig{URL: "nats://localhost:4222", Stream: "PRAXIS"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Scheduler: SchedulerConfig{
			Interval:      Duration(30 * time.Second),
			PhaseDuration: Duration(5 * time.Minute),
			MaxConcurrent: 4,
		},
		Provider: ProviderConfig{ID: "default", Name: "default", Type: "mock", Model: "mock"},
		Training: TrainingConfig{
			MaxIterations: 10,
			AutoAccuracy:  0.8,
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads the config file if present, then applies environment overrides.
// A missing file is not an error; the defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Database.Driver, "PRAXIS_DB_DRIVER")
	setString(&c.Database.Path, "PRAXIS_DB_PATH")
	setString(&c.Database.DSN, "PRAXIS_DB_DSN")

	setBool(&c.NATS.Enabled, "PRAXIS_NATS_ENABLED")
	setString(&c.NATS.URL, "PRAXIS_NATS_URL")
	setString(&c.NATS.Stream, "PRAXIS_NATS_STREAM")

	setBool(&c.Redis.Enabled, "PRAXIS_REDIS_ENABLED")
	setString(&c.Redis.Addr, "PRAXIS_REDIS_ADDR")
	setString(&c.Redis.Password, "PRAXIS_REDIS_PASSWORD")

	setDuration(&c.Scheduler.Interval, "PRAXIS_SCHEDULER_INTERVAL")
	setDuration(&c.Scheduler.PhaseDuration, "PRAXIS_SCHEDULER_PHASE_DURATION")
	setBool(&c.Scheduler.AllowAll, "PRAXIS_SCHEDULER_ALLOW_ALL")

	setString(&c.Provider.Type, "PRAXIS_PROVIDER_TYPE")
	setString(&c.Provider.Endpoint, "PRAXIS_PROVIDER_ENDPOINT")
	setString(&c.Provider.APIKey, "PRAXIS_PROVIDER_API_KEY")
	setString(&c.Provider.Model, "PRAXIS_PROVIDER_MODEL")

	setString(&c.Server.Addr, "PRAXIS_SERVER_ADDR")
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Training.AutoAccuracy < 0 || c.Training.AutoAccuracy > 1 {
		return fmt.Errorf("auto_accuracy %v out of range [0,1]", c.Training.AutoAccuracy)
	}
	if c.Training.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(dst *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = Duration(parsed)
		}
	}
}
