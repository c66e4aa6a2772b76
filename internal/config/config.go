package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Feature flag names.
const (
	FeaturePersistRedux     = "persist-redux"
	FeatureAlwaysClearState = "always-clear-persistent-state"
	FeatureNeverClearState  = "never-clear-persistent-state"
)

// Environment modes.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var (
	// ErrUnknownBackend indicates an unsupported storage backend name.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrUnknownEnvironment indicates an unsupported environment mode.
	ErrUnknownEnvironment = errors.New("unknown environment")
)

// Features is a set of boolean feature flags. Unlisted flags are disabled.
type Features map[string]bool

// IsEnabled reports whether the named flag is on.
func (f Features) IsEnabled(name string) bool {
	return f[name]
}

// Config is the statekeep configuration file.
type Config struct {
	Environment string        `yaml:"environment"`
	Backend     string        `yaml:"backend"`
	Features    Features      `yaml:"features"`
	User        UserConfig    `yaml:"user"`
	Logging     LoggingConfig `yaml:"logging"`
}

// UserConfig describes the session identity used by the CLI.
type UserConfig struct {
	ID             string `yaml:"id"`
	SupportSession bool   `yaml:"support_session"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns a configuration with persistence enabled.
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvProduction,
		Backend:     BackendFile,
		Features: Features{
			FeaturePersistRedux: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file, then applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if cfg.Features == nil {
		cfg.Features = Features{}
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment:
//   - ENABLE_FEATURES / DISABLE_FEATURES: comma separated flag names
//   - STATEKEEP_ENV: development or production
//   - STATEKEEP_BACKEND: file, sqlite or memory
//   - STATEKEEP_USER: user ID
//
// DISABLE_FEATURES is applied after ENABLE_FEATURES.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if c.Features == nil {
		c.Features = Features{}
	}
	for _, name := range splitList(getenv("ENABLE_FEATURES")) {
		c.Features[name] = true
	}
	for _, name := range splitList(getenv("DISABLE_FEATURES")) {
		c.Features[name] = false
	}
	if v := getenv("STATEKEEP_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("STATEKEEP_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := getenv("STATEKEEP_USER"); v != "" {
		c.User.ID = v
	}
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEnvironment, c.Environment)
	}
	return nil
}

// IsDevelopment reports whether the environment is development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
