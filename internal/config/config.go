// Package config loads doney settings.
//
// Values are layered in priority order:
//  1. Defaults
//  2. Config file (.yaml, .yml or .toml, chosen by extension)
//  3. Environment variables (DONEY_*)
//  4. CLI flags, applied by the caller after Load
//
// The result is validated before it is returned.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Default values.
const (
	DefaultDatabase   = "doney.db"
	DefaultStorageKey = "doney.items"
	DefaultDebounce   = 200 * time.Millisecond
	DefaultAddr       = "127.0.0.1:8787"
	DefaultModel      = "gpt-4o-mini"
	DefaultAPIKeyEnv  = "OPENAI_API_KEY"
)

// Config holds every doney setting.
type Config struct {
	Database   string        `yaml:"database" toml:"database" validate:"required"`
	StorageKey string        `yaml:"storage_key" toml:"storage_key" validate:"required"`
	Debounce   Duration      `yaml:"debounce" toml:"debounce" validate:"gte=0"`
	Planner    PlannerConfig `yaml:"planner" toml:"planner"`
	Server     ServerConfig  `yaml:"server" toml:"server"`
}

// PlannerConfig configures the plan generator.
type PlannerConfig struct {
	Model             string   `yaml:"model" toml:"model" validate:"required"`
	BaseURL           string   `yaml:"base_url" toml:"base_url" validate:"omitempty,url"`
	APIKeyEnv         string   `yaml:"api_key_env" toml:"api_key_env" validate:"required"`
	Timeout           Duration `yaml:"timeout" toml:"timeout" validate:"gt=0"`
	RequestsPerMinute int      `yaml:"requests_per_minute" toml:"requests_per_minute" validate:"gte=0"`
}

// ServerConfig configures doney serve.
type ServerConfig struct {
	Addr           string   `yaml:"addr" toml:"addr" validate:"required,hostname_port"`
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
}

// APIKey reads the planner key from the environment variable named by
// APIKeyEnv.
func (p PlannerConfig) APIKey() string {
	return os.Getenv(p.APIKeyEnv)
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Database:   DefaultDatabase,
		StorageKey: DefaultStorageKey,
		Debounce:   Duration(DefaultDebounce),
		Planner: PlannerConfig{
			Model:             DefaultModel,
			APIKeyEnv:         DefaultAPIKeyEnv,
			Timeout:           Duration(30 * time.Second),
			RequestsPerMinute: 10,
		},
		Server: ServerConfig{
			Addr:           DefaultAddr,
			AllowedOrigins: []string{"http://localhost:5173"},
		},
	}
}

// Load builds a Config from defaults, the file at path (skipped when path is
// empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		return fmt.Errorf("unsupported config format %q (use .yaml, .yml or .toml)", ext)
	}
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("DONEY_DB"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("DONEY_STORAGE_KEY"); v != "" {
		cfg.StorageKey = v
	}
	if v := os.Getenv("DONEY_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DONEY_DEBOUNCE: %w", err)
		}
		cfg.Debounce = Duration(d)
	}
	if v := os.Getenv("DONEY_PLANNER_MODEL"); v != "" {
		cfg.Planner.Model = v
	}
	if v := os.Getenv("DONEY_PLANNER_BASE_URL"); v != "" {
		cfg.Planner.BaseURL = v
	}
	if v := os.Getenv("DONEY_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints and reports the first problem per field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", strings.TrimPrefix(e.Namespace(), "Config."), e.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
