package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/raphi011/jim/internal/storage"
)

// Defaults
const (
	DefaultAddr         = ":8080"
	DefaultMaxBodyBytes = 1 << 20
)

// Duration is a time.Duration written as a string like "30s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds `jim serve` settings
type ServerConfig struct {
	Addr              string   `toml:"addr"`
	ReadHeaderTimeout Duration `toml:"read_header_timeout"`
	ReadTimeout       Duration `toml:"read_timeout"`
	WriteTimeout      Duration `toml:"write_timeout"`
	IdleTimeout       Duration `toml:"idle_timeout"`
	MaxBodyBytes      int64    `toml:"max_body_bytes"`
}

// RunConfig holds hook execution settings
type RunConfig struct {
	Serialize bool `toml:"serialize"` // one run per hook at a time
}

// LogConfig holds console output settings
type LogConfig struct {
	Color string `toml:"color"` // "auto", "always" or "never"
}

// Config holds the jim configuration
type Config struct {
	WorkingPath string       `toml:"working_path"`
	Server      ServerConfig `toml:"server"`
	Run         RunConfig    `toml:"run"`
	Log         LogConfig    `toml:"log"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              DefaultAddr,
			ReadHeaderTimeout: Duration{10 * time.Second},
			ReadTimeout:       Duration{30 * time.Second},
			WriteTimeout:      Duration{30 * time.Second},
			IdleTimeout:       Duration{60 * time.Second},
			MaxBodyBytes:      DefaultMaxBodyBytes,
		},
		Log: LogConfig{Color: "auto"},
	}
}

type ctxKey struct{}

// WithConfig attaches cfg to the context.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the config stored in ctx, or the defaults.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}
	cfg := Default()
	return &cfg
}

// ValidatePath checks that the path is absolute or starts with ~
// Returns error if path is relative (like "." or "..")
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil
	}
	if path[0] == '~' {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}

// Path returns the path to the global config file
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "jim", "config.toml"), nil
}

// Load reads the global config from ~/.config/jim/config.toml and applies
// environment overrides.
// Returns Default() if file doesn't exist (no error)
// Returns error only if file exists but is invalid
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		cfg := Default()
		return cfg, applyEnv(&cfg, os.Getenv)
	}
	return LoadFile(path, os.Getenv)
}

// LoadFile reads the config at path and applies overrides from getenv.
func LoadFile(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Default(), fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Default(), err
	}
	if err := cfg.validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// applyEnv overlays JIM_WORKING_PATH and JIM_ADDR.
func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("JIM_WORKING_PATH"); v != "" {
		abs, err := filepath.Abs(v)
		if err != nil {
			return fmt.Errorf("resolve JIM_WORKING_PATH: %w", err)
		}
		cfg.WorkingPath = abs
	}
	if v := getenv("JIM_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	return nil
}

func (c *Config) validate() error {
	if err := ValidatePath(c.WorkingPath, "working_path"); err != nil {
		return err
	}
	expanded, err := expandPath(c.WorkingPath)
	if err != nil {
		return fmt.Errorf("expand working_path: %w", err)
	}
	c.WorkingPath = expanded

	if err := validateEnum(c.Log.Color, "log.color", ValidColorModes); err != nil {
		return err
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("invalid server.max_body_bytes %d: must not be negative", c.Server.MaxBodyBytes)
	}
	return nil
}

// defaultConfig is the template written by `jim config init`
const defaultConfig = `# jim configuration
# See: jim config --help

# Project root holding the hooks directory (absolute or ~/...).
# Defaults to the directory jim is started from.
# working_path = "~/sites/blog"

# Trigger server (jim serve)
[server]
addr = ":8080"
read_header_timeout = "10s"
read_timeout = "30s"
write_timeout = "30s"
idle_timeout = "60s"
max_body_bytes = 1048576

# Hook execution
[run]
# Wait for a running invocation of a hook before starting the next one.
serialize = false

# Console output
[log]
color = "auto" # "auto", "always" or "never"
`

// Init creates a default config file at ~/.config/jim/config.toml
// If force is true, overwrites existing file
// Returns the path to the created file
func Init(force bool) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}
	return path, initFile(path, force)
}

func initFile(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.New("config file already exists: " + path)
		}
	}

	return storage.WriteFile(path, []byte(defaultConfig), 0o644)
}

// Encode writes cfg as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
