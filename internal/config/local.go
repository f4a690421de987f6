package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LocalConfigFileName is the per-project config file in the working path.
const LocalConfigFileName = ".jim.toml"

// LocalConfig holds per-project overrides from .jim.toml.
// Pointer fields and zero-value strings indicate "not set" (inherit from global).
type LocalConfig struct {
	Server LocalServer `toml:"server"`
	Run    LocalRun    `toml:"run"`
	Log    LocalLog    `toml:"log"`
}

// LocalServer holds local server overrides
type LocalServer struct {
	Addr         string `toml:"addr"`
	MaxBodyBytes *int64 `toml:"max_body_bytes"`
}

// LocalRun holds local run overrides
type LocalRun struct {
	Serialize *bool `toml:"serialize"`
}

// LocalLog holds local log overrides
type LocalLog struct {
	Color string `toml:"color"`
}

// LoadLocal reads .jim.toml from the given working path.
// Returns nil (no error) if the file doesn't exist.
// Returns an error only on parse or validation failure.
func LoadLocal(workingPath string) (*LocalConfig, error) {
	configFile := filepath.Join(workingPath, LocalConfigFileName)

	data, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read local config %s: %w", configFile, err)
	}

	var local LocalConfig
	if err := toml.Unmarshal(data, &local); err != nil {
		return nil, fmt.Errorf("failed to parse local config %s: %w", configFile, err)
	}

	if err := validateEnum(local.Log.Color, "log.color", ValidColorModes); err != nil {
		return nil, fmt.Errorf("%w in %s", err, configFile)
	}
	if local.Server.MaxBodyBytes != nil && *local.Server.MaxBodyBytes < 0 {
		return nil, fmt.Errorf("invalid server.max_body_bytes %d in %s: must not be negative", *local.Server.MaxBodyBytes, configFile)
	}

	return &local, nil
}
