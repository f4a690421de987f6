package config

// MergeLocal merges a per-project config into a global config,
// returning a new Config without mutating the global.
// Returns global unchanged if local is nil.
func MergeLocal(global *Config, local *LocalConfig) *Config {
	if local == nil {
		return global
	}

	// Timeouts and working_path are global-only and inherited as-is.
	merged := *global

	if local.Server.Addr != "" {
		merged.Server.Addr = local.Server.Addr
	}
	if local.Server.MaxBodyBytes != nil {
		merged.Server.MaxBodyBytes = *local.Server.MaxBodyBytes
	}
	if local.Run.Serialize != nil {
		merged.Run.Serialize = *local.Run.Serialize
	}
	if local.Log.Color != "" {
		merged.Log.Color = local.Log.Color
	}

	return &merged
}

// Resolve overlays the .jim.toml found in workingPath onto global, then
// reapplies JIM_ADDR so the environment keeps the highest priority.
func Resolve(global *Config, workingPath string, getenv func(string) string) (*Config, error) {
	local, err := LoadLocal(workingPath)
	if err != nil {
		return nil, err
	}
	merged := MergeLocal(global, local)
	if local != nil {
		if v := getenv("JIM_ADDR"); v != "" {
			merged.Server.Addr = v
		}
	}
	resolved := *merged
	resolved.WorkingPath = workingPath
	return &resolved, nil
}
