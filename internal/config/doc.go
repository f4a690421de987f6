// Package config handles loading and validation of jim configuration.
//
// Configuration is read from ~/.config/jim/config.toml, overlaid by an
// optional per-project .jim.toml in the working path, with environment
// variable overrides on top.
//
// # Configuration Sources (highest priority first)
//
//   - JIM_WORKING_PATH env var: project root holding the hooks directory
//   - JIM_ADDR env var: listen address of `jim serve`
//   - Project .jim.toml (server, run and log sections only)
//   - Global config file settings
//   - Default values
//
// # Example
//
//	working_path = "~/sites/blog"
//
//	[server]
//	addr = ":8080"
//	read_timeout = "30s"
//	max_body_bytes = 1048576
//
//	[run]
//	serialize = false
//
//	[log]
//	color = "auto"
//
// # Path Validation
//
// working_path must be absolute or start with ~ (no relative paths like "."
// or "..") to avoid confusion about which directory the server runs in.
package config
