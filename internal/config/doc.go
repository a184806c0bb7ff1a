// Package config provides configuration loading, merging, and path management
// for the server.
//
// # Configuration Loading
//
// Load merges configuration from multiple sources in priority order:
//
//  1. Built-in defaults (DefaultConfig)
//  2. Global config (~/.config/rustygpt/rustygpt.jsonc)
//  3. Project config (<directory>/.rustygpt/rustygpt.jsonc)
//  4. .env file in the project directory, if present
//  5. Environment variables
//
// # Supported Format
//
// Config files are JSONC (JSON with comments), processed with tidwall/jsonc
// before unmarshalling so // and /* */ comments are allowed.
//
// # Path Management
//
// Paths follows the XDG Base Directory Specification:
//   - Data: ~/.local/share/rustygpt (XDG_DATA_HOME)
//   - Config: ~/.config/rustygpt (XDG_CONFIG_HOME)
//   - Cache: ~/.cache/rustygpt (XDG_CACHE_HOME)
//   - State: ~/.local/state/rustygpt (XDG_STATE_HOME)
//
// On Windows these fall back to APPDATA.
package config
