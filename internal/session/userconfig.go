package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// UserConfigFileName is the TOML config file for user preferences.
const UserConfigFileName = "config.toml"

// UserConfig is the user-facing configuration. All fields are optional;
// zero values fall back to the conventional locations.
type UserConfig struct {
	// Debug enables verbose logging to the rotating log file.
	Debug bool `toml:"debug"`

	// Log configures the rotating debug log.
	Log LogSettings `toml:"log"`

	// Claude configures Claude Code transcript discovery.
	Claude ClaudeSettings `toml:"claude"`

	// OpenCode configures OpenCode storage discovery.
	OpenCode OpenCodeSettings `toml:"opencode"`
}

// LogSettings controls log output.
type LogSettings struct {
	// Level is "debug", "info", "warn", or "error" (default "info").
	Level string `toml:"level"`
}

// ClaudeSettings configures the Claude Code integration.
type ClaudeSettings struct {
	// ConfigDir overrides the Claude config directory (default ~/.claude).
	// The CLAUDE_CONFIG_DIR environment variable outranks this.
	ConfigDir string `toml:"config_dir"`
}

// OpenCodeSettings configures the OpenCode integration.
type OpenCodeSettings struct {
	// DataDir overrides the OpenCode storage directory
	// (default ~/.local/share/opencode/storage).
	DataDir string `toml:"data_dir"`
}

var (
	userConfigCache   *UserConfig
	userConfigCacheMu sync.Mutex
)

// GetAgentSessionsDir returns the base directory for our own files
// (~/.agent-sessions), used for the config file and logs.
func GetAgentSessionsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".agent-sessions")
}

// LoadUserConfig reads and caches ~/.agent-sessions/config.toml. A missing
// file yields the zero config; a malformed file does too (the monitor must
// keep working).
func LoadUserConfig() *UserConfig {
	userConfigCacheMu.Lock()
	defer userConfigCacheMu.Unlock()

	if userConfigCache != nil {
		return userConfigCache
	}

	cfg := &UserConfig{}
	path := filepath.Join(GetAgentSessionsDir(), UserConfigFileName)
	if data, err := os.ReadFile(path); err == nil {
		// Parse errors leave the defaults in place.
		_ = toml.Unmarshal(data, cfg)
	}

	userConfigCache = cfg
	return cfg
}

// ClearUserConfigCache drops the cached config so the next load re-reads the
// file. Intended for tests.
func ClearUserConfigCache() {
	userConfigCacheMu.Lock()
	defer userConfigCacheMu.Unlock()
	userConfigCache = nil
}

// GetClaudeConfigDir resolves the Claude Code config directory:
// CLAUDE_CONFIG_DIR env var, then the user config, then ~/.claude.
func GetClaudeConfigDir() string {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return dir
	}
	if dir := LoadUserConfig().Claude.ConfigDir; dir != "" {
		return expandTilde(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude")
}

// GetOpenCodeStorageDir resolves the OpenCode storage root: the user config,
// then the XDG data location (OpenCode uses it on every platform).
func GetOpenCodeStorageDir() string {
	if dir := LoadUserConfig().OpenCode.DataDir; dir != "" {
		return expandTilde(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "opencode", "storage")
}

// expandTilde replaces a leading ~/ with the user's home directory.
func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
