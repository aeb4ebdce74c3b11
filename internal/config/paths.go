package config

import (
	"os"
	"path/filepath"
)

const appName = "pixdl"

// GetPixdlDir returns the configuration directory ($XDG_CONFIG_HOME/pixdl)
func GetPixdlDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(homeDir(), ".config", appName)
}

// GetStateDir returns the directory for the history database and logs
// ($XDG_STATE_HOME/pixdl)
func GetStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(homeDir(), ".local", "state", appName)
}

// GetLogsDir returns the directory debug logs are written to
func GetLogsDir() string {
	return filepath.Join(GetStateDir(), "logs")
}

// GetHistoryPath returns the path of the history database
func GetHistoryPath() string {
	return filepath.Join(GetStateDir(), "history.db")
}

// GetRuntimeDir returns the directory for lock files ($XDG_RUNTIME_DIR/pixdl)
func GetRuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(os.TempDir(), appName+"-"+userTag())
}

// EnsureDirs creates every directory pixdl writes to
func EnsureDirs() error {
	for _, dir := range []string{GetPixdlDir(), GetStateDir(), GetLogsDir(), GetRuntimeDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// userTag keeps per-user temp directories apart when XDG_RUNTIME_DIR is unset
func userTag() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "user"
}
