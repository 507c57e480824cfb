// Package paths locates the files speckit reads before anything else: the
// config.yaml search path, the workspace root that test directories resolve
// against, and the data directory holding the index.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".speckit"
	DefaultDataDirName   = ".speckit-db"
)

// ConfigFileName is the configuration file looked up in each search directory.
const ConfigFileName = "config.yaml"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "SPECKIT_CONFIG_DIR"
	EnvDataDir   = "SPECKIT_DATA_DIR"
)

const appName = "speckit"

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// UserConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/speckit (fallback ~/.config/speckit)
// macOS:   ~/Library/Application Support/speckit
// Windows: %APPDATA%/speckit
func UserConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// ResolveConfigDir returns the project configuration directory, the one
// `speckit init` writes to: flag > SPECKIT_CONFIG_DIR > $(CWD)/.speckit.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return cwdJoin(DefaultConfigDirName)
}

// ConfigSearchPath lists the directories searched for config.yaml, project
// directory first. An explicit flag or SPECKIT_CONFIG_DIR pins the search to
// that one directory; otherwise the per-user directory follows when it can
// be determined.
func ConfigSearchPath(flag string) ([]string, error) {
	project, err := ResolveConfigDir(flag)
	if err != nil {
		return nil, err
	}
	dirs := []string{project}
	if flag != "" || os.Getenv(EnvConfigDir) != "" {
		return dirs, nil
	}
	if user, err := UserConfigDir(); err == nil && user != project {
		dirs = append(dirs, user)
	}
	return dirs, nil
}

// ConfigFile returns the config.yaml path inside dir.
func ConfigFile(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}

// ResolveWorkspaceRoot returns the root that spec and test directories are
// relative to: the configured value made absolute, else the working
// directory.
func ResolveWorkspaceRoot(configValue string) (string, error) {
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	return platformDir.getwd()
}

// ResolveDataDir returns the directory holding the index database:
// flag > config value > SPECKIT_DATA_DIR > $(CWD)/.speckit-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	return cwdJoin(DefaultDataDirName)
}

func cwdJoin(name string) (string, error) {
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, name), nil
}
