// Package paths resolves where larder keeps its configuration, its records
// and the caller's key.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appDir is the directory name used under the platform config and data roots.
const appDir = "larder"

// Project-local directory names, used when the working directory already
// holds them.
const (
	LocalConfigDirName = ".larder"
	LocalDataDirName   = ".larder-db"
)

// File names inside the config directory.
const (
	ConfigFileName = "config.yaml"
	KeyFileName    = "identity.key"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "LARDER_CONFIG_DIR"
	EnvDataDir   = "LARDER_DATA_DIR"
)

// platform holds platform lookups that tests override.
var platform = struct {
	goos          string
	getwd         func() (string, error)
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	getwd:         os.Getwd,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/larder (fallback ~/.config/larder)
// macOS:   ~/Library/Application Support/larder
// Windows: %APPDATA%/larder
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/larder (fallback ~/.local/share/larder)
// macOS and Windows: same as DefaultConfigDir
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, homeRel string) (string, error) {
	if platform.goos != "linux" {
		dir, err := platform.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDir), nil
	}
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}
	home, err := platform.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, appDir), nil
}

// ResolveConfigDir returns the configuration directory:
// flag > LARDER_CONFIG_DIR > ./.larder if present > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	if local, ok := localDir(LocalConfigDirName); ok {
		return local, nil
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory:
// flag > LARDER_DATA_DIR > data_dir from config.yaml > ./.larder-db if
// present > DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if local, ok := localDir(LocalDataDirName); ok {
		return local, nil
	}
	return DefaultDataDir()
}

// ResolveKeyFile returns the key file path: key_file from config.yaml,
// relative paths taken from configDir, else configDir/identity.key.
func ResolveKeyFile(configDir, configValue string) string {
	switch {
	case configValue == "":
		return filepath.Join(configDir, KeyFileName)
	case filepath.IsAbs(configValue):
		return configValue
	default:
		return filepath.Join(configDir, configValue)
	}
}

// localDir reports ./name when it exists as a directory.
func localDir(name string) (string, bool) {
	cwd, err := platform.getwd()
	if err != nil {
		return "", false
	}
	path := filepath.Join(cwd, name)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return path, true
}
