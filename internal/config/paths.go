// Package config provides configuration management for flare.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Paths holds the filesystem locations flare uses.
type Paths struct {
	// ConfigDir is the directory for configuration files (~/.config/flare)
	ConfigDir string

	// DataDir is the directory for data files (~/.local/share/flare)
	DataDir string

	// CacheDir is the directory for cache files (~/.cache/flare)
	CacheDir string
}

// DefaultPaths returns the default paths based on the XDG Base Directory
// spec. On Windows, it uses %APPDATA% instead.
func DefaultPaths() *Paths {
	home := homeDir()

	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(home, "AppData", "Local")
		}

		return &Paths{
			ConfigDir: filepath.Join(appData, "flare"),
			DataDir:   filepath.Join(localAppData, "flare"),
			CacheDir:  filepath.Join(localAppData, "flare", "cache"),
		}
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		cacheHome = filepath.Join(home, ".cache")
	}

	return &Paths{
		ConfigDir: filepath.Join(configHome, "flare"),
		DataDir:   filepath.Join(dataHome, "flare"),
		CacheDir:  filepath.Join(cacheHome, "flare"),
	}
}

// ConfigFile returns the path to the main configuration file.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// DatabaseFile returns the path to the SQLite state database.
func (p *Paths) DatabaseFile() string {
	return filepath.Join(p.DataDir, "state.db")
}

// EnsureDirectories creates the config and data directories if missing.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ConfigDir, p.DataDir, p.CacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Last resort so path joins stay relative rather than panicking.
		return "."
	}
	return home
}
