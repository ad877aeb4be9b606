// Package config provides configuration management for glint.
package config

import (
	"os"
	"path/filepath"
)

// Paths holds all the path configurations for glint.
type Paths struct {
	// ConfigDir is the directory for configuration files (~/.config/glint)
	ConfigDir string

	// DataDir is the directory for data files (~/.local/share/glint)
	DataDir string

	// CacheDir is the directory for cache files (~/.cache/glint)
	CacheDir string
}

// DefaultPaths returns the default paths based on the XDG Base Directory spec.
func DefaultPaths() *Paths {
	home := homeDir()

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
		ConfigDir: filepath.Join(configHome, "glint"),
		DataDir:   filepath.Join(dataHome, "glint"),
		CacheDir:  filepath.Join(cacheHome, "glint"),
	}
}

// ConfigFile returns the path to the configuration file.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// StateDB returns the path to the persistence database.
func (p *Paths) StateDB() string {
	return filepath.Join(p.DataDir, "state.db")
}

// LogFile returns the default log file path.
func (p *Paths) LogFile() string {
	return filepath.Join(p.CacheDir, "glint.log")
}

// homeDir returns the user's home directory, falling back to the
// current directory if it cannot be determined.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
