package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the glint configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Picker    PickerConfig    `yaml:"picker"`
	Frecency  FrecencyConfig  `yaml:"frecency"`
	Apps      AppsConfig      `yaml:"apps"`
	Wallpaper WallpaperConfig `yaml:"wallpaper"`
	Clipboard ClipboardConfig `yaml:"clipboard"`
	Storage   StorageConfig   `yaml:"storage"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Log file path (empty = stderr)
}

// PickerConfig holds picker session settings.
type PickerConfig struct {
	DebounceMs      int    `yaml:"debounce_ms"`      // Delay after last keystroke before searching
	InitialProvider string `yaml:"initial_provider"` // Provider active on startup (empty = first registered)
}

// FrecencyConfig holds ranking engine tunables.
type FrecencyConfig struct {
	MaxItems           int     `yaml:"max_items"`            // Eviction ceiling for usage entries
	DecayFactor        float64 `yaml:"decay_factor"`         // Per-day multiplicative frequency decay
	FrequencyWeight    float64 `yaml:"frequency_weight"`     // Frequency vs recency blend in [0,1]
	MinAccessThreshold int     `yaml:"min_access_threshold"` // Min accesses to qualify as a default suggestion
}

// AppsConfig holds application provider settings.
type AppsConfig struct {
	MaxResults int      `yaml:"max_results"`
	ExtraDirs  []string `yaml:"extra_dirs"` // Additional .desktop scan directories
}

// WallpaperConfig holds wallpaper provider settings.
type WallpaperConfig struct {
	Directory     string `yaml:"directory"`      // Root directory to scan for images
	MaxDepth      int    `yaml:"max_depth"`      // Recursive scan depth bound
	IncludeHidden bool   `yaml:"include_hidden"` // Include dotfiles in the scan
	MaxResults    int    `yaml:"max_results"`
	ApplyCommand  string `yaml:"apply_command"` // Command run to set a wallpaper; path appended
	ThemeCommand  string `yaml:"theme_command"` // Command run on theme mode/scheme changes
}

// ClipboardConfig holds clipboard provider settings.
type ClipboardConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxResults int  `yaml:"max_results"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	DBPath string `yaml:"db_path"` // SQLite database path (empty = default)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
			File:  "",
		},
		Picker: PickerConfig{
			DebounceMs:      100,
			InitialProvider: "",
		},
		Frecency: FrecencyConfig{
			MaxItems:           100,
			DecayFactor:        0.9,
			FrequencyWeight:    0.7,
			MinAccessThreshold: 1,
		},
		Apps: AppsConfig{
			MaxResults: 8,
		},
		Wallpaper: WallpaperConfig{
			Directory:     filepath.Join(homeDir(), "Pictures", "wallpapers"),
			MaxDepth:      2,
			IncludeHidden: false,
			MaxResults:    12,
			ApplyCommand:  "swww img",
			ThemeCommand:  "",
		},
		Clipboard: ClipboardConfig{
			Enabled:    true,
			MaxResults: 8,
		},
		Storage: StorageConfig{
			DBPath: "",
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	paths := DefaultPaths()
	return LoadFromFile(paths.ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if file doesn't exist
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks hard configuration errors. Soft problems (out-of-range
// tunables) are fixed in place by ValidateAndFix, not rejected here.
func (c *Config) Validate() error {
	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}
	c.ValidateAndFix()
	return nil
}

// ValidationWarning describes a config value that was adjusted.
type ValidationWarning struct {
	Field   string
	Message string
}

// ValidateAndFix clamps out-of-range values back to their defaults,
// logging a warning for each adjustment.
func (c *Config) ValidateAndFix() []ValidationWarning {
	defaults := DefaultConfig()
	var warnings []ValidationWarning

	warn := func(field, msg string) {
		w := ValidationWarning{Field: field, Message: msg}
		warnings = append(warnings, w)
		log.Printf("WARN config: %s: %s", field, msg)
	}

	if c.Picker.DebounceMs < 0 {
		warn("picker.debounce_ms", fmt.Sprintf("must be >= 0, got %d; falling back to default %d",
			c.Picker.DebounceMs, defaults.Picker.DebounceMs))
		c.Picker.DebounceMs = defaults.Picker.DebounceMs
	}

	if c.Frecency.MaxItems < 1 {
		warn("frecency.max_items", fmt.Sprintf("must be >= 1, got %d; falling back to default %d",
			c.Frecency.MaxItems, defaults.Frecency.MaxItems))
		c.Frecency.MaxItems = defaults.Frecency.MaxItems
	}
	if c.Frecency.DecayFactor <= 0 || c.Frecency.DecayFactor > 1 {
		warn("frecency.decay_factor", fmt.Sprintf("must be in (0,1], got %f; falling back to default %f",
			c.Frecency.DecayFactor, defaults.Frecency.DecayFactor))
		c.Frecency.DecayFactor = defaults.Frecency.DecayFactor
	}
	if c.Frecency.FrequencyWeight < 0 {
		warn("frecency.frequency_weight", fmt.Sprintf("must be >= 0.0, got %f; clamping to 0.0", c.Frecency.FrequencyWeight))
		c.Frecency.FrequencyWeight = 0
	}
	if c.Frecency.FrequencyWeight > 1 {
		warn("frecency.frequency_weight", fmt.Sprintf("must be <= 1.0, got %f; clamping to 1.0", c.Frecency.FrequencyWeight))
		c.Frecency.FrequencyWeight = 1
	}
	if c.Frecency.MinAccessThreshold < 0 {
		warn("frecency.min_access_threshold", fmt.Sprintf("must be >= 0, got %d; clamping to 0", c.Frecency.MinAccessThreshold))
		c.Frecency.MinAccessThreshold = 0
	}

	maxResults := []struct {
		name string
		val  *int
		def  int
	}{
		{"apps.max_results", &c.Apps.MaxResults, defaults.Apps.MaxResults},
		{"wallpaper.max_results", &c.Wallpaper.MaxResults, defaults.Wallpaper.MaxResults},
		{"clipboard.max_results", &c.Clipboard.MaxResults, defaults.Clipboard.MaxResults},
	}
	for _, m := range maxResults {
		if *m.val < 1 {
			warn(m.name, fmt.Sprintf("must be >= 1, got %d; falling back to default %d", *m.val, m.def))
			*m.val = m.def
		}
	}

	if c.Wallpaper.MaxDepth < 1 {
		warn("wallpaper.max_depth", fmt.Sprintf("must be >= 1, got %d; falling back to default %d",
			c.Wallpaper.MaxDepth, defaults.Wallpaper.MaxDepth))
		c.Wallpaper.MaxDepth = defaults.Wallpaper.MaxDepth
	}

	return warnings
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
