package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
picker:
  debounce_ms: 250
  initial_provider: wp
frecency:
  max_items: 50
wallpaper:
  directory: /data/walls
  apply_command: "hyprpaper set"
clipboard:
  enabled: false
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 250, cfg.Picker.DebounceMs)
	assert.Equal(t, "wp", cfg.Picker.InitialProvider)
	assert.Equal(t, 50, cfg.Frecency.MaxItems)
	assert.Equal(t, "/data/walls", cfg.Wallpaper.Directory)
	assert.Equal(t, "hyprpaper set", cfg.Wallpaper.ApplyCommand)
	assert.False(t, cfg.Clipboard.Enabled)

	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultConfig().Apps.MaxResults, cfg.Apps.MaxResults)
	assert.Equal(t, DefaultConfig().Frecency.DecayFactor, cfg.Frecency.DecayFactor)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "picker: [not a map")
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	path := writeConfig(t, "log:\n  level: loud\n")
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidateAndFixClampsOutOfRangeValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Picker.DebounceMs = -1
	cfg.Frecency.MaxItems = 0
	cfg.Frecency.DecayFactor = 1.5
	cfg.Frecency.FrequencyWeight = 3
	cfg.Frecency.MinAccessThreshold = -2
	cfg.Apps.MaxResults = 0
	cfg.Wallpaper.MaxDepth = 0

	warnings := cfg.ValidateAndFix()

	def := DefaultConfig()
	assert.Equal(t, def.Picker.DebounceMs, cfg.Picker.DebounceMs)
	assert.Equal(t, def.Frecency.MaxItems, cfg.Frecency.MaxItems)
	assert.Equal(t, def.Frecency.DecayFactor, cfg.Frecency.DecayFactor)
	assert.Equal(t, 1.0, cfg.Frecency.FrequencyWeight)
	assert.Equal(t, 0, cfg.Frecency.MinAccessThreshold)
	assert.Equal(t, def.Apps.MaxResults, cfg.Apps.MaxResults)
	assert.Equal(t, def.Wallpaper.MaxDepth, cfg.Wallpaper.MaxDepth)
	assert.Len(t, warnings, 7)
}

func TestValidateAndFixLeavesValidConfigAlone(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.ValidateAndFix())
}
