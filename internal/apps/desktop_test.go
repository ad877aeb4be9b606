package apps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDesktopFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const firefoxDesktop = `[Desktop Entry]
Type=Application
Name=Firefox
Comment=Web browser
Icon=firefox
Exec=/usr/bin/firefox %u
`

func TestParseDesktopFile(t *testing.T) {
	dir := t.TempDir()
	writeDesktopFile(t, dir, "firefox.desktop", firefoxDesktop)

	entry, ok, err := parseDesktopFile(filepath.Join(dir, "firefox.desktop"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Firefox", entry.Name)
	assert.Equal(t, "Web browser", entry.Comment)
	assert.Equal(t, "firefox", entry.Icon)
	assert.Equal(t, "/usr/bin/firefox %u", entry.Exec)
}

func TestParseDesktopFileSkipsHiddenAndNonApps(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"nodisplay.desktop", "[Desktop Entry]\nType=Application\nName=X\nExec=x-bin\nNoDisplay=true\n"},
		{"hidden.desktop", "[Desktop Entry]\nType=Application\nName=X\nExec=x-bin\nHidden=true\n"},
		{"link.desktop", "[Desktop Entry]\nType=Link\nName=X\nExec=x-bin\n"},
		{"no-exec.desktop", "[Desktop Entry]\nType=Application\nName=X\n"},
	}
	for _, tt := range tests {
		writeDesktopFile(t, dir, tt.name, tt.content)
		_, ok, err := parseDesktopFile(filepath.Join(dir, tt.name))
		require.NoError(t, err, tt.name)
		assert.False(t, ok, tt.name)
	}
}

func TestParseDesktopFileIgnoresOtherSections(t *testing.T) {
	dir := t.TempDir()
	writeDesktopFile(t, dir, "app.desktop", `[Desktop Entry]
Type=Application
Name=Real Name
Exec=real-bin

[Desktop Action new-window]
Name=Other Name
Exec=other-bin
`)

	entry, ok, err := parseDesktopFile(filepath.Join(dir, "app.desktop"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Real Name", entry.Name)
	assert.Equal(t, "real-bin", entry.Exec)
}

func TestParseDesktopFileGenericNameFallback(t *testing.T) {
	dir := t.TempDir()
	writeDesktopFile(t, dir, "app.desktop", `[Desktop Entry]
Type=Application
Name=App
GenericName=Generic thing
Exec=app-bin
`)

	entry, ok, err := parseDesktopFile(filepath.Join(dir, "app.desktop"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Generic thing", entry.Comment)
}

func TestListShadowsByFilename(t *testing.T) {
	home := t.TempDir()
	system := t.TempDir()
	writeDesktopFile(t, filepath.Join(home, "applications"), "firefox.desktop", `[Desktop Entry]
Type=Application
Name=Firefox (user build)
Exec=/home/u/bin/firefox
`)
	writeDesktopFile(t, filepath.Join(system, "applications"), "firefox.desktop", firefoxDesktop)
	writeDesktopFile(t, filepath.Join(system, "applications"), "files.desktop", `[Desktop Entry]
Type=Application
Name=Files
Exec=nautilus
`)

	t.Setenv("XDG_DATA_HOME", home)
	t.Setenv("XDG_DATA_DIRS", system)
	reg := NewRegistry(nil, nil)

	entries, err := reg.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	names := make(map[string]string)
	for _, e := range entries {
		names[e.Name] = e.Exec
	}
	assert.Contains(t, names, "Firefox (user build)", "home entry shadows the system one")
	assert.NotContains(t, names, "Firefox")
	assert.Contains(t, names, "Files")
}

func TestListIncludesExtraDirs(t *testing.T) {
	empty := t.TempDir()
	extra := t.TempDir()
	writeDesktopFile(t, extra, "custom.desktop", `[Desktop Entry]
Type=Application
Name=Custom Tool
Exec=custom-tool
`)

	t.Setenv("XDG_DATA_HOME", empty)
	t.Setenv("XDG_DATA_DIRS", empty)
	reg := NewRegistry(nil, []string{extra})

	entries, err := reg.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Custom Tool", entries[0].Name)
}

func TestStripFieldCodes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/usr/bin/firefox %u", "/usr/bin/firefox"},
		{"eog %F", "eog"},
		{"app --flag %i %c %k", "app --flag"},
		{"app 100%% done", "app 100% done"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripFieldCodes(tt.in))
	}
}
