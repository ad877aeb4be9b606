// Package apps enumerates installed applications from XDG desktop
// entries and launches them.
package apps

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/shlex"

	"github.com/runger/glint/internal/picker"
)

// Registry scans .desktop files from the XDG data directories.
type Registry struct {
	dirs   []string
	logger *slog.Logger
}

// Compile-time check that Registry implements picker.AppRegistry.
var _ picker.AppRegistry = (*Registry)(nil)

// NewRegistry creates a registry over the standard XDG application
// directories plus any extra directories from config.
func NewRegistry(logger *slog.Logger, extraDirs []string) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		dirs:   append(applicationDirs(), extraDirs...),
		logger: logger,
	}
}

// applicationDirs returns XDG application directories in priority order.
func applicationDirs() []string {
	var dirs []string

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	if dataHome != "" {
		dirs = append(dirs, filepath.Join(dataHome, "applications"))
	}

	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	for _, d := range strings.Split(dataDirs, ":") {
		if d != "" {
			dirs = append(dirs, filepath.Join(d, "applications"))
		}
	}
	return dirs
}

// List parses all visible desktop entries. Earlier directories shadow
// later ones with the same desktop file id.
func (r *Registry) List(ctx context.Context) ([]picker.AppEntry, error) {
	seen := make(map[string]bool)
	var entries []picker.AppEntry

	for _, dir := range r.dirs {
		files, err := os.ReadDir(dir)
		if err != nil {
			continue // Missing directories are normal.
		}
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".desktop") {
				continue
			}
			if seen[f.Name()] {
				continue
			}
			seen[f.Name()] = true

			entry, ok, err := parseDesktopFile(filepath.Join(dir, f.Name()))
			if err != nil {
				r.logger.Debug("skipping unreadable desktop entry", "file", f.Name(), "error", err)
				continue
			}
			if ok {
				entries = append(entries, entry)
			}
		}
	}
	return entries, nil
}

// Launch starts the entry's executable detached from the picker process.
func (r *Registry) Launch(ctx context.Context, entry picker.AppEntry) error {
	argv, err := shlex.Split(stripFieldCodes(entry.Exec))
	if err != nil {
		return fmt.Errorf("apps: parse exec line %q: %w", entry.Exec, err)
	}
	if len(argv) == 0 {
		return fmt.Errorf("apps: empty exec line for %q", entry.Name)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("apps: start %q: %w", argv[0], err)
	}
	// Detach: the launched app outlives the picker.
	return cmd.Process.Release()
}

// fieldCodeReplacer strips desktop-entry field codes (%f, %U, ...).
var fieldCodeReplacer = strings.NewReplacer(
	"%f", "", "%F", "", "%u", "", "%U", "",
	"%i", "", "%c", "", "%k", "", "%%", "%",
)

func stripFieldCodes(exec string) string {
	return strings.TrimSpace(fieldCodeReplacer.Replace(exec))
}

// parseDesktopFile reads the [Desktop Entry] section of one file. The
// ok return is false for hidden or non-application entries.
func parseDesktopFile(path string) (picker.AppEntry, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return picker.AppEntry{}, false, err
	}
	defer f.Close()

	var (
		entry     picker.AppEntry
		inSection bool
		entryType string
		hidden    bool
	)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inSection = line == "[Desktop Entry]"
			continue
		}
		if !inSection {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "Type":
			entryType = value
		case "Name":
			if entry.Name == "" {
				entry.Name = value
			}
		case "Comment":
			if entry.Comment == "" {
				entry.Comment = value
			}
		case "GenericName":
			if entry.Comment == "" {
				entry.Comment = value
			}
		case "Icon":
			entry.Icon = value
		case "Exec":
			entry.Exec = value
		case "NoDisplay", "Hidden":
			if value == "true" {
				hidden = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return picker.AppEntry{}, false, err
	}

	if hidden || entryType != "Application" || entry.Name == "" || entry.Exec == "" {
		return picker.AppEntry{}, false, nil
	}
	return entry, true, nil
}
