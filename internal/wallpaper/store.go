// Package wallpaper scans a directory tree for image files, applies a
// selected wallpaper through an external command, and passes theme
// mode/scheme changes through to an external theming pipeline.
package wallpaper

import (
	"context"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fsnotify/fsnotify"
	"github.com/google/shlex"

	"github.com/runger/glint/internal/picker"
)

// imageExts are the file extensions treated as wallpapers.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// Options configures a Store.
type Options struct {
	// Directory is the scan root.
	Directory string

	// MaxDepth bounds the recursive scan (default 2).
	MaxDepth int

	// IncludeHidden includes dotfiles and dot-directories in the scan.
	IncludeHidden bool

	// ApplyCommand is run to set a wallpaper; the path is appended.
	ApplyCommand string

	// ThemeCommand is run on mode/scheme changes as
	// "<cmd> --<key> <value>"; empty disables the pass-through.
	ThemeCommand string
}

// Store implements picker.WallpaperStore over the local filesystem. A
// directory watcher marks the cache dirty so the next List rescans.
type Store struct {
	opts    Options
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	files   []string
	dirty   bool
	current string
	mode    string
	scheme  string
}

// Compile-time check that Store implements picker.WallpaperStore.
var _ picker.WallpaperStore = (*Store)(nil)

// NewStore creates a store and starts watching the scan root for
// changes. A watcher failure is degraded, not fatal: List still works,
// it just never self-invalidates.
func NewStore(opts Options, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxDepth < 1 {
		opts.MaxDepth = 2
	}

	s := &Store{
		opts:   opts,
		logger: logger,
		dirty:  true,
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("wallpaper: watcher unavailable", "error", err)
		return s
	}
	if err := watcher.Add(opts.Directory); err != nil {
		logger.Debug("wallpaper: cannot watch directory", "dir", opts.Directory, "error", err)
		watcher.Close()
		return s
	}
	s.watcher = watcher
	go s.watch()
	return s
}

// watch marks the cache dirty on any event in the scan root.
func (s *Store) watch() {
	for {
		select {
		case _, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.mu.Lock()
			s.dirty = true
			s.mu.Unlock()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Debug("wallpaper: watch error", "error", err)
		}
	}
}

// List returns the scanned image paths, rescanning when dirty.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty || s.files == nil {
		files, err := s.scan(ctx)
		if err != nil {
			return nil, err
		}
		s.files = files
		s.dirty = false
	}

	out := make([]string, len(s.files))
	copy(out, s.files)
	return out, nil
}

// Refresh forces the next List to rescan.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
	return nil
}

// scan walks the directory up to MaxDepth, collecting image files.
func (s *Store) scan(ctx context.Context) ([]string, error) {
	root := s.opts.Directory
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // Unreadable subtree: skip, keep scanning.
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		name := d.Name()
		hidden := strings.HasPrefix(name, ".") && path != root
		if d.IsDir() {
			if hidden && !s.opts.IncludeHidden {
				return filepath.SkipDir
			}
			if depthOf(root, path) >= s.opts.MaxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden && !s.opts.IncludeHidden {
			return nil
		}
		if imageExts[strings.ToLower(filepath.Ext(name))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("wallpaper: directory missing", "dir", root)
			return nil, nil
		}
		return nil, fmt.Errorf("wallpaper: scan %q: %w", root, err)
	}
	return files, nil
}

// depthOf counts directory levels of path below root.
func depthOf(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return len(strings.Split(rel, string(filepath.Separator)))
}

// Apply runs the configured apply command with the path appended.
func (s *Store) Apply(ctx context.Context, path string) error {
	argv, err := shlex.Split(s.opts.ApplyCommand)
	if err != nil {
		return fmt.Errorf("wallpaper: parse apply command: %w", err)
	}
	if len(argv) == 0 {
		return fmt.Errorf("wallpaper: no apply command configured")
	}
	argv = append(argv, path)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("wallpaper: apply command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	s.mu.Lock()
	s.current = path
	s.mu.Unlock()
	return nil
}

// Current returns the most recently applied wallpaper path.
func (s *Store) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetMode passes the theme mode to the theming command.
func (s *Store) SetMode(ctx context.Context, mode string) error {
	if err := s.runThemeCommand(ctx, "--mode", mode); err != nil {
		return err
	}
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	return nil
}

// Mode returns the current theme mode.
func (s *Store) Mode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetScheme passes the color scheme to the theming command.
func (s *Store) SetScheme(ctx context.Context, scheme string) error {
	if err := s.runThemeCommand(ctx, "--scheme", scheme); err != nil {
		return err
	}
	s.mu.Lock()
	s.scheme = scheme
	s.mu.Unlock()
	return nil
}

// Scheme returns the current theme color scheme.
func (s *Store) Scheme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheme
}

// runThemeCommand invokes the theming pipeline, if one is configured.
func (s *Store) runThemeCommand(ctx context.Context, flag, value string) error {
	if s.opts.ThemeCommand == "" {
		return nil
	}
	argv, err := shlex.Split(s.opts.ThemeCommand)
	if err != nil {
		return fmt.Errorf("wallpaper: parse theme command: %w", err)
	}
	if len(argv) == 0 {
		return nil
	}
	argv = append(argv, flag, value)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("wallpaper: theme command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Thumbnail decodes one image for grid preview rendering.
func (s *Store) Thumbnail(ctx context.Context, path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wallpaper: open %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("wallpaper: decode %q: %w", path, err)
	}
	return img, nil
}

// Close stops the directory watcher.
func (s *Store) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
