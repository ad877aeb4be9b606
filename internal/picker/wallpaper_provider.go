package picker

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/runger/glint/internal/frecency"
)

// WallpaperStore is the narrow surface the wallpaper provider needs: a
// bounded-depth image scan, an apply action, and the pass-through theme
// controls handled by the external theming pipeline.
type WallpaperStore interface {
	List(ctx context.Context) ([]string, error)
	Refresh(ctx context.Context) error
	Apply(ctx context.Context, path string) error
	Current() string

	SetMode(ctx context.Context, mode string) error
	Mode() string
	SetScheme(ctx context.Context, scheme string) error
	Scheme() string

	Thumbnail(ctx context.Context, path string) (image.Image, error)
	Close() error
}

// WallpaperProvider searches wallpaper image files and applies them.
type WallpaperProvider struct {
	*Base
	store  WallpaperStore
	logger *slog.Logger

	cacheMu sync.Mutex
	all     []Item

	thumbMu sync.Mutex
	thumbs  map[string]image.Image
}

// thumbCacheSize bounds decoded previews held in memory.
const thumbCacheSize = 32

var (
	_ Provider    = (*WallpaperProvider)(nil)
	_ Refresher   = (*WallpaperProvider)(nil)
	_ Randomizer  = (*WallpaperProvider)(nil)
	_ Thumbnailer = (*WallpaperProvider)(nil)
	_ Disposer    = (*WallpaperProvider)(nil)
)

// WallpaperProviderConfig returns the wallpaper provider descriptor.
func WallpaperProviderConfig(maxResults int) ProviderConfig {
	if maxResults < 1 {
		maxResults = 12
	}
	return ProviderConfig{
		Command:     "wp",
		Icon:        "image",
		Name:        "Wallpapers",
		Placeholder: "Search wallpapers...",
		Component:   ComponentGrid,
		MaxResults:  maxResults,
		Features:    Features{Refresh: true, Random: true},
	}
}

// NewWallpaperProvider creates the provider. The candidate set loads
// lazily on first search so startup never blocks on a directory walk.
func NewWallpaperProvider(store WallpaperStore, fr *frecency.Store, logger *slog.Logger, maxResults int) *WallpaperProvider {
	return &WallpaperProvider{
		Base:   NewBase(WallpaperProviderConfig(maxResults), fr, logger),
		store:  store,
		logger: logger,
	}
}

// candidates loads the scan results, caching them until Refresh.
func (p *WallpaperProvider) candidates(ctx context.Context) ([]Item, error) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	if p.all != nil {
		return p.all, nil
	}

	paths, err := p.store.List(ctx)
	if err != nil {
		return nil, err
	}
	all := make([]Item, 0, len(paths))
	for _, path := range paths {
		all = append(all, Item{
			ID:   path,
			Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Path: path,
		})
	}
	p.all = all
	return all, nil
}

// Search publishes frecency defaults on an empty query, fuzzy filename
// matches otherwise.
func (p *WallpaperProvider) Search(ctx context.Context, query string) error {
	gen := p.beginSearch()
	defer p.endSearch(gen)

	all, err := p.candidates(ctx)
	if err != nil {
		p.publish(gen, nil)
		return fmt.Errorf("wallpaper provider: scan: %w", err)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		p.publishDefaults(gen, all)
		return nil
	}

	matches := fuzzy.FindFrom(query, wallpaperSource(all))
	limit := p.Config().MaxResults
	results := make([]Item, 0, limit)
	for _, m := range matches {
		if len(results) >= limit {
			break
		}
		results = append(results, all[m.Index])
	}
	p.publish(gen, results)
	return nil
}

// Activate sets the wallpaper behind the item.
func (p *WallpaperProvider) Activate(ctx context.Context, item Item) error {
	if err := p.store.Apply(ctx, item.Path); err != nil {
		return fmt.Errorf("wallpaper provider: apply %q: %w", item.Path, err)
	}
	return nil
}

// Refresh re-scans the wallpaper directory.
func (p *WallpaperProvider) Refresh(ctx context.Context) error {
	if err := p.store.Refresh(ctx); err != nil {
		return fmt.Errorf("wallpaper provider: refresh: %w", err)
	}
	p.cacheMu.Lock()
	p.all = nil
	p.cacheMu.Unlock()
	p.thumbMu.Lock()
	p.thumbs = nil
	p.thumbMu.Unlock()
	return nil
}

// Random applies a random candidate different from the current
// wallpaper. No-op when fewer than two candidates exist.
func (p *WallpaperProvider) Random(ctx context.Context) error {
	all, err := p.candidates(ctx)
	if err != nil {
		return fmt.Errorf("wallpaper provider: scan: %w", err)
	}
	if len(all) < 2 {
		return nil
	}

	current := p.store.Current()
	var pool []Item
	for _, item := range all {
		if item.Path != current {
			pool = append(pool, item)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	pick := pool[rand.Intn(len(pool))]
	if err := p.store.Apply(ctx, pick.Path); err != nil {
		return fmt.Errorf("wallpaper provider: apply %q: %w", pick.Path, err)
	}
	return nil
}

// Thumbnail decodes a preview for grid rendering. Decoded images are
// memoized up to thumbCacheSize; the cache resets wholesale when full
// and on Refresh.
func (p *WallpaperProvider) Thumbnail(ctx context.Context, path string) (image.Image, error) {
	p.thumbMu.Lock()
	if img, ok := p.thumbs[path]; ok {
		p.thumbMu.Unlock()
		return img, nil
	}
	p.thumbMu.Unlock()

	img, err := p.store.Thumbnail(ctx, path)
	if err != nil {
		return nil, err
	}

	p.thumbMu.Lock()
	if p.thumbs == nil || len(p.thumbs) >= thumbCacheSize {
		p.thumbs = make(map[string]image.Image)
	}
	p.thumbs[path] = img
	p.thumbMu.Unlock()
	return img, nil
}

// SetMode passes the theme mode through to the theming pipeline.
func (p *WallpaperProvider) SetMode(ctx context.Context, mode string) error {
	return p.store.SetMode(ctx, mode)
}

// Mode returns the current theme mode.
func (p *WallpaperProvider) Mode() string { return p.store.Mode() }

// SetScheme passes the color scheme through to the theming pipeline.
func (p *WallpaperProvider) SetScheme(ctx context.Context, scheme string) error {
	return p.store.SetScheme(ctx, scheme)
}

// Scheme returns the current theme color scheme.
func (p *WallpaperProvider) Scheme() string { return p.store.Scheme() }

// Dispose releases the store's directory watcher.
func (p *WallpaperProvider) Dispose() error {
	return p.store.Close()
}

// wallpaperSource adapts items for fuzzy filename matching.
type wallpaperSource []Item

func (s wallpaperSource) String(i int) string { return s[i].Name }

func (s wallpaperSource) Len() int { return len(s) }
