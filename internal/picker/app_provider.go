package picker

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/runger/glint/internal/frecency"
)

// unknownAppID is the sentinel id for entries whose executable cannot
// be parsed.
const unknownAppID = "unknown-app"

// AppEntry is one installed launchable application, as enumerated by an
// AppRegistry.
type AppEntry struct {
	Name    string
	Comment string
	Icon    string
	Exec    string
}

// AppRegistry enumerates installed applications and launches them.
type AppRegistry interface {
	List(ctx context.Context) ([]AppEntry, error)
	Launch(ctx context.Context, entry AppEntry) error
}

// AppProvider searches installed applications. Each candidate gets a
// derived id (lowercased executable basename) so frecency keys stay
// stable across re-scans even though the registry may reissue entries.
type AppProvider struct {
	*Base
	registry AppRegistry
	logger   *slog.Logger

	cacheMu sync.Mutex
	all     []Item
	entries map[string]AppEntry // id -> entry, for activation
}

var (
	_ Provider  = (*AppProvider)(nil)
	_ Refresher = (*AppProvider)(nil)
)

// AppProviderConfig returns the app provider descriptor.
func AppProviderConfig(maxResults int) ProviderConfig {
	if maxResults < 1 {
		maxResults = 8
	}
	return ProviderConfig{
		Command:     "app",
		Icon:        "apps",
		Name:        "Apps",
		Placeholder: "Search apps...",
		Component:   ComponentList,
		MaxResults:  maxResults,
		Features:    Features{Refresh: true},
	}
}

// NewAppProvider creates the provider and performs the initial scan.
func NewAppProvider(ctx context.Context, registry AppRegistry, fr *frecency.Store, logger *slog.Logger, maxResults int) *AppProvider {
	p := &AppProvider{
		Base:     NewBase(AppProviderConfig(maxResults), fr, logger),
		registry: registry,
		logger:   logger,
		entries:  make(map[string]AppEntry),
	}
	p.loadAll(ctx)
	return p
}

// loadAll re-scans the registry and rebuilds the candidate set.
func (p *AppProvider) loadAll(ctx context.Context) {
	entries, err := p.registry.List(ctx)
	if err != nil {
		p.logger.Warn("app provider: list failed", "error", err)
		return
	}

	all := make([]Item, 0, len(entries))
	byID := make(map[string]AppEntry, len(entries))
	for _, e := range entries {
		id := appID(e)
		all = append(all, Item{
			ID:          id,
			Name:        e.Name,
			Description: e.Comment,
			IconName:    e.Icon,
		})
		byID[id] = e
	}

	p.cacheMu.Lock()
	p.all = all
	p.entries = byID
	p.cacheMu.Unlock()
}

// candidates snapshots the current candidate set.
func (p *AppProvider) candidates() []Item {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	return p.all
}

// appID derives a stable frecency id from the entry's executable.
func appID(e AppEntry) string {
	exec := strings.TrimSpace(e.Exec)
	if exec == "" {
		return unknownAppID
	}
	first := strings.Fields(exec)[0]
	name := filepath.Base(first)
	if len(name) < 2 {
		return unknownAppID
	}
	return strings.ToLower(name)
}

// Search publishes frecency defaults on an empty query, fuzzy name
// matches otherwise.
func (p *AppProvider) Search(ctx context.Context, query string) error {
	gen := p.beginSearch()
	defer p.endSearch(gen)

	all := p.candidates()
	query = strings.TrimSpace(query)
	if query == "" {
		p.publishDefaults(gen, all)
		return nil
	}

	matches := fuzzy.FindFrom(query, appSource(all))
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

// Activate launches the application behind the item.
func (p *AppProvider) Activate(ctx context.Context, item Item) error {
	p.cacheMu.Lock()
	entry, ok := p.entries[item.ID]
	p.cacheMu.Unlock()
	if !ok {
		return fmt.Errorf("app provider: unknown item %q", item.ID)
	}
	if err := p.registry.Launch(ctx, entry); err != nil {
		return fmt.Errorf("app provider: launch %q: %w", item.ID, err)
	}
	return nil
}

// Refresh re-scans the registry; if defaults are showing they are
// republished against the fresh candidate set.
func (p *AppProvider) Refresh(ctx context.Context) error {
	p.loadAll(ctx)
	if p.ShowingDefaults() {
		p.refreshDefaults(p.candidates())
	}
	return nil
}

// appSource adapts items for fuzzy matching over name plus description.
type appSource []Item

func (s appSource) String(i int) string {
	return s[i].Name + " " + s[i].Description
}

func (s appSource) Len() int { return len(s) }
