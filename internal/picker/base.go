package picker

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/runger/glint/internal/frecency"
)

// Base carries the provider state machinery shared by every concrete
// provider: the published result set, the frecency-derived defaults,
// loading transitions, and a search generation guard so a slow early
// search cannot clobber a faster later one (newest call wins).
type Base struct {
	cfg      ProviderConfig
	frecency *frecency.Store
	logger   *slog.Logger

	mu              sync.Mutex
	results         []Item
	defaults        []Item
	showingDefaults bool
	loading         bool
	gen             uint64

	nextSub     int
	resultSubs  map[int]func([]Item)
	loadingSubs map[int]func(bool)
}

// NewBase creates provider base state for the given descriptor.
func NewBase(cfg ProviderConfig, fr *frecency.Store, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{
		cfg:         cfg,
		frecency:    fr,
		logger:      logger.With("provider", cfg.Command),
		resultSubs:  make(map[int]func([]Item)),
		loadingSubs: make(map[int]func(bool)),
	}
}

// Config returns the provider descriptor.
func (b *Base) Config() ProviderConfig {
	return b.cfg
}

// Results returns a copy of the currently published result list.
func (b *Base) Results() []Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copyItems(b.results)
}

// DefaultResults returns a copy of the frecency-derived suggestions.
func (b *Base) DefaultResults() []Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copyItems(b.defaults)
}

// ShowingDefaults reports whether the published results mirror the
// frecency defaults.
func (b *Base) ShowingDefaults() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.showingDefaults
}

// Loading reports whether a search is in flight.
func (b *Base) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// HasResults reports whether any results are published.
func (b *Base) HasResults() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.results) > 0
}

// Complete returns the first published result name with the given
// case-insensitive prefix, or text unchanged if none matches.
func (b *Base) Complete(text string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	lower := strings.ToLower(text)
	for _, item := range b.results {
		if strings.HasPrefix(strings.ToLower(item.Name), lower) {
			return item.Name
		}
	}
	return text
}

// RecordActivation reports one activation to the frecency store. Called
// by the coordinator on every activation, never by the provider itself.
func (b *Base) RecordActivation(item Item) {
	if b.frecency == nil {
		return
	}
	b.frecency.RecordUsage(item.ID, b.cfg.Command)
}

// SubscribeResults registers a listener for result-set publications.
// The returned function unsubscribes it.
func (b *Base) SubscribeResults(fn func([]Item)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSub
	b.nextSub++
	b.resultSubs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.resultSubs, id)
	}
}

// SubscribeLoading registers a listener for loading transitions.
func (b *Base) SubscribeLoading(fn func(bool)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSub
	b.nextSub++
	b.loadingSubs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.loadingSubs, id)
	}
}

// beginSearch marks a new search in flight and returns its generation.
func (b *Base) beginSearch() uint64 {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.mu.Unlock()
	b.setLoading(true)
	return gen
}

// endSearch clears the loading flag if gen is still the newest search.
func (b *Base) endSearch(gen uint64) {
	b.mu.Lock()
	current := b.gen == gen
	b.mu.Unlock()
	if current {
		b.setLoading(false)
	}
}

// publish sets the result list for search generation gen. Stale
// generations are dropped. Returns whether the publish happened.
func (b *Base) publish(gen uint64, items []Item) bool {
	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return false
	}
	b.results = copyItems(items)
	b.showingDefaults = false
	subs, snapshot := b.resultSubsLocked()
	b.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
	return true
}

// publishDefaults resolves the frecency default ids against the
// provider's full candidate set and publishes them as both the default
// and current results. Ids with no matching candidate are dropped.
func (b *Base) publishDefaults(gen uint64, all []Item) bool {
	defaults := b.resolveDefaults(all)

	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return false
	}
	b.defaults = defaults
	b.results = copyItems(defaults)
	b.showingDefaults = true
	subs, snapshot := b.resultSubsLocked()
	b.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
	return true
}

// refreshDefaults recomputes and republishes defaults outside a search,
// used after a candidate re-scan while defaults are showing.
func (b *Base) refreshDefaults(all []Item) {
	b.mu.Lock()
	gen := b.gen
	b.mu.Unlock()
	b.publishDefaults(gen, all)
}

// clearResults empties the published result list.
func (b *Base) clearResults() {
	b.mu.Lock()
	b.results = nil
	b.showingDefaults = false
	subs, snapshot := b.resultSubsLocked()
	b.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// resolveDefaults maps frecency default ids back to full items.
func (b *Base) resolveDefaults(all []Item) []Item {
	if b.frecency == nil {
		return nil
	}
	ids := b.frecency.DefaultItems(b.cfg.Command, b.cfg.MaxResults)
	byID := make(map[string]Item, len(all))
	for _, item := range all {
		byID[item.ID] = item
	}
	defaults := make([]Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			defaults = append(defaults, item)
		}
	}
	return defaults
}

// setLoading updates the loading flag, notifying on change only.
func (b *Base) setLoading(loading bool) {
	b.mu.Lock()
	if b.loading == loading {
		b.mu.Unlock()
		return
	}
	b.loading = loading
	subs := make([]func(bool), 0, len(b.loadingSubs))
	for _, fn := range b.loadingSubs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(loading)
	}
}

// resultSubsLocked snapshots result subscribers and the current results.
// Callers must hold b.mu.
func (b *Base) resultSubsLocked() ([]func([]Item), []Item) {
	subs := make([]func([]Item), 0, len(b.resultSubs))
	for _, fn := range b.resultSubs {
		subs = append(subs, fn)
	}
	return subs, copyItems(b.results)
}

func copyItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
