package picker

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/runger/glint/internal/frecency"
)

// ClipboardRecord is one entry as reported by the external
// clipboard-history tool: its transient backing id, the decoded-for-list
// content, and the raw list line used for tool operations.
type ClipboardRecord struct {
	ToolID  string
	Content string
	Raw     string
}

// ClipboardTool is the narrow surface over the external history tool.
type ClipboardTool interface {
	List(ctx context.Context) ([]ClipboardRecord, error)
	Delete(ctx context.Context, raw string) error
	Wipe(ctx context.Context) error
	Copy(ctx context.Context, raw string) error

	EnsureWatcher(ctx context.Context) error
	StopWatcher() error
}

// clipEntry pairs an item with the raw line needed for tool operations.
type clipEntry struct {
	raw        string
	searchable string
}

// ClipboardProvider searches clipboard history. The backing tool
// reassigns its own ids, so item ids derive from a content hash,
// memoized per content so identical content always maps to the same id
// and frecency history survives re-lists.
type ClipboardProvider struct {
	*Base
	tool   ClipboardTool
	logger *slog.Logger

	cacheMu      sync.Mutex
	all          []Item
	entries      map[string]clipEntry
	contentToID  map[string]string
	currentQuery string
	loaded       bool
}

var (
	_ Provider  = (*ClipboardProvider)(nil)
	_ Refresher = (*ClipboardProvider)(nil)
	_ Deleter   = (*ClipboardProvider)(nil)
	_ Wiper     = (*ClipboardProvider)(nil)
	_ Disposer  = (*ClipboardProvider)(nil)
)

// ClipboardProviderConfig returns the clipboard provider descriptor.
func ClipboardProviderConfig(maxResults int) ProviderConfig {
	if maxResults < 1 {
		maxResults = 8
	}
	return ProviderConfig{
		Command:     "clip",
		Icon:        "clipboard",
		Name:        "Clipboard",
		Placeholder: "Search clipboard history...",
		Component:   ComponentList,
		MaxResults:  maxResults,
		Features:    Features{Refresh: true, Delete: true, Wipe: true},
	}
}

// NewClipboardProvider creates the provider and starts the background
// watcher feeding the history tool. A watcher failure degrades to
// search-only operation, it is not fatal.
func NewClipboardProvider(ctx context.Context, tool ClipboardTool, fr *frecency.Store, logger *slog.Logger, maxResults int) *ClipboardProvider {
	p := &ClipboardProvider{
		Base:        NewBase(ClipboardProviderConfig(maxResults), fr, logger),
		tool:        tool,
		logger:      logger,
		entries:     make(map[string]clipEntry),
		contentToID: make(map[string]string),
	}
	if err := tool.EnsureWatcher(ctx); err != nil {
		logger.Warn("clipboard provider: watcher unavailable", "error", err)
	}
	return p
}

// Search publishes frecency defaults on an empty query, fuzzy content
// matches otherwise. The candidate set loads lazily on first call.
func (p *ClipboardProvider) Search(ctx context.Context, query string) error {
	gen := p.beginSearch()
	defer p.endSearch(gen)

	p.cacheMu.Lock()
	p.currentQuery = query
	loaded := p.loaded
	p.cacheMu.Unlock()

	if !loaded {
		if err := p.load(ctx); err != nil {
			p.publish(gen, nil)
			return fmt.Errorf("clipboard provider: list: %w", err)
		}
	}

	p.cacheMu.Lock()
	all := p.all
	p.cacheMu.Unlock()

	if strings.TrimSpace(query) == "" {
		p.publishDefaults(gen, all)
		return nil
	}

	matches := fuzzy.FindFrom(query, clipSource{items: all, provider: p})
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

// load lists the tool's history and rebuilds the candidate set.
func (p *ClipboardProvider) load(ctx context.Context) error {
	records, err := p.tool.List(ctx)
	if err != nil {
		return err
	}

	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()

	all := make([]Item, 0, len(records))
	entries := make(map[string]clipEntry, len(records))
	for _, rec := range records {
		id := p.contentIDLocked(rec.Content)
		if _, dup := entries[id]; dup {
			continue // Same content listed twice; keep the newest record.
		}
		display := NormalizeDisplay(rec.Content)
		all = append(all, Item{
			ID:          id,
			Name:        Truncate(display, 80),
			Description: fmt.Sprintf("#%s : %s", rec.ToolID, describeContent(rec.Content)),
		})
		entries[id] = clipEntry{
			raw:        rec.Raw,
			searchable: strings.ToLower(display),
		}
	}
	p.all = all
	p.entries = entries
	p.loaded = true
	p.logger.Debug("clipboard provider: loaded entries", "count", len(all))
	return nil
}

// contentIDLocked derives the stable id for a piece of content,
// memoizing so identical content always yields the same id.
func (p *ClipboardProvider) contentIDLocked(content string) string {
	if id, ok := p.contentToID[content]; ok {
		return id
	}
	h := fnv.New32a()
	h.Write([]byte(content))
	id := "clip_" + strconv.FormatUint(uint64(h.Sum32()), 36)
	p.contentToID[content] = id
	return id
}

// Activate copies the entry's content back onto the system clipboard.
func (p *ClipboardProvider) Activate(ctx context.Context, item Item) error {
	p.cacheMu.Lock()
	entry, ok := p.entries[item.ID]
	p.cacheMu.Unlock()
	if !ok {
		return fmt.Errorf("clipboard provider: unknown item %q", item.ID)
	}
	if err := p.tool.Copy(ctx, entry.raw); err != nil {
		return fmt.Errorf("clipboard provider: copy: %w", err)
	}
	return nil
}

// Refresh drops the cache and re-runs the current query.
func (p *ClipboardProvider) Refresh(ctx context.Context) error {
	p.cacheMu.Lock()
	p.loaded = false
	query := p.currentQuery
	p.cacheMu.Unlock()
	return p.Search(ctx, query)
}

// Delete removes one entry from the backing tool and the local cache,
// then re-runs the current query.
func (p *ClipboardProvider) Delete(ctx context.Context, item Item) error {
	p.cacheMu.Lock()
	entry, ok := p.entries[item.ID]
	p.cacheMu.Unlock()
	if !ok {
		return fmt.Errorf("clipboard provider: unknown item %q", item.ID)
	}
	if err := p.tool.Delete(ctx, entry.raw); err != nil {
		return fmt.Errorf("clipboard provider: delete: %w", err)
	}

	p.cacheMu.Lock()
	delete(p.entries, item.ID)
	kept := p.all[:0]
	for _, it := range p.all {
		if it.ID != item.ID {
			kept = append(kept, it)
		}
	}
	p.all = kept
	query := p.currentQuery
	p.cacheMu.Unlock()

	return p.Search(ctx, query)
}

// Wipe clears the entire history, including the content-id memo.
func (p *ClipboardProvider) Wipe(ctx context.Context) error {
	if err := p.tool.Wipe(ctx); err != nil {
		return fmt.Errorf("clipboard provider: wipe: %w", err)
	}

	p.cacheMu.Lock()
	p.all = nil
	p.entries = make(map[string]clipEntry)
	p.contentToID = make(map[string]string)
	p.loaded = true
	p.cacheMu.Unlock()

	p.clearResults()
	return nil
}

// Dispose terminates the background watcher subprocess.
func (p *ClipboardProvider) Dispose() error {
	return p.tool.StopWatcher()
}

var (
	urlRE    = regexp.MustCompile(`^https?://`)
	numberRE = regexp.MustCompile(`^\d+$`)
	phoneRE  = regexp.MustCompile(`^[\d\s\-+()/]+$`)
)

// describeContent classifies content for the item description.
func describeContent(content string) string {
	switch {
	case urlRE.MatchString(content):
		return "URL"
	case isEmail(content):
		return "Email"
	case numberRE.MatchString(content):
		return "Number"
	case phoneRE.MatchString(content) && len(content) > 3:
		return "Phone/ID"
	case len(content) >= 100:
		return "Long text"
	default:
		return fmt.Sprintf("Text (%d chars)", len(content))
	}
}

func isEmail(s string) bool {
	if strings.ContainsAny(s, " \t\n") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// clipSource adapts items for fuzzy matching over normalized content.
type clipSource struct {
	items    []Item
	provider *ClipboardProvider
}

func (s clipSource) String(i int) string {
	s.provider.cacheMu.Lock()
	defer s.provider.cacheMu.Unlock()
	if e, ok := s.provider.entries[s.items[i].ID]; ok {
		return e.searchable
	}
	return strings.ToLower(s.items[i].Name)
}

func (s clipSource) Len() int { return len(s.items) }
