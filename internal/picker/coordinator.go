package picker

import (
	"context"
	"image"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Key identifies a navigation input routed into the coordinator.
type Key int

const (
	KeyEscape Key = iota + 1
	KeyEnter
	KeyTab
	KeyUp
	KeyDown
	KeyN // With ctrl: move forward, like Down
	KeyP // With ctrl: move backward, like Up
)

// State is the observable session snapshot published to the
// presentation layer.
type State struct {
	Provider     string
	ProviderName string
	Icon         string
	Placeholder  string
	Component    Component

	Query    string
	HasQuery bool

	Results       []Item
	SelectedIndex int
	HasNavigated  bool
	Loading       bool
	Visible       bool
}

// Coordinator is the single point of control for one interactive search
// session. It owns the query text, the active provider, the result list,
// selection, and visibility, and routes all input to the provider layer.
// The presentation layer must never call providers directly.
type Coordinator struct {
	logger *slog.Logger

	mu           sync.Mutex
	providers    map[string]Provider
	order        []string // Registration order, for Tab cycling
	unsubs       []func()
	active       string
	searchText   string
	results      []Item
	selected     int
	hasNavigated bool
	loading      bool
	visible      bool
	sessionID    string

	nextSub int
	subs    map[int]func(State)
}

// NewCoordinator creates an empty coordinator. Providers are registered
// with AddProvider; the first registered provider becomes active.
func NewCoordinator(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		logger:    logger,
		providers: make(map[string]Provider),
		subs:      make(map[int]func(State)),
	}
}

// AddProvider registers a provider under its command token and wires its
// result and loading publications into the session state. If it is the
// first provider it becomes active and an empty-query search populates
// its frecency defaults.
func (c *Coordinator) AddProvider(ctx context.Context, p Provider) {
	cmd := p.Config().Command

	c.mu.Lock()
	if _, exists := c.providers[cmd]; exists {
		c.mu.Unlock()
		c.logger.Warn("duplicate provider registration ignored", "command", cmd)
		return
	}
	c.providers[cmd] = p
	c.order = append(c.order, cmd)
	first := len(c.order) == 1
	if first {
		c.active = cmd
	}
	c.mu.Unlock()

	unsubResults := p.SubscribeResults(func(items []Item) {
		c.mu.Lock()
		if c.active != cmd {
			c.mu.Unlock()
			return
		}
		c.results = items
		st, subs := c.snapshotLocked()
		c.mu.Unlock()
		notify(subs, st)
	})
	unsubLoading := p.SubscribeLoading(func(loading bool) {
		c.mu.Lock()
		if c.active != cmd {
			c.mu.Unlock()
			return
		}
		c.loading = loading
		st, subs := c.snapshotLocked()
		c.mu.Unlock()
		notify(subs, st)
	})

	c.mu.Lock()
	c.unsubs = append(c.unsubs, unsubResults, unsubLoading)
	c.mu.Unlock()

	if first {
		c.searchProvider(ctx, p, "")
	}
}

// Subscribe registers a state observer. The returned function removes it.
func (c *Coordinator) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// State returns the current session snapshot.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, _ := c.snapshotLocked()
	return st
}

// ActiveProvider returns the active provider's command token.
func (c *Coordinator) ActiveProvider() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// AvailableProviders returns provider commands in registration order.
func (c *Coordinator) AvailableProviders() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// ProviderConfig returns the descriptor for a registered command.
func (c *Coordinator) ProviderConfig(command string) (ProviderConfig, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.providers[command]
	if !ok {
		return ProviderConfig{}, false
	}
	return p.Config(), true
}

// SelectedResult returns the currently selected item, if any.
func (c *Coordinator) SelectedResult() (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedLocked()
}

// SetSearchText parses and dispatches new search text. A ":command"
// prefix naming a registered provider switches to it and dispatches the
// remainder as the query; an unknown command falls back to treating the
// whole input as a literal query for the active provider. Calling with
// text identical to the current text is a no-op.
func (c *Coordinator) SetSearchText(ctx context.Context, text string) {
	c.mu.Lock()
	if c.searchText == text {
		c.mu.Unlock()
		return
	}
	c.searchText = text
	c.resetSelectionLocked()

	command, query := c.parseInputLocked(text)
	if command != c.active {
		// Switch first: selection reset, display hints re-emitted, the
		// literal displayed query cleared.
		c.switchLocked(command)
	}
	target := c.providers[c.active]
	st, subs := c.snapshotLocked()
	c.mu.Unlock()

	notify(subs, st)
	if target != nil {
		c.searchProvider(ctx, target, query)
	}
}

// SearchText returns the current raw search text.
func (c *Coordinator) SearchText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchText
}

// ClearSearch resets the query and republishes the active provider's
// frecency defaults.
func (c *Coordinator) ClearSearch(ctx context.Context) {
	c.mu.Lock()
	c.searchText = ""
	c.resetSelectionLocked()
	target := c.providers[c.active]
	st, subs := c.snapshotLocked()
	c.mu.Unlock()

	notify(subs, st)
	if target != nil {
		c.searchProvider(ctx, target, "")
	}
}

// SetActiveProvider switches to the named provider. No-op if the command
// is unknown or already active. On success the selection is reset, the
// query cleared, and an empty-query search populates the new provider's
// defaults.
func (c *Coordinator) SetActiveProvider(ctx context.Context, command string) bool {
	c.mu.Lock()
	if _, ok := c.providers[command]; !ok || c.active == command {
		c.mu.Unlock()
		return false
	}
	c.switchLocked(command)
	target := c.providers[c.active]
	st, subs := c.snapshotLocked()
	c.mu.Unlock()

	notify(subs, st)
	c.searchProvider(ctx, target, "")
	return true
}

// HandleKey routes one key press. The return value reports whether the
// input was consumed, so the presentation layer can fall through to
// default text-entry handling otherwise.
func (c *Coordinator) HandleKey(ctx context.Context, key Key, ctrl bool) bool {
	switch key {
	case KeyEscape:
		c.Hide()
		return true

	case KeyEnter:
		return c.ActivateSelected(ctx)

	case KeyTab:
		return c.handleTab(ctx)

	case KeyDown:
		return c.moveSelection(1)

	case KeyUp:
		return c.moveSelection(-1)

	case KeyN:
		if ctrl {
			return c.moveSelection(1)
		}
		return false

	case KeyP:
		if ctrl {
			return c.moveSelection(-1)
		}
		return false
	}

	return false
}

// handleTab completes the query when one is present, otherwise cycles to
// the next registered provider.
func (c *Coordinator) handleTab(ctx context.Context) bool {
	c.mu.Lock()
	hasQuery := strings.TrimSpace(c.searchText) != ""
	if hasQuery {
		target := c.providers[c.active]
		text := c.searchText
		c.mu.Unlock()
		if target != nil {
			if completed := target.Complete(text); completed != text {
				c.SetSearchText(ctx, completed)
			}
		}
		// Consumed either way while a query is present.
		return true
	}

	next := c.nextProviderLocked()
	c.mu.Unlock()
	if next != "" {
		c.SetActiveProvider(ctx, next)
	}
	return true
}

// Activate records the activation for frecency, delegates the domain
// action to the provider, then hides the picker unconditionally. The
// action is fire-and-forget: provider failures are logged, not surfaced.
func (c *Coordinator) Activate(ctx context.Context, item Item) {
	c.mu.Lock()
	target := c.providers[c.active]
	c.mu.Unlock()

	if target != nil {
		target.RecordActivation(item)
		if err := target.Activate(ctx, item); err != nil {
			c.logger.Warn("activation failed", "provider", target.Config().Command, "item", item.ID, "error", err)
		}
	}
	c.Hide()
}

// ActivateSelected activates the currently selected result, if any.
func (c *Coordinator) ActivateSelected(ctx context.Context) bool {
	c.mu.Lock()
	item, ok := c.selectedLocked()
	c.mu.Unlock()
	if !ok {
		return false
	}
	c.Activate(ctx, item)
	return true
}

// Refresh re-scans the active provider's backing source and re-issues
// the current query so the visible list reflects the refreshed set.
// Silent no-op if the provider does not support refreshing.
func (c *Coordinator) Refresh(ctx context.Context) {
	c.mu.Lock()
	target := c.providers[c.active]
	text := c.searchText
	c.mu.Unlock()

	r, ok := target.(Refresher)
	if !ok || !target.Config().Features.Refresh {
		return
	}
	if err := r.Refresh(ctx); err != nil {
		c.logger.Warn("refresh failed", "provider", target.Config().Command, "error", err)
	}
	c.searchProvider(ctx, target, text)
}

// Delete removes one item via the active provider. Silent no-op if
// unsupported.
func (c *Coordinator) Delete(ctx context.Context, item Item) {
	c.mu.Lock()
	target := c.providers[c.active]
	c.mu.Unlock()

	d, ok := target.(Deleter)
	if !ok || !target.Config().Features.Delete {
		return
	}
	if err := d.Delete(ctx, item); err != nil {
		c.logger.Warn("delete failed", "provider", target.Config().Command, "item", item.ID, "error", err)
	}
}

// Wipe clears the active provider's backing source. Silent no-op if
// unsupported.
func (c *Coordinator) Wipe(ctx context.Context) {
	c.mu.Lock()
	target := c.providers[c.active]
	c.mu.Unlock()

	w, ok := target.(Wiper)
	if !ok || !target.Config().Features.Wipe {
		return
	}
	if err := w.Wipe(ctx); err != nil {
		c.logger.Warn("wipe failed", "provider", target.Config().Command, "error", err)
	}
}

// Random activates a random item on the named provider (active provider
// when command is empty). Silent no-op if unsupported.
func (c *Coordinator) Random(ctx context.Context, command string) {
	c.mu.Lock()
	if command == "" {
		command = c.active
	}
	target := c.providers[command]
	c.mu.Unlock()

	r, ok := target.(Randomizer)
	if !ok || !target.Config().Features.Random {
		return
	}
	if err := r.Random(ctx); err != nil {
		c.logger.Warn("random failed", "provider", command, "error", err)
	}
}

// Thumbnail asks the active provider for a preview image. Returns
// (nil, nil) if the provider has no thumbnail capability.
func (c *Coordinator) Thumbnail(ctx context.Context, path string) (image.Image, error) {
	c.mu.Lock()
	target := c.providers[c.active]
	c.mu.Unlock()

	t, ok := target.(Thumbnailer)
	if !ok {
		return nil, nil
	}
	return t.Thumbnail(ctx, path)
}

// ShowDefaults republishes the active provider's default results.
func (c *Coordinator) ShowDefaults() {
	c.mu.Lock()
	target := c.providers[c.active]
	if target == nil {
		c.mu.Unlock()
		return
	}
	defaults := target.DefaultResults()
	if len(defaults) == 0 {
		c.mu.Unlock()
		return
	}
	c.results = defaults
	st, subs := c.snapshotLocked()
	c.mu.Unlock()
	notify(subs, st)
}

// Show makes the picker visible and starts a new session id for log
// correlation.
func (c *Coordinator) Show() {
	c.mu.Lock()
	c.visible = true
	c.sessionID = uuid.NewString()
	session := c.sessionID
	st, subs := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("picker shown", "session", session)
	notify(subs, st)
}

// Hide makes the picker invisible. The query is preserved.
func (c *Coordinator) Hide() {
	c.mu.Lock()
	if !c.visible {
		c.mu.Unlock()
		return
	}
	c.visible = false
	session := c.sessionID
	st, subs := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("picker hidden", "session", session)
	notify(subs, st)
}

// Toggle flips visibility.
func (c *Coordinator) Toggle() {
	c.mu.Lock()
	visible := c.visible
	c.mu.Unlock()
	if visible {
		c.Hide()
	} else {
		c.Show()
	}
}

// Dispose unhooks provider subscriptions and releases provider-held
// resources (watcher subprocesses and the like).
func (c *Coordinator) Dispose() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	providers := make([]Provider, 0, len(c.order))
	for _, cmd := range c.order {
		providers = append(providers, c.providers[cmd])
	}
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	for _, p := range providers {
		if d, ok := p.(Disposer); ok {
			if err := d.Dispose(); err != nil {
				c.logger.Warn("provider dispose failed", "provider", p.Config().Command, "error", err)
			}
		}
	}
}

// --- internals ---

// searchProvider dispatches a search, logging failures at the boundary.
func (c *Coordinator) searchProvider(ctx context.Context, p Provider, query string) {
	if err := p.Search(ctx, query); err != nil {
		c.logger.Warn("search failed", "provider", p.Config().Command, "error", err)
	}
}

// parseInputLocked splits search text into a routing command and query.
func (c *Coordinator) parseInputLocked(text string) (command, query string) {
	if strings.HasPrefix(text, ":") {
		token, rest, found := strings.Cut(text[1:], " ")
		if !found {
			rest = ""
		}
		if _, ok := c.providers[token]; ok {
			return token, rest
		}
		// Unknown command: the whole input is a literal query.
		return c.active, text
	}
	return c.active, text
}

// switchLocked activates command: selection reset, query cleared. The
// display hints are derived from the provider config on snapshot.
func (c *Coordinator) switchLocked(command string) {
	c.active = command
	c.resetSelectionLocked()
	c.searchText = ""
	c.results = nil
	c.loading = false
}

// nextProviderLocked returns the provider after the active one in
// registration order, wrapping around.
func (c *Coordinator) nextProviderLocked() string {
	if len(c.order) == 0 {
		return ""
	}
	for i, cmd := range c.order {
		if cmd == c.active {
			return c.order[(i+1)%len(c.order)]
		}
	}
	return c.order[0]
}

// moveSelection advances the selection. The first movement after a
// provider or query change only marks navigation started, so index 0
// becomes visibly selected; later movements wrap circularly.
func (c *Coordinator) moveSelection(direction int) bool {
	c.mu.Lock()
	if len(c.results) == 0 {
		c.mu.Unlock()
		return false
	}
	if !c.hasNavigated {
		c.hasNavigated = true
	} else {
		next := c.selected + direction
		switch {
		case next < 0:
			c.selected = len(c.results) - 1
		case next >= len(c.results):
			c.selected = 0
		default:
			c.selected = next
		}
	}
	st, subs := c.snapshotLocked()
	c.mu.Unlock()

	notify(subs, st)
	return true
}

func (c *Coordinator) resetSelectionLocked() {
	c.selected = 0
	c.hasNavigated = false
}

func (c *Coordinator) selectedLocked() (Item, bool) {
	if c.selected < 0 || c.selected >= len(c.results) {
		return Item{}, false
	}
	return c.results[c.selected], true
}

// snapshotLocked builds a State copy and the subscriber list to notify.
func (c *Coordinator) snapshotLocked() (State, []func(State)) {
	st := State{
		Provider:      c.active,
		Query:         c.searchText,
		HasQuery:      strings.TrimSpace(c.searchText) != "",
		Results:       copyItems(c.results),
		SelectedIndex: c.selected,
		HasNavigated:  c.hasNavigated,
		Loading:       c.loading,
		Visible:       c.visible,
	}
	if p, ok := c.providers[c.active]; ok {
		cfg := p.Config()
		st.ProviderName = cfg.Name
		st.Icon = cfg.Icon
		st.Placeholder = cfg.Placeholder
		st.Component = cfg.Component
	}
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return st, subs
}

func notify(subs []func(State), st State) {
	for _, fn := range subs {
		fn(st)
	}
}
