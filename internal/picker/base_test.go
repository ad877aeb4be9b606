package picker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBase(t *testing.T) *Base {
	t.Helper()
	return NewBase(fakeConfig("app"), newTestFrecency(t), nil)
}

func TestStalePublishIsDropped(t *testing.T) {
	b := newTestBase(t)

	slow := b.beginSearch()
	fast := b.beginSearch()

	require.True(t, b.publish(fast, []Item{{ID: "new", Name: "New"}}))
	require.False(t, b.publish(slow, []Item{{ID: "old", Name: "Old"}}),
		"an earlier search must not clobber a later one")

	results := b.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].ID)
}

func TestStaleEndSearchKeepsLoading(t *testing.T) {
	b := newTestBase(t)

	slow := b.beginSearch()
	_ = b.beginSearch()

	b.endSearch(slow)
	assert.True(t, b.Loading(), "only the newest search may clear loading")
}

func TestLoadingNotifiesOnChangeOnly(t *testing.T) {
	b := newTestBase(t)

	var mu sync.Mutex
	var transitions []bool
	b.SubscribeLoading(func(loading bool) {
		mu.Lock()
		transitions = append(transitions, loading)
		mu.Unlock()
	})

	gen := b.beginSearch()
	_ = b.beginSearch() // Loading already true; no second notification.
	b.endSearch(b.gen)
	b.endSearch(gen) // Stale; no effect.

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, transitions)
}

func TestPublishDefaultsDropsUnknownIDs(t *testing.T) {
	b := newTestBase(t)
	b.frecency.RecordUsage("firefox", "app")
	b.frecency.RecordUsage("uninstalled", "app")

	gen := b.beginSearch()
	require.True(t, b.publishDefaults(gen, []Item{{ID: "firefox", Name: "Firefox"}}))

	defaults := b.DefaultResults()
	require.Len(t, defaults, 1)
	assert.Equal(t, "firefox", defaults[0].ID)
	assert.True(t, b.ShowingDefaults())
}

func TestPublishClearsShowingDefaults(t *testing.T) {
	b := newTestBase(t)
	b.frecency.RecordUsage("firefox", "app")

	gen := b.beginSearch()
	b.publishDefaults(gen, []Item{{ID: "firefox", Name: "Firefox"}})
	require.True(t, b.ShowingDefaults())

	gen = b.beginSearch()
	b.publish(gen, []Item{{ID: "files", Name: "Files"}})
	assert.False(t, b.ShowingDefaults())
}

func TestDefaultsOrderedByUsage(t *testing.T) {
	b := newTestBase(t)
	all := []Item{
		{ID: "rare", Name: "Rare"},
		{ID: "favorite", Name: "Favorite"},
	}
	b.frecency.RecordUsage("rare", "app")
	b.frecency.RecordUsage("favorite", "app")
	b.frecency.RecordUsage("favorite", "app")
	b.frecency.RecordUsage("favorite", "app")

	gen := b.beginSearch()
	b.publishDefaults(gen, all)

	defaults := b.DefaultResults()
	require.Len(t, defaults, 2)
	assert.Equal(t, "favorite", defaults[0].ID)
}

func TestCompleteMatchesCaseInsensitivePrefix(t *testing.T) {
	b := newTestBase(t)
	gen := b.beginSearch()
	b.publish(gen, []Item{
		{ID: "files", Name: "Files"},
		{ID: "firefox", Name: "Firefox"},
	})

	assert.Equal(t, "Files", b.Complete("fi"), "first published match wins")
	assert.Equal(t, "Firefox", b.Complete("FIREF"))
	assert.Equal(t, "xyz", b.Complete("xyz"), "no match leaves text unchanged")
}

func TestClearResults(t *testing.T) {
	b := newTestBase(t)
	gen := b.beginSearch()
	b.publish(gen, []Item{{ID: "firefox", Name: "Firefox"}})

	var mu sync.Mutex
	var last []Item
	notified := false
	b.SubscribeResults(func(items []Item) {
		mu.Lock()
		last = items
		notified = true
		mu.Unlock()
	})

	b.clearResults()

	assert.False(t, b.HasResults())
	mu.Lock()
	defer mu.Unlock()
	assert.True(t, notified)
	assert.Empty(t, last)
}

func TestSubscribeResultsUnsubscribe(t *testing.T) {
	b := newTestBase(t)

	var mu sync.Mutex
	calls := 0
	unsub := b.SubscribeResults(func([]Item) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	gen := b.beginSearch()
	b.publish(gen, []Item{{ID: "a", Name: "A"}})
	unsub()
	gen = b.beginSearch()
	b.publish(gen, []Item{{ID: "b", Name: "B"}})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}
