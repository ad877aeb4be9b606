package picker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistry serves a fixed entry list and records launches.
type fakeRegistry struct {
	mu       sync.Mutex
	entries  []AppEntry
	listErr  error
	launched []AppEntry
}

func (r *fakeRegistry) List(ctx context.Context) ([]AppEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]AppEntry, len(r.entries))
	copy(out, r.entries)
	return out, nil
}

func (r *fakeRegistry) Launch(ctx context.Context, entry AppEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.launched = append(r.launched, entry)
	return nil
}

func testEntries() []AppEntry {
	return []AppEntry{
		{Name: "Firefox", Comment: "Web browser", Icon: "firefox", Exec: "/usr/bin/firefox %u"},
		{Name: "Files", Comment: "File manager", Icon: "nautilus", Exec: "nautilus --new-window"},
		{Name: "Image Viewer", Comment: "Browse images", Icon: "eog", Exec: "eog"},
	}
}

func newTestAppProvider(t *testing.T, reg *fakeRegistry) *AppProvider {
	t.Helper()
	return NewAppProvider(context.Background(), reg, newTestFrecency(t), nil, 8)
}

func TestAppIDDerivation(t *testing.T) {
	tests := []struct {
		name string
		exec string
		want string
	}{
		{"absolute path", "/usr/bin/firefox %u", "firefox"},
		{"bare binary with args", "nautilus --new-window", "nautilus"},
		{"mixed case", "/opt/Sublime/Sublime_Text", "sublime_text"},
		{"empty exec", "", unknownAppID},
		{"single char binary", "x", unknownAppID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, appID(AppEntry{Exec: tt.exec}))
		})
	}
}

func TestAppSearchFuzzyMatches(t *testing.T) {
	p := newTestAppProvider(t, &fakeRegistry{entries: testEntries()})

	require.NoError(t, p.Search(context.Background(), "frfx"))

	results := p.Results()
	require.NotEmpty(t, results)
	assert.Equal(t, "Firefox", results[0].Name)
}

func TestAppSearchMatchesDescription(t *testing.T) {
	p := newTestAppProvider(t, &fakeRegistry{entries: testEntries()})

	require.NoError(t, p.Search(context.Background(), "browse images"))

	results := p.Results()
	require.NotEmpty(t, results)
	assert.Equal(t, "Image Viewer", results[0].Name)
}

func TestAppSearchEmptyQueryShowsDefaults(t *testing.T) {
	p := newTestAppProvider(t, &fakeRegistry{entries: testEntries()})
	p.frecency.RecordUsage("nautilus", "app")

	require.NoError(t, p.Search(context.Background(), "  "))

	require.True(t, p.ShowingDefaults())
	results := p.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "Files", results[0].Name)
}

func TestAppActivateLaunchesEntry(t *testing.T) {
	reg := &fakeRegistry{entries: testEntries()}
	p := newTestAppProvider(t, reg)

	require.NoError(t, p.Activate(context.Background(), Item{ID: "firefox"}))

	require.Len(t, reg.launched, 1)
	assert.Equal(t, "Firefox", reg.launched[0].Name)

	err := p.Activate(context.Background(), Item{ID: "missing"})
	assert.Error(t, err)
}

func TestAppRefreshPicksUpNewEntries(t *testing.T) {
	reg := &fakeRegistry{entries: testEntries()[:1]}
	p := newTestAppProvider(t, reg)

	reg.mu.Lock()
	reg.entries = testEntries()
	reg.mu.Unlock()
	require.NoError(t, p.Refresh(context.Background()))

	require.NoError(t, p.Search(context.Background(), "files"))
	assert.NotEmpty(t, p.Results())
}

func TestAppListFailureKeepsOldCandidates(t *testing.T) {
	reg := &fakeRegistry{entries: testEntries()}
	p := newTestAppProvider(t, reg)

	reg.mu.Lock()
	reg.listErr = errors.New("scan failed")
	reg.mu.Unlock()
	require.NoError(t, p.Refresh(context.Background()))

	require.NoError(t, p.Search(context.Background(), "firefox"))
	assert.NotEmpty(t, p.Results(), "stale candidates beat none")
}

func TestAppFrecencyKeyStableAcrossRescans(t *testing.T) {
	reg := &fakeRegistry{entries: testEntries()}
	p := newTestAppProvider(t, reg)

	p.RecordActivation(Item{ID: "firefox"})
	require.NoError(t, p.Refresh(context.Background()))
	p.RecordActivation(Item{ID: "firefox"})

	e, ok := p.frecency.Entry("app", "firefox")
	require.True(t, ok)
	assert.Equal(t, 2, e.TotalAccesses)
}
