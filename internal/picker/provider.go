// Package picker implements the frecency-ranked multi-provider picker:
// a coordinator that owns one interactive search session, a provider
// contract over heterogeneous searchable domains, and the concrete
// application, wallpaper, and clipboard providers.
package picker

import (
	"context"
	"image"
)

// Item is one candidate result. The ID is stable within a provider's
// namespace; providers with unstable backing ids (clipboard) derive it
// from content instead.
type Item struct {
	ID          string
	Name        string
	Description string
	IconName    string
	Path        string
}

// Component hints how the presentation layer should render results.
type Component string

const (
	ComponentList Component = "list"
	ComponentGrid Component = "grid"
)

// Features advertises which optional operations a provider supports.
// The coordinator and presentation layer must not invoke an operation
// whose flag is false.
type Features struct {
	Refresh bool
	Random  bool
	Delete  bool
	Wipe    bool
}

// ProviderConfig is the static descriptor for one provider.
type ProviderConfig struct {
	Command     string // Unique routing token ("app", "wp", "clip")
	Icon        string
	Name        string
	Placeholder string
	Component   Component
	MaxResults  int
	Features    Features
}

// Provider is the contract every searchable domain implements. Search
// must leave the published result set updated and notify subscribers
// exactly once per call, and must report a loading transition around
// the call regardless of outcome.
type Provider interface {
	Config() ProviderConfig
	Search(ctx context.Context, query string) error
	Activate(ctx context.Context, item Item) error

	Results() []Item
	DefaultResults() []Item
	ShowingDefaults() bool
	Loading() bool

	Complete(text string) string
	RecordActivation(item Item)

	SubscribeResults(fn func([]Item)) (cancel func())
	SubscribeLoading(fn func(bool)) (cancel func())
}

// Optional provider capabilities. A provider advertises a capability by
// implementing the interface and setting the matching Features flag;
// callers discover it by type assertion, so an unsupported operation
// cannot be invoked by accident.

// Refresher re-scans the provider's backing source.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Randomizer activates one item picked at random, without going through
// the result list.
type Randomizer interface {
	Random(ctx context.Context) error
}

// Deleter removes one item from the backing source.
type Deleter interface {
	Delete(ctx context.Context, item Item) error
}

// Wiper clears the provider's entire backing source.
type Wiper interface {
	Wipe(ctx context.Context) error
}

// Thumbnailer decodes a preview image; used by grid-style providers.
type Thumbnailer interface {
	Thumbnail(ctx context.Context, path string) (image.Image, error)
}

// Disposer releases background watchers or subprocesses.
type Disposer interface {
	Dispose() error
}
