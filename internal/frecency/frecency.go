// Package frecency ranks picker items by a blend of usage frequency and
// recency. Scores persist across restarts through a pluggable key/value
// backend; writes are debounced so bursts of activations collapse into
// one save.
package frecency

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"
)

const (
	// cacheKey is the backend key the full entry map is stored under.
	cacheKey = "picker.frecency-cache"

	// dayMs is one day in milliseconds.
	dayMs = 1000 * 60 * 60 * 24

	// staleAfterMs is the age past which unused entries are swept on load.
	staleAfterMs = 90 * dayMs

	// minFrecency is the score floor below which entries are swept on load.
	minFrecency = 0.1

	// DefaultSaveDelay is the debounce window for persistence writes.
	DefaultSaveDelay = time.Second

	// DefaultLimit is the default result cap for DefaultItems.
	DefaultLimit = 8
)

// Config holds the ranking tunables.
type Config struct {
	// MaxItems is the eviction ceiling for stored entries.
	MaxItems int

	// DecayFactor is the per-day multiplicative decay applied to frequency.
	DecayFactor float64

	// FrequencyWeight blends the frequency score against the recency
	// score; must be in [0,1].
	FrequencyWeight float64

	// MinAccessThreshold is the minimum total access count for an entry
	// to qualify as a default suggestion.
	MinAccessThreshold int
}

// DefaultConfig returns the default ranking configuration.
func DefaultConfig() Config {
	return Config{
		MaxItems:           100,
		DecayFactor:        0.9,
		FrequencyWeight:    0.7,
		MinAccessThreshold: 1,
	}
}

// normalize clamps out-of-range values back to defaults.
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.MaxItems < 1 {
		c.MaxItems = def.MaxItems
	}
	if c.DecayFactor <= 0 || c.DecayFactor > 1 {
		c.DecayFactor = def.DecayFactor
	}
	if c.FrequencyWeight < 0 {
		c.FrequencyWeight = 0
	}
	if c.FrequencyWeight > 1 {
		c.FrequencyWeight = 1
	}
	if c.MinAccessThreshold < 0 {
		c.MinAccessThreshold = 0
	}
	return c
}

// UsageEntry is one (command, item-id) pair's usage history.
// JSON field names match the on-disk cache format.
type UsageEntry struct {
	ID            string  `json:"id"`
	Command       string  `json:"command"`
	Frequency     float64 `json:"frequency"`
	LastAccessed  int64   `json:"lastAccessed"`
	FirstAccessed int64   `json:"firstAccessed"`
	TotalAccesses int     `json:"totalAccesses"`
	Frecency      float64 `json:"frecency"`
}

// Backend is the narrow persistence contract the store needs.
// Missing keys are reported via the bool return, not an error.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Options configures a Store beyond its persistence backend.
type Options struct {
	// Config holds the ranking tunables; zero values fall back to defaults.
	Config Config

	// SaveDelay is the persistence debounce window (default 1s).
	SaveDelay time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Store owns all usage entries. All mutation funnels through RecordUsage;
// providers consult it only through RecordUsage and DefaultItems.
type Store struct {
	mu        sync.Mutex
	entries   map[string]*UsageEntry
	cfg       Config
	backend   Backend
	logger    *slog.Logger
	now       func() time.Time
	saveDelay time.Duration
	saveTimer *time.Timer
}

// New creates a Store, loads any cached entries from the backend, and
// sweeps stale entries. A failed load is cold-start behavior, not an error.
func New(ctx context.Context, backend Backend, logger *slog.Logger, opts Options) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	saveDelay := opts.SaveDelay
	if saveDelay <= 0 {
		saveDelay = DefaultSaveDelay
	}

	s := &Store{
		entries:   make(map[string]*UsageEntry),
		cfg:       opts.Config.normalize(),
		backend:   backend,
		logger:    logger,
		now:       now,
		saveDelay: saveDelay,
	}

	s.load(ctx)
	return s
}

// key builds the composite cache key for one entry.
func key(command, itemID string) string {
	return command + ":" + itemID
}

// RecordUsage records one activation of the item under the provider's
// command namespace. It never fails the caller: persistence errors are
// logged by the debounced save, not propagated.
func (s *Store) RecordUsage(itemID, command string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nowMs := s.now().UnixMilli()
	k := key(command, itemID)

	if e, ok := s.entries[k]; ok {
		e.Frequency = s.decayedFrequency(e, nowMs)
		e.LastAccessed = nowMs
		e.TotalAccesses++
		e.Frecency = s.score(e, nowMs)
	} else {
		e := &UsageEntry{
			ID:            itemID,
			Command:       command,
			Frequency:     1,
			LastAccessed:  nowMs,
			FirstAccessed: nowMs,
			TotalAccesses: 1,
		}
		e.Frecency = s.score(e, nowMs)
		s.entries[k] = e
	}

	s.scheduleSaveLocked()
}

// DefaultItems returns the limit highest-frecency item ids for the given
// command, among entries meeting the access threshold, ordered descending.
// A limit <= 0 falls back to DefaultLimit. Read-only.
func (s *Store) DefaultItems(command string, limit int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = DefaultLimit
	}

	var matched []*UsageEntry
	for _, e := range s.entries {
		if e.Command == command && e.TotalAccesses >= s.cfg.MinAccessThreshold {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Frecency != matched[j].Frecency {
			return matched[i].Frecency > matched[j].Frecency
		}
		return matched[i].FirstAccessed < matched[j].FirstAccessed
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	ids := make([]string, len(matched))
	for i, e := range matched {
		ids[i] = e.ID
	}
	return ids
}

// Entry returns a copy of the stored entry for (command, itemID).
func (s *Store) Entry(command, itemID string) (UsageEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key(command, itemID)]
	if !ok {
		return UsageEntry{}, false
	}
	return *e, true
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// ClearCache removes all entries and persists the empty state immediately.
// Only invoked on explicit user request.
func (s *Store) ClearCache() {
	s.mu.Lock()
	s.entries = make(map[string]*UsageEntry)
	s.cancelSaveLocked()
	data, err := s.marshalLocked()
	s.mu.Unlock()

	if err == nil {
		s.save(data)
	}
	s.logger.Info("frecency cache cleared")
}

// Dispose cancels the pending save timer, flushing first if a save was
// scheduled. The store must not be used afterwards.
func (s *Store) Dispose() {
	s.mu.Lock()
	pending := s.saveTimer != nil
	s.cancelSaveLocked()
	var data []byte
	var err error
	if pending {
		data, err = s.marshalLocked()
	}
	s.mu.Unlock()

	if pending && err == nil {
		s.save(data)
	}
}

// decayedFrequency applies time decay to the stored frequency and adds
// one for the current call. The 0.1 floor keeps previously-used items
// from vanishing through decay alone.
func (s *Store) decayedFrequency(e *UsageEntry, nowMs int64) float64 {
	elapsedDays := float64(nowMs-e.LastAccessed) / dayMs
	decayMultiplier := math.Pow(s.cfg.DecayFactor, elapsedDays)
	return math.Max(0.1, e.Frequency*decayMultiplier+1)
}

// score computes the frecency score: a log-damped frequency term blended
// with an exponential recency term over a 30-day horizon.
func (s *Store) score(e *UsageEntry, nowMs int64) float64 {
	recencyDays := math.Max(0, float64(nowMs-e.LastAccessed)) / dayMs
	recencyScore := math.Exp(-recencyDays / 30)
	frequencyScore := math.Log(e.Frequency + 1)

	return 100 * (frequencyScore*s.cfg.FrequencyWeight + recencyScore*(1-s.cfg.FrequencyWeight))
}

// load reads the cached entry map from the backend. Frecency is always
// recomputed from the current config so config changes re-rank without a
// migration. Malformed entries are skipped individually.
func (s *Store) load(ctx context.Context) {
	data, ok, err := s.backend.Get(ctx, cacheKey)
	if err != nil {
		s.logger.Warn("failed to load frecency cache", "error", err)
		return
	}
	if !ok || len(data) == 0 {
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("failed to parse frecency cache", "error", err)
		return
	}

	s.mu.Lock()
	nowMs := s.now().UnixMilli()
	for k, msg := range raw {
		var e UsageEntry
		if err := json.Unmarshal(msg, &e); err != nil {
			s.logger.Warn("skipping malformed frecency entry", "key", k, "error", err)
			continue
		}
		e.Frecency = s.score(&e, nowMs)
		s.entries[k] = &e
	}
	cleaned := s.sweepLocked(nowMs)
	var flush []byte
	if cleaned > 0 {
		flush, err = s.marshalLocked()
	}
	s.mu.Unlock()

	if cleaned > 0 {
		s.logger.Info("cleaned stale frecency entries", "count", cleaned)
		if err == nil {
			s.save(flush)
		}
	}
}

// sweepLocked deletes stale or near-zero entries, then evicts the
// lowest-frecency entries beyond the MaxItems ceiling. Returns the
// number of entries removed.
func (s *Store) sweepLocked(nowMs int64) int {
	removed := 0
	for k, e := range s.entries {
		if nowMs-e.LastAccessed > staleAfterMs || e.Frecency < minFrecency {
			delete(s.entries, k)
			removed++
		}
	}

	if len(s.entries) > s.cfg.MaxItems {
		type kv struct {
			k string
			e *UsageEntry
		}
		all := make([]kv, 0, len(s.entries))
		for k, e := range s.entries {
			all = append(all, kv{k, e})
		}
		sort.SliceStable(all, func(i, j int) bool {
			if all[i].e.Frecency != all[j].e.Frecency {
				return all[i].e.Frecency > all[j].e.Frecency
			}
			return all[i].k < all[j].k
		})
		for _, item := range all[s.cfg.MaxItems:] {
			delete(s.entries, item.k)
			removed++
		}
	}

	return removed
}

// scheduleSaveLocked restarts the debounced save timer. Only the last
// call within the window actually persists.
func (s *Store) scheduleSaveLocked() {
	s.cancelSaveLocked()
	s.saveTimer = time.AfterFunc(s.saveDelay, func() {
		s.mu.Lock()
		s.saveTimer = nil
		data, err := s.marshalLocked()
		s.mu.Unlock()
		if err == nil {
			s.save(data)
		}
	})
}

// cancelSaveLocked stops any pending save timer before it fires.
func (s *Store) cancelSaveLocked() {
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
}

// marshalLocked serializes the full entry map.
func (s *Store) marshalLocked() ([]byte, error) {
	data, err := json.Marshal(s.entries)
	if err != nil {
		s.logger.Error("failed to serialize frecency cache", "error", err)
		return nil, err
	}
	return data, nil
}

// save writes serialized entries to the backend. A failed save does not
// roll back in-memory state; the next save catches up.
func (s *Store) save(data []byte) {
	if err := s.backend.Set(context.Background(), cacheKey, data); err != nil {
		s.logger.Error("failed to save frecency cache", "error", err)
	}
}
