// Package selector chooses one topic category per run using weighted random
// sampling, while excluding the most recently used categories so consecutive
// videos do not repeat themselves. Selections are recorded in a durable
// history that survives across runs.
package selector

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// Default history settings, matching the sizes the channel has always run
// with: the last 5 categories are barred from reselection and at most 50
// records are retained.
const (
	DefaultExclusionWindow = 5
	DefaultHistoryCap      = 50
)

// Category is one entry of the fixed topic catalog.
type Category struct {
	Key    string
	Label  string
	Weight float64
}

// Record is one past selection.
type Record struct {
	CategoryKey string    `json:"category_key"`
	Topic       string    `json:"topic"`
	SelectedAt  time.Time `json:"selected_at"`
}

// Store persists the ordered selection history between runs.
type Store interface {
	Load() ([]Record, error)
	Save([]Record) error
}

// Resolver turns a chosen category into a concrete topic string for the
// requested language.
type Resolver interface {
	Resolve(categoryKey, lang string) (string, error)
}

// Config tunes the recency exclusion and history retention.
type Config struct {
	// ExclusionWindow is how many of the most recent selections are
	// barred from reselection. 0 disables recency exclusion.
	ExclusionWindow int

	// HistoryCap is the maximum number of records retained; oldest are
	// evicted first. 0 means DefaultHistoryCap.
	HistoryCap int
}

// DefaultConfig returns the standard window and cap.
func DefaultConfig() Config {
	return Config{ExclusionWindow: DefaultExclusionWindow, HistoryCap: DefaultHistoryCap}
}

// Selection is the result of one Select call.
type Selection struct {
	Category   Category
	Topic      string
	SelectedAt time.Time
}

// PersistError reports that history could not be saved after a successful
// selection. The selection itself is still valid; callers should log this
// as a warning rather than abort.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("topic history persist failed: %v", e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Selector owns the catalog, the persisted history, and the random source.
type Selector struct {
	catalog  []Category
	store    Store
	resolver Resolver
	cfg      Config
	rng      *rand.Rand
	logger   *slog.Logger
	now      func() time.Time
	history  []Record
}

// Option customises a Selector.
type Option func(*Selector)

// WithRand injects a seeded random source. Tests rely on this for
// reproducible draws.
func WithRand(r *rand.Rand) Option {
	return func(s *Selector) { s.rng = r }
}

// WithLogger sets the logger used for cold-start and persistence warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Selector) { s.logger = l }
}

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Selector) { s.now = now }
}

// New validates the catalog and loads the persisted history. A missing or
// unreadable history file is a cold start, not an error: the selector
// proceeds with an empty history and logs a warning.
func New(catalog []Category, store Store, resolver Resolver, cfg Config, opts ...Option) (*Selector, error) {
	if len(catalog) == 0 {
		return nil, fmt.Errorf("selector: catalog must not be empty")
	}
	seen := make(map[string]bool, len(catalog))
	for _, c := range catalog {
		if c.Key == "" {
			return nil, fmt.Errorf("selector: category with empty key")
		}
		if seen[c.Key] {
			return nil, fmt.Errorf("selector: duplicate category key %q", c.Key)
		}
		seen[c.Key] = true
		if c.Weight <= 0 {
			return nil, fmt.Errorf("selector: category %q has non-positive weight %g", c.Key, c.Weight)
		}
	}
	if cfg.ExclusionWindow < 0 {
		return nil, fmt.Errorf("selector: exclusion window must not be negative, got %d", cfg.ExclusionWindow)
	}
	if cfg.HistoryCap < 0 {
		return nil, fmt.Errorf("selector: history cap must not be negative, got %d", cfg.HistoryCap)
	}
	if cfg.HistoryCap == 0 {
		cfg.HistoryCap = DefaultHistoryCap
	}

	s := &Selector{
		catalog:  append([]Category(nil), catalog...),
		store:    store,
		resolver: resolver,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	history, err := store.Load()
	if err != nil {
		s.logger.Warn("could not load topic history, starting fresh", slog.Any("error", err))
		history = nil
	}
	if len(history) > cfg.HistoryCap {
		history = history[len(history)-cfg.HistoryCap:]
	}
	s.history = history

	return s, nil
}

// Select draws one category, resolves a topic string for it, appends the
// selection to the history and persists it. If persisting fails the
// selection is still returned, together with a *PersistError.
func (s *Selector) Select(lang string) (Selection, error) {
	eligible := s.eligibleCategories()

	chosen := s.draw(eligible)

	topic, err := s.resolver.Resolve(chosen.Key, lang)
	if err != nil {
		return Selection{}, fmt.Errorf("resolve topic for category %q: %w", chosen.Key, err)
	}

	sel := Selection{Category: chosen, Topic: topic, SelectedAt: s.now()}

	s.history = append(s.history, Record{
		CategoryKey: chosen.Key,
		Topic:       topic,
		SelectedAt:  sel.SelectedAt,
	})
	if len(s.history) > s.cfg.HistoryCap {
		s.history = s.history[len(s.history)-s.cfg.HistoryCap:]
	}

	if err := s.store.Save(s.history); err != nil {
		return sel, &PersistError{Err: err}
	}
	return sel, nil
}

// History returns a copy of the in-memory selection history, oldest first.
func (s *Selector) History() []Record {
	return append([]Record(nil), s.history...)
}

// eligibleCategories removes the categories used in the exclusion window.
// If that would leave nothing to pick from, the oldest excluded entries
// are dropped until at least one category is eligible; with a non-empty
// catalog this always terminates.
func (s *Selector) eligibleCategories() []Category {
	window := s.cfg.ExclusionWindow
	if window > len(s.history) {
		window = len(s.history)
	}

	// Excluded keys ordered oldest to newest within the window.
	excluded := make([]string, 0, window)
	for _, rec := range s.history[len(s.history)-window:] {
		excluded = append(excluded, rec.CategoryKey)
	}

	for {
		set := make(map[string]bool, len(excluded))
		for _, k := range excluded {
			set[k] = true
		}
		var eligible []Category
		for _, c := range s.catalog {
			if !set[c.Key] {
				eligible = append(eligible, c)
			}
		}
		if len(eligible) > 0 {
			return eligible
		}
		// Relax by forgetting the oldest excluded entry.
		excluded = excluded[1:]
	}
}

// draw picks one category with probability proportional to its weight.
func (s *Selector) draw(categories []Category) Category {
	var total float64
	for _, c := range categories {
		total += c.Weight
	}
	r := s.rng.Float64() * total
	for _, c := range categories {
		r -= c.Weight
		if r < 0 {
			return c
		}
	}
	// Float rounding can leave r at exactly 0 after the loop.
	return categories[len(categories)-1]
}
