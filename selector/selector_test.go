package selector

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	records []Record
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Load() ([]Record, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]Record(nil), m.records...), nil
}

func (m *memStore) Save(records []Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = append([]Record(nil), records...)
	m.saves++
	return nil
}

type stubResolver struct {
	err error
}

func (r *stubResolver) Resolve(categoryKey, lang string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return fmt.Sprintf("%s topic (%s)", categoryKey, lang), nil
}

func catalogOf(keys ...string) []Category {
	cats := make([]Category, 0, len(keys))
	for _, k := range keys {
		cats = append(cats, Category{Key: k, Label: k, Weight: 1})
	}
	return cats
}

func seeded(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

func TestRecencyExclusion(t *testing.T) {
	// Catalog larger than the window: a selected key must never repeat
	// within the following window selections.
	catalog := catalogOf("a", "b", "c", "d", "e", "f", "g")
	store := &memStore{}
	s, err := New(catalog, store, &stubResolver{}, Config{ExclusionWindow: 5, HistoryCap: 50}, seeded(1))
	require.NoError(t, err)

	var picks []string
	for i := 0; i < 100; i++ {
		sel, err := s.Select("en")
		require.NoError(t, err)
		picks = append(picks, sel.Category.Key)
	}

	for i, key := range picks {
		low := i - 5
		if low < 0 {
			low = 0
		}
		for _, prev := range picks[low:i] {
			assert.NotEqual(t, prev, key, "pick %d repeated within exclusion window", i)
		}
	}
}

func TestScenarioTwoCategoriesAlternate(t *testing.T) {
	catalog := catalogOf("a", "b")
	s, err := New(catalog, &memStore{}, &stubResolver{}, Config{ExclusionWindow: 1, HistoryCap: 50}, seeded(7))
	require.NoError(t, err)

	first, err := s.Select("en")
	require.NoError(t, err)
	second, err := s.Select("en")
	require.NoError(t, err)

	assert.NotEqual(t, first.Category.Key, second.Category.Key,
		"second selection must be the category not chosen first")
}

func TestHistoryCapFIFO(t *testing.T) {
	catalog := catalogOf("a", "b", "c")
	store := &memStore{}
	s, err := New(catalog, store, &stubResolver{}, Config{ExclusionWindow: 0, HistoryCap: 10}, seeded(3))
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		_, err := s.Select("en")
		require.NoError(t, err)
	}

	assert.Len(t, store.records, 10, "persisted history must never exceed the cap")
	assert.Len(t, s.History(), 10)

	// Records stay in occurrence order, oldest evicted first.
	history := s.History()
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].SelectedAt.Before(history[i-1].SelectedAt))
	}
}

func TestWeightedDistribution(t *testing.T) {
	// window=0 disables exclusion so draws are independent. Empirical
	// frequency should converge to the weight share.
	catalog := []Category{
		{Key: "heavy", Label: "Heavy", Weight: 6},
		{Key: "mid", Label: "Mid", Weight: 3},
		{Key: "light", Label: "Light", Weight: 1},
	}
	s, err := New(catalog, &memStore{}, &stubResolver{}, Config{ExclusionWindow: 0, HistoryCap: 50}, seeded(42))
	require.NoError(t, err)

	const trials = 20000
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		sel, err := s.Select("en")
		require.NoError(t, err)
		counts[sel.Category.Key]++
	}

	expected := map[string]float64{"heavy": 0.6, "mid": 0.3, "light": 0.1}
	for key, share := range expected {
		got := float64(counts[key]) / trials
		assert.InDeltaf(t, share, got, 0.02, "category %s frequency %f, want ~%f", key, got, share)
	}
}

func TestWindowRelaxationSmallCatalog(t *testing.T) {
	// Catalog smaller than the window: exclusion relaxes by dropping the
	// oldest excluded entries so a selection is always possible.
	catalog := catalogOf("a", "b")
	s, err := New(catalog, &memStore{}, &stubResolver{}, Config{ExclusionWindow: 5, HistoryCap: 50}, seeded(11))
	require.NoError(t, err)

	var picks []string
	for i := 0; i < 20; i++ {
		sel, err := s.Select("en")
		require.NoError(t, err)
		picks = append(picks, sel.Category.Key)
	}

	// With two categories and relaxation, selections strictly alternate.
	for i := 1; i < len(picks); i++ {
		assert.NotEqual(t, picks[i-1], picks[i])
	}
}

func TestColdStartOnLoadFailure(t *testing.T) {
	store := &memStore{loadErr: errors.New("disk unreadable")}
	s, err := New(catalogOf("a", "b", "c"), store, &stubResolver{}, DefaultConfig(), seeded(5))
	require.NoError(t, err, "unreadable history must not fail construction")

	assert.Empty(t, s.History())

	store.loadErr = nil
	sel, err := s.Select("en")
	require.NoError(t, err)
	assert.NotEmpty(t, sel.Topic)
}

func TestPersistFailureStillReturnsSelection(t *testing.T) {
	store := &memStore{saveErr: errors.New("disk full")}
	s, err := New(catalogOf("a", "b", "c"), store, &stubResolver{}, DefaultConfig(), seeded(9))
	require.NoError(t, err)

	sel, err := s.Select("en")

	var pe *PersistError
	require.ErrorAs(t, err, &pe, "save failure must surface as a persistence warning")
	assert.NotEmpty(t, sel.Topic, "selection must still be usable")
	assert.NotEmpty(t, sel.Category.Key)
}

func TestResolverFailureAborts(t *testing.T) {
	store := &memStore{}
	s, err := New(catalogOf("a"), store, &stubResolver{err: errors.New("no templates")}, DefaultConfig(), seeded(2))
	require.NoError(t, err)

	_, err = s.Select("en")
	require.Error(t, err)
	assert.Empty(t, s.History(), "failed resolution must not be recorded")
	assert.Zero(t, store.saves)
}

func TestHistoryPersistedEachSelection(t *testing.T) {
	store := &memStore{}
	s, err := New(catalogOf("a", "b", "c"), store, &stubResolver{}, DefaultConfig(), seeded(4))
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		_, err := s.Select("en")
		require.NoError(t, err)
		assert.Equal(t, i, store.saves)
		assert.Len(t, store.records, i)
	}
}

func TestLoadedHistoryAffectsExclusion(t *testing.T) {
	now := time.Now()
	store := &memStore{records: []Record{
		{CategoryKey: "a", Topic: "a topic", SelectedAt: now.Add(-2 * time.Hour)},
		{CategoryKey: "b", Topic: "b topic", SelectedAt: now.Add(-1 * time.Hour)},
	}}
	s, err := New(catalogOf("a", "b", "c"), store, &stubResolver{}, Config{ExclusionWindow: 2, HistoryCap: 50}, seeded(6))
	require.NoError(t, err)

	sel, err := s.Select("en")
	require.NoError(t, err)
	assert.Equal(t, "c", sel.Category.Key, "both recently used categories must be excluded")
}

func TestNewValidation(t *testing.T) {
	store := &memStore{}
	res := &stubResolver{}

	tests := []struct {
		name    string
		catalog []Category
		cfg     Config
	}{
		{"empty catalog", nil, DefaultConfig()},
		{"zero weight", []Category{{Key: "a", Weight: 0}}, DefaultConfig()},
		{"negative weight", []Category{{Key: "a", Weight: -1}}, DefaultConfig()},
		{"duplicate key", append(catalogOf("a"), catalogOf("a")...), DefaultConfig()},
		{"empty key", []Category{{Key: "", Weight: 1}}, DefaultConfig()},
		{"negative window", catalogOf("a"), Config{ExclusionWindow: -1, HistoryCap: 10}},
		{"negative cap", catalogOf("a"), Config{ExclusionWindow: 1, HistoryCap: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.catalog, store, res, tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestSeededDrawsReproducible(t *testing.T) {
	catalog := []Category{
		{Key: "a", Label: "A", Weight: 2},
		{Key: "b", Label: "B", Weight: 5},
		{Key: "c", Label: "C", Weight: 3},
	}

	run := func() []string {
		s, err := New(catalog, &memStore{}, &stubResolver{}, Config{ExclusionWindow: 0, HistoryCap: 50}, seeded(99))
		require.NoError(t, err)
		var keys []string
		for i := 0; i < 10; i++ {
			sel, err := s.Select("en")
			require.NoError(t, err)
			keys = append(keys, sel.Category.Key)
		}
		return keys
	}

	assert.Equal(t, run(), run())
}

func TestDrawNeverPanicsOnRoundingEdge(t *testing.T) {
	// A degenerate single-category catalog exercises the fallthrough
	// return in draw.
	s, err := New([]Category{{Key: "only", Label: "Only", Weight: math.SmallestNonzeroFloat64}},
		&memStore{}, &stubResolver{}, Config{ExclusionWindow: 0, HistoryCap: 5}, seeded(1))
	require.NoError(t, err)

	sel, err := s.Select("en")
	require.NoError(t, err)
	assert.Equal(t, "only", sel.Category.Key)
}
