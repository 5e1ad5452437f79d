package selector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "topic_history.json")
	store := NewFileStore(path)

	records := []Record{
		{CategoryKey: "animals_sounds", Topic: "What Does a Cow Say?", SelectedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)},
		{CategoryKey: "numbers_counting", Topic: "Count with Me 1 to 10", SelectedAt: time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, store.Save(records))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))
	got, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStoreCorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topic_history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

func TestFileStoreSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topic_history.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save([]Record{{CategoryKey: "emotions", Topic: "Feeling Happy", SelectedAt: time.Now().UTC()}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "topic_history.json", entries[0].Name())
}

func TestFileStoreOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topic_history.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save([]Record{{CategoryKey: "a", Topic: "first", SelectedAt: time.Now().UTC()}}))
	require.NoError(t, store.Save([]Record{{CategoryKey: "b", Topic: "second", SelectedAt: time.Now().UTC()}}))

	got, err := store.Load()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].CategoryKey)
}
