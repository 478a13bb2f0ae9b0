package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPebbleStore_ExistsCreate(t *testing.T) {
	store, err := NewPebbleStore(testConfig(t))
	require.NoError(t, err)
	defer store.Close()

	assert.False(t, store.Exists())
	require.NoError(t, store.Create())
	assert.True(t, store.Exists())
}

func TestPebbleStore_RoundTrip(t *testing.T) {
	store, err := NewPebbleStore(testConfig(t))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Create())

	assert.False(t, store.HasIndex("git"))
	_, err = store.GetIndex("git")
	assert.ErrorIs(t, err, ErrNoIndex)

	want := sampleEntries()
	require.NoError(t, store.StoreIndex("git", want))
	assert.True(t, store.HasIndex("git"))

	got, err := store.GetIndex("git")
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Revision, got[i].Revision)
		assert.Equal(t, want[i].Message, got[i].Message)
		assert.True(t, want[i].Date.Equal(got[i].Date))
	}

	// second read is served from the decoded cache
	again, err := store.GetIndex("git")
	require.NoError(t, err)
	assert.Len(t, again, len(want))
}

func TestPebbleStore_OverwriteInvalidatesCache(t *testing.T) {
	store, err := NewPebbleStore(testConfig(t))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Create())

	require.NoError(t, store.StoreIndex("git", sampleEntries()))
	_, err = store.GetIndex("git")
	require.NoError(t, err)

	require.NoError(t, store.StoreIndex("git", []Entry{{Revision: "only"}}))
	got, err := store.GetIndex("git")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "only", got[0].Revision)
}

func TestPebbleStore_ListArchiversSorted(t *testing.T) {
	store, err := NewPebbleStore(testConfig(t))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Create())

	require.NoError(t, store.StoreIndex("svn", nil))
	require.NoError(t, store.StoreIndex("git", nil))

	names, err := store.ListArchivers()
	require.NoError(t, err)
	assert.Equal(t, []string{"git", "svn"}, names)
}

func TestPebbleStore_ReopenSeesData(t *testing.T) {
	cfg := testConfig(t)
	store, err := NewPebbleStore(cfg)
	require.NoError(t, err)
	require.NoError(t, store.Create())
	require.NoError(t, store.StoreIndex("git", sampleEntries()))
	require.NoError(t, store.Close())

	reopened, err := NewPebbleStore(cfg)
	require.NoError(t, err)
	defer reopened.Close()
	assert.True(t, reopened.HasIndex("git"))
	got, err := reopened.GetIndex("git")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestEncodeDecodeIndex(t *testing.T) {
	data, err := encodeIndex(sampleEntries())
	require.NoError(t, err)

	entries, err := decodeIndex(data)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "abc123", entries[0].Revision)

	_, err = decodeIndex([]byte("{not json"))
	assert.ErrorIs(t, err, ErrCorruptIndex)
}
