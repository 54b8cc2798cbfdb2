package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	k1 := Key("geocode", "10 downing st")
	k2 := Key("geocode", "10 downing st")
	k3 := Key("geocode", "11 downing st")

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.True(t, strings.HasPrefix(k1, "refmatch:v1:geocode:"))
	assert.NotEqual(t, Key("a", "b", "c"), Key("a", "bc"))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)

	require.NoError(t, c.Set("a", []byte("1"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry expired")
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := Key("geocode", "addr")

	require.NoError(t, c.Set(key, []byte(`{"lat":1}`), 0))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"lat":1}`), got)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1, "no temp files left behind")
	assert.True(t, strings.HasSuffix(files[0].Name(), ".cache"))
	assert.NotContains(t, files[0].Name(), ":")

	require.NoError(t, c.Delete(key))
	require.NoError(t, c.Delete(key), "missing key")
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("k", []byte("v"), time.Minute))

	now = now.Add(2 * time.Minute)
	_, ok := c.Get("k")
	assert.False(t, ok)
	_, err := os.Stat(c.path("k"))
	assert.True(t, os.IsNotExist(err), "expired file removed")
}

func TestDiskCache_Corrupt(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	require.NoError(t, os.WriteFile(c.path("k"), []byte("not json"), 0o644))

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestDiskCache_ClearKeepsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	require.NoError(t, c.Set("a", []byte("1"), 0))
	require.NoError(t, c.Set("b", []byte("2"), 0))
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("keep"), 0o644))

	require.NoError(t, c.Clear())

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, err := os.Stat(other)
	assert.NoError(t, err)

	assert.NoError(t, NewDiskCache(filepath.Join(dir, "missing"), 0).Clear())
}

func TestLayeredCache(t *testing.T) {
	mem := NewMemoryCache(time.Minute, time.Minute)
	disk := NewDiskCache(t.TempDir(), time.Hour)
	c := NewLayers(mem, disk)

	_, ok := c.Get("k")
	assert.False(t, ok)

	require.NoError(t, disk.Set("k", []byte("from disk"), 0))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("from disk"), got)

	promoted, ok := mem.Get("k")
	require.True(t, ok, "disk hit promoted to memory")
	assert.Equal(t, []byte("from disk"), promoted)

	require.NoError(t, c.Set("x", []byte("both"), 0))
	_, inMem := mem.Get("x")
	_, onDisk := disk.Get("x")
	assert.True(t, inMem)
	assert.True(t, onDisk)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	require.NoError(t, c.Clear())
	_, ok = c.Get("x")
	assert.False(t, ok)
}
