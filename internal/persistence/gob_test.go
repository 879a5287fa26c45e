package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string
	Count int
}

func TestGobRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "record.gob")

	require.NoError(t, SaveGob(path, record{Name: "yalola", Count: 2}))
	var got record
	require.NoError(t, LoadGob(path, &got))
	assert.Equal(t, record{Name: "yalola", Count: 2}, got)

	require.NoError(t, SaveGob(path, record{Name: "ban"}))
	require.NoError(t, LoadGob(path, &got))
	assert.Equal(t, "ban", got.Name)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")

	require.NoError(t, SaveJSON(path, []record{{Name: "pus"}}))
	var got []record
	require.NoError(t, LoadJSON(path, &got))
	assert.Equal(t, []record{{Name: "pus"}}, got)
}

func TestLoadMissingFile(t *testing.T) {
	var got record
	err := LoadGob(filepath.Join(t.TempDir(), "missing.gob"), &got)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gob")
	require.NoError(t, os.WriteFile(path, []byte("not gob"), 0600))

	var got record
	err := LoadGob(path, &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, os.ErrNotExist)
}

func TestSaveUnencodableValueLeavesOldFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")
	require.NoError(t, SaveJSON(path, record{Name: "kept"}))

	err := SaveJSON(path, map[string]any{"bad": make(chan int)})
	require.Error(t, err)

	var got record
	require.NoError(t, LoadJSON(path, &got))
	assert.Equal(t, "kept", got.Name)
}
