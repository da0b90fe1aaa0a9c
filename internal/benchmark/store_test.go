package benchmark

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(dir, PlotsDir))

	// Nothing saved yet
	_, err = store.LoadAll()
	assert.True(t, os.IsNotExist(err))

	report := NewReport("react", 1, []IterationResult{
		{Render: RenderSamples{10: 5}},
	}, time.Now().UTC())
	require.NoError(t, store.SaveTarget(*report))
	assert.FileExists(t, filepath.Join(dir, "react-all-runs.json"))

	summary := RunSummary{
		RunID:      "run-1",
		Timestamp:  time.Now().UTC(),
		Iterations: 1,
		Reports:    []TargetReport{*report},
	}
	require.NoError(t, store.SaveAll(summary))

	loaded, err := store.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
	require.Len(t, loaded.Reports, 1)
	assert.Equal(t, 5.0, loaded.Reports[0].Stats.Render[10].Median)
}

func TestFileStore_WriteAndCreate(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.WriteFile("results.csv", []byte("a,b\n")))
	data, err := os.ReadFile(filepath.Join(dir, "results.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	w, err := store.Create(filepath.Join(PlotsDir, "x.png"))
	require.NoError(t, err)
	_, err = w.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.FileExists(t, filepath.Join(dir, PlotsDir, "x.png"))
}
