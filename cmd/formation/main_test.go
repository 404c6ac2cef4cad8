package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LdDl/formation-go/config"
	"github.com/LdDl/formation-go/formation"
	"github.com/LdDl/formation-go/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeRecording(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recording.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(twoDancers), 0o644))
	return path
}

func TestExecuteWritesAndStores(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		input:    writeRecording(t),
		output:   filepath.Join(dir, "timeline.json"),
		dbPath:   filepath.Join(dir, "runs.db"),
		notes:    "rehearsal",
		dancers:  2,
		grid:     15,
		interval: 1,
	}
	require.NoError(t, execute(context.Background(), opts, io.Discard, quietLogger()))

	data, err := os.ReadFile(opts.output)
	require.NoError(t, err)
	var entries []formation.Entry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 3)
	for i, entry := range entries {
		assert.InDelta(t, 0.1*float64(i+1), entry.Timestamp, 1e-9)
		require.Len(t, entry.PositionMatrix, 15)
		assert.Equal(t, 1, entry.PositionMatrix[1][1])
		assert.Equal(t, 2, entry.PositionMatrix[3][11])
	}

	db, err := store.Open(opts.dbPath)
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "rehearsal", runs[0].Notes)
	assert.Equal(t, 2, runs[0].Allocated)
	assert.Equal(t, 3, runs[0].EntryCount)
}

func TestExecuteStdoutDefault(t *testing.T) {
	var buf bytes.Buffer
	opts := options{input: writeRecording(t), output: "-", dancers: 2, grid: 15, interval: 2}
	require.NoError(t, execute(context.Background(), opts, &buf, quietLogger()))

	var entries []formation.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.InDelta(t, 0.2, entries[0].Timestamp, 1e-9)
	assert.True(t, strings.HasPrefix(buf.String(), "[\n    {"))
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := execute(ctx, options{input: writeRecording(t), dancers: 2, interval: 1}, &buf, quietLogger())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "[]\n", buf.String())
}

func TestExecuteBadInput(t *testing.T) {
	err := execute(context.Background(), options{input: filepath.Join(t.TempDir(), "absent.jsonl")}, io.Discard, quietLogger())
	assert.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  num_dancers: 6\n  grid_size: 9\nstore:\n  path: a.db\n"), 0o644))

	cfg, err := loadConfig(options{configPath: path, grid: 11, dbPath: "b.db"})
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Engine.NumDancers)
	assert.Equal(t, 11, cfg.Engine.GridSize)
	assert.Equal(t, "b.db", cfg.Store.Path)

	_, err = loadConfig(options{configPath: filepath.Join(t.TempDir(), "absent.yaml")})
	assert.Error(t, err)
}

func TestReplayRetrack(t *testing.T) {
	rec, err := ReadRecording(strings.NewReader(twoDancers))
	require.NoError(t, err)
	cfg := config.Default()
	cfg.Engine.NumDancers = 2
	cfg.Engine.GridSize = 15
	cfg.Engine.FrameInterval = 1

	sum, err := replay(context.Background(), cfg, rec, true, quietLogger())
	require.NoError(t, err)
	// Tracks are confirmed on the third hit only
	assert.Equal(t, 2, sum.Allocated)
	require.Len(t, sum.Entries, 3)
	last := sum.Entries[2].PositionMatrix
	assert.Equal(t, 1, last[1][1])
	assert.Equal(t, 2, last[3][11])
}
