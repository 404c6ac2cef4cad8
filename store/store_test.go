package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/LdDl/formation-go/formation"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "formation.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEntries() []formation.Entry {
	return []formation.Entry{
		{Timestamp: 0.33, PositionMatrix: formation.Matrix{{0, 1}, {2, 0}}},
		{Timestamp: 0.67, PositionMatrix: formation.Matrix{{1, 0}, {0, 2}}},
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	runID, err := s.SaveRun(ctx, Run{
		Source:        "recording.jsonl",
		Notes:         "rehearsal",
		NumDancers:    2,
		GridSize:      2,
		FrameInterval: 10,
		Allocated:     2,
	}, sampleEntries())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, runID)

	run, entries, err := s.LoadRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, "recording.jsonl", run.Source)
	assert.Equal(t, "rehearsal", run.Notes)
	assert.Equal(t, 2, run.EntryCount)
	assert.NotZero(t, run.CreatedAt)
	if diff := cmp.Diff(sampleEntries(), entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestListRunsOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.SaveRun(ctx, Run{Source: "a", NumDancers: 1, GridSize: 7, FrameInterval: 1, CreatedAt: 100}, nil)
	require.NoError(t, err)
	second, err := s.SaveRun(ctx, Run{Source: "b", NumDancers: 1, GridSize: 7, FrameInterval: 1, CreatedAt: 200}, sampleEntries())
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].RunID)
	assert.Equal(t, first, runs[1].RunID)
	assert.Equal(t, 0, runs[1].EntryCount)
}

func TestRunNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.GetRun(ctx, uuid.New())
	assert.True(t, errors.Is(err, ErrRunNotFound))
	assert.True(t, errors.Is(s.DeleteRun(ctx, uuid.New()), ErrRunNotFound))
}

func TestDeleteRunCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	runID, err := s.SaveRun(ctx, Run{Source: "x", NumDancers: 2, GridSize: 2, FrameInterval: 1}, sampleEntries())
	require.NoError(t, err)
	require.NoError(t, s.DeleteRun(ctx, runID))

	entries, err := s.LoadEntries(ctx, runID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveRunDuplicateID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	runID := uuid.New()
	_, err := s.SaveRun(ctx, Run{RunID: runID, Source: "x", NumDancers: 1, GridSize: 2, FrameInterval: 1}, sampleEntries())
	require.NoError(t, err)
	_, err = s.SaveRun(ctx, Run{RunID: runID, Source: "y", NumDancers: 1, GridSize: 2, FrameInterval: 1}, nil)
	assert.Error(t, err)

	// Failed transaction leaves the first run untouched
	run, entries, err := s.LoadRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, "x", run.Source)
	assert.Len(t, entries, 2)
}
