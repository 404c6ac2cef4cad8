package formation

import (
	"math"

	"github.com/pkg/errors"
)

// Entry is one formation snapshot.
type Entry struct {
	Timestamp      float64 `json:"timestamp"`
	PositionMatrix Matrix  `json:"position_matrix"`
}

// Timeline is an append-only sequence of formation snapshots with strictly increasing timestamps.
type Timeline struct {
	entries []Entry
}

// NewTimeline creates empty timeline
func NewTimeline() *Timeline {
	return &Timeline{
		entries: make([]Entry, 0),
	}
}

// Timestamp converts frame index into seconds rounded to 2 decimal places
func Timestamp(frameIndex int, frameRate float64) (float64, error) {
	if !(frameRate > 0) || math.IsInf(frameRate, 1) {
		return 0, errors.Wrapf(ErrInvalidFrameRate, "got %v", frameRate)
	}
	return math.Round(float64(frameIndex)/frameRate*100) / 100, nil
}

// Append adds a snapshot. The matrix is copied so later changes by the caller do not leak in.
func (tl *Timeline) Append(timestamp float64, matrix Matrix) error {
	if n := len(tl.entries); n > 0 && !(timestamp > tl.entries[n-1].Timestamp) {
		return errors.Wrapf(ErrNonIncreasingTimestamp, "%.2f after %.2f", timestamp, tl.entries[n-1].Timestamp)
	}
	tl.entries = append(tl.entries, Entry{
		Timestamp:      timestamp,
		PositionMatrix: matrix.Clone(),
	})
	return nil
}

// Len returns number of snapshots
func (tl *Timeline) Len() int {
	return len(tl.entries)
}

// Entries returns stored snapshots in order. Be careful: this is not a copy, but reference to them
func (tl *Timeline) Entries() []Entry {
	return tl.entries
}

// Last returns the most recent snapshot
func (tl *Timeline) Last() (Entry, bool) {
	if len(tl.entries) == 0 {
		return Entry{}, false
	}
	return tl.entries[len(tl.entries)-1], true
}
