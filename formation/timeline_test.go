package formation

import (
	"testing"
)

func TestTimestamp(t *testing.T) {
	cases := []struct {
		frame int
		rate  float64
		want  float64
	}{
		{10, 30, 0.33},
		{20, 30, 0.67},
		{30, 30, 1.0},
		{0, 25, 0.0},
		{1001, 29.97, 33.4},
	}
	for _, tc := range cases {
		got, err := Timestamp(tc.frame, tc.rate)
		if err != nil {
			t.Errorf("Frame %d at %v fps: unexpected error %v", tc.frame, tc.rate, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Frame %d at %v fps: expected %v, got %v", tc.frame, tc.rate, tc.want, got)
		}
	}
	for _, rate := range []float64{0, -30, nan()} {
		if _, err := Timestamp(10, rate); !isErr(err, ErrInvalidFrameRate) {
			t.Errorf("Rate %v: expected ErrInvalidFrameRate, got %v", rate, err)
		}
	}
}

func TestTimelineAppend(t *testing.T) {
	tl := NewTimeline()
	m := NewMatrix(3)
	m[1][1] = 1
	if err := tl.Append(0.33, m); err != nil {
		t.Fatalf("First append failed: %v", err)
	}
	// Caller mutation must not leak into stored entry
	m[1][1] = 0
	if got := tl.Entries()[0].PositionMatrix[1][1]; got != 1 {
		t.Errorf("Stored matrix changed after append, got %d", got)
	}
	if err := tl.Append(0.33, m); !isErr(err, ErrNonIncreasingTimestamp) {
		t.Errorf("Expected ErrNonIncreasingTimestamp for equal timestamp, got %v", err)
	}
	if err := tl.Append(0.1, m); !isErr(err, ErrNonIncreasingTimestamp) {
		t.Errorf("Expected ErrNonIncreasingTimestamp for earlier timestamp, got %v", err)
	}
	if err := tl.Append(0.67, m); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if tl.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", tl.Len())
	}
	last, ok := tl.Last()
	if !ok || last.Timestamp != 0.67 {
		t.Errorf("Expected last timestamp 0.67, got %v (%v)", last.Timestamp, ok)
	}
}
