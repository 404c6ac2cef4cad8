package mot

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewTrack(t *testing.T) {
	bbox := Rectangle{X: 10, Y: 20, Width: 30, Height: 40}
	track := newTrack(uuid.New(), bbox, 0.7, 1.0)

	if track.ID() == uuid.Nil {
		t.Error("Track ID should not be nil")
	}
	if track.BBox() != bbox {
		t.Errorf("Expected bbox %v, got %v", bbox, track.BBox())
	}
	if track.Hits() != 1 || !track.Matched() || track.Confirmed() {
		t.Errorf("Unexpected initial state: hits=%d matched=%v confirmed=%v", track.Hits(), track.Matched(), track.Confirmed())
	}
	expectedCenter := Point{X: 25, Y: 40}
	if center := track.BBox().Center(); center != expectedCenter {
		t.Errorf("Expected center %v, got %v", expectedCenter, center)
	}
}

func TestTrackPredict(t *testing.T) {
	track := newTrack(uuid.New(), Rectangle{X: 10, Y: 20, Width: 30, Height: 40}, 0.9, 1.0)
	track.predict()

	// Initial state should give prediction close to initial position
	predicted := track.PredictedBBox()
	if predicted.Width <= 0 || predicted.Height <= 0 {
		t.Error("Predicted bbox should have positive dimensions")
	}
	if IoU(predicted, track.BBox()) < 0.5 {
		t.Errorf("Prediction drifted too far: %v vs %v", predicted, track.BBox())
	}
}

func TestTrackUpdateAndMiss(t *testing.T) {
	track := newTrack(uuid.New(), Rectangle{X: 10, Y: 20, Width: 30, Height: 40}, 0.9, 1.0)
	track.predict()
	if err := track.update(Rectangle{X: 15, Y: 25, Width: 32, Height: 42}, 0.6); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if track.Hits() != 2 {
		t.Errorf("Expected 2 hits, got %d", track.Hits())
	}
	// Smoothed box lies between previous state and the detection
	if center := track.BBox().Center(); center.X < 25 || center.X > 31.5 {
		t.Errorf("Unexpected smoothed center %v", center)
	}
	if track.Confidence() != 0.6 {
		t.Errorf("Expected confidence 0.6, got %f", track.Confidence())
	}

	track.miss()
	track.miss()
	if track.NoMatchTimes() != 2 || track.Matched() {
		t.Errorf("Expected 2 misses and unmatched state, got %d / %v", track.NoMatchTimes(), track.Matched())
	}
	track.predict()
	if err := track.update(Rectangle{X: 15, Y: 25, Width: 32, Height: 42}, 0.6); err != nil {
		t.Fatal(err)
	}
	if track.NoMatchTimes() != 0 {
		t.Errorf("Misses should reset after update, got %d", track.NoMatchTimes())
	}
}
