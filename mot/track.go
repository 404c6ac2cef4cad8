package mot

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Track is a tracked person using 8-D Kalman filter for full bounding box dynamics.
// State vector: [cx, cy, w, h, vx, vy, vw, vh] - center position, size, and velocities.
type Track struct {
	id            uuid.UUID
	currentBBox   Rectangle
	predictedBBox Rectangle
	confidence    float64
	// Number of frames the track was matched to a detection
	hits int
	// Consecutive frames without a match
	noMatchTimes int
	// Whether the track was matched on the latest frame
	matched bool
	// Set once hits reach the confirmation threshold, never reset
	confirmed bool
	tracker *kalman_filter.KalmanBBox
}

func newTrack(id uuid.UUID, bbox Rectangle, confidence, dt float64) *Track {
	center := bbox.Center()

	// Kalman filter props
	uCx := 1.0
	uCy := 1.0
	uW := 0.0
	uH := 0.0
	stdDevA := 2.0
	stdDevMCx := 0.1
	stdDevMCy := 0.1
	stdDevMW := 0.1
	stdDevMH := 0.1
	kf := kalman_filter.NewKalmanBBox(
		dt, uCx, uCy, uW, uH,
		stdDevA, stdDevMCx, stdDevMCy, stdDevMW, stdDevMH,
		kalman_filter.WithStateBBox(center.X, center.Y, bbox.Width, bbox.Height),
	)

	track := Track{
		id:            id,
		currentBBox:   bbox,
		predictedBBox: bbox,
		confidence:    confidence,
		hits:          1,
		matched:       true,
		tracker:       kf,
	}
	return &track
}

// ID returns track's identifier
func (track *Track) ID() uuid.UUID {
	return track.id
}

// BBox returns track's current (smoothed) bounding box
func (track *Track) BBox() Rectangle {
	return track.currentBBox
}

// PredictedBBox returns bounding box predicted by Kalman filter for the next frame
func (track *Track) PredictedBBox() Rectangle {
	return track.predictedBBox
}

// Confidence returns confidence of the latest matched detection
func (track *Track) Confidence() float64 {
	return track.confidence
}

// Hits returns number of matched frames
func (track *Track) Hits() int {
	return track.hits
}

// NoMatchTimes returns number of consecutive frames without a match
func (track *Track) NoMatchTimes() int {
	return track.noMatchTimes
}

// Confirmed reports whether the track has been matched often enough to be trusted
func (track *Track) Confirmed() bool {
	return track.confirmed
}

// Matched reports whether the track was matched on the latest frame
func (track *Track) Matched() bool {
	return track.matched
}

// predict executes Kalman filter prediction step
func (track *Track) predict() {
	track.tracker.Predict()
	cx, cy, w, h := track.tracker.GetState()
	track.predictedBBox = Rectangle{
		X:      cx - w/2.0,
		Y:      cy - h/2.0,
		Width:  w,
		Height: h,
	}
}

// update corrects the Kalman filter with a matched detection
func (track *Track) update(bbox Rectangle, confidence float64) error {
	center := bbox.Center()
	err := track.tracker.Update(center.X, center.Y, bbox.Width, bbox.Height)
	if err != nil {
		return errors.Wrap(err, "Can't update object tracker")
	}

	cx, cy, w, h := track.tracker.GetState()
	track.currentBBox = Rectangle{
		X:      cx - w/2.0,
		Y:      cy - h/2.0,
		Width:  w,
		Height: h,
	}
	track.confidence = confidence
	track.hits++
	track.noMatchTimes = 0
	track.matched = true
	return nil
}

func (track *Track) miss() {
	track.noMatchTimes++
	track.matched = false
}
