package mot

import (
	"context"

	"github.com/LdDl/formation-go/formation"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Candidate is a raw person detection produced by an object detection model
type Candidate struct {
	BBox       Rectangle
	Confidence float64
}

// PersonDetector finds people on a frame. It wraps the external detection model.
type PersonDetector interface {
	DetectPersons(ctx context.Context, frame formation.Frame) ([]Candidate, error)
}

// TrackingDetector runs a PersonDetector and feeds its output through a Tracker,
// reporting tracks matched on the frame with their confirmation state.
type TrackingDetector struct {
	persons PersonDetector
	tracker *Tracker
}

// NewTrackingDetector creates a detector which assigns track identifiers to raw person detections
func NewTrackingDetector(persons PersonDetector, tracker *Tracker) *TrackingDetector {
	if tracker == nil {
		tracker = DefaultTracker()
	}
	return &TrackingDetector{
		persons: persons,
		tracker: tracker,
	}
}

// Tracker returns the underlying tracker
func (td *TrackingDetector) Tracker() *Tracker {
	return td.tracker
}

// Detect implements formation.Detector
func (td *TrackingDetector) Detect(ctx context.Context, frame formation.Frame) ([]formation.Detection[uuid.UUID], error) {
	candidates, err := td.persons.DetectPersons(ctx, frame)
	if err != nil {
		return nil, errors.Wrap(err, "Can't detect persons")
	}
	boxes := make([]Rectangle, len(candidates))
	confidences := make([]float64, len(candidates))
	for i, c := range candidates {
		boxes[i] = c.BBox
		confidences[i] = c.Confidence
	}
	if err := td.tracker.Update(boxes, confidences); err != nil {
		return nil, errors.Wrapf(err, "Can't track persons on frame %d", frame.Index)
	}
	matched := td.tracker.MatchedTracks()
	detections := make([]formation.Detection[uuid.UUID], 0, len(matched))
	for _, track := range matched {
		detections = append(detections, formation.Detection[uuid.UUID]{
			TrackID:   track.ID(),
			BBox:      track.BBox().XYXY(),
			Confirmed: track.Confirmed(),
		})
	}
	return detections, nil
}
