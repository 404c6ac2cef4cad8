package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/LdDl/formation-go/depth"
	"github.com/LdDl/formation-go/formation"
	"github.com/LdDl/formation-go/mot"
	"github.com/pkg/errors"
)

// recordedDetection is one person box as written by the upstream detector/tracker
type recordedDetection struct {
	TrackID    string  `json:"track_id"`
	BBox       [4]int  `json:"bbox"`
	Confidence float64 `json:"confidence"`
	Confirmed  bool    `json:"confirmed"`
}

// recordedFrame is a single JSON line of the recording
type recordedFrame struct {
	Index      int                 `json:"index"`
	Rate       float64             `json:"rate"`
	Width      int                 `json:"width"`
	Height     int                 `json:"height"`
	Detections []recordedDetection `json:"detections"`
	// Raw depth model output on a coarse grid, [row][column]. Stretched to frame size on replay
	Depth [][]float64 `json:"depth"`
}

// Recording replays precomputed detections and depth as if they were produced live.
// It serves as FrameSource, Detector, DepthEstimator and mot.PersonDetector at once.
type Recording struct {
	frames  []recordedFrame
	byIndex map[int]int
	pos     int
}

// ReadRecording parses JSON-lines recording. Blank lines are skipped
func ReadRecording(r io.Reader) (*Recording, error) {
	rec := &Recording{
		frames:  make([]recordedFrame, 0),
		byIndex: make(map[int]int),
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}
		var frame recordedFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		if len(rec.frames) > 0 && frame.Index <= rec.frames[len(rec.frames)-1].Index {
			return nil, errors.Errorf("line %d: frame index %d does not advance", line, frame.Index)
		}
		rec.byIndex[frame.Index] = len(rec.frames)
		rec.frames = append(rec.frames, frame)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read recording")
	}
	return rec, nil
}

// Len returns number of recorded frames
func (rec *Recording) Len() int {
	return len(rec.frames)
}

// Next implements formation.FrameSource
func (rec *Recording) Next(ctx context.Context) (formation.Frame, error) {
	if err := ctx.Err(); err != nil {
		return formation.Frame{}, err
	}
	if rec.pos >= len(rec.frames) {
		return formation.Frame{}, io.EOF
	}
	f := rec.frames[rec.pos]
	rec.pos++
	return formation.Frame{
		Index:  f.Index,
		Rate:   f.Rate,
		Width:  f.Width,
		Height: f.Height,
	}, nil
}

func (rec *Recording) lookup(frame formation.Frame) (*recordedFrame, error) {
	i, ok := rec.byIndex[frame.Index]
	if !ok {
		return nil, errors.Errorf("frame %d is not in the recording", frame.Index)
	}
	return &rec.frames[i], nil
}

// Detect implements formation.Detector with recorded track identifiers
func (rec *Recording) Detect(ctx context.Context, frame formation.Frame) ([]formation.Detection[string], error) {
	f, err := rec.lookup(frame)
	if err != nil {
		return nil, err
	}
	detections := make([]formation.Detection[string], 0, len(f.Detections))
	for _, d := range f.Detections {
		if d.TrackID == "" {
			continue
		}
		detections = append(detections, formation.Detection[string]{
			TrackID:   d.TrackID,
			BBox:      d.BBox,
			Confirmed: d.Confirmed,
		})
	}
	return detections, nil
}

// DetectPersons implements mot.PersonDetector. Recorded track identifiers are ignored
func (rec *Recording) DetectPersons(ctx context.Context, frame formation.Frame) ([]mot.Candidate, error) {
	f, err := rec.lookup(frame)
	if err != nil {
		return nil, err
	}
	candidates := make([]mot.Candidate, 0, len(f.Detections))
	for _, d := range f.Detections {
		candidates = append(candidates, mot.Candidate{
			BBox:       mot.NewRectXYXY(float64(d.BBox[0]), float64(d.BBox[1]), float64(d.BBox[2]), float64(d.BBox[3])),
			Confidence: d.Confidence,
		})
	}
	return candidates, nil
}

// EstimateDepth implements formation.DepthEstimator: normalizes recorded raw depth and stretches it to the frame
func (rec *Recording) EstimateDepth(ctx context.Context, frame formation.Frame) (depth.Map, error) {
	f, err := rec.lookup(frame)
	if err != nil {
		return depth.Map{}, err
	}
	raw, err := depth.FromRows(f.Depth)
	if err != nil {
		return depth.Map{}, errors.Wrapf(err, "depth of frame %d", frame.Index)
	}
	if raw.Empty() {
		return raw, nil
	}
	return depth.Normalize(raw).Resize(frame.Width, frame.Height), nil
}
