package formation

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// Generator drives an Engine over a frame source using injected detection and depth capabilities.
type Generator[K comparable] struct {
	engine   *Engine[K]
	detector Detector[K]
	depth    DepthEstimator
}

// NewGenerator creates a generator with its own engine
func NewGenerator[K comparable](cfg Config, detector Detector[K], depth DepthEstimator, opts ...Option) (*Generator[K], error) {
	if detector == nil {
		return nil, errors.New("detector must not be nil")
	}
	if depth == nil {
		return nil, errors.New("depth estimator must not be nil")
	}
	engine, err := NewEngine[K](cfg, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "Can't create formation engine")
	}
	return &Generator[K]{
		engine:   engine,
		detector: detector,
		depth:    depth,
	}, nil
}

// Engine returns the underlying engine
func (gen *Generator[K]) Engine() *Engine[K] {
	return gen.engine
}

// Run processes frames until the source is exhausted.
// On cancellation or collaborator failure it returns the timeline of the frames processed so far
// together with the error; collaborator failures match ErrCollaborator.
func (gen *Generator[K]) Run(ctx context.Context, source FrameSource) (*Timeline, error) {
	for {
		if err := ctx.Err(); err != nil {
			return gen.engine.Timeline(), err
		}
		frame, err := source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return gen.engine.Timeline(), nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return gen.engine.Timeline(), ctxErr
			}
			return gen.engine.Timeline(), &CollaboratorError{Stage: "sample frames", Frame: -1, Err: err}
		}
		if _, err := gen.ProcessFrame(ctx, frame); err != nil {
			return gen.engine.Timeline(), err
		}
	}
}

// ProcessFrame detects, estimates depth and feeds one frame to the engine
func (gen *Generator[K]) ProcessFrame(ctx context.Context, frame Frame) (FrameResult[K], error) {
	detections, err := gen.detector.Detect(ctx, frame)
	if err != nil {
		return FrameResult[K]{}, &CollaboratorError{Stage: "detect", Frame: frame.Index, Err: err}
	}
	depthMap, err := gen.depth.EstimateDepth(ctx, frame)
	if err != nil {
		return FrameResult[K]{}, &CollaboratorError{Stage: "estimate depth", Frame: frame.Index, Err: err}
	}
	observations := make([]Observation[K], 0, len(detections))
	for _, det := range detections {
		if !det.Confirmed {
			continue
		}
		observations = append(observations, Observation[K]{
			TrackID: det.TrackID,
			BBox:    det.BBox,
			Depth:   depthMap.MeanInBox(det.BBox),
		})
	}
	result, err := gen.engine.ProcessFrame(FrameInput[K]{
		Index:        frame.Index,
		Rate:         frame.Rate,
		Width:        frame.Width,
		Height:       frame.Height,
		Observations: observations,
	})
	if err != nil {
		return result, errors.Wrapf(err, "Can't process frame %d", frame.Index)
	}
	return result, nil
}
