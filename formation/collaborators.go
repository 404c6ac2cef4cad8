package formation

import (
	"context"
	"image"

	"github.com/LdDl/formation-go/depth"
)

// Frame is one sampled video frame.
type Frame struct {
	// Index of the frame in the source video
	Index int
	// Frames per second of the source video
	Rate   float64
	Width  int
	Height int
	// Decoded pixels. May be nil for sources which carry precomputed detections
	Image image.Image
}

// Detection is a tracked person reported by the tracker for a frame.
type Detection[K comparable] struct {
	TrackID K
	// Pixel bounding box (x1, y1, x2, y2)
	BBox [4]int
	// Only confirmed tracks reach the engine
	Confirmed bool
}

// FrameSource yields sampled frames in order. Next returns io.EOF at the end of the stream.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
}

// Detector runs person detection and tracking on a frame.
type Detector[K comparable] interface {
	Detect(ctx context.Context, frame Frame) ([]Detection[K], error)
}

// DepthEstimator produces a normalized depth map with the same extent as the frame.
type DepthEstimator interface {
	EstimateDepth(ctx context.Context, frame Frame) (depth.Map, error)
}
