// Package formation turns per-frame person tracks and depth estimates into a timeline of
// occupancy grids where every cell holds at most one persistent performer slot.
package formation

import (
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

// Observation is a single confirmed track seen on a frame.
type Observation[K comparable] struct {
	TrackID K
	// Pixel bounding box (x1, y1, x2, y2)
	BBox [4]int
	// Normalized depth of the box, NaN if unknown
	Depth float64
}

// FrameInput is everything the engine consumes for one frame.
type FrameInput[K comparable] struct {
	Index        int
	Rate         float64
	Width        int
	Height       int
	Observations []Observation[K]
}

// Assignment is the outcome of resolving one observation.
type Assignment[K comparable] struct {
	TrackID K
	Slot    int
	Cell    Cell
	Via     Reattachment
}

// FrameResult summarizes one processed frame.
type FrameResult[K comparable] struct {
	Matrix      Matrix
	Assignments []Assignment[K]
	// Tracks which could not get a slot because every slot is in use
	Unassigned []K
	// Slots released by the staleness check on this frame
	Reaped   []int
	Warnings []PlacementWarning
	// Whether the matrix was appended to the timeline
	Appended  bool
	Timestamp float64
}

// Engine runs the per-frame pipeline: project -> resolve -> reap -> place -> append.
// It is a synchronous state machine and is not safe for concurrent use;
// process every video with its own Engine.
type Engine[K comparable] struct {
	cfg      Config
	resolver *Resolver[K]
	timeline *Timeline
	logger   *slog.Logger
	// Number of placement warnings seen so far
	droppedPlacements int
}

// Option configures an Engine
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets structured logger for engine events
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewEngine validates the configuration and creates an engine with seeded slots
func NewEngine[K comparable](cfg Config, opts ...Option) (*Engine[K], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = discardLogger()
	}
	return &Engine[K]{
		cfg:      cfg,
		resolver: NewResolver[K](cfg, o.logger),
		timeline: NewTimeline(),
		logger:   o.logger,
	}, nil
}

// ProcessFrame runs the full pipeline for one frame.
// Tracks already bound to a slot are resolved before new ones so a newcomer can never take
// the slot of a track which is still visible on the same frame.
func (engine *Engine[K]) ProcessFrame(in FrameInput[K]) (FrameResult[K], error) {
	sampled := in.Index%engine.cfg.FrameInterval == 0
	var timestamp float64
	if sampled {
		ts, err := Timestamp(in.Index, in.Rate)
		if err != nil {
			return FrameResult[K]{}, errors.Wrapf(err, "Can't compute timestamp for frame %d", in.Index)
		}
		timestamp = ts
	}

	result := FrameResult[K]{}
	for _, obs := range engine.resolutionOrder(in.Observations) {
		cell := Project(obs.BBox, in.Width, in.Height, engine.cfg.GridSize, engine.cfg.Margin)
		slot, via := engine.resolver.resolve(obs.TrackID, cell, in.Index)
		if via == ReattachNone {
			result.Unassigned = append(result.Unassigned, obs.TrackID)
			continue
		}
		engine.resolver.SetDepth(slot, obs.Depth)
		result.Assignments = append(result.Assignments, Assignment[K]{
			TrackID: obs.TrackID,
			Slot:    slot,
			Cell:    cell,
			Via:     via,
		})
	}
	if len(result.Unassigned) > 0 {
		engine.logger.Debug("tracks left unassigned, all slots in use", "frame", in.Index, "count", len(result.Unassigned))
	}
	// Slots claimed above have lag 0 and survive any stale threshold
	result.Reaped = engine.resolver.Reap(in.Index)
	engine.resolver.RecordHistory()

	result.Matrix, result.Warnings = Place(engine.resolver.States(), engine.cfg.GridSize)
	for _, w := range result.Warnings {
		engine.droppedPlacements++
		engine.logger.Warn("grid saturated", "frame", in.Index, "slot", w.Slot, "target_x", w.Target.X, "target_y", w.Target.Y)
	}

	if sampled {
		if err := engine.timeline.Append(timestamp, result.Matrix); err != nil {
			// Two sampled frames rounding to the same timestamp: keep the first one
			engine.logger.Warn("formation not appended", "frame", in.Index, "error", err)
		} else {
			result.Appended = true
			result.Timestamp = timestamp
			engine.logger.Debug("formation appended", "frame", in.Index, "timestamp", timestamp)
		}
	}
	return result, nil
}

func (engine *Engine[K]) resolutionOrder(observations []Observation[K]) []Observation[K] {
	ordered := make([]Observation[K], 0, len(observations))
	for _, obs := range observations {
		if _, ok := engine.resolver.SlotOf(obs.TrackID); ok {
			ordered = append(ordered, obs)
		}
	}
	for _, obs := range observations {
		if _, ok := engine.resolver.SlotOf(obs.TrackID); !ok {
			ordered = append(ordered, obs)
		}
	}
	return ordered
}

// Timeline returns formations accumulated so far
func (engine *Engine[K]) Timeline() *Timeline {
	return engine.timeline
}

// Resolver exposes the identity state of the engine
func (engine *Engine[K]) Resolver() *Resolver[K] {
	return engine.resolver
}

// Config returns the engine configuration
func (engine *Engine[K]) Config() Config {
	return engine.cfg
}

// DroppedPlacements returns how many times a slot was left out of a matrix because the grid was full
func (engine *Engine[K]) DroppedPlacements() int {
	return engine.droppedPlacements
}
