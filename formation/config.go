package formation

import (
	"github.com/pkg/errors"
)

// Config is the set of caller supplied engine parameters.
type Config struct {
	// Number of persistent slots (performers). Must be >= 1
	NumDancers int
	// Side of the square occupancy grid. Must be >= 2
	GridSize int
	// Reattachment radius in grid units. Must be >= 0
	DistanceThreshold float64
	// Number of frames a binding may go unseen before it is released. Must be >= 0
	StaleThreshold int
	// Capacity of the binding history ring. Must be >= 0
	MaxHistory int
	// Only frames with index divisible by FrameInterval are appended to the timeline. Must be >= 1
	FrameInterval int
	// Fraction of the frame clipped on every side before projection. 0 <= Margin < 0.5
	Margin float64
}

// DefaultConfig returns a configuration for numDancers performers on a 7x7 grid.
func DefaultConfig(numDancers int) Config {
	return Config{
		NumDancers:        numDancers,
		GridSize:          7,
		DistanceThreshold: 2.0,
		StaleThreshold:    60,
		MaxHistory:        50,
		FrameInterval:     10,
		Margin:            0.05,
	}
}

// Validate checks every field against its allowed range.
func (cfg Config) Validate() error {
	switch {
	case cfg.NumDancers < 1:
		return errors.Wrapf(ErrInvalidConfig, "num_dancers must be >= 1, got %d", cfg.NumDancers)
	case cfg.GridSize < 2:
		return errors.Wrapf(ErrInvalidConfig, "grid_size must be >= 2, got %d", cfg.GridSize)
	case cfg.DistanceThreshold < 0 || cfg.DistanceThreshold != cfg.DistanceThreshold:
		return errors.Wrapf(ErrInvalidConfig, "distance_threshold must be >= 0, got %v", cfg.DistanceThreshold)
	case cfg.StaleThreshold < 0:
		return errors.Wrapf(ErrInvalidConfig, "stale_threshold_frames must be >= 0, got %d", cfg.StaleThreshold)
	case cfg.MaxHistory < 0:
		return errors.Wrapf(ErrInvalidConfig, "max_history_entries must be >= 0, got %d", cfg.MaxHistory)
	case cfg.FrameInterval < 1:
		return errors.Wrapf(ErrInvalidConfig, "frame_interval must be >= 1, got %d", cfg.FrameInterval)
	case cfg.Margin < 0 || cfg.Margin >= 0.5 || cfg.Margin != cfg.Margin:
		return errors.Wrapf(ErrInvalidConfig, "margin must be in [0, 0.5), got %v", cfg.Margin)
	}
	return nil
}
