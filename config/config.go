// Package config reads the YAML run configuration of the formation generator.
package config

import (
	"os"

	"github.com/LdDl/formation-go/formation"
	"github.com/LdDl/formation-go/mot"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the complete run configuration
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Tracker TrackerConfig `yaml:"tracker"`
	Store   StoreConfig   `yaml:"store"`
}

// EngineConfig mirrors formation.Config
type EngineConfig struct {
	NumDancers        int     `yaml:"num_dancers"`
	GridSize          int     `yaml:"grid_size"`
	DistanceThreshold float64 `yaml:"distance_threshold"`
	StaleThreshold    int     `yaml:"stale_threshold_frames"`
	MaxHistory        int     `yaml:"max_history_entries"`
	FrameInterval     int     `yaml:"frame_interval"`
	Margin            float64 `yaml:"margin"`
}

// TrackerConfig contains mot.Tracker settings. Used only when raw detections are re-tracked
type TrackerConfig struct {
	MaxDisappeared int     `yaml:"max_disappeared"`
	MinIoU         float64 `yaml:"min_iou"`
	HighThresh     float64 `yaml:"high_thresh"`
	LowThresh      float64 `yaml:"low_thresh"`
	MinHits        int     `yaml:"min_hits"`
	Algorithm      string  `yaml:"algorithm"` // hungarian, greedy
}

// StoreConfig contains persistence settings
type StoreConfig struct {
	// Path to SQLite database. Empty disables persistence
	Path  string `yaml:"path"`
	Notes string `yaml:"notes"`
}

// Default returns configuration for four dancers with default engine and tracker settings
func Default() *Config {
	engine := formation.DefaultConfig(4)
	return &Config{
		Engine: EngineConfig{
			NumDancers:        engine.NumDancers,
			GridSize:          engine.GridSize,
			DistanceThreshold: engine.DistanceThreshold,
			StaleThreshold:    engine.StaleThreshold,
			MaxHistory:        engine.MaxHistory,
			FrameInterval:     engine.FrameInterval,
			Margin:            engine.Margin,
		},
		Tracker: TrackerConfig{
			MaxDisappeared: 30,
			MinIoU:         0.3,
			HighThresh:     0.5,
			LowThresh:      0.1,
			MinHits:        3,
			Algorithm:      "hungarian",
		},
	}
}

// Load reads and parses a YAML configuration file. Omitted fields keep their defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse decodes YAML configuration on top of Default()
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Validate checks engine and tracker sections
func (cfg *Config) Validate() error {
	if err := cfg.Formation().Validate(); err != nil {
		return err
	}
	tr := cfg.Tracker
	switch {
	case tr.MaxDisappeared < 1:
		return errors.Errorf("tracker.max_disappeared must be >= 1, got %d", tr.MaxDisappeared)
	case tr.MinIoU < 0 || tr.MinIoU > 1:
		return errors.Errorf("tracker.min_iou must be in [0, 1], got %v", tr.MinIoU)
	case tr.LowThresh < 0 || tr.LowThresh > tr.HighThresh:
		return errors.Errorf("tracker thresholds must satisfy 0 <= low_thresh <= high_thresh, got %v and %v", tr.LowThresh, tr.HighThresh)
	case tr.MinHits < 1:
		return errors.Errorf("tracker.min_hits must be >= 1, got %d", tr.MinHits)
	}
	if _, err := mot.ParseMatchingAlgorithm(tr.Algorithm); err != nil {
		return errors.Wrap(err, "tracker.algorithm")
	}
	return nil
}

// Formation converts engine section into formation.Config
func (cfg *Config) Formation() formation.Config {
	return formation.Config{
		NumDancers:        cfg.Engine.NumDancers,
		GridSize:          cfg.Engine.GridSize,
		DistanceThreshold: cfg.Engine.DistanceThreshold,
		StaleThreshold:    cfg.Engine.StaleThreshold,
		MaxHistory:        cfg.Engine.MaxHistory,
		FrameInterval:     cfg.Engine.FrameInterval,
		Margin:            cfg.Engine.Margin,
	}
}

// NewTracker builds mot.Tracker from tracker section
func (cfg *Config) NewTracker() (*mot.Tracker, error) {
	algorithm, err := mot.ParseMatchingAlgorithm(cfg.Tracker.Algorithm)
	if err != nil {
		return nil, err
	}
	tr := cfg.Tracker
	return mot.NewTracker(tr.MaxDisappeared, tr.MinIoU, tr.HighThresh, tr.LowThresh, tr.MinHits, algorithm), nil
}
