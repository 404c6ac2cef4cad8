package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/LdDl/formation-go/config"
	"github.com/LdDl/formation-go/store"
	"github.com/pkg/errors"
)

type options struct {
	configPath string
	input      string
	output     string
	dbPath     string
	notes      string
	dancers    int
	grid       int
	interval   int
	retrack    bool
}

func main() {
	configPath := flag.String("config", "", "YAML configuration file (optional)")
	input := flag.String("input", "", "JSON-lines recording of frames with detections and depth (required)")
	output := flag.String("output", "-", "Where to write formation timeline JSON, '-' for stdout")
	dbPath := flag.String("db", "", "SQLite database to store the run in (overrides store.path)")
	notes := flag.String("notes", "", "Free form notes saved with the run")
	dancers := flag.Int("dancers", 0, "Number of dancers (overrides engine.num_dancers)")
	grid := flag.Int("grid", 0, "Grid size (overrides engine.grid_size)")
	interval := flag.Int("interval", 0, "Sampling interval in frames (overrides engine.frame_interval)")
	retrack := flag.Bool("track", false, "Ignore recorded track identifiers and re-track raw boxes")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	if *input == "" {
		fmt.Fprintf(os.Stderr, "Error: -input flag is required\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := options{
		configPath: *configPath,
		input:      *input,
		output:     *output,
		dbPath:     *dbPath,
		notes:      *notes,
		dancers:    *dancers,
		grid:       *grid,
		interval:   *interval,
		retrack:    *retrack,
	}
	if err := execute(ctx, opts, os.Stdout, logger); err != nil {
		logger.Error("formation generation failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration file (if any) and applies command line overrides
func loadConfig(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
	}
	if opts.dancers > 0 {
		cfg.Engine.NumDancers = opts.dancers
	}
	if opts.grid > 0 {
		cfg.Engine.GridSize = opts.grid
	}
	if opts.interval > 0 {
		cfg.Engine.FrameInterval = opts.interval
	}
	if opts.dbPath != "" {
		cfg.Store.Path = opts.dbPath
	}
	if opts.notes != "" {
		cfg.Store.Notes = opts.notes
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// execute replays the recording and writes the timeline. A partial timeline is still written on failure
func execute(ctx context.Context, opts options, stdout io.Writer, logger *slog.Logger) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	file, err := os.Open(opts.input)
	if err != nil {
		return errors.Wrap(err, "open recording")
	}
	rec, err := ReadRecording(file)
	file.Close()
	if err != nil {
		return errors.Wrapf(err, "parse recording %s", opts.input)
	}
	logger.Info("replaying recording",
		"input", opts.input,
		"frames", rec.Len(),
		"dancers", cfg.Engine.NumDancers,
		"grid_size", cfg.Engine.GridSize,
		"frame_interval", cfg.Engine.FrameInterval,
		"retrack", opts.retrack,
	)

	sum, runErr := replay(ctx, cfg, rec, opts.retrack, logger)

	out := stdout
	if opts.output != "" && opts.output != "-" {
		f, err := os.Create(opts.output)
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		defer f.Close()
		out = f
	}
	if err := writeEntries(out, sum.Entries); err != nil {
		return errors.Wrap(err, "write output")
	}
	logger.Info("timeline written",
		"entries", len(sum.Entries),
		"allocated_slots", sum.Allocated,
		"dropped_placements", sum.Dropped,
	)
	if runErr != nil {
		return runErr
	}

	if cfg.Store.Path == "" {
		return nil
	}
	runID, err := persist(ctx, cfg.Store.Path, store.Run{
		Source:        opts.input,
		Notes:         cfg.Store.Notes,
		NumDancers:    cfg.Engine.NumDancers,
		GridSize:      cfg.Engine.GridSize,
		FrameInterval: cfg.Engine.FrameInterval,
		Allocated:     sum.Allocated,
		Dropped:       sum.Dropped,
	}, sum.Entries)
	if err != nil {
		return errors.Wrap(err, "persist run")
	}
	logger.Info("run stored", "db", cfg.Store.Path, "run_id", runID)
	return nil
}
