package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/LdDl/formation-go/config"
	"github.com/LdDl/formation-go/formation"
	"github.com/LdDl/formation-go/mot"
	"github.com/LdDl/formation-go/store"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// summary is what a finished (or interrupted) run reports besides its timeline
type summary struct {
	Entries   []formation.Entry
	Allocated int
	Dropped   int
}

// generate runs the generator over the recording. The summary is filled even when err != nil
func generate[K comparable](ctx context.Context, cfg formation.Config, detector formation.Detector[K], rec *Recording, logger *slog.Logger) (summary, error) {
	gen, err := formation.NewGenerator[K](cfg, detector, rec, formation.WithLogger(logger))
	if err != nil {
		return summary{}, err
	}
	timeline, runErr := gen.Run(ctx, rec)
	sum := summary{
		Entries:   timeline.Entries(),
		Allocated: gen.Engine().Resolver().Allocated(),
		Dropped:   gen.Engine().DroppedPlacements(),
	}
	return sum, runErr
}

// replay dispatches on tracking mode. With retrack raw boxes go through mot.Tracker and recorded identifiers are ignored
func replay(ctx context.Context, cfg *config.Config, rec *Recording, retrack bool, logger *slog.Logger) (summary, error) {
	if !retrack {
		return generate[string](ctx, cfg.Formation(), rec, rec, logger)
	}
	tracker, err := cfg.NewTracker()
	if err != nil {
		return summary{}, err
	}
	return generate[uuid.UUID](ctx, cfg.Formation(), mot.NewTrackingDetector(rec, tracker), rec, logger)
}

// writeEntries writes timeline as indented JSON array
func writeEntries(w io.Writer, entries []formation.Entry) error {
	if entries == nil {
		entries = []formation.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return errors.Wrap(err, "encode timeline")
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// persist stores the run in SQLite database at path
func persist(ctx context.Context, path string, run store.Run, entries []formation.Entry) (string, error) {
	db, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer db.Close()
	runID, err := db.SaveRun(ctx, run, entries)
	if err != nil {
		return "", err
	}
	return runID.String(), nil
}
