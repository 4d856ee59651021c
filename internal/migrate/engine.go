// Package migrate moves data from the store's earlier on-disk shapes into
// the current one-record-per-namespace shape.
//
// Each earlier shape is a Source. The engine runs once at startup: if the
// current store already holds data (or a marker from an earlier run) it
// does nothing; otherwise it tries the sources newest first and installs
// the first one that yields data. A source that fails to load is logged
// and skipped. Only a failure to persist the imported result is returned.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Target is the store being migrated into.
type Target interface {
	// Empty reports whether the store still needs a migration: it holds no
	// records at all, or only the remains of an unfinished install.
	Empty(ctx context.Context) (bool, error)
	// Install replaces the store content with img and records marker.
	Install(ctx context.Context, img *Image, marker Marker) error
}

// Marker is persisted alongside an imported store.
type Marker struct {
	Source      string `json:"source"`
	MigratedAt  string `json:"migrated_at"`
	Namespaces  int    `json:"namespaces"`
	Coordinates int    `json:"coordinates"`
	Dimensions  int    `json:"dimensions"`
	// Pending is set while the install is in progress. A store whose
	// marker is still pending holds a partial import and is migrated again.
	Pending bool `json:"pending,omitempty"`
}

// Report describes one engine run.
type Report struct {
	Skipped     bool     `json:"skipped"`
	Source      string   `json:"source,omitempty"`
	Namespaces  int      `json:"namespaces"`
	Coordinates int      `json:"coordinates"`
	Dimensions  int      `json:"dimensions"`
	Literals    int      `json:"literals"`
	Failed      []string `json:"failed,omitempty"`
	Dropped     []string `json:"dropped,omitempty"`
}

// Engine tries Sources in order against Target.
type Engine struct {
	Sources []Source
	Target  Target
	Place   PlaceFunc
	Logger  *slog.Logger
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Run performs the migration. Running it again on a migrated store is a
// no-op.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	log := e.logger()
	empty, err := e.Target.Empty(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("migrate: inspect store: %w", err)
	}
	if !empty {
		return Report{Skipped: true}, nil
	}

	place := e.Place
	if place == nil {
		place = func(string) int { return 0 }
	}

	var rep Report
	for _, src := range e.Sources {
		snap, err := src.Load(ctx)
		if err != nil {
			log.Warn("migration source unavailable", "source", src.Name(), "error", err)
			rep.Failed = append(rep.Failed, src.Name())
			continue
		}
		if snap.Empty() {
			continue
		}

		img := snap.Build(place)
		marker := Marker{
			Source:      src.Name(),
			MigratedAt:  time.Now().UTC().Format(time.RFC3339),
			Namespaces:  len(img.Prefixes()),
			Coordinates: img.Coordinates,
			Dimensions:  img.Dimensions,
		}
		if err := e.Target.Install(ctx, img, marker); err != nil {
			return rep, fmt.Errorf("migrate: install %s: %w", src.Name(), err)
		}

		rep.Source = src.Name()
		rep.Namespaces = marker.Namespaces
		rep.Coordinates = img.Coordinates
		rep.Dimensions = img.Dimensions
		rep.Dropped = img.Dropped
		for _, m := range img.Literals {
			rep.Literals += len(m)
		}
		log.Info("migrated legacy store",
			"source", rep.Source,
			"namespaces", rep.Namespaces,
			"coordinates", rep.Coordinates,
			"dimensions", rep.Dimensions,
			"literals", rep.Literals,
		)
		if len(rep.Dropped) > 0 {
			log.Warn("legacy keys without a namespace were not imported",
				"source", rep.Source, "count", len(rep.Dropped), "keys", rep.Dropped)
		}

		if r, ok := src.(Retirer); ok {
			if err := r.Retire(ctx); err != nil {
				log.Warn("retire migration source", "source", src.Name(), "error", err)
			}
		}
		return rep, nil
	}
	return rep, nil
}
