// Package pipeline wires the fetcher, the dataset store, and the derivers
// into the daily refresh run. Execution is deliberately sequential: one
// keyword at a time, with polite pacing at the fetch layer, and no shared
// state beyond the store and the run-guard sentinel.
package pipeline

import (
	"context"
	"time"

	"trendpulse-go/pkg/dataset"
	"trendpulse-go/pkg/logger"
	"trendpulse-go/pkg/trends"
)

// Fetcher is the slice of the trends fetcher the pipeline consumes.
// *trends.Fetcher implements it; tests substitute fakes.
type Fetcher interface {
	PullWeekly(ctx context.Context, keywords []string, timeframe string) []dataset.TrendRow
	InterestByRegion(ctx context.Context, keyword, timeframe, geo string) ([]trends.RegionInterest, error)
	RelatedQueries(ctx context.Context, keyword, timeframe string) (trends.RelatedBuckets, error)
	Pause()
}

// Archiver receives accepted country snapshots. Archive failures are logged
// but never fail the run.
type Archiver interface {
	SaveCountrySnapshot(ctx context.Context, runDate time.Time, rows []dataset.CountryRow) error
}

// Config is the per-run tuning of the pipeline.
type Config struct {
	Keywords     []string
	Timeframe    string
	Geo          string
	TopPeaks     int
	TopQueries   int
	TopCountries int
}

// Pipeline runs the full dataset refresh: global weekly trends with their
// derived tables, the country snapshot with its derived tables, and the
// related-query tables, all gated so unchanged data writes nothing.
type Pipeline struct {
	cfg     Config
	fetcher Fetcher
	store   *dataset.Store
	guard   *RunGuard
	archive Archiver
	log     *logger.Logger
	now     func() time.Time
}

func New(cfg Config, fetcher Fetcher, store *dataset.Store, guard *RunGuard, archive Archiver) *Pipeline {
	if cfg.TopPeaks <= 0 {
		cfg.TopPeaks = 3
	}
	if cfg.TopQueries <= 0 {
		cfg.TopQueries = 10
	}
	if cfg.TopCountries <= 0 {
		cfg.TopCountries = 5
	}
	return &Pipeline{
		cfg:     cfg,
		fetcher: fetcher,
		store:   store,
		guard:   guard,
		archive: archive,
		log:     logger.GetLogger().WithField("component", "pipeline"),
		now:     time.Now,
	}
}

// Run executes one refresh attempt. It returns nil on success or an
// intentional skip; any error is fatal for this run and leaves the run
// guard unmarked so the next scheduler tick retries the same day.
//
// Country and related updates run only when the global dataset gained a new
// week; their derived tables rebuild only when their parent changed.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.guard != nil && p.guard.AlreadyRanToday() {
		p.log.Info("Already ran today, exiting")
		return nil
	}

	globalUpdated, err := p.updateGlobal(ctx)
	if err != nil {
		return err
	}

	if globalUpdated {
		if err := p.rebuildTopPeaks(); err != nil {
			return err
		}

		countryUpdated, err := p.updateCountry(ctx)
		if err != nil {
			return err
		}
		if countryUpdated {
			if err := p.rebuildCountryDerived(ctx); err != nil {
				return err
			}
		} else {
			p.log.Info("Skipping country derived tables (no new country data)")
		}

		if _, err := p.updateRelated(ctx); err != nil {
			return err
		}
	} else {
		p.log.Info("Skipping country and related updates (no new global data)")
	}

	if p.guard != nil {
		if err := p.guard.MarkRanToday(); err != nil {
			return err
		}
	}
	return nil
}
