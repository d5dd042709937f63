package pipeline

import (
	"context"
	"fmt"

	"trendpulse-go/pkg/dataset"
	"trendpulse-go/pkg/derive"
)

// updateGlobal refreshes the global weekly dataset and, when a new week
// landed, rebuilds the percent-change table from the merged result.
//
// The gate is date-based: a write happens iff the fetched max date strictly
// exceeds the stored max date, or no file exists yet. The write merges the
// fresh window over existing history by (date, keyword) with fetched rows
// winning, so history older than the provider's window is never lost.
func (p *Pipeline) updateGlobal(ctx context.Context) (bool, error) {
	p.log.Info("Updating " + dataset.GlobalTrendFile)

	fetched := p.fetcher.PullWeekly(ctx, p.cfg.Keywords, p.cfg.Timeframe)
	if len(fetched) == 0 {
		p.log.Warn("No data retrieved from trends API, keeping existing file unchanged")
		return false, nil
	}
	if err := derive.ValidateTrendRows(fetched); err != nil {
		return false, fmt.Errorf("rejecting fetched global data: %w", err)
	}

	existing, err := p.store.ReadTrendTable(dataset.GlobalTrendFile)
	if err != nil {
		return false, err
	}

	if len(existing) > 0 {
		lastExisting := derive.MaxDate(existing)
		lastFetched := derive.MaxDate(fetched)
		if !lastFetched.After(lastExisting) {
			p.log.WithField("latest_date", lastFetched.Format(dataset.DateFormat)).
				Info("No new weekly data, skipping overwrite")
			return false, nil
		}
	}

	merged := derive.MergeTrendRows(existing, fetched)
	if _, err := p.store.WriteTrendTable(dataset.GlobalTrendFile, merged); err != nil {
		return false, err
	}

	p.log.WithFields(map[string]interface{}{
		"window_start": merged[0].Date.Format(dataset.DateFormat),
		"window_end":   merged[len(merged)-1].Date.Format(dataset.DateFormat),
		"rows":         len(merged),
	}).Info("Wrote " + dataset.GlobalTrendFile)

	if err := p.rebuildPercentChange(merged); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Pipeline) rebuildPercentChange(rows []dataset.TrendRow) error {
	pct, skipped := derive.PercentChange(rows)
	for _, kw := range skipped {
		p.log.WithField("keyword", kw).Warn("Percent change undefined (zero or missing baseline), keyword dropped")
	}
	if _, err := p.store.WritePercentChange(pct); err != nil {
		return err
	}
	p.log.Info("Rebuilt " + dataset.PercentChangeFile)
	return nil
}

// rebuildTopPeaks derives the top peaks table from the stored global file.
// A missing or empty global file is a warning, not an error.
func (p *Pipeline) rebuildTopPeaks() error {
	if !p.store.Exists(dataset.GlobalTrendFile) {
		p.log.Warn("Cannot build top peaks: " + dataset.GlobalTrendFile + " not found")
		return nil
	}

	rows, err := p.store.ReadTrendTable(dataset.GlobalTrendFile)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		p.log.Warn("Cannot build top peaks: " + dataset.GlobalTrendFile + " is empty")
		return nil
	}

	peaks := derive.TopPeaks(rows, p.cfg.TopPeaks)
	if _, err := p.store.WriteTrendTable(dataset.TopPeaksFile, peaks); err != nil {
		return err
	}
	p.log.Info("Rebuilt " + dataset.TopPeaksFile)
	return nil
}
