package pipeline

import (
	"context"
	"sort"

	"trendpulse-go/pkg/dataset"
	"trendpulse-go/pkg/derive"
)

// updateCountry refreshes the country interest snapshot. Each keyword is
// fetched independently: a keyword that exhausts its retries is logged and
// skipped, and the snapshot still updates from the keywords that succeeded.
// The write is gated on content equality after canonical sorting, so
// re-fetching identical data produces no write.
func (p *Pipeline) updateCountry(ctx context.Context) (bool, error) {
	p.log.Info("Updating " + dataset.CountryFile)

	var rows []dataset.CountryRow
	for i, kw := range p.cfg.Keywords {
		regions, err := p.fetcher.InterestByRegion(ctx, kw, p.cfg.Timeframe, p.cfg.Geo)
		if err != nil {
			p.log.WithError(err).WithField("keyword", kw).Warn("Skipped keyword due to fetch error")
			continue
		}
		for _, r := range regions {
			if r.Interest <= 0 {
				continue
			}
			rows = append(rows, dataset.CountryRow{Country: r.Country, Keyword: kw, Interest: r.Interest})
		}
		if i < len(p.cfg.Keywords)-1 {
			p.fetcher.Pause()
		}
	}

	if len(rows) == 0 {
		p.log.Warn("No country-level data retrieved, skipping file update")
		return false, nil
	}

	rows = derive.DedupeCountryRows(rows)
	sortCountryRows(rows)

	written, err := p.store.WriteCountryTable(rows)
	if err != nil {
		return false, err
	}
	if !written {
		p.log.Info("No change in country data, skipping overwrite")
		return false, nil
	}

	p.log.WithField("rows", len(rows)).Info("Wrote " + dataset.CountryFile)
	return true, nil
}

// sortCountryRows puts the snapshot in canonical order so the equality
// write-gate is insensitive to fetch order.
func sortCountryRows(rows []dataset.CountryRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Keyword != rows[j].Keyword {
			return rows[i].Keyword < rows[j].Keyword
		}
		if rows[i].Interest != rows[j].Interest {
			return rows[i].Interest > rows[j].Interest
		}
		return rows[i].Country < rows[j].Country
	})
}

// rebuildCountryDerived recomputes the totals and top-5 tables from the
// freshly stored snapshot and archives the snapshot under today's date.
func (p *Pipeline) rebuildCountryDerived(ctx context.Context) error {
	rows, err := p.store.ReadCountryTable()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		p.log.Warn("Cannot build country derived tables: " + dataset.CountryFile + " is empty")
		return nil
	}

	totals := derive.CountryTotals(rows)
	if _, err := p.store.WriteCountryTotals(totals); err != nil {
		return err
	}
	p.log.Info("Rebuilt " + dataset.CountryTotalFile)

	top5 := derive.Top5Counts(rows, p.cfg.TopCountries)
	if _, err := p.store.WriteTop5Counts(top5); err != nil {
		return err
	}
	p.log.Info("Rebuilt " + dataset.CountryTop5File)

	if p.archive != nil {
		if err := p.archive.SaveCountrySnapshot(ctx, p.now(), rows); err != nil {
			p.log.WithError(err).Warn("Failed to archive country snapshot")
		}
	}
	return nil
}
