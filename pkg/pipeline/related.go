package pipeline

import (
	"context"

	"trendpulse-go/pkg/dataset"
	"trendpulse-go/pkg/derive"
	"trendpulse-go/pkg/trends"
)

// updateRelated refreshes the three related-query tables. Keyword failures
// are isolated like the country updater's; each writer applies the equality
// write-gate independently. Returns true when any of the three files
// actually changed.
func (p *Pipeline) updateRelated(ctx context.Context) (bool, error) {
	p.log.Info("Updating related query tables")

	var rows []dataset.RelatedRow
	fetchedAny := false
	for i, kw := range p.cfg.Keywords {
		buckets, err := p.fetcher.RelatedQueries(ctx, kw, p.cfg.Timeframe)
		if err != nil {
			p.log.WithError(err).WithField("keyword", kw).Warn("Skipped keyword due to fetch error")
			continue
		}
		fetchedAny = true
		rows = append(rows, bucketRows(kw, dataset.QueryTypeTop, buckets.Top)...)
		rows = append(rows, bucketRows(kw, dataset.QueryTypeRising, buckets.Rising)...)
		if i < len(p.cfg.Keywords)-1 {
			p.fetcher.Pause()
		}
	}

	if !fetchedAny {
		p.log.Warn("No related-query data retrieved, skipping file updates")
		return false, nil
	}

	rows = derive.DedupeRelatedRows(rows)

	changed := false

	top := derive.TopQueries(rows, dataset.QueryTypeTop, p.cfg.TopQueries)
	written, err := p.store.WriteRelatedTable(dataset.RelatedTopFile, top)
	if err != nil {
		return changed, err
	}
	changed = changed || written

	rising := derive.TopQueries(rows, dataset.QueryTypeRising, p.cfg.TopQueries)
	written, err = p.store.WriteRelatedTable(dataset.RelatedRisingFile, rising)
	if err != nil {
		return changed, err
	}
	changed = changed || written

	shared := derive.SharedQueries(rows)
	written, err = p.store.WriteSharedTable(shared)
	if err != nil {
		return changed, err
	}
	changed = changed || written

	if changed {
		p.log.Info("Rebuilt related query tables")
	} else {
		p.log.Info("No change in related query data, skipping overwrite")
	}
	return changed, nil
}

func bucketRows(keyword string, typ dataset.QueryType, entries []trends.RelatedEntry) []dataset.RelatedRow {
	rows := make([]dataset.RelatedRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, dataset.RelatedRow{
			Keyword: keyword,
			Query:   e.Query,
			Type:    typ,
			Score:   e.Score,
		})
	}
	return rows
}
