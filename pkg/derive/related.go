package derive

import (
	"math"
	"sort"

	"trendpulse-go/pkg/dataset"
)

// TopQueries filters related rows to one bucket and keeps the n
// highest-scoring rows per keyword. NaN scores sort after numeric ones and
// ties keep the original row order. Output is sorted by keyword ascending,
// score descending. Rising scores are raw growth values and pass through
// unclamped.
func TopQueries(rows []dataset.RelatedRow, typ dataset.QueryType, n int) []dataset.RelatedRow {
	if n <= 0 {
		return nil
	}

	filtered := make([]dataset.RelatedRow, 0, len(rows))
	for _, r := range rows {
		if r.Type == typ {
			filtered = append(filtered, r)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Keyword != filtered[j].Keyword {
			return filtered[i].Keyword < filtered[j].Keyword
		}
		return scoreGreater(filtered[i].Score, filtered[j].Score)
	})

	var out []dataset.RelatedRow
	count := make(map[string]int)
	for _, r := range filtered {
		if count[r.Keyword] < n {
			count[r.Keyword]++
			out = append(out, r)
		}
	}
	return out
}

// scoreGreater orders scores descending with NaN last.
func scoreGreater(a, b float64) bool {
	switch {
	case math.IsNaN(a):
		return false
	case math.IsNaN(b):
		return true
	default:
		return a > b
	}
}

// SharedQueries keeps the rows whose query appears under at least two
// distinct keywords, annotated with that keyword count. Type buckets do not
// split the count: a query shared between a "top" row of one keyword and a
// "rising" row of another still counts as shared. Output is sorted by
// keyword count descending, query ascending, keyword ascending.
func SharedQueries(rows []dataset.RelatedRow) []dataset.SharedRow {
	keywordsByQuery := make(map[string]map[string]bool)
	for _, r := range rows {
		set, ok := keywordsByQuery[r.Query]
		if !ok {
			set = make(map[string]bool)
			keywordsByQuery[r.Query] = set
		}
		set[r.Keyword] = true
	}

	var out []dataset.SharedRow
	for _, r := range rows {
		numKeywords := len(keywordsByQuery[r.Query])
		if numKeywords < 2 {
			continue
		}
		out = append(out, dataset.SharedRow{
			Keyword:     r.Keyword,
			Query:       r.Query,
			Type:        r.Type,
			Score:       r.Score,
			NumKeywords: numKeywords,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].NumKeywords != out[j].NumKeywords {
			return out[i].NumKeywords > out[j].NumKeywords
		}
		if out[i].Query != out[j].Query {
			return out[i].Query < out[j].Query
		}
		return out[i].Keyword < out[j].Keyword
	})
	return out
}

// DedupeRelatedRows drops duplicate (keyword, query, type) rows, keeping the
// first occurrence.
func DedupeRelatedRows(rows []dataset.RelatedRow) []dataset.RelatedRow {
	type key struct {
		keyword string
		query   string
		typ     dataset.QueryType
	}
	seen := make(map[key]bool, len(rows))
	out := make([]dataset.RelatedRow, 0, len(rows))
	for _, r := range rows {
		k := key{r.Keyword, r.Query, r.Type}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}
