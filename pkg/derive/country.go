package derive

import (
	"sort"
	"strings"

	"trendpulse-go/pkg/dataset"
)

// CountryTotals sums interest per (country, keyword). Output is sorted by
// keyword ascending, total descending, country ascending.
func CountryTotals(rows []dataset.CountryRow) []dataset.CountryTotalRow {
	type key struct {
		country string
		keyword string
	}
	totals := make(map[key]int)
	for _, r := range rows {
		totals[key{r.Country, r.Keyword}] += r.Interest
	}

	out := make([]dataset.CountryTotalRow, 0, len(totals))
	for k, total := range totals {
		out = append(out, dataset.CountryTotalRow{
			Country:       k.country,
			Keyword:       k.keyword,
			TotalInterest: total,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Keyword != out[j].Keyword {
			return out[i].Keyword < out[j].Keyword
		}
		if out[i].TotalInterest != out[j].TotalInterest {
			return out[i].TotalInterest > out[j].TotalInterest
		}
		return out[i].Country < out[j].Country
	})
	return out
}

// Top5Counts counts how often each country appears in a keyword's n
// highest-interest rows. Keywords are lowercased and trimmed and countries
// trimmed before grouping, so case and whitespace variants collapse. Output
// is sorted by keyword then country ascending.
func Top5Counts(rows []dataset.CountryRow, n int) []dataset.Top5CountRow {
	if n <= 0 {
		return nil
	}

	cleaned := make([]dataset.CountryRow, 0, len(rows))
	for _, r := range rows {
		cleaned = append(cleaned, dataset.CountryRow{
			Country:  strings.TrimSpace(r.Country),
			Keyword:  strings.ToLower(strings.TrimSpace(r.Keyword)),
			Interest: r.Interest,
		})
	}

	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].Interest > cleaned[j].Interest
	})

	type key struct {
		keyword string
		country string
	}
	taken := make(map[string]int)
	counts := make(map[key]int)
	for _, r := range cleaned {
		if taken[r.Keyword] >= n {
			continue
		}
		taken[r.Keyword]++
		counts[key{r.Keyword, r.Country}]++
	}

	out := make([]dataset.Top5CountRow, 0, len(counts))
	for k, c := range counts {
		out = append(out, dataset.Top5CountRow{Keyword: k.keyword, Country: k.country, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Keyword != out[j].Keyword {
			return out[i].Keyword < out[j].Keyword
		}
		return out[i].Country < out[j].Country
	})
	return out
}

// DedupeCountryRows drops exact duplicate rows, keeping first occurrence.
func DedupeCountryRows(rows []dataset.CountryRow) []dataset.CountryRow {
	seen := make(map[dataset.CountryRow]bool, len(rows))
	out := make([]dataset.CountryRow, 0, len(rows))
	for _, r := range rows {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
