// Package derive holds the pure transformations from stored datasets to the
// derived summary tables. Functions here never touch the network or disk.
package derive

import (
	"fmt"
	"math"
	"sort"
	"time"

	"trendpulse-go/pkg/dataset"
)

// PercentChange computes the percent change between the first and last value
// of each keyword's weekly series over the full window. The long input is
// pivoted per keyword and gaps are forward- then back-filled before the
// endpoints are compared, so a leading missing week never skews the result.
//
// Keywords whose filled first value is zero cannot produce a finite percent
// change; they are returned in skipped instead of being clamped.
func PercentChange(rows []dataset.TrendRow) (out []dataset.PercentChangeRow, skipped []string) {
	if len(rows) == 0 {
		return nil, nil
	}

	dates := uniqueDates(rows)
	byKeyword := make(map[string]map[time.Time]float64)
	for _, r := range rows {
		series, ok := byKeyword[r.Keyword]
		if !ok {
			series = make(map[time.Time]float64)
			byKeyword[r.Keyword] = series
		}
		series[r.Date] = float64(r.Interest)
	}

	keywords := make([]string, 0, len(byKeyword))
	for kw := range byKeyword {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	for _, kw := range keywords {
		filled := fillSeries(dates, byKeyword[kw])
		if len(filled) == 0 {
			skipped = append(skipped, kw)
			continue
		}
		first, last := filled[0], filled[len(filled)-1]
		if first == 0 {
			skipped = append(skipped, kw)
			continue
		}
		pct := (last - first) / first * 100.0
		out = append(out, dataset.PercentChangeRow{
			Keyword:       kw,
			PercentChange: math.Round(pct*100) / 100,
		})
	}
	return out, skipped
}

// fillSeries aligns a keyword's observations to the full date index and
// forward-fills then back-fills gaps. A series with no observations at all
// yields nil.
func fillSeries(dates []time.Time, series map[time.Time]float64) []float64 {
	values := make([]float64, len(dates))
	for i, d := range dates {
		if v, ok := series[d]; ok {
			values[i] = v
		} else {
			values[i] = math.NaN()
		}
	}

	last := math.NaN()
	for i := range values {
		if math.IsNaN(values[i]) {
			values[i] = last
		} else {
			last = values[i]
		}
	}

	next := math.NaN()
	for i := len(values) - 1; i >= 0; i-- {
		if math.IsNaN(values[i]) {
			values[i] = next
		} else {
			next = values[i]
		}
	}

	if len(values) == 0 || math.IsNaN(values[0]) {
		return nil
	}
	return values
}

func uniqueDates(rows []dataset.TrendRow) []time.Time {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, r := range rows {
		if !seen[r.Date] {
			seen[r.Date] = true
			dates = append(dates, r.Date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// TopPeaks selects the n highest-interest rows per keyword. Ties keep the
// original row order (stable sort). Output is sorted by keyword ascending,
// interest descending.
func TopPeaks(rows []dataset.TrendRow, n int) []dataset.TrendRow {
	if n <= 0 {
		return nil
	}

	sorted := make([]dataset.TrendRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Keyword != sorted[j].Keyword {
			return sorted[i].Keyword < sorted[j].Keyword
		}
		return sorted[i].Interest > sorted[j].Interest
	})

	var out []dataset.TrendRow
	count := make(map[string]int)
	for _, r := range sorted {
		if count[r.Keyword] < n {
			count[r.Keyword]++
			out = append(out, r)
		}
	}
	return out
}

// SortTrendRows orders rows by date then keyword, the canonical order of the
// global summary file.
func SortTrendRows(rows []dataset.TrendRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].Keyword < rows[j].Keyword
	})
}

// MaxDate returns the most recent date in rows, or the zero time for an
// empty input.
func MaxDate(rows []dataset.TrendRow) time.Time {
	var max time.Time
	for _, r := range rows {
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return max
}

// MergeTrendRows merges a freshly fetched window over existing history.
// Fetched rows win by (date, keyword), so upstream revisions of recent weeks
// replace stale values while weeks that fell out of the provider's window
// survive. The result is in canonical order.
func MergeTrendRows(existing, fetched []dataset.TrendRow) []dataset.TrendRow {
	type key struct {
		date    time.Time
		keyword string
	}
	merged := make(map[key]dataset.TrendRow, len(existing)+len(fetched))
	for _, r := range existing {
		merged[key{r.Date, r.Keyword}] = r
	}
	for _, r := range fetched {
		merged[key{r.Date, r.Keyword}] = r
	}

	out := make([]dataset.TrendRow, 0, len(merged))
	for _, r := range merged {
		out = append(out, r)
	}
	SortTrendRows(out)
	return out
}

// ValidateTrendRows rejects interest values outside the provider's 0-100
// normalized scale before they reach the stored dataset.
func ValidateTrendRows(rows []dataset.TrendRow) error {
	for _, r := range rows {
		if r.Interest < 0 || r.Interest > 100 {
			return fmt.Errorf("interest %d for %q on %s outside 0-100",
				r.Interest, r.Keyword, r.Date.Format(dataset.DateFormat))
		}
	}
	return nil
}
