package dataset

import "time"

// Dataset file names as consumed by the dashboard. Column names are part of
// the contract; renaming any of them breaks the dashboard pages.
const (
	GlobalTrendFile   = "global_trend_summary.csv"
	PercentChangeFile = "trend_pct_change.csv"
	TopPeaksFile      = "trend_top_peaks.csv"
	CountryFile       = "country_interest_summary.csv"
	CountryTotalFile  = "country_total_interest_by_keyword.csv"
	CountryTop5File   = "country_top5_appearance_counts.csv"
	RelatedTopFile    = "related_queries_top10.csv"
	RelatedRisingFile = "related_queries_rising10.csv"
	RelatedSharedFile = "related_queries_shared.csv"
)

// DateFormat is the calendar-week date layout used in all dataset files.
const DateFormat = "2006-01-02"

// TrendRow is one weekly observation of worldwide search interest for a
// keyword. Rows are unique by (Date, Keyword).
type TrendRow struct {
	Date     time.Time
	Keyword  string
	Interest int
}

// PercentChangeRow is the 5-year percent change for one keyword.
type PercentChangeRow struct {
	Keyword       string
	PercentChange float64
}

// CountryRow is a point-in-time regional interest observation. Only rows
// with positive interest are kept.
type CountryRow struct {
	Country  string
	Keyword  string
	Interest int
}

// CountryTotalRow sums country interest per (country, keyword).
type CountryTotalRow struct {
	Country       string
	Keyword       string
	TotalInterest int
}

// Top5CountRow counts how often a country lands in a keyword's top 5.
type Top5CountRow struct {
	Keyword string
	Country string
	Count   int
}

// QueryType buckets a related query as most-common or fastest-growing.
type QueryType string

const (
	QueryTypeTop    QueryType = "top"
	QueryTypeRising QueryType = "rising"
)

// RelatedRow is one related query for a keyword. Score is NaN when the
// provider reports a non-numeric value (e.g. "Breakout"). Rising scores can
// exceed 100 and must not be clamped.
type RelatedRow struct {
	Keyword string
	Query   string
	Type    QueryType
	Score   float64
}

// SharedRow is a RelatedRow annotated with the number of distinct keywords
// its query appears under. Only queries with NumKeywords >= 2 are persisted.
type SharedRow struct {
	Keyword     string
	Query       string
	Type        QueryType
	Score       float64
	NumKeywords int
}
