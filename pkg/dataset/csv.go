package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"time"
)

var (
	trendHeader         = []string{"date", "keyword", "search_interest"}
	percentChangeHeader = []string{"keyword", "percent_change"}
	countryHeader       = []string{"country", "keyword", "interest"}
	countryTotalHeader  = []string{"country", "keyword", "total_interest"}
	countryTop5Header   = []string{"keyword", "country", "top5_count"}
	relatedHeader       = []string{"keyword", "related_query", "query_type", "popularity_score"}
	sharedHeader        = []string{"keyword", "related_query", "query_type", "popularity_score", "num_keywords"}
)

func encodeCSV(header []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeCSV(data []byte) (header []string, records [][]string, err error) {
	r := csv.NewReader(bytes.NewReader(data))
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

// formatScore renders a popularity score; NaN becomes an empty cell.
func formatScore(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// parseScore is the inverse of formatScore: empty or non-numeric cells
// decode to NaN rather than failing the whole file.
func parseScore(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func encodeTrendRows(rows []TrendRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Date.Format(DateFormat),
			r.Keyword,
			strconv.Itoa(r.Interest),
		})
	}
	return records
}

func decodeTrendRows(records [][]string) ([]TrendRow, error) {
	rows := make([]TrendRow, 0, len(records))
	for i, rec := range records {
		if len(rec) != 3 {
			return nil, fmt.Errorf("row %d: expected 3 columns, got %d", i+1, len(rec))
		}
		date, err := parseDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		interest, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad search_interest %q", i+1, rec[2])
		}
		rows = append(rows, TrendRow{Date: date, Keyword: rec[1], Interest: interest})
	}
	return rows, nil
}

// parseDate accepts the canonical date layout plus the timestamped form the
// original exporter emitted for some historical files.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateFormat, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q", s)
	}
	return t, nil
}

func encodePercentChangeRows(rows []PercentChangeRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Keyword,
			strconv.FormatFloat(r.PercentChange, 'f', 2, 64),
		})
	}
	return records
}

func encodeCountryRows(rows []CountryRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Country, r.Keyword, strconv.Itoa(r.Interest)})
	}
	return records
}

func decodeCountryRows(records [][]string) ([]CountryRow, error) {
	rows := make([]CountryRow, 0, len(records))
	for i, rec := range records {
		if len(rec) != 3 {
			return nil, fmt.Errorf("row %d: expected 3 columns, got %d", i+1, len(rec))
		}
		interest, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad interest %q", i+1, rec[2])
		}
		rows = append(rows, CountryRow{Country: rec[0], Keyword: rec[1], Interest: interest})
	}
	return rows, nil
}

func encodeCountryTotalRows(rows []CountryTotalRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Country, r.Keyword, strconv.Itoa(r.TotalInterest)})
	}
	return records
}

func encodeTop5CountRows(rows []Top5CountRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Keyword, r.Country, strconv.Itoa(r.Count)})
	}
	return records
}

func encodeRelatedRows(rows []RelatedRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Keyword, r.Query, string(r.Type), formatScore(r.Score)})
	}
	return records
}

func encodeSharedRows(rows []SharedRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Keyword, r.Query, string(r.Type), formatScore(r.Score), strconv.Itoa(r.NumKeywords),
		})
	}
	return records
}
