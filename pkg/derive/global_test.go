package derive

import (
	"testing"
	"time"

	"trendpulse-go/pkg/dataset"
)

func week(t *testing.T, date, keyword string, interest int) dataset.TrendRow {
	t.Helper()
	d, err := time.Parse(dataset.DateFormat, date)
	if err != nil {
		t.Fatalf("Bad test date %q: %v", date, err)
	}
	return dataset.TrendRow{Date: d, Keyword: keyword, Interest: interest}
}

func TestPercentChange_WithLeadingGap(t *testing.T) {
	// meditation is missing its first week; back-fill must use the first
	// observed value (50) as the baseline, giving (80-50)/50*100 = 60.
	rows := []dataset.TrendRow{
		week(t, "2020-08-23", "mindfulness", 40),
		week(t, "2020-08-30", "mindfulness", 44),
		week(t, "2020-08-30", "meditation", 50),
		week(t, "2025-08-17", "mindfulness", 30),
		week(t, "2025-08-17", "meditation", 80),
	}

	out, skipped := PercentChange(rows)
	if len(skipped) != 0 {
		t.Fatalf("Expected no skipped keywords, got %v", skipped)
	}
	if len(out) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(out))
	}

	// Output is keyword-ascending.
	if out[0].Keyword != "meditation" || out[0].PercentChange != 60.00 {
		t.Errorf("meditation: got %+v", out[0])
	}
	if out[1].Keyword != "mindfulness" || out[1].PercentChange != -25.00 {
		t.Errorf("mindfulness: got %+v", out[1])
	}
}

func TestPercentChange_InternalGapForwardFilled(t *testing.T) {
	// The middle week is missing for breathwork; forward-fill covers it and
	// the endpoints stay (10, 30).
	rows := []dataset.TrendRow{
		week(t, "2025-08-03", "breathwork", 10),
		week(t, "2025-08-10", "meditation", 55),
		week(t, "2025-08-17", "breathwork", 30),
		week(t, "2025-08-03", "meditation", 50),
		week(t, "2025-08-10", "breathwork", 20),
		week(t, "2025-08-17", "meditation", 60),
	}
	// Remove one breathwork observation to create the gap.
	rows = append(rows[:4], rows[5])

	out, skipped := PercentChange(rows)
	if len(skipped) != 0 {
		t.Fatalf("Expected no skipped keywords, got %v", skipped)
	}
	for _, r := range out {
		if r.Keyword == "breathwork" && r.PercentChange != 200.00 {
			t.Errorf("breathwork: expected 200.00, got %v", r.PercentChange)
		}
	}
}

func TestPercentChange_ZeroBaselineSkipped(t *testing.T) {
	rows := []dataset.TrendRow{
		week(t, "2025-08-10", "yoga nidra", 0),
		week(t, "2025-08-17", "yoga nidra", 40),
		week(t, "2025-08-10", "meditation", 50),
		week(t, "2025-08-17", "meditation", 55),
	}

	out, skipped := PercentChange(rows)
	if len(skipped) != 1 || skipped[0] != "yoga nidra" {
		t.Fatalf("Expected yoga nidra skipped, got %v", skipped)
	}
	if len(out) != 1 || out[0].Keyword != "meditation" {
		t.Errorf("Expected only meditation in output, got %+v", out)
	}
}

func TestPercentChange_Rounding(t *testing.T) {
	rows := []dataset.TrendRow{
		week(t, "2025-08-10", "meditation", 3),
		week(t, "2025-08-17", "meditation", 4),
	}
	out, _ := PercentChange(rows)
	if len(out) != 1 || out[0].PercentChange != 33.33 {
		t.Errorf("Expected 33.33, got %+v", out)
	}
}

func TestTopPeaks_ThreePerKeyword(t *testing.T) {
	rows := []dataset.TrendRow{
		week(t, "2025-01-05", "meditation", 60),
		week(t, "2025-01-12", "meditation", 90),
		week(t, "2025-01-19", "meditation", 70),
		week(t, "2025-01-26", "meditation", 90),
		week(t, "2025-02-02", "meditation", 50),
		week(t, "2025-01-05", "breathwork", 30),
		week(t, "2025-01-12", "breathwork", 20),
	}

	out := TopPeaks(rows, 3)

	if len(out) != 5 {
		t.Fatalf("Expected 3 meditation + 2 breathwork rows, got %d", len(out))
	}
	// Keyword ascending: breathwork first.
	if out[0].Keyword != "breathwork" || out[0].Interest != 30 {
		t.Errorf("Unexpected first row: %+v", out[0])
	}
	// Interest descending within keyword; the two 90s keep input order.
	med := out[2:]
	if med[0].Interest != 90 || med[1].Interest != 90 || med[2].Interest != 70 {
		t.Errorf("Unexpected meditation peaks: %+v", med)
	}
	if !med[0].Date.Before(med[1].Date) {
		t.Error("Tied peaks should keep original row order")
	}
}

func TestTopPeaks_FewerRowsThanN(t *testing.T) {
	rows := []dataset.TrendRow{week(t, "2025-01-05", "meditation", 60)}
	out := TopPeaks(rows, 3)
	if len(out) != 1 {
		t.Errorf("Expected 1 row, got %d", len(out))
	}
}

func TestMergeTrendRows_PreservesHistoryAndAppliesRevisions(t *testing.T) {
	existing := []dataset.TrendRow{
		week(t, "2020-01-05", "meditation", 42), // older than fetched window
		week(t, "2025-08-10", "meditation", 70),
		week(t, "2025-08-17", "meditation", 60), // provisional value, revised upstream
	}
	fetched := []dataset.TrendRow{
		week(t, "2025-08-10", "meditation", 70),
		week(t, "2025-08-17", "meditation", 65),
		week(t, "2025-08-24", "meditation", 75),
	}

	merged := MergeTrendRows(existing, fetched)

	if len(merged) != 4 {
		t.Fatalf("Expected 4 merged rows, got %d", len(merged))
	}
	if merged[0].Interest != 42 {
		t.Error("History older than the fetched window must survive the merge")
	}
	for _, r := range merged {
		if r.Date.Equal(week(t, "2025-08-17", "", 0).Date) && r.Interest != 65 {
			t.Errorf("Fetched revision should win, got %d", r.Interest)
		}
	}
	if !merged[len(merged)-1].Date.After(merged[0].Date) {
		t.Error("Merged rows must be date-ordered")
	}
}

func TestValidateTrendRows(t *testing.T) {
	if err := ValidateTrendRows([]dataset.TrendRow{week(t, "2025-08-17", "meditation", 100)}); err != nil {
		t.Errorf("100 is a valid interest value: %v", err)
	}
	if err := ValidateTrendRows([]dataset.TrendRow{week(t, "2025-08-17", "meditation", 101)}); err == nil {
		t.Error("Expected error for interest above 100")
	}
}
