package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateFormat, s)
	if err != nil {
		t.Fatalf("Bad test date %q: %v", s, err)
	}
	return d
}

func TestStore_TrendTableRoundTrip(t *testing.T) {
	store := newTestStore(t)
	rows := []TrendRow{
		{Date: mustDate(t, "2025-08-10"), Keyword: "meditation", Interest: 72},
		{Date: mustDate(t, "2025-08-17"), Keyword: "meditation", Interest: 75},
	}

	written, err := store.WriteTrendTable(GlobalTrendFile, rows)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !written {
		t.Error("Expected first write to happen")
	}

	got, err := store.ReadTrendTable(GlobalTrendFile)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != 2 || got[0] != rows[0] || got[1] != rows[1] {
		t.Errorf("Round trip mismatch: %+v", got)
	}
}

func TestStore_WriteGateSkipsIdenticalContent(t *testing.T) {
	store := newTestStore(t)
	rows := []CountryRow{
		{Country: "United States", Keyword: "meditation", Interest: 100},
		{Country: "Ireland", Keyword: "meditation", Interest: 84},
	}

	if written, err := store.WriteCountryTable(rows); err != nil || !written {
		t.Fatalf("Expected first write to happen, written=%v err=%v", written, err)
	}
	if written, err := store.WriteCountryTable(rows); err != nil || written {
		t.Fatalf("Expected identical second write to be skipped, written=%v err=%v", written, err)
	}

	rows[1].Interest = 85
	if written, err := store.WriteCountryTable(rows); err != nil || !written {
		t.Fatalf("Expected changed content to write, written=%v err=%v", written, err)
	}
}

func TestStore_MissingFileReadsEmpty(t *testing.T) {
	store := newTestStore(t)

	rows, err := store.ReadTrendTable(GlobalTrendFile)
	if err != nil {
		t.Fatalf("Expected missing file to read as empty, got %v", err)
	}
	if rows != nil {
		t.Errorf("Expected nil rows, got %+v", rows)
	}

	country, err := store.ReadCountryTable()
	if err != nil || country != nil {
		t.Errorf("Expected empty country read, got %+v err=%v", country, err)
	}
}

func TestStore_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if _, err := store.WritePercentChange([]PercentChangeRow{{Keyword: "meditation", PercentChange: 12.34}}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("Temp file left behind: %s", e.Name())
		}
	}
}

func TestStore_NaNScoreWritesEmptyCell(t *testing.T) {
	store := newTestStore(t)
	rows := []RelatedRow{
		{Keyword: "breathwork", Query: "box breathing", Type: QueryTypeRising, Score: math.NaN()},
	}

	if _, err := store.WriteRelatedTable(RelatedRisingFile, rows); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(store.dataDir, RelatedRisingFile))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header plus one row, got %d lines", len(lines))
	}
	if !strings.HasSuffix(lines[1], ",rising,") {
		t.Errorf("Expected empty score cell, got %q", lines[1])
	}
}

func TestStore_PercentChangeFormatting(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.WritePercentChange([]PercentChangeRow{{Keyword: "yoga nidra", PercentChange: -7.5}}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	_, records, err := store.ReadRecords(PercentChangeFile)
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(records) != 1 || records[0][1] != "-7.50" {
		t.Errorf("Expected two-decimal percent change, got %+v", records)
	}
}
