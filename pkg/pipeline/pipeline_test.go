package pipeline

import (
	"context"
	"os"
	"testing"
	"time"

	"trendpulse-go/pkg/dataset"
	"trendpulse-go/pkg/trends"
)

type fakeFetcher struct {
	weekly      []dataset.TrendRow
	weeklyCalls int

	regions     []trends.RegionInterest
	regionErrs  map[string]error
	regionCalls int

	buckets      trends.RelatedBuckets
	relatedCalls int
}

func (f *fakeFetcher) PullWeekly(ctx context.Context, keywords []string, timeframe string) []dataset.TrendRow {
	f.weeklyCalls++
	return f.weekly
}

func (f *fakeFetcher) InterestByRegion(ctx context.Context, keyword, timeframe, geo string) ([]trends.RegionInterest, error) {
	f.regionCalls++
	if err := f.regionErrs[keyword]; err != nil {
		return nil, err
	}
	return f.regions, nil
}

func (f *fakeFetcher) RelatedQueries(ctx context.Context, keyword, timeframe string) (trends.RelatedBuckets, error) {
	f.relatedCalls++
	return f.buckets, nil
}

func (f *fakeFetcher) Pause() {}

func week(t *testing.T, date, keyword string, interest int) dataset.TrendRow {
	t.Helper()
	d, err := time.Parse(dataset.DateFormat, date)
	if err != nil {
		t.Fatalf("Bad test date %q: %v", date, err)
	}
	return dataset.TrendRow{Date: d, Keyword: keyword, Interest: interest}
}

func newTestPipeline(t *testing.T, fetcher Fetcher, guard *RunGuard) (*Pipeline, *dataset.Store) {
	t.Helper()
	store, err := dataset.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	cfg := Config{
		Keywords:  []string{"meditation", "breathwork"},
		Timeframe: "today 5-y",
	}
	return New(cfg, fetcher, store, guard, nil), store
}

func TestPipeline_FirstRunWritesAllDatasets(t *testing.T) {
	fetcher := &fakeFetcher{
		weekly: []dataset.TrendRow{
			week(t, "2025-08-10", "meditation", 70),
			week(t, "2025-08-17", "meditation", 80),
		},
		regions: []trends.RegionInterest{
			{Country: "Ireland", Interest: 84},
			{Country: "Iceland", Interest: 0}, // dropped: non-positive
		},
		buckets: trends.RelatedBuckets{
			Top:    []trends.RelatedEntry{{Query: "calm anxiety", Score: 70}},
			Rising: []trends.RelatedEntry{{Query: "calm anxiety", Score: 300}},
		},
	}
	p, store := newTestPipeline(t, fetcher, nil)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, name := range []string{
		dataset.GlobalTrendFile,
		dataset.PercentChangeFile,
		dataset.TopPeaksFile,
		dataset.CountryFile,
		dataset.CountryTotalFile,
		dataset.CountryTop5File,
		dataset.RelatedTopFile,
		dataset.RelatedRisingFile,
		dataset.RelatedSharedFile,
	} {
		if !store.Exists(name) {
			t.Errorf("Expected %s to be written on first run", name)
		}
	}

	country, err := store.ReadCountryTable()
	if err != nil {
		t.Fatalf("ReadCountryTable failed: %v", err)
	}
	for _, r := range country {
		if r.Interest <= 0 {
			t.Errorf("Non-positive interest row survived: %+v", r)
		}
	}
}

func TestPipeline_GlobalWritesIffStrictlyNewerWeek(t *testing.T) {
	fetcher := &fakeFetcher{
		weekly: []dataset.TrendRow{week(t, "2025-08-17", "meditation", 80)},
	}
	p, store := newTestPipeline(t, fetcher, nil)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	// Same max date with a revised value: the date gate must skip the write.
	fetcher.weekly = []dataset.TrendRow{week(t, "2025-08-17", "meditation", 99)}
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	rows, err := store.ReadTrendTable(dataset.GlobalTrendFile)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Interest != 80 {
		t.Errorf("Same-week refetch must not overwrite, got %+v", rows)
	}

	// A strictly newer week passes the gate and merges over history.
	fetcher.weekly = []dataset.TrendRow{
		week(t, "2025-08-17", "meditation", 82),
		week(t, "2025-08-24", "meditation", 90),
	}
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Third run failed: %v", err)
	}
	rows, err = store.ReadTrendTable(dataset.GlobalTrendFile)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected merged 2 rows, got %d", len(rows))
	}
	if rows[0].Interest != 82 {
		t.Errorf("Fetched revision should replace the stored week, got %d", rows[0].Interest)
	}
}

func TestPipeline_UnchangedCountryDataSkipsDerivedRebuild(t *testing.T) {
	fetcher := &fakeFetcher{
		weekly:  []dataset.TrendRow{week(t, "2025-08-17", "meditation", 80)},
		regions: []trends.RegionInterest{{Country: "Ireland", Interest: 84}},
	}
	p, store := newTestPipeline(t, fetcher, nil)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	// Drop a derived file, then run again with a new global week but
	// identical country data. The equality gate reports no change, so the
	// derived tables must not be rebuilt.
	if err := removeDataset(store, dataset.CountryTotalFile); err != nil {
		t.Fatalf("Failed to remove derived file: %v", err)
	}
	fetcher.weekly = append(fetcher.weekly, week(t, "2025-08-24", "meditation", 85))

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if store.Exists(dataset.CountryTotalFile) {
		t.Error("Country derived tables must not rebuild when the snapshot is unchanged")
	}
}

func TestPipeline_PartialCountryFailureKeepsOtherKeywords(t *testing.T) {
	fetcher := &fakeFetcher{
		weekly:     []dataset.TrendRow{week(t, "2025-08-17", "meditation", 80)},
		regions:    []trends.RegionInterest{{Country: "Ireland", Interest: 84}},
		regionErrs: map[string]error{"breathwork": &trends.FetchError{Endpoint: "interest-by-region", Keyword: "breathwork"}},
	}
	p, store := newTestPipeline(t, fetcher, nil)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run should tolerate per-keyword failures: %v", err)
	}

	country, err := store.ReadCountryTable()
	if err != nil {
		t.Fatalf("ReadCountryTable failed: %v", err)
	}
	if len(country) != 1 || country[0].Keyword != "meditation" {
		t.Errorf("Expected only the surviving keyword, got %+v", country)
	}
}

func TestPipeline_EmptyGlobalFetchIsCompleteNoop(t *testing.T) {
	fetcher := &fakeFetcher{}
	p, store := newTestPipeline(t, fetcher, nil)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if store.Exists(dataset.GlobalTrendFile) {
		t.Error("Empty fetch must not create the global file")
	}
	if fetcher.regionCalls != 0 || fetcher.relatedCalls != 0 {
		t.Error("Country and related updates must be skipped when global data is stale")
	}
}

func TestPipeline_RunGuardSkipsSecondInvocation(t *testing.T) {
	fetcher := &fakeFetcher{
		weekly: []dataset.TrendRow{week(t, "2025-08-17", "meditation", 80)},
	}
	store, err := dataset.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	guard := NewRunGuard(store.Path(".last_run_date"))
	p := New(Config{Keywords: []string{"meditation"}, Timeframe: "today 5-y"}, fetcher, store, guard, nil)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	if !guard.AlreadyRanToday() {
		t.Fatal("Guard must be marked after a completed run")
	}

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Second run should skip cleanly: %v", err)
	}
	if fetcher.weeklyCalls != 1 {
		t.Errorf("Second same-day run must perform zero fetches, got %d weekly pulls", fetcher.weeklyCalls)
	}
}

func removeDataset(store *dataset.Store, name string) error {
	return os.Remove(store.Path(name))
}
