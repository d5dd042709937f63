package trends

import (
	"context"
	"fmt"
	"time"

	"trendpulse-go/pkg/dataset"
	"trendpulse-go/pkg/logger"
)

// API is the surface the Fetcher retries over. *Client implements it; tests
// substitute fakes.
type API interface {
	InterestOverTime(ctx context.Context, keywords []string, timeframe string) ([]dataset.TrendRow, error)
	InterestByRegion(ctx context.Context, keyword, timeframe, geo string) ([]RegionInterest, error)
	RelatedQueries(ctx context.Context, keyword, timeframe string) (RelatedBuckets, error)
}

// Fetcher wraps the API client with the retry and pacing policy. Terminal
// failures come back as *FetchError so callers choose their own fallback
// instead of the fetcher swallowing errors.
type Fetcher struct {
	api     API
	backoff *Backoff
	pacer   *Pacer
	log     *logger.Logger
}

func NewFetcher(api API, maxAttempts int, backoffBase, pauseBase time.Duration) *Fetcher {
	return &Fetcher{
		api:     api,
		backoff: NewBackoff(maxAttempts, backoffBase),
		pacer:   NewPacer(pauseBase),
		log:     logger.GetLogger().WithField("component", "fetcher"),
	}
}

// Pause sleeps the politeness delay between per-keyword requests.
func (f *Fetcher) Pause() {
	f.pacer.Pause()
}

// InterestOverTime fetches the weekly series for one keyword, retrying on
// failure. An empty response counts as a failed attempt.
func (f *Fetcher) InterestOverTime(ctx context.Context, keyword, timeframe string) ([]dataset.TrendRow, error) {
	var rows []dataset.TrendRow
	err := f.backoff.Do(ctx, func() error {
		fetched, err := f.api.InterestOverTime(ctx, []string{keyword}, timeframe)
		if err != nil {
			return err
		}
		if len(fetched) == 0 {
			return fmt.Errorf("empty interest-over-time response")
		}
		rows = fetched
		return nil
	})
	if err != nil {
		return nil, &FetchError{Endpoint: "interest-over-time", Keyword: keyword, Attempts: f.backoff.MaxAttempts, Err: err}
	}
	return rows, nil
}

// InterestOverTimeBatch fetches all keywords in one request, already
// reshaped to long form by the client.
func (f *Fetcher) InterestOverTimeBatch(ctx context.Context, keywords []string, timeframe string) ([]dataset.TrendRow, error) {
	var rows []dataset.TrendRow
	err := f.backoff.Do(ctx, func() error {
		fetched, err := f.api.InterestOverTime(ctx, keywords, timeframe)
		if err != nil {
			return err
		}
		if len(fetched) == 0 {
			return fmt.Errorf("empty interest-over-time response")
		}
		rows = fetched
		return nil
	})
	if err != nil {
		return nil, &FetchError{Endpoint: "interest-over-time", Attempts: f.backoff.MaxAttempts, Err: err}
	}
	return rows, nil
}

// PullWeekly fetches the full weekly window keyword by keyword with polite
// pacing in between. Keywords that exhaust their retries are logged and
// skipped; an all-keywords failure yields an empty result, which callers
// treat as "no update available".
func (f *Fetcher) PullWeekly(ctx context.Context, keywords []string, timeframe string) []dataset.TrendRow {
	var all []dataset.TrendRow
	for i, kw := range keywords {
		rows, err := f.InterestOverTime(ctx, kw, timeframe)
		if err != nil {
			f.log.WithError(err).WithField("keyword", kw).Error("Keyword fetch failed, skipping")
		} else {
			all = append(all, rows...)
		}
		if i < len(keywords)-1 {
			f.Pause()
		}
	}
	return all
}

// InterestByRegion fetches the regional snapshot for one keyword with the
// standard retry policy.
func (f *Fetcher) InterestByRegion(ctx context.Context, keyword, timeframe, geo string) ([]RegionInterest, error) {
	var regions []RegionInterest
	err := f.backoff.Do(ctx, func() error {
		fetched, err := f.api.InterestByRegion(ctx, keyword, timeframe, geo)
		if err != nil {
			return err
		}
		regions = fetched
		return nil
	})
	if err != nil {
		return nil, &FetchError{Endpoint: "interest-by-region", Keyword: keyword, Attempts: f.backoff.MaxAttempts, Err: err}
	}
	return regions, nil
}

// RelatedQueries fetches both related-query buckets for one keyword with the
// standard retry policy.
func (f *Fetcher) RelatedQueries(ctx context.Context, keyword, timeframe string) (RelatedBuckets, error) {
	var buckets RelatedBuckets
	err := f.backoff.Do(ctx, func() error {
		fetched, err := f.api.RelatedQueries(ctx, keyword, timeframe)
		if err != nil {
			return err
		}
		buckets = fetched
		return nil
	})
	if err != nil {
		return RelatedBuckets{}, &FetchError{Endpoint: "related-queries", Keyword: keyword, Attempts: f.backoff.MaxAttempts, Err: err}
	}
	return buckets, nil
}
