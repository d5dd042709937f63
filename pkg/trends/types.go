package trends

import "fmt"

// RegionInterest is one country's interest score for a keyword, relative to
// the most-interested region in the requested window.
type RegionInterest struct {
	Country  string
	Interest int
}

// RelatedEntry is a single related query with its popularity score. Score is
// NaN when the provider reports a non-numeric value such as "Breakout".
type RelatedEntry struct {
	Query string
	Score float64
}

// RelatedBuckets holds the two related-query buckets for one keyword. Either
// bucket may be nil when the provider returned nothing for it; callers never
// have to branch on raw response shape.
type RelatedBuckets struct {
	Top    []RelatedEntry
	Rising []RelatedEntry
}

// Empty reports whether both buckets are missing or empty.
func (b RelatedBuckets) Empty() bool {
	return len(b.Top) == 0 && len(b.Rising) == 0
}

// FetchError is the terminal failure of a fetch after all retry attempts.
// Callers decide the fallback (skip keyword, treat as no update) explicitly.
type FetchError struct {
	Endpoint string
	Keyword  string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch for %q failed after %d attempts: %v",
		e.Endpoint, e.Keyword, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
