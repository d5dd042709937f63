package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/text/unicode/norm"

	"trendpulse-go/pkg/dataset"
	"trendpulse-go/pkg/logger"
)

// Options configures the trends API client. Endpoint is the base URL of the
// trends gateway; HL and TZ mirror the provider's locale parameters.
type Options struct {
	Endpoint       string
	APIKey         string
	HL             string
	TZ             int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// Client talks to the three trends endpoints over HTTP and decodes responses
// into typed values at the boundary. It performs no retries and no file I/O;
// both belong to the Fetcher and the pipeline respectively.
type Client struct {
	opts Options
	http *fasthttp.Client
	log  *logger.Logger
}

func NewClient(opts Options) *Client {
	if opts.HL == "" {
		opts.HL = "en-US"
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 15 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 45 * time.Second
	}

	connectTimeout := opts.ConnectTimeout
	return &Client{
		opts: opts,
		http: &fasthttp.Client{
			ReadTimeout:         opts.ReadTimeout,
			WriteTimeout:        opts.ConnectTimeout,
			MaxIdleConnDuration: 90 * time.Second,
			Dial: func(addr string) (net.Conn, error) {
				return fasthttp.DialTimeout(addr, connectTimeout)
			},
		},
		log: logger.GetLogger().WithField("component", "trends_client"),
	}
}

type interestPoint struct {
	Date   string         `json:"date"`
	Values map[string]int `json:"values"`
}

type interestOverTimeResponse struct {
	Points []interestPoint `json:"points"`
}

// InterestOverTime fetches the weekly interest series for one or more
// keywords in a single request and reshapes the wide per-keyword response
// into long-form rows.
func (c *Client) InterestOverTime(ctx context.Context, keywords []string, timeframe string) ([]dataset.TrendRow, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("no keywords provided")
	}

	var decoded interestOverTimeResponse
	args := map[string]string{
		"keywords":  strings.Join(keywords, ","),
		"timeframe": timeframe,
	}
	if err := c.get(ctx, "/interest-over-time", args, &decoded); err != nil {
		return nil, err
	}
	return reshapePoints(decoded.Points, keywords)
}

// reshapePoints turns the wide per-keyword response into long-form rows.
// Keywords absent from a point are skipped, not zero-filled; gap handling
// belongs to the derivation layer.
func reshapePoints(points []interestPoint, keywords []string) ([]dataset.TrendRow, error) {
	rows := make([]dataset.TrendRow, 0, len(points)*len(keywords))
	for _, point := range points {
		date, err := time.Parse(dataset.DateFormat, point.Date)
		if err != nil {
			return nil, fmt.Errorf("bad date %q in response: %w", point.Date, err)
		}
		for _, kw := range keywords {
			value, ok := point.Values[kw]
			if !ok {
				continue
			}
			rows = append(rows, dataset.TrendRow{Date: date, Keyword: kw, Interest: value})
		}
	}
	return rows, nil
}

type interestByRegionResponse struct {
	Regions []struct {
		GeoName string `json:"geo_name"`
		Value   int    `json:"value"`
	} `json:"regions"`
}

// InterestByRegion fetches the point-in-time regional interest snapshot for
// a single keyword. Country names are NFC-normalized off the wire.
func (c *Client) InterestByRegion(ctx context.Context, keyword, timeframe, geo string) ([]RegionInterest, error) {
	var decoded interestByRegionResponse
	args := map[string]string{
		"keyword":   keyword,
		"timeframe": timeframe,
		"geo":       geo,
	}
	if err := c.get(ctx, "/interest-by-region", args, &decoded); err != nil {
		return nil, err
	}

	regions := make([]RegionInterest, 0, len(decoded.Regions))
	for _, r := range decoded.Regions {
		regions = append(regions, RegionInterest{
			Country:  norm.NFC.String(strings.TrimSpace(r.GeoName)),
			Interest: r.Value,
		})
	}
	return regions, nil
}

type relatedQueriesResponse struct {
	Top    []relatedQueryEntry `json:"top"`
	Rising []relatedQueryEntry `json:"rising"`
}

type relatedQueryEntry struct {
	Query string      `json:"query"`
	Value interface{} `json:"value"`
}

// RelatedQueries fetches the top and rising related-query buckets for one
// keyword. Non-numeric scores (e.g. "Breakout") decode to NaN rather than
// failing the request.
func (c *Client) RelatedQueries(ctx context.Context, keyword, timeframe string) (RelatedBuckets, error) {
	var decoded relatedQueriesResponse
	args := map[string]string{
		"keyword":   keyword,
		"timeframe": timeframe,
	}
	if err := c.get(ctx, "/related-queries", args, &decoded); err != nil {
		return RelatedBuckets{}, err
	}

	return RelatedBuckets{
		Top:    convertRelatedEntries(decoded.Top),
		Rising: convertRelatedEntries(decoded.Rising),
	}, nil
}

func convertRelatedEntries(entries []relatedQueryEntry) []RelatedEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]RelatedEntry, 0, len(entries))
	for _, e := range entries {
		query := norm.NFC.String(strings.TrimSpace(e.Query))
		if query == "" {
			continue
		}
		out = append(out, RelatedEntry{Query: query, Score: parseScoreValue(e.Value)})
	}
	return out
}

// parseScoreValue coerces a JSON score (number or string) to float64,
// yielding NaN for anything non-numeric.
func parseScoreValue(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(val), "%"), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func (c *Client) get(ctx context.Context, path string, args map[string]string, out interface{}) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(strings.TrimSuffix(c.opts.Endpoint, "/") + path)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("User-Agent", "trendpulse-go/1.0")
	req.Header.Set("Accept", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	query := req.URI().QueryArgs()
	for k, v := range args {
		query.Set(k, v)
	}
	query.Set("hl", c.opts.HL)
	query.Set("tz", strconv.Itoa(c.opts.TZ))

	start := time.Now()
	if err := c.http.DoTimeout(req, resp, c.opts.ReadTimeout); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode(), resp.Body())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	c.log.WithFields(map[string]interface{}{
		"path":        path,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Trends request completed")
	return nil
}
