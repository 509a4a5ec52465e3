// Package fredgw is the FRED Gateway: outbound HTTP to the external series
// provider, JSON decoding, retry/backoff, and rate-limit respect, per
// spec.md §4.1.
package fredgw

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
	"github.com/fredseries/fred-mcp-server/internal/config"
	"github.com/fredseries/fred-mcp-server/internal/fredseries"
)

const baseURL = "https://api.stlouisfed.org/fred"

// Gateway wraps a resty client configured for the FRED API's auth, retry,
// and rate-limit contract.
type Gateway struct {
	client  *resty.Client
	limiter *rate.Limiter
	apiKey  string
}

// New builds a Gateway from configuration. The rate limiter is tuned to
// FRED's published guidance of roughly 120 requests/minute. RetryBudget is
// the total number of attempts per request, so resty is given one fewer
// retries than that.
func New(cfg config.Config) *Gateway {
	retries := cfg.RetryBudget - 1
	if retries < 0 {
		retries = 0
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second).
		SetRetryCount(retries).
		SetRetryWaitTime(cfg.RetryBaseDelay).
		SetRetryMaxWaitTime(cfg.RetryMaxDelay).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &Gateway{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
		apiKey:  cfg.FREDAPIKey,
	}
}

// classify maps a resty response/error pair onto the server's error
// taxonomy.
func classify(resp *resty.Response, err error) error {
	if err != nil {
		return apperr.Wrap(apperr.UpstreamUnavailable, err, "fred gateway request failed")
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusTooManyRequests:
		return apperr.New(apperr.RateLimited, "fred api rate limit exceeded")
	case http.StatusBadRequest:
		return apperr.New(apperr.InvalidParams, "fred api rejected request: %s", resp.String())
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.New(apperr.AuthMissing, "fred api key missing or invalid")
	case http.StatusNotFound:
		return apperr.New(apperr.NotFound, "fred api resource not found")
	default:
		if resp.StatusCode() >= 500 {
			return apperr.New(apperr.UpstreamUnavailable, "fred api unavailable: status %d", resp.StatusCode())
		}
		return apperr.New(apperr.Internal, "unexpected fred api status %d", resp.StatusCode())
	}
}

// request waits on the rate limiter and returns a request bound to a
// context with a 60s deadline (the same as the client's own timeout); there
// is no separate, shorter soft deadline. Callers issue the request and
// classify the response themselves.
func (g *Gateway) request(ctx context.Context) (*resty.Request, context.CancelFunc, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, nil, apperr.Wrap(apperr.Cancelled, err, "waiting for rate limiter")
	}
	softCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	req := g.client.R().
		SetContext(softCtx).
		SetQueryParam("api_key", g.apiKey).
		SetQueryParam("file_type", "json")
	return req, cancel, nil
}

// --- Wire types -------------------------------------------------------

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

type seriesResponse struct {
	Seriess []wireSeriesInfo `json:"seriess"`
}

type wireSeriesInfo struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Units              string `json:"units"`
	Frequency          string `json:"frequency_short"`
	SeasonalAdjustment string `json:"seasonal_adjustment_short"`
	ObservationStart   string `json:"observation_start"`
	ObservationEnd     string `json:"observation_end"`
	Popularity         int    `json:"popularity"`
	Notes              string `json:"notes"`
}

// SearchResult is a single hit from Search.
type SearchResult struct {
	ID    fredseries.SeriesID
	Title string
	Units string
}

// Search runs a full-text search over series titles, returning up to limit
// results.
func (g *Gateway) Search(ctx context.Context, text string, limit int) ([]SearchResult, error) {
	req, cancel, err := g.request(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	if limit <= 0 {
		limit = 20
	}
	var body seriesResponse
	resp, httpErr := req.
		SetQueryParam("search_text", text).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&body).
		Get("/series/search")
	if classifyErr := classify(resp, httpErr); classifyErr != nil {
		return nil, classifyErr
	}

	results := make([]SearchResult, 0, len(body.Seriess))
	for _, s := range body.Seriess {
		results = append(results, SearchResult{ID: fredseries.SeriesID(s.ID), Title: s.Title, Units: s.Units})
	}
	return results, nil
}

// SeriesMetadata fetches metadata for a single series.
func (g *Gateway) SeriesMetadata(ctx context.Context, id fredseries.SeriesID) (fredseries.Metadata, error) {
	req, cancel, err := g.request(ctx)
	if err != nil {
		return fredseries.Metadata{}, err
	}
	defer cancel()

	var body seriesResponse
	resp, httpErr := req.
		SetQueryParam("series_id", string(id)).
		SetResult(&body).
		Get("/series")
	if classifyErr := classify(resp, httpErr); classifyErr != nil {
		return fredseries.Metadata{}, classifyErr
	}
	if len(body.Seriess) == 0 {
		return fredseries.Metadata{}, apperr.New(apperr.NotFound, "series %s not found", id)
	}
	return toMetadata(body.Seriess[0]), nil
}

func toMetadata(w wireSeriesInfo) fredseries.Metadata {
	start, _ := time.Parse(fredseries.DateLayout, w.ObservationStart)
	end, _ := time.Parse(fredseries.DateLayout, w.ObservationEnd)
	return fredseries.Metadata{
		Title:              w.Title,
		Units:              w.Units,
		Frequency:          normalizeFrequency(w.Frequency),
		SeasonalAdjustment: w.SeasonalAdjustment,
		ObservationStart:   start,
		ObservationEnd:     end,
		Popularity:         w.Popularity,
		Notes:              w.Notes,
	}
}

func normalizeFrequency(short string) fredseries.Frequency {
	switch short {
	case "D":
		return fredseries.Daily
	case "W":
		return fredseries.Weekly
	case "M":
		return fredseries.Monthly
	case "Q":
		return fredseries.Quarterly
	case "A":
		return fredseries.Annual
	default:
		return fredseries.Irregular
	}
}

// Observations fetches a series' observations within an optional [start,
// end] window. Either bound may be nil to mean "unbounded". An empty
// result window returns an empty, non-error slice per spec.md §4.1.
func (g *Gateway) Observations(ctx context.Context, id fredseries.SeriesID, start, end *time.Time) ([]fredseries.Observation, error) {
	req, cancel, err := g.request(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	req.SetQueryParam("series_id", string(id))
	if start != nil {
		req.SetQueryParam("observation_start", start.Format(fredseries.DateLayout))
	}
	if end != nil {
		req.SetQueryParam("observation_end", end.Format(fredseries.DateLayout))
	}

	var body observationsResponse
	resp, httpErr := req.SetResult(&body).Get("/series/observations")
	if classifyErr := classify(resp, httpErr); classifyErr != nil {
		return nil, classifyErr
	}

	out := make([]fredseries.Observation, 0, len(body.Observations))
	for _, o := range body.Observations {
		d, parseErr := time.Parse(fredseries.DateLayout, o.Date)
		if parseErr != nil {
			continue
		}
		obs := fredseries.Observation{Date: d}
		if o.Value != "." && o.Value != "" {
			if v, convErr := strconv.ParseFloat(o.Value, 64); convErr == nil {
				obs.Value = &v
			}
		}
		out = append(out, obs)
	}
	return out, nil
}

// Release is a single FRED release.
type Release struct {
	ID   int
	Name string
}

// Releases lists all releases of economic data.
func (g *Gateway) Releases(ctx context.Context) ([]Release, error) {
	req, cancel, err := g.request(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var body struct {
		Releases []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"releases"`
	}
	resp, httpErr := req.SetResult(&body).Get("/releases")
	if classifyErr := classify(resp, httpErr); classifyErr != nil {
		return nil, classifyErr
	}
	out := make([]Release, 0, len(body.Releases))
	for _, r := range body.Releases {
		out = append(out, Release{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

// ReleaseDetails describes a single release: its id, name, and notes.
type ReleaseDetails struct {
	ID    int
	Name  string
	Notes string
}

// ReleaseDetails fetches details for a single release id.
func (g *Gateway) ReleaseDetails(ctx context.Context, id int) (ReleaseDetails, error) {
	req, cancel, err := g.request(ctx)
	if err != nil {
		return ReleaseDetails{}, err
	}
	defer cancel()

	var body struct {
		Releases []struct {
			ID    int    `json:"id"`
			Name  string `json:"name"`
			Notes string `json:"notes"`
		} `json:"releases"`
	}
	resp, httpErr := req.
		SetQueryParam("release_id", strconv.Itoa(id)).
		SetResult(&body).
		Get("/release")
	if classifyErr := classify(resp, httpErr); classifyErr != nil {
		return ReleaseDetails{}, classifyErr
	}
	if len(body.Releases) == 0 {
		return ReleaseDetails{}, apperr.New(apperr.NotFound, "release %d not found", id)
	}
	r := body.Releases[0]
	return ReleaseDetails{ID: r.ID, Name: r.Name, Notes: r.Notes}, nil
}

// CategoryDetails describes a single category.
type CategoryDetails struct {
	ID       int
	Name     string
	ParentID int
}

// CategoryDetails fetches details for a single category id.
func (g *Gateway) CategoryDetails(ctx context.Context, id int) (CategoryDetails, error) {
	req, cancel, err := g.request(ctx)
	if err != nil {
		return CategoryDetails{}, err
	}
	defer cancel()

	var body struct {
		Categories []struct {
			ID       int    `json:"id"`
			Name     string `json:"name"`
			ParentID int    `json:"parent_id"`
		} `json:"categories"`
	}
	resp, httpErr := req.
		SetQueryParam("category_id", strconv.Itoa(id)).
		SetResult(&body).
		Get("/category")
	if classifyErr := classify(resp, httpErr); classifyErr != nil {
		return CategoryDetails{}, classifyErr
	}
	if len(body.Categories) == 0 {
		return CategoryDetails{}, apperr.New(apperr.NotFound, "category %d not found", id)
	}
	c := body.Categories[0]
	return CategoryDetails{ID: c.ID, Name: c.Name, ParentID: c.ParentID}, nil
}

// Source is a single FRED data source.
type Source struct {
	ID   int
	Name string
}

// Sources lists all data sources.
func (g *Gateway) Sources(ctx context.Context) ([]Source, error) {
	req, cancel, err := g.request(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var body struct {
		Sources []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"sources"`
	}
	resp, httpErr := req.SetResult(&body).Get("/sources")
	if classifyErr := classify(resp, httpErr); classifyErr != nil {
		return nil, classifyErr
	}
	out := make([]Source, 0, len(body.Sources))
	for _, s := range body.Sources {
		out = append(out, Source{ID: s.ID, Name: s.Name})
	}
	return out, nil
}

// FetchSeries fetches metadata and observations together and assembles a
// full Series, the shape the Dataset Builder and Series Store consume.
func (g *Gateway) FetchSeries(ctx context.Context, id fredseries.SeriesID, start, end *time.Time) (fredseries.Series, error) {
	meta, err := g.SeriesMetadata(ctx, id)
	if err != nil {
		return fredseries.Series{}, err
	}
	obs, err := g.Observations(ctx, id, start, end)
	if err != nil {
		return fredseries.Series{}, err
	}
	s := fredseries.Series{ID: id, Metadata: meta, Observations: obs}
	if err := s.Validate(); err != nil {
		return fredseries.Series{}, err
	}
	return s, nil
}
