package fredgw

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
	"github.com/fredseries/fred-mcp-server/internal/config"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g := New(config.Config{
		FREDAPIKey:     "test-key",
		RetryBudget:    1,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  2 * time.Millisecond,
	})
	g.client.SetBaseURL(srv.URL)
	g.limiter.SetLimit(1000) // disable rate limiting noise in tests
	return g
}

func TestObservationsParsesNullsAndDates(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"observations": []map[string]string{
				{"date": "2020-01-01", "value": "1.5"},
				{"date": "2020-02-01", "value": "."},
			},
		})
	})

	obs, err := g.Observations(context.Background(), "UNRATE", nil, nil)
	if err != nil {
		t.Fatalf("observations: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs))
	}
	if obs[0].Value == nil || *obs[0].Value != 1.5 {
		t.Fatalf("expected first value 1.5, got %v", obs[0].Value)
	}
	if obs[1].Value != nil {
		t.Fatalf("expected second value to be null, got %v", *obs[1].Value)
	}
}

func TestObservationsEmptyWindowIsNotAnError(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"observations": []map[string]string{}})
	})

	obs, err := g.Observations(context.Background(), "UNRATE", nil, nil)
	if err != nil {
		t.Fatalf("expected no error for empty window, got %v", err)
	}
	if len(obs) != 0 {
		t.Fatalf("expected empty result, got %d", len(obs))
	}
}

func TestSeriesMetadataNotFound(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"seriess": []map[string]string{}})
	})

	_, err := g.SeriesMetadata(context.Background(), "XXXXX_NOT_A_REAL_SERIES")
	if err == nil {
		t.Fatalf("expected not_found error")
	}
	if apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected not_found, got %v", apperr.KindOf(err))
	}
}

func TestClassifyRateLimited(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := g.Releases(context.Background())
	if err == nil {
		t.Fatalf("expected rate_limited error")
	}
	if apperr.KindOf(err) != apperr.RateLimited {
		t.Fatalf("expected rate_limited, got %v", apperr.KindOf(err))
	}
}

func TestClassifyAuthMissing(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := g.Sources(context.Background())
	if err == nil {
		t.Fatalf("expected auth_missing error")
	}
	if apperr.KindOf(err) != apperr.AuthMissing {
		t.Fatalf("expected auth_missing, got %v", apperr.KindOf(err))
	}
}
