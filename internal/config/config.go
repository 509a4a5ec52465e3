// Package config builds the single immutable configuration record used by
// every component in the server. There is no process-global mutable
// configuration; Load is called once at startup and the result is passed
// down explicitly.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
)

// Config is the scoped, immutable configuration passed into every component.
type Config struct {
	FREDAPIKey string

	// DataRoot is the root of the on-disk layout described in spec.md §6.
	DataRoot string

	// MaxWorkers bounds both the number of in-flight tools/call requests and
	// the per-build concurrency cap on Gateway fetches.
	MaxWorkers int

	// RetryBudget is the maximum number of attempts per Gateway request,
	// the first attempt included.
	RetryBudget int

	// RetryBaseDelay/RetryMaxDelay bound the exponential backoff window.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// CatalogDefaultLimit is how many datasets the catalog resource returns
	// by default when a caller doesn't specify a limit.
	CatalogDefaultLimit int
}

// Load reads configuration from the environment. FRED_API_KEY is required;
// its absence is a fatal startup error per spec.md §7.
func Load() (Config, error) {
	cfg := Config{
		FREDAPIKey:          strings.TrimSpace(os.Getenv("FRED_API_KEY")),
		DataRoot:             envOr("FRED_DATA_ROOT", "data"),
		MaxWorkers:           envInt("FRED_MAX_WORKERS", 4),
		RetryBudget:          envInt("FRED_RETRY_BUDGET", 4),
		RetryBaseDelay:       envDuration("FRED_RETRY_BASE_DELAY", 500*time.Millisecond),
		RetryMaxDelay:        envDuration("FRED_RETRY_MAX_DELAY", 8*time.Second),
		CatalogDefaultLimit:  envInt("FRED_CATALOG_DEFAULT_LIMIT", 10),
	}

	if cfg.FREDAPIKey == "" {
		return Config{}, apperr.New(apperr.ConfigMissing, "FRED_API_KEY is required")
	}
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
