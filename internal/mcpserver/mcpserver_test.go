package mcpserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/fredseries/fred-mcp-server/internal/catalog"
	"github.com/fredseries/fred-mcp-server/internal/config"
	"github.com/fredseries/fred-mcp-server/internal/fredseries"
	"github.com/fredseries/fred-mcp-server/internal/registry"
)

type fakeGateway struct{}

func (f *fakeGateway) FetchSeries(_ context.Context, _ fredseries.SeriesID, _, _ *time.Time) (fredseries.Series, error) {
	return fredseries.Series{}, nil
}

func TestNewBuildsServerWithoutPanicking(t *testing.T) {
	cat := catalog.New(t.TempDir(), 10)
	deps := registry.Deps{
		Config:  config.Config{DataRoot: t.TempDir(), MaxWorkers: 2},
		Catalog: cat,
	}

	srv := New(deps, cat)
	if srv == nil {
		t.Fatalf("expected a non-nil server")
	}
}

func TestRenderRecentDatasetsEmptyCatalogIsHumanReadable(t *testing.T) {
	got := renderRecentDatasets(nil)
	if !strings.Contains(got, "No FRED datasets") {
		t.Fatalf("expected an empty-catalog message, got %q", got)
	}
}

func TestRenderRecentDatasetsOneBlockPerDatasetWithCSVPath(t *testing.T) {
	entries := []catalog.Entry{
		{
			Basename:         "FRED_dataset_UNRATE_CPIAUCSL",
			Columns:          []string{"UNRATE", "CPIAUCSL_YoY"},
			Transformations:  map[string]string{"CPIAUCSL": "YoY"},
			ObservationStart: "2000-01-01",
			ObservationEnd:   "2024-01-01",
			CSVPath:          "/data/datasets/FRED_dataset_UNRATE_CPIAUCSL/data.csv",
		},
	}
	got := renderRecentDatasets(entries)
	if !strings.Contains(got, "Dataset: FRED_dataset_UNRATE_CPIAUCSL") {
		t.Fatalf("expected dataset name block, got %q", got)
	}
	if !strings.Contains(got, "CPIAUCSL=YoY") {
		t.Fatalf("expected transformations map rendered, got %q", got)
	}
	if !strings.Contains(got, "/data/datasets/FRED_dataset_UNRATE_CPIAUCSL/data.csv") {
		t.Fatalf("expected absolute csv path rendered, got %q", got)
	}
}

func TestBoundedHandlerLimitsConcurrentExecution(t *testing.T) {
	group := &errgroup.Group{}
	group.SetLimit(1)

	inFlight := make(chan struct{})
	release := make(chan struct{})
	h := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		inFlight <- struct{}{}
		<-release
		return mcp.NewToolResultText("ok"), nil
	}
	bounded := boundedHandler(group, nil, "test_tool", h)

	done := make(chan struct{})
	go func() {
		bounded(context.Background(), mcp.CallToolRequest{})
		done <- struct{}{}
	}()
	<-inFlight

	second := make(chan struct{})
	go func() {
		bounded(context.Background(), mcp.CallToolRequest{})
		second <- struct{}{}
	}()

	select {
	case <-second:
		t.Fatalf("expected second call to block while the first holds the only slot")
	case <-time.After(50 * time.Millisecond):
	}

	release <- struct{}{}
	<-done
	<-inFlight
	release <- struct{}{}
	<-second
}
