package registry

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fredseries/fred-mcp-server/internal/catalog"
	"github.com/fredseries/fred-mcp-server/internal/config"
	"github.com/fredseries/fred-mcp-server/internal/dataset"
	"github.com/fredseries/fred-mcp-server/internal/fredseries"
	"github.com/fredseries/fred-mcp-server/internal/plotsvc"
	"github.com/fredseries/fred-mcp-server/internal/seriesstore"
)

type fakeGateway struct {
	series map[fredseries.SeriesID]fredseries.Series
}

func (f *fakeGateway) FetchSeries(_ context.Context, id fredseries.SeriesID, _, _ *time.Time) (fredseries.Series, error) {
	return f.series[id], nil
}

func callWith(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func TestAllReturnsFifteenDistinctTools(t *testing.T) {
	deps := Deps{Config: config.Config{DataRoot: "/tmp/fred", MaxWorkers: 4}}
	descriptors := All(deps)
	if len(descriptors) != 15 {
		t.Fatalf("expected 15 tools, got %d", len(descriptors))
	}
	seen := map[string]bool{}
	for _, d := range descriptors {
		if seen[d.Tool.Name] {
			t.Fatalf("duplicate tool name %s", d.Tool.Name)
		}
		seen[d.Tool.Name] = true
	}
}

func TestFredServerInfoToolReportsConfig(t *testing.T) {
	deps := Deps{Config: config.Config{DataRoot: "/data/fred", MaxWorkers: 6}}
	descriptor := fredServerInfoTool(deps)
	res, err := descriptor.Handler(context.Background(), callWith(nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res)
	}
}

func TestListDownloadedSeriesToolRequiresSeriesID(t *testing.T) {
	deps := Deps{Store: seriesstore.New(t.TempDir())}
	descriptor := listDownloadedSeriesTool(deps)
	res, err := descriptor.Handler(context.Background(), callWith(map[string]any{}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected error result for missing series_id")
	}
}

func TestListDownloadedSeriesToolReturnsEmptyForUnknownSeries(t *testing.T) {
	deps := Deps{Store: seriesstore.New(t.TempDir())}
	descriptor := listDownloadedSeriesTool(deps)
	res, err := descriptor.Handler(context.Background(), callWith(map[string]any{"series_id": "UNRATE"}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res)
	}
}

func TestListRecentDatasetsToolWithEmptyCatalog(t *testing.T) {
	deps := Deps{Catalog: catalog.New(t.TempDir(), 10)}
	descriptor := listRecentDatasetsTool(deps)
	res, err := descriptor.Handler(context.Background(), callWith(nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res)
	}
}

func TestBuildFredDatasetToolRejectsEmptySeriesList(t *testing.T) {
	root := t.TempDir()
	gw := &fakeGateway{}
	deps := Deps{Builder: dataset.NewBuilder(root, gw, 4)}
	descriptor := buildFredDatasetTool(deps)

	res, err := descriptor.Handler(context.Background(), callWith(map[string]any{"series_list": []any{}}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected error result for empty series_list")
	}
}

func TestBuildFredDatasetToolBuildsDataset(t *testing.T) {
	root := t.TempDir()
	gw := &fakeGateway{series: map[fredseries.SeriesID]fredseries.Series{
		"UNRATE": {
			ID: "UNRATE",
			Observations: []fredseries.Observation{
				{Date: mustDate("2020-01-01"), Value: f64(3.5)},
				{Date: mustDate("2020-02-01"), Value: f64(3.6)},
			},
		},
	}}
	deps := Deps{Builder: dataset.NewBuilder(root, gw, 4)}
	descriptor := buildFredDatasetTool(deps)

	res, err := descriptor.Handler(context.Background(), callWith(map[string]any{
		"series_list": []any{"UNRATE"},
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res)
	}
}

func TestPlotFromDatasetToolRequiresColumns(t *testing.T) {
	deps := Deps{Plot: plotsvc.New(&fakeGateway{}, seriesstore.New(t.TempDir()))}
	descriptor := plotFromDatasetTool(deps)
	res, err := descriptor.Handler(context.Background(), callWith(map[string]any{}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected error result for missing column_left/column_right")
	}
}

func TestPlotFromDatasetToolAllowsDatasetPathOmitted(t *testing.T) {
	deps := Deps{
		Plot:    plotsvc.New(&fakeGateway{}, seriesstore.New(t.TempDir())),
		Catalog: catalog.New(t.TempDir(), 10),
	}
	descriptor := plotFromDatasetTool(deps)
	res, err := descriptor.Handler(context.Background(), callWith(map[string]any{
		"column_left":  "UNRATE",
		"column_right": "CPIAUCSL",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected error result: no dataset in an empty catalog contains both columns")
	}
}

func mustDate(s string) time.Time {
	t, err := time.Parse(fredseries.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func f64(v float64) *float64 { return &v }
