package dataset

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
	"github.com/fredseries/fred-mcp-server/internal/fredseries"
)

type fakeGateway struct {
	series map[fredseries.SeriesID]fredseries.Series
	errs   map[fredseries.SeriesID]error
}

func (f *fakeGateway) FetchSeries(_ context.Context, id fredseries.SeriesID, _, _ *time.Time) (fredseries.Series, error) {
	if err, ok := f.errs[id]; ok {
		return fredseries.Series{}, err
	}
	s, ok := f.series[id]
	if !ok {
		return fredseries.Series{}, apperr.New(apperr.NotFound, "no such series %s", id)
	}
	return s, nil
}

func d(s string) time.Time {
	t, err := time.Parse(fredseries.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func f(v float64) *float64 { return &v }

func seriesFixture(id fredseries.SeriesID, dates []string, values []*float64) fredseries.Series {
	obs := make([]fredseries.Observation, len(dates))
	for i, ds := range dates {
		obs[i] = fredseries.Observation{Date: d(ds), Value: values[i]}
	}
	return fredseries.Series{ID: id, Observations: obs}
}

func TestBuildInnerMergeKeepsOverlapOnly(t *testing.T) {
	gw := &fakeGateway{series: map[fredseries.SeriesID]fredseries.Series{
		"A": seriesFixture("A", []string{"2020-01-01", "2020-02-01", "2020-03-01"}, []*float64{f(1), f(2), f(3)}),
		"B": seriesFixture("B", []string{"2020-02-01", "2020-03-01", "2020-04-01"}, []*float64{f(10), f(20), f(30)}),
	}}
	b := NewBuilder(t.TempDir(), gw, 4)

	res, err := b.Build(context.Background(), Request{
		SeriesList:    []fredseries.SeriesID{"A", "B"},
		MergeStrategy: MergeInner,
	}, d("2024-01-01"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.RowCount != 2 {
		t.Fatalf("expected 2 overlapping rows, got %d", res.RowCount)
	}
	if !res.Start.Equal(d("2020-02-01")) || !res.End.Equal(d("2020-03-01")) {
		t.Fatalf("unexpected window: %v to %v", res.Start, res.End)
	}
	if _, err := os.Stat(res.CSVPath); err != nil {
		t.Fatalf("csv missing: %v", err)
	}
	if _, err := os.Stat(res.MetadataPath); err != nil {
		t.Fatalf("metadata missing: %v", err)
	}
}

func TestBuildOuterMergeFillsGapsWithNull(t *testing.T) {
	gw := &fakeGateway{series: map[fredseries.SeriesID]fredseries.Series{
		"A": seriesFixture("A", []string{"2020-01-01", "2020-02-01"}, []*float64{f(1), f(2)}),
		"B": seriesFixture("B", []string{"2020-02-01", "2020-03-01"}, []*float64{f(10), f(20)}),
	}}
	b := NewBuilder(t.TempDir(), gw, 4)

	res, err := b.Build(context.Background(), Request{
		SeriesList:    []fredseries.SeriesID{"A", "B"},
		MergeStrategy: MergeOuter,
	}, d("2024-01-01"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.RowCount != 3 {
		t.Fatalf("expected 3 unioned rows, got %d", res.RowCount)
	}
}

func TestBuildRejectsDuplicateSeries(t *testing.T) {
	b := NewBuilder(t.TempDir(), &fakeGateway{}, 4)
	_, err := b.Build(context.Background(), Request{
		SeriesList: []fredseries.SeriesID{"A", "A"},
	}, d("2024-01-01"))
	if apperr.KindOf(err) != apperr.DuplicateSeries {
		t.Fatalf("expected duplicate_series, got %v", err)
	}
}

func TestBuildRejectsTransformForUnlistedSeries(t *testing.T) {
	b := NewBuilder(t.TempDir(), &fakeGateway{}, 4)
	_, err := b.Build(context.Background(), Request{
		SeriesList:      []fredseries.SeriesID{"A"},
		Transformations: map[fredseries.SeriesID]fredseries.Transform{"B": fredseries.TransformYoY},
	}, d("2024-01-01"))
	if apperr.KindOf(err) != apperr.InvalidParams {
		t.Fatalf("expected invalid_params, got %v", err)
	}
}

func TestBuildEmptyIntersectionWhenNoOverlap(t *testing.T) {
	gw := &fakeGateway{series: map[fredseries.SeriesID]fredseries.Series{
		"A": seriesFixture("A", []string{"2020-01-01"}, []*float64{f(1)}),
		"B": seriesFixture("B", []string{"2021-01-01"}, []*float64{f(1)}),
	}}
	b := NewBuilder(t.TempDir(), gw, 4)

	_, err := b.Build(context.Background(), Request{
		SeriesList:    []fredseries.SeriesID{"A", "B"},
		MergeStrategy: MergeInner,
	}, d("2024-01-01"))
	if apperr.KindOf(err) != apperr.EmptyIntersection {
		t.Fatalf("expected empty_intersection, got %v", err)
	}
}

func TestBuildPartialFetchFailureStillSucceeds(t *testing.T) {
	gw := &fakeGateway{
		series: map[fredseries.SeriesID]fredseries.Series{
			"A": seriesFixture("A", []string{"2020-01-01", "2020-02-01"}, []*float64{f(1), f(2)}),
		},
		errs: map[fredseries.SeriesID]error{
			"B": apperr.New(apperr.UpstreamUnavailable, "fred is down"),
		},
	}
	root := t.TempDir()
	b := NewBuilder(root, gw, 4)

	res, err := b.Build(context.Background(), Request{
		SeriesList:    []fredseries.SeriesID{"A", "B"},
		MergeStrategy: MergeOuter,
	}, d("2024-01-01"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(res.Failures) != 1 || res.Failures[0].SeriesID != "B" {
		t.Fatalf("expected 1 recorded failure for B, got %+v", res.Failures)
	}

	raw, err := os.ReadFile(res.MetadataPath)
	if err != nil {
		t.Fatalf("reading metadata: %v", err)
	}
	var meta sidecar
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatalf("unmarshal metadata: %v", err)
	}
	if len(meta.FailedSeries) != 1 || meta.FailedSeries[0] != "B" {
		t.Fatalf("expected metadata to record failed series B, got %v", meta.FailedSeries)
	}
}

func TestBuildAllSeriesFailingIsAnError(t *testing.T) {
	gw := &fakeGateway{errs: map[fredseries.SeriesID]error{
		"A": apperr.New(apperr.UpstreamUnavailable, "down"),
	}}
	b := NewBuilder(t.TempDir(), gw, 4)
	_, err := b.Build(context.Background(), Request{SeriesList: []fredseries.SeriesID{"A"}}, d("2024-01-01"))
	if apperr.KindOf(err) != apperr.UpstreamUnavailable {
		t.Fatalf("expected upstream_unavailable, got %v", err)
	}
}

func TestBasenameForJoinsInOrder(t *testing.T) {
	got := BasenameFor([]fredseries.SeriesID{"UNRATE", "CPIAUCSL"})
	want := "FRED_dataset_UNRATE_CPIAUCSL"
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

type cancellingGateway struct {
	series map[fredseries.SeriesID]fredseries.Series
	cancel context.CancelFunc
}

func (g *cancellingGateway) FetchSeries(_ context.Context, id fredseries.SeriesID, _, _ *time.Time) (fredseries.Series, error) {
	g.cancel()
	return g.series[id], nil
}

func TestBuildCancelledAfterFetchLeavesNoPartialDataset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gw := &cancellingGateway{
		series: map[fredseries.SeriesID]fredseries.Series{
			"A": seriesFixture("A", []string{"2020-01-01", "2020-02-01"}, []*float64{f(1), f(2)}),
		},
		cancel: cancel,
	}
	root := t.TempDir()
	b := NewBuilder(root, gw, 4)

	_, err := b.Build(ctx, Request{SeriesList: []fredseries.SeriesID{"A"}}, d("2024-01-01"))
	if apperr.KindOf(err) != apperr.Cancelled {
		t.Fatalf("expected cancelled, got %v", err)
	}

	dir := filepath.Join(root, "datasets", "FRED_dataset_A")
	if _, err := os.Stat(dir); err == nil {
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Fatalf("expected no artifacts left behind in %s, found %+v", dir, entries)
		}
	}
}

func TestDatasetWrittenUnderDatasetsDir(t *testing.T) {
	gw := &fakeGateway{series: map[fredseries.SeriesID]fredseries.Series{
		"A": seriesFixture("A", []string{"2020-01-01"}, []*float64{f(1)}),
	}}
	root := t.TempDir()
	b := NewBuilder(root, gw, 4)

	res, err := b.Build(context.Background(), Request{SeriesList: []fredseries.SeriesID{"A"}}, d("2024-01-01"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	wantDir := filepath.Join(root, "datasets", "FRED_dataset_A")
	if filepath.Dir(res.CSVPath) != wantDir {
		t.Fatalf("expected dataset dir %s, got %s", wantDir, filepath.Dir(res.CSVPath))
	}
}
