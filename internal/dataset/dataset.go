// Package dataset implements the Dataset Builder: multi-series fetch,
// frequency alignment, merge policy, transformation application, and
// artifact emission with a metadata sidecar, per spec.md §4.4.
package dataset

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
	"github.com/fredseries/fred-mcp-server/internal/fredseries"
	"github.com/fredseries/fred-mcp-server/internal/transform"
)

// MergeStrategy is how columns from different series are aligned on date.
type MergeStrategy string

const (
	MergeInner MergeStrategy = "inner"
	MergeOuter MergeStrategy = "outer"
	MergeLeft  MergeStrategy = "left"
	MergeRight MergeStrategy = "right"
)

// Gateway is the subset of fredgw.Gateway the builder depends on. Defined
// here so tests can substitute a fake without touching the network.
type Gateway interface {
	FetchSeries(ctx context.Context, id fredseries.SeriesID, start, end *time.Time) (fredseries.Series, error)
}

// Request describes a build_fred_dataset_tool invocation.
type Request struct {
	SeriesList       []fredseries.SeriesID
	Transformations  map[fredseries.SeriesID]fredseries.Transform
	ObservationStart *time.Time
	ObservationEnd   *time.Time
	MergeStrategy    MergeStrategy
}

// Table is the in-memory columnar representation of a merged dataset: dates
// and columns are parallel slices, aligned by index.
type Table struct {
	Dates   []time.Time
	Columns []Column
}

// Column is one data column: either a bare SeriesID (transform "none") or
// "{SeriesID}_{Transform}".
type Column struct {
	Name   string
	Values []*float64
}

// SeriesError is a per-series fetch failure recorded alongside the
// partial-success summary.
type SeriesError struct {
	SeriesID fredseries.SeriesID
	Err      error
}

// validateRequest enforces the edge cases from spec.md §4.4: no duplicate
// SeriesIDs, and every transformation key must reference a listed series.
func validateRequest(req Request) error {
	if len(req.SeriesList) == 0 {
		return apperr.New(apperr.InvalidParams, "series_list must not be empty")
	}
	seen := map[fredseries.SeriesID]bool{}
	for _, id := range req.SeriesList {
		if seen[id] {
			return apperr.New(apperr.DuplicateSeries, "series %s repeated in series_list", id)
		}
		seen[id] = true
	}
	for id := range req.Transformations {
		if !seen[id] {
			return apperr.New(apperr.InvalidParams, "transformation references series %s not present in series_list", id)
		}
	}
	return nil
}

// fetchAll fetches every requested series in parallel, bounded by
// maxWorkers via an errgroup, and returns the series that succeeded (in
// series_list order) plus the per-series errors. It fails only when every
// fetch failed. Each goroutine swallows its own fetch error into errs[i]
// rather than returning it to the group, so one series failing never
// cancels the shared context for its siblings — per-series failures are
// expected and accumulated, not fatal to the build.
func fetchAll(ctx context.Context, gw Gateway, req Request, maxWorkers int) ([]fredseries.Series, []SeriesError, error) {
	n := len(req.SeriesList)
	results := make([]*fredseries.Series, n)
	errs := make([]error, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(clampWorkers(maxWorkers, n))
	for i, id := range req.SeriesList {
		i, id := i, id
		g.Go(func() error {
			s, err := gw.FetchSeries(gctx, id, req.ObservationStart, req.ObservationEnd)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = &s
			return nil
		})
	}
	_ = g.Wait()

	var ok []fredseries.Series
	var failures []SeriesError
	for i, id := range req.SeriesList {
		if errs[i] != nil {
			failures = append(failures, SeriesError{SeriesID: id, Err: errs[i]})
			continue
		}
		ok = append(ok, *results[i])
	}
	if len(ok) == 0 {
		return nil, failures, apperr.New(apperr.UpstreamUnavailable, "all %d series failed to fetch", n)
	}
	return ok, failures, nil
}

func clampWorkers(maxWorkers, n int) int {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if n < maxWorkers {
		return n
	}
	return maxWorkers
}

// merge aligns the fetched series into a single Table per the requested
// merge strategy. Anchor is the first series for "left", the last for
// "right".
func merge(series []fredseries.Series, strategy MergeStrategy) Table {
	dateSets := make([]map[time.Time]bool, len(series))
	for i, s := range series {
		m := make(map[time.Time]bool, len(s.Observations))
		for _, o := range s.Observations {
			m[o.Date] = true
		}
		dateSets[i] = m
	}

	var dates []time.Time
	switch strategy {
	case MergeLeft:
		dates = sortedDates(dateSets[0])
	case MergeRight:
		dates = sortedDates(dateSets[len(dateSets)-1])
	case MergeOuter:
		union := map[time.Time]bool{}
		for _, m := range dateSets {
			for d := range m {
				union[d] = true
			}
		}
		dates = sortedDates(union)
	default: // inner
		inter := map[time.Time]bool{}
		for d := range dateSets[0] {
			all := true
			for _, m := range dateSets[1:] {
				if !m[d] {
					all = false
					break
				}
			}
			if all {
				inter[d] = true
			}
		}
		dates = sortedDates(inter)
	}

	cols := make([]Column, len(series))
	for i, s := range series {
		lookup := make(map[time.Time]*float64, len(s.Observations))
		for _, o := range s.Observations {
			lookup[o.Date] = o.Value
		}
		values := make([]*float64, len(dates))
		for j, d := range dates {
			values[j] = lookup[d]
		}
		cols[i] = Column{Name: string(s.ID), Values: values}
	}
	return Table{Dates: dates, Columns: cols}
}

func sortedDates(m map[time.Time]bool) []time.Time {
	out := make([]time.Time, 0, len(m))
	for d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// applyTransforms rewrites each column's values and name according to the
// requested transformation map. Transformations run after merge, on the
// merged index, per spec.md §9.
func applyTransforms(t Table, series []fredseries.Series, tf map[fredseries.SeriesID]fredseries.Transform) (Table, error) {
	out := Table{Dates: t.Dates, Columns: make([]Column, len(t.Columns))}
	for i, col := range t.Columns {
		id := series[i].ID
		tag := tf[id]
		if tag == "" {
			tag = fredseries.TransformNone
		}
		values, err := transform.Apply(tag, col.Values)
		if err != nil {
			return Table{}, err
		}
		out.Columns[i] = Column{Name: transform.ColumnName(id, tag), Values: values}
	}
	return out, nil
}

// trimAllNullEdges drops leading/trailing rows where every column is null,
// per spec.md §4.4 step 6, and returns the resulting table plus its
// observed [start, end] window.
func trimAllNullEdges(t Table) (Table, time.Time, time.Time) {
	n := len(t.Dates)
	isAllNull := func(i int) bool {
		for _, c := range t.Columns {
			if c.Values[i] != nil {
				return false
			}
		}
		return true
	}
	start := 0
	for start < n && isAllNull(start) {
		start++
	}
	end := n - 1
	for end >= start && isAllNull(end) {
		end--
	}
	if start > end {
		return Table{}, time.Time{}, time.Time{}
	}

	trimmed := Table{Dates: append([]time.Time{}, t.Dates[start:end+1]...)}
	for _, c := range t.Columns {
		trimmed.Columns = append(trimmed.Columns, Column{Name: c.Name, Values: c.Values[start : end+1]})
	}
	return trimmed, trimmed.Dates[0], trimmed.Dates[len(trimmed.Dates)-1]
}

// BasenameFor derives the builder's canonical dataset basename: SeriesIDs
// joined by underscore in the caller's supplied order.
func BasenameFor(seriesList []fredseries.SeriesID) string {
	name := "FRED_dataset"
	for _, id := range seriesList {
		name += "_" + string(id)
	}
	return name
}
