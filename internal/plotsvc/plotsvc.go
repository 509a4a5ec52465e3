// Package plotsvc renders PNG charts for single series, dual-axis
// comparisons, differencing diagnostics, and existing datasets, per
// spec.md §4.5.
package plotsvc

import (
	"context"
	"os"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
	"github.com/fredseries/fred-mcp-server/internal/fredseries"
	"github.com/fredseries/fred-mcp-server/internal/seriesstore"
	"github.com/fredseries/fred-mcp-server/internal/transform"
)

// Gateway is the subset of fredgw.Gateway the plot service depends on.
type Gateway interface {
	FetchSeries(ctx context.Context, id fredseries.SeriesID, start, end *time.Time) (fredseries.Series, error)
}

// Service renders charts for the plotting tools and writes them under the
// Series Store's per-series plot directory.
type Service struct {
	Gateway Gateway
	Store   *seriesstore.Store
}

// New wires a Service.
func New(gw Gateway, store *seriesstore.Store) *Service {
	return &Service{Gateway: gw, Store: store}
}

// point is one rendered (date, value) sample; null transform outputs are
// simply omitted rather than drawn as a broken line.
type point struct {
	date  time.Time
	value float64
}

func toPoints(dates []time.Time, values []*float64) []point {
	out := make([]point, 0, len(dates))
	for i, v := range values {
		if v == nil {
			continue
		}
		out = append(out, point{date: dates[i], value: *v})
	}
	return out
}

func toXYs(pts []point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, p := range pts {
		xys[i].X = float64(p.date.Unix())
		xys[i].Y = p.value
	}
	return xys
}

// fetchAligned fetches a series, applies tag, and returns the dates kept
// alongside the (possibly null) transformed values, still index-aligned.
func fetchAligned(ctx context.Context, gw Gateway, id fredseries.SeriesID, tag fredseries.Transform, start, end *time.Time) ([]time.Time, []*float64, fredseries.Metadata, error) {
	s, err := gw.FetchSeries(ctx, id, start, end)
	if err != nil {
		return nil, nil, fredseries.Metadata{}, err
	}
	if len(s.Observations) == 0 {
		return nil, nil, fredseries.Metadata{}, apperr.New(apperr.NotFound, "series %s has no observations in the requested window", id)
	}
	if tag == "" {
		tag = fredseries.TransformNone
	}
	raw := make([]*float64, len(s.Observations))
	dates := make([]time.Time, len(s.Observations))
	for i, o := range s.Observations {
		raw[i] = o.Value
		dates[i] = o.Date
	}
	values, err := transform.Apply(tag, raw)
	if err != nil {
		return nil, nil, fredseries.Metadata{}, err
	}
	return dates, values, s.Metadata, nil
}

func newPlot(title, yLabel string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "date"
	p.Y.Label.Text = yLabel
	return p, nil
}

func addLine(p *plot.Plot, label string, pts []point) error {
	if len(pts) == 0 {
		return apperr.New(apperr.IncompleteDataset, "no non-null points to plot for %q", label)
	}
	line, err := plotter.NewLine(toXYs(pts))
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "building line plotter for %q", label)
	}
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}

func savePNG(p *plot.Plot, path string) error {
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return apperr.Wrap(apperr.Internal, err, "saving plot to %s", path)
	}
	return nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.Wrap(apperr.Internal, err, "creating plot directory %s", dir)
	}
	return nil
}

func stamp(now time.Time) string {
	return now.Format("20060102T150405")
}

func plotFilename(parts ...string) string {
	name := ""
	for i, p := range parts {
		if i > 0 {
			name += "_"
		}
		name += p
	}
	return name + ".png"
}
