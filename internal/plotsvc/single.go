package plotsvc

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fredseries/fred-mcp-server/internal/fredseries"
)

// SeriesPlotRequest is the plot_series_tool input.
type SeriesPlotRequest struct {
	SeriesID  fredseries.SeriesID
	Transform fredseries.Transform
	Start     *time.Time
	End       *time.Time
}

// SeriesPlotResult names the PNG a PlotSeries call produced.
type SeriesPlotResult struct {
	PNGPath    string
	PointCount int
}

// PlotSeries renders a single-series line chart, optionally under one of
// the Transform Engine's tags, to the series' plot directory.
func (svc *Service) PlotSeries(ctx context.Context, req SeriesPlotRequest, now time.Time) (SeriesPlotResult, error) {
	tag := req.Transform
	if tag == "" {
		tag = fredseries.TransformNone
	}
	dates, values, meta, err := fetchAligned(ctx, svc.Gateway, req.SeriesID, tag, req.Start, req.End)
	if err != nil {
		return SeriesPlotResult{}, err
	}

	pts := toPoints(dates, values)
	title := fmt.Sprintf("%s (%s)", req.SeriesID, tag)
	if meta.Title != "" {
		title = fmt.Sprintf("%s — %s", meta.Title, tag)
	}
	p, err := newPlot(title, yLabelFor(tag, meta.Units))
	if err != nil {
		return SeriesPlotResult{}, err
	}
	if err := addLine(p, string(req.SeriesID), pts); err != nil {
		return SeriesPlotResult{}, err
	}

	dir := svc.Store.PlotDir(req.SeriesID)
	path := filepath.Join(dir, plotFilename(string(req.SeriesID), string(tag), stamp(now)))
	if err := ensureDir(dir); err != nil {
		return SeriesPlotResult{}, err
	}
	if err := savePNG(p, path); err != nil {
		return SeriesPlotResult{}, err
	}
	return SeriesPlotResult{PNGPath: path, PointCount: len(pts)}, nil
}

func yLabelFor(tag fredseries.Transform, units string) string {
	if tag == fredseries.TransformNone || tag == "" {
		return units
	}
	return string(tag)
}
