package plotsvc

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
	"github.com/fredseries/fred-mcp-server/internal/fredseries"
)

// DualAxisRequest is the plot_dual_axis_tool input. Left is drawn on the
// chart's native axis; Right is rescaled into Left's data range so both
// series share gonum/plot's single Y axis, per spec.md §9.
type DualAxisRequest struct {
	Left      fredseries.SeriesID
	Right     fredseries.SeriesID
	Transform fredseries.Transform
	Start     *time.Time
	End       *time.Time
}

// DualAxisResult names the PNG a dual-axis render produced, along with the
// rescaling that was applied so callers can report the true Right range.
type DualAxisResult struct {
	PNGPath    string
	RightMin   float64
	RightMax   float64
	LeftPoints int
	RightPoints int
}

// PlotDualAxis renders Left and Right on one shared axis, with Right's
// values linearly rescaled into Left's min-max range. The legend labels the
// rescaled line with Right's true min/max so the chart stays legible
// without a second axis; exact Right values are not recoverable from the
// PNG alone. Only the PNG is written: no CSV/XLSX export of the plotted
// window is produced.
func (svc *Service) PlotDualAxis(ctx context.Context, req DualAxisRequest, now time.Time) (DualAxisResult, error) {
	tag := req.Transform
	if tag == "" {
		tag = fredseries.TransformNone
	}

	leftDates, leftValues, leftMeta, err := fetchAligned(ctx, svc.Gateway, req.Left, tag, req.Start, req.End)
	if err != nil {
		return DualAxisResult{}, err
	}
	rightDates, rightValues, _, err := fetchAligned(ctx, svc.Gateway, req.Right, tag, req.Start, req.End)
	if err != nil {
		return DualAxisResult{}, err
	}

	leftPts := toPoints(leftDates, leftValues)
	rightPts := toPoints(rightDates, rightValues)
	if len(leftPts) == 0 || len(rightPts) == 0 {
		return DualAxisResult{}, apperr.New(apperr.IncompleteDataset, "dual axis plot requires non-null points on both %s and %s", req.Left, req.Right)
	}

	leftMin, leftMax := pointRange(leftPts)
	rightMin, rightMax := pointRange(rightPts)
	rescaled := rescalePoints(rightPts, rightMin, rightMax, leftMin, leftMax)

	title := fmt.Sprintf("%s vs %s (%s)", req.Left, req.Right, tag)
	p, err := newPlot(title, leftMeta.Units)
	if err != nil {
		return DualAxisResult{}, err
	}
	if err := addLine(p, string(req.Left), leftPts); err != nil {
		return DualAxisResult{}, err
	}
	rightLabel := fmt.Sprintf("%s (rescaled, true range [%.4g, %.4g])", req.Right, rightMin, rightMax)
	if err := addLine(p, rightLabel, rescaled); err != nil {
		return DualAxisResult{}, err
	}

	dir := svc.Store.PlotDir(req.Left)
	if err := ensureDir(dir); err != nil {
		return DualAxisResult{}, err
	}
	path := filepath.Join(dir, plotFilename(string(req.Left), string(req.Right), "dual", stamp(now)))
	if err := savePNG(p, path); err != nil {
		return DualAxisResult{}, err
	}

	return DualAxisResult{
		PNGPath:     path,
		RightMin:    rightMin,
		RightMax:    rightMax,
		LeftPoints:  len(leftPts),
		RightPoints: len(rightPts),
	}, nil
}

func pointRange(pts []point) (min, max float64) {
	min, max = pts[0].value, pts[0].value
	for _, p := range pts[1:] {
		if p.value < min {
			min = p.value
		}
		if p.value > max {
			max = p.value
		}
	}
	return min, max
}

// rescalePoints maps each point's value from [srcMin, srcMax] into
// [dstMin, dstMax]. A constant source series (srcMin == srcMax) maps to the
// midpoint of the destination range.
func rescalePoints(pts []point, srcMin, srcMax, dstMin, dstMax float64) []point {
	out := make([]point, len(pts))
	if srcMax == srcMin {
		mid := (dstMin + dstMax) / 2
		for i, p := range pts {
			out[i] = point{date: p.date, value: mid}
		}
		return out
	}
	for i, p := range pts {
		ratio := (p.value - srcMin) / (srcMax - srcMin)
		out[i] = point{date: p.date, value: dstMin + ratio*(dstMax-dstMin)}
	}
	return out
}
