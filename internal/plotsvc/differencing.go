package plotsvc

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
	"github.com/fredseries/fred-mcp-server/internal/fredseries"
	"github.com/fredseries/fred-mcp-server/internal/transform"
)

// DifferencingRequest is the analyze_differencing_tool input.
type DifferencingRequest struct {
	SeriesID fredseries.SeriesID
	Start    *time.Time
	End      *time.Time
}

// DifferencingResult names the three rendered PNGs and the ADF test run
// against the series' level.
type DifferencingResult struct {
	LevelPNG      string
	FirstDiffPNG  string
	SecondDiffPNG string
	ADF           ADFResult
}

// AnalyzeDifferencing renders level, first-difference, and second-difference
// views of a series and runs an augmented Dickey-Fuller test on the level,
// the conventional way of checking whether a series needs differencing to
// become stationary.
func (svc *Service) AnalyzeDifferencing(ctx context.Context, req DifferencingRequest, now time.Time) (DifferencingResult, error) {
	dates, level, meta, err := fetchAligned(ctx, svc.Gateway, req.SeriesID, fredseries.TransformNone, req.Start, req.End)
	if err != nil {
		return DifferencingResult{}, err
	}
	firstDiff, err := transform.Apply(fredseries.TransformDiff, level)
	if err != nil {
		return DifferencingResult{}, err
	}
	secondDiff, err := transform.Apply(fredseries.TransformDiff, firstDiff)
	if err != nil {
		return DifferencingResult{}, err
	}

	dir := svc.Store.PlotDir(req.SeriesID)
	if err := ensureDir(dir); err != nil {
		return DifferencingResult{}, err
	}

	levelPath, err := renderSeries(dir, req.SeriesID, "level", meta.Units, dates, level, now)
	if err != nil {
		return DifferencingResult{}, err
	}
	firstPath, err := renderSeries(dir, req.SeriesID, "first_diff", meta.Units, dates, firstDiff, now)
	if err != nil {
		return DifferencingResult{}, err
	}
	secondPath, err := renderSeries(dir, req.SeriesID, "second_diff", meta.Units, dates, secondDiff, now)
	if err != nil {
		return DifferencingResult{}, err
	}

	levelValues := nonNullFloats(level)
	adf, err := RunADF(levelValues)
	if err != nil {
		return DifferencingResult{}, apperr.Wrap(apperr.Internal, err, "running ADF test on %s", req.SeriesID)
	}

	return DifferencingResult{
		LevelPNG:      levelPath,
		FirstDiffPNG:  firstPath,
		SecondDiffPNG: secondPath,
		ADF:           adf,
	}, nil
}

func renderSeries(dir string, id fredseries.SeriesID, label, units string, dates []time.Time, values []*float64, now time.Time) (string, error) {
	pts := toPoints(dates, values)
	p, err := newPlot(fmt.Sprintf("%s (%s)", id, label), units)
	if err != nil {
		return "", err
	}
	if err := addLine(p, label, pts); err != nil {
		return "", err
	}
	path := filepath.Join(dir, plotFilename(string(id), label, stamp(now)))
	if err := savePNG(p, path); err != nil {
		return "", err
	}
	return path, nil
}

func nonNullFloats(values []*float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}
