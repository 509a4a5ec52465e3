package plotsvc

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
	"github.com/fredseries/fred-mcp-server/internal/fredseries"
)

// DatasetResolver resolves a dataset reference to its on-disk directory.
// internal/catalog implements this by scanning sidecar metadata: Resolve
// matches an exact basename (direct directory paths are handled by
// resolveDatasetDir before Resolve is called); ResolveColumns finds the
// newest completed dataset whose columns include both names, for the
// dataset_path-omitted case.
type DatasetResolver interface {
	Resolve(basename string) (dir string, err error)
	ResolveColumns(left, right string) (dir string, err error)
}

// FromDatasetRequest is the plot_from_dataset_tool input: two column names
// and an optional dataset_path. When DatasetPath is empty, Resolver finds
// the most recent dataset containing both columns, per spec.md §4.5.
type FromDatasetRequest struct {
	ColumnLeft  string
	ColumnRight string
	DatasetPath string
}

// FromDatasetResult names the rendered PNG and the dataset it was resolved
// against.
type FromDatasetResult struct {
	PNGPath     string
	DatasetPath string
	Rows        int
}

// PlotFromDataset renders column_left and column_right from an
// already-built dataset without touching the network: it resolves the
// dataset (by explicit path/basename, or by column membership when none is
// given), reads data.csv directly, validates both columns exist, and plots
// them dual-axis style the same way PlotDualAxis does: column_right is
// rescaled into column_left's range, and its legend entry carries its true
// range.
func (svc *Service) PlotFromDataset(resolver DatasetResolver, req FromDatasetRequest, now time.Time) (FromDatasetResult, error) {
	if req.ColumnLeft == "" || req.ColumnRight == "" {
		return FromDatasetResult{}, apperr.New(apperr.InvalidParams, "column_left and column_right are required")
	}

	dir, err := resolveDatasetDir(resolver, req)
	if err != nil {
		return FromDatasetResult{}, err
	}
	csvPath := filepath.Join(dir, "data.csv")

	dates, columns, err := readDatasetCSV(csvPath)
	if err != nil {
		return FromDatasetResult{}, err
	}

	leftValues, ok := columns[req.ColumnLeft]
	if !ok {
		return FromDatasetResult{}, unknownColumnErr(dir, req.ColumnLeft, columns)
	}
	rightValues, ok := columns[req.ColumnRight]
	if !ok {
		return FromDatasetResult{}, unknownColumnErr(dir, req.ColumnRight, columns)
	}

	leftPts := toPoints(dates, leftValues)
	rightPts := toPoints(dates, rightValues)
	if len(leftPts) == 0 || len(rightPts) == 0 {
		return FromDatasetResult{}, apperr.New(apperr.IncompleteDataset, "dataset %s has no non-null values in %q or %q", filepath.Base(dir), req.ColumnLeft, req.ColumnRight)
	}
	leftMin, leftMax := pointRange(leftPts)
	rightMin, rightMax := pointRange(rightPts)
	rescaled := rescalePoints(rightPts, rightMin, rightMax, leftMin, leftMax)

	p, err := newPlot(filepath.Base(dir), "")
	if err != nil {
		return FromDatasetResult{}, err
	}
	if err := addLine(p, req.ColumnLeft, leftPts); err != nil {
		return FromDatasetResult{}, err
	}
	rightLabel := fmt.Sprintf("%s (rescaled, true range [%.4g, %.4g])", req.ColumnRight, rightMin, rightMax)
	if err := addLine(p, rightLabel, rescaled); err != nil {
		return FromDatasetResult{}, err
	}

	plotsDir := filepath.Join(dir, "plots")
	if err := ensureDir(plotsDir); err != nil {
		return FromDatasetResult{}, err
	}
	path := filepath.Join(plotsDir, fmt.Sprintf("%s_vs_%s_plot_%s.png", req.ColumnLeft, req.ColumnRight, now.Format("20060102")))
	if err := savePNG(p, path); err != nil {
		return FromDatasetResult{}, err
	}
	return FromDatasetResult{PNGPath: path, DatasetPath: dir, Rows: len(dates)}, nil
}

func unknownColumnErr(dir, missing string, columns map[string][]*float64) error {
	available := make([]string, 0, len(columns))
	for name := range columns {
		available = append(available, name)
	}
	sort.Strings(available)
	return apperr.New(apperr.UnknownColumn, "dataset %s has no column %q; available columns: %s", filepath.Base(dir), missing, strings.Join(available, ", "))
}

// resolveDatasetDir picks the dataset directory to read from: an explicit
// path or basename when req.DatasetPath is set, otherwise the newest
// dataset whose columns include both requested names (spec.md §4.5,
// §8 scenario 2).
func resolveDatasetDir(resolver DatasetResolver, req FromDatasetRequest) (string, error) {
	if req.DatasetPath == "" {
		if resolver == nil {
			return "", apperr.New(apperr.NotFound, "no dataset_path given and no catalog resolver configured")
		}
		return resolver.ResolveColumns(req.ColumnLeft, req.ColumnRight)
	}

	if info, err := os.Stat(req.DatasetPath); err == nil && info.IsDir() {
		if _, err := os.Stat(filepath.Join(req.DatasetPath, "data.csv")); err == nil {
			return req.DatasetPath, nil
		}
	}
	if resolver == nil {
		return "", apperr.New(apperr.NotFound, "dataset %q not found and no catalog resolver configured", req.DatasetPath)
	}
	return resolver.Resolve(req.DatasetPath)
}

func readDatasetCSV(path string) ([]time.Time, map[string][]*float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.IncompleteDataset, err, "opening dataset csv %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.Internal, err, "reading dataset csv header")
	}
	if len(header) < 2 {
		return nil, nil, apperr.New(apperr.Internal, "dataset csv %s has no data columns", path)
	}

	columns := make(map[string][]*float64, len(header)-1)
	for _, name := range header[1:] {
		columns[name] = nil
	}
	var dates []time.Time

	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		d, err := time.Parse(fredseries.DateLayout, row[0])
		if err != nil {
			return nil, nil, apperr.Wrap(apperr.Internal, err, "parsing date in dataset csv")
		}
		dates = append(dates, d)
		for i, name := range header[1:] {
			cell := row[i+1]
			var v *float64
			if cell != "" {
				parsed, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, nil, apperr.Wrap(apperr.Internal, err, "parsing value in dataset csv")
				}
				v = &parsed
			}
			columns[name] = append(columns[name], v)
		}
	}
	return dates, columns, nil
}
