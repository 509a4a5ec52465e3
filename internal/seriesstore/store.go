// Package seriesstore implements the durable on-disk layout for raw series
// described in spec.md §4.2: per-series folders holding CSV+XLSX siblings,
// named after the actually-observed date window.
package seriesstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
	"github.com/fredseries/fred-mcp-server/internal/fredseries"
)

// Store persists and enumerates per-series artifacts under a data root.
type Store struct {
	Root string
}

// New builds a Store rooted at root.
func New(root string) *Store {
	return &Store{Root: root}
}

// WriteResult names the artifacts a Write call produced.
type WriteResult struct {
	CSVPath  string
	XLSXPath string
	Start    time.Time
	End      time.Time
}

// seriesDir is <root>/<SERIES_ID>/series.
func (s *Store) seriesDir(id fredseries.SeriesID) string {
	return filepath.Join(s.Root, string(id), "series")
}

// PlotDir is <root>/<SERIES_ID>/grafico, where the Plot Service writes PNGs.
func (s *Store) PlotDir(id fredseries.SeriesID) string {
	return filepath.Join(s.Root, string(id), "grafico")
}

// Write persists a series' observations as CSV and XLSX, named after the
// actual first/last observation dates (not the requested window), stamped
// with today's date. Re-writing the same window overwrites in place.
func (s *Store) Write(id fredseries.SeriesID, obs []fredseries.Observation, now time.Time) (WriteResult, error) {
	if len(obs) == 0 {
		return WriteResult{}, apperr.New(apperr.NotFound, "series %s has no observations to persist", id)
	}
	start := obs[0].Date
	end := obs[len(obs)-1].Date

	dir := s.seriesDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return WriteResult{}, apperr.Wrap(apperr.Internal, err, "creating series directory for %s", id)
	}

	basename := fmt.Sprintf("%s_%s_to_%s_downloaded_%s", id, start.Format(fredseries.DateLayout), end.Format(fredseries.DateLayout), now.Format("20060102"))
	csvPath := filepath.Join(dir, basename+".csv")
	xlsxPath := filepath.Join(dir, basename+".xlsx")

	if err := writeCSV(csvPath, obs); err != nil {
		return WriteResult{}, err
	}
	if err := writeXLSX(xlsxPath, string(id), obs); err != nil {
		return WriteResult{}, err
	}

	return WriteResult{CSVPath: csvPath, XLSXPath: xlsxPath, Start: start, End: end}, nil
}

func writeCSV(path string, obs []fredseries.Observation) error {
	f, err := os.Create(path)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "creating %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "value"}); err != nil {
		return apperr.Wrap(apperr.Internal, err, "writing csv header")
	}
	for _, o := range obs {
		row := []string{o.Date.Format(fredseries.DateLayout), formatValue(o.Value)}
		if err := w.Write(row); err != nil {
			return apperr.Wrap(apperr.Internal, err, "writing csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return apperr.Wrap(apperr.Internal, err, "flushing csv")
	}
	return nil
}

func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func writeXLSX(path, sheetName string, obs []fredseries.Observation) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	_ = f.SetCellValue(sheet, "A1", "date")
	_ = f.SetCellValue(sheet, "B1", sheetName)
	for i, o := range obs {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), o.Date.Format(fredseries.DateLayout))
		if o.Value != nil {
			_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), *o.Value)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return apperr.Wrap(apperr.Internal, err, "saving %s", path)
	}
	return nil
}

// StoredSeriesFile describes one previously downloaded series window.
type StoredSeriesFile struct {
	CSVPath      string
	XLSXPath     string
	Start        time.Time
	End          time.Time
	DownloadedAt time.Time
	Basename     string
}

// ListDownloaded enumerates what's already on disk for a SeriesID, newest
// first, without touching the network. This backs the
// list_downloaded_series_tool.
func (s *Store) ListDownloaded(id fredseries.SeriesID) ([]StoredSeriesFile, error) {
	dir := s.seriesDir(id)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.Internal, err, "reading series directory for %s", id)
	}

	byBase := map[string]*StoredSeriesFile{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		base := name[:len(name)-len(ext)]
		entry, ok := byBase[base]
		if !ok {
			start, end, downloadedAt := parseWindow(base, string(id))
			entry = &StoredSeriesFile{Basename: base, Start: start, End: end, DownloadedAt: downloadedAt}
			byBase[base] = entry
		}
		full := filepath.Join(dir, name)
		switch ext {
		case ".csv":
			entry.CSVPath = full
		case ".xlsx":
			entry.XLSXPath = full
		}
	}

	out := make([]StoredSeriesFile, 0, len(byBase))
	for _, v := range byBase {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DownloadedAt.After(out[j].DownloadedAt) })
	return out, nil
}

// parseWindow extracts the start/end dates and the download stamp embedded
// in a basename of the form "<id>_<start>_to_<end>_downloaded_<stamp>".
func parseWindow(base, id string) (start, end, downloadedAt time.Time) {
	rest := strings.TrimPrefix(base, id+"_")
	parts := strings.SplitN(rest, "_to_", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, time.Time{}
	}
	startStr := parts[0]
	tail := strings.SplitN(parts[1], "_downloaded_", 2)
	endStr := tail[0]
	start, _ = time.Parse(fredseries.DateLayout, startStr)
	end, _ = time.Parse(fredseries.DateLayout, endStr)
	if len(tail) == 2 {
		downloadedAt, _ = time.Parse("20060102", tail[1])
	}
	return start, end, downloadedAt
}
