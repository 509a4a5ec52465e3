package dataset

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
	"github.com/fredseries/fred-mcp-server/internal/fredseries"
)

// Builder assembles multi-series datasets under build_fred_dataset_tool,
// serializing writes to the same basename and emitting the sidecar
// metadata file last so a reader never observes a half-written dataset.
type Builder struct {
	Root       string
	Gateway    Gateway
	MaxWorkers int
	locks      *keyedMutex
}

// NewBuilder wires a Builder rooted at root, fetching through gw, with
// per-series fetches bounded at maxWorkers concurrent calls.
func NewBuilder(root string, gw Gateway, maxWorkers int) *Builder {
	return &Builder{Root: root, Gateway: gw, MaxWorkers: maxWorkers, locks: newKeyedMutex()}
}

// Result summarizes a completed (possibly partial) build.
type Result struct {
	Basename     string
	CSVPath      string
	XLSXPath     string
	MetadataPath string
	Columns      []string
	RowCount     int
	Start        time.Time
	End          time.Time
	Failures     []SeriesError
}

func (b *Builder) datasetDir(basename string) string {
	return filepath.Join(b.Root, "datasets", basename)
}

// Build runs the full fetch -> merge -> transform -> trim -> persist
// pipeline for one build_fred_dataset_tool call.
func (b *Builder) Build(ctx context.Context, req Request, now time.Time) (Result, error) {
	if req.MergeStrategy == "" {
		req.MergeStrategy = MergeInner
	}
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}

	basename := BasenameFor(req.SeriesList)
	unlock := b.locks.Lock(basename)
	defer unlock()

	series, failures, err := fetchAll(ctx, b.Gateway, req, b.MaxWorkers)
	if err != nil {
		return Result{Failures: failures}, err
	}
	if err := ctxErr(ctx, basename); err != nil {
		return Result{Failures: failures}, err
	}

	merged := merge(series, req.MergeStrategy)
	transformed, err := applyTransforms(merged, series, req.Transformations)
	if err != nil {
		return Result{Failures: failures}, err
	}
	trimmed, start, end := trimAllNullEdges(transformed)
	if len(trimmed.Dates) == 0 {
		return Result{Failures: failures}, apperr.New(apperr.EmptyIntersection, "merge strategy %q produced no overlapping observations across %v", req.MergeStrategy, req.SeriesList)
	}

	dir := b.datasetDir(basename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, apperr.Wrap(apperr.Internal, err, "creating dataset directory for %s", basename)
	}

	csvPath := filepath.Join(dir, "data.csv")
	xlsxPath := filepath.Join(dir, "data.xlsx")
	metaPath := filepath.Join(dir, "metadata.json")

	// committed flips true only once the sidecar is written; until then any
	// return path removes the CSV/XLSX so a reader never sees a partial
	// dataset directory, per spec.md §5.
	committed := false
	defer func() {
		if !committed {
			os.Remove(csvPath)
			os.Remove(xlsxPath)
		}
	}()

	if err := writeTableCSV(csvPath, trimmed); err != nil {
		return Result{}, err
	}
	if err := ctxErr(ctx, basename); err != nil {
		return Result{Failures: failures}, err
	}
	if err := writeTableXLSX(xlsxPath, trimmed); err != nil {
		return Result{}, err
	}
	if err := ctxErr(ctx, basename); err != nil {
		return Result{Failures: failures}, err
	}

	columns := make([]string, len(trimmed.Columns))
	for i, c := range trimmed.Columns {
		columns[i] = c.Name
	}

	meta := sidecar{
		Basename:         basename,
		SeriesList:       req.SeriesList,
		MergeStrategy:    req.MergeStrategy,
		Transformations:  req.Transformations,
		Columns:          columns,
		RowCount:         len(trimmed.Dates),
		ObservationStart: start.Format(fredseries.DateLayout),
		ObservationEnd:   end.Format(fredseries.DateLayout),
		CreatedAt:        now,
		FailedSeries:     failedIDs(failures),
	}
	if err := writeSidecar(metaPath, meta); err != nil {
		return Result{}, err
	}
	committed = true

	return Result{
		Basename:     basename,
		CSVPath:      csvPath,
		XLSXPath:     xlsxPath,
		MetadataPath: metaPath,
		Columns:      columns,
		RowCount:     len(trimmed.Dates),
		Start:        start,
		End:          end,
		Failures:     failures,
	}, nil
}

// ctxErr turns a cancelled or deadline-exceeded context into an apperr so a
// build aborting mid-pipeline reports cancellation rather than completing
// unobserved.
func ctxErr(ctx context.Context, basename string) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.Cancelled, err, "build cancelled for %s", basename)
	}
	return nil
}

func failedIDs(failures []SeriesError) []string {
	out := make([]string, len(failures))
	for i, failure := range failures {
		out[i] = string(failure.SeriesID)
	}
	return out
}

// sidecar is the commit marker for a dataset directory: its presence (and
// contents) is what internal/catalog reads to list a dataset as complete.
type sidecar struct {
	Basename         string                                        `json:"basename"`
	SeriesList       []fredseries.SeriesID                         `json:"series_list"`
	MergeStrategy    MergeStrategy                                 `json:"merge_strategy"`
	Transformations  map[fredseries.SeriesID]fredseries.Transform  `json:"transformations,omitempty"`
	Columns          []string                                      `json:"columns"`
	RowCount         int                                           `json:"row_count"`
	ObservationStart string                                        `json:"observation_start"`
	ObservationEnd   string                                        `json:"observation_end"`
	CreatedAt        time.Time                                     `json:"created_at"`
	FailedSeries     []string                                      `json:"failed_series,omitempty"`
}

func writeSidecar(path string, meta sidecar) error {
	f, err := os.Create(path)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "creating %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return apperr.Wrap(apperr.Internal, err, "encoding dataset metadata")
	}
	return nil
}

func writeTableCSV(path string, t Table) error {
	f, err := os.Create(path)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "creating %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"date"}, columnNames(t)...)
	if err := w.Write(header); err != nil {
		return apperr.Wrap(apperr.Internal, err, "writing dataset csv header")
	}
	for i, d := range t.Dates {
		row := make([]string, 0, len(t.Columns)+1)
		row = append(row, d.Format(fredseries.DateLayout))
		for _, c := range t.Columns {
			row = append(row, formatCell(c.Values[i]))
		}
		if err := w.Write(row); err != nil {
			return apperr.Wrap(apperr.Internal, err, "writing dataset csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return apperr.Wrap(apperr.Internal, err, "flushing dataset csv")
	}
	return nil
}

func writeTableXLSX(path string, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	_ = f.SetCellValue(sheet, "A1", "date")
	for i, c := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		_ = f.SetCellValue(sheet, cell, c.Name)
	}
	for row, d := range t.Dates {
		excelRow := row + 2
		dateCell, _ := excelize.CoordinatesToCellName(1, excelRow)
		_ = f.SetCellValue(sheet, dateCell, d.Format(fredseries.DateLayout))
		for col, c := range t.Columns {
			if c.Values[row] == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+2, excelRow)
			_ = f.SetCellValue(sheet, cell, *c.Values[row])
		}
	}
	if err := f.SaveAs(path); err != nil {
		return apperr.Wrap(apperr.Internal, err, "saving %s", path)
	}
	return nil
}

func columnNames(t Table) []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

func formatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
