// Package catalog implements the Dataset Catalog resource: it scans the
// dataset root for completed builds (ones with a metadata.json sidecar)
// and exposes them newest-first, per spec.md §4.9 / fred://datasets/recent.
package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
)

// Entry is one catalogued dataset, read back from its metadata.json
// sidecar. The sidecar's presence is the commit marker: a dataset
// directory without one is mid-build or abandoned and is skipped.
//
// Per spec.md §4.6 the catalog must emit, for each entry: name, creation
// timestamp, observation window, columns, transformations map, and the
// absolute CSV path — so every one of those is a plain exported field.
type Entry struct {
	Basename         string            `json:"basename"`
	SeriesList       []string          `json:"series_list"`
	MergeStrategy    string            `json:"merge_strategy"`
	Transformations  map[string]string `json:"transformations,omitempty"`
	Columns          []string          `json:"columns"`
	RowCount         int               `json:"row_count"`
	ObservationStart string            `json:"observation_start"`
	ObservationEnd   string            `json:"observation_end"`
	CreatedAt        time.Time         `json:"created_at"`
	FailedSeries     []string          `json:"failed_series,omitempty"`
	CSVPath          string            `json:"csv_path"`
	Dir              string            `json:"-"`
}

// Catalog scans <root>/datasets for completed builds.
type Catalog struct {
	Root         string
	DefaultLimit int
}

// New wires a Catalog rooted at root, defaulting list_recent_datasets_tool
// to defaultLimit entries when the caller doesn't specify one.
func New(root string, defaultLimit int) *Catalog {
	if defaultLimit < 1 {
		defaultLimit = 10
	}
	return &Catalog{Root: root, DefaultLimit: defaultLimit}
}

func (c *Catalog) datasetsDir() string {
	return filepath.Join(c.Root, "datasets")
}

// ListRecent returns up to limit entries, newest (by CreatedAt) first. A
// limit <= 0 uses c.DefaultLimit. Directories missing or unreadable
// sidecars are skipped rather than failing the whole scan.
func (c *Catalog) ListRecent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = c.DefaultLimit
	}

	all, err := c.listAll()
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// listAll scans every completed dataset directory, newest (by CreatedAt)
// first, with no limit applied. ResolveColumns needs the full set, not
// just the default-sized page ListRecent hands back to resources/read.
func (c *Catalog) listAll() ([]Entry, error) {
	dir := c.datasetsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.Internal, err, "reading datasets directory")
	}

	var all []Entry
	for _, de := range entries {
		if !de.IsDir() {
			continue
		}
		entry, ok := readSidecar(filepath.Join(dir, de.Name()))
		if !ok {
			continue
		}
		all = append(all, entry)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, nil
}

// Resolve implements plotsvc.DatasetResolver: it finds the dataset
// directory for basename, requiring a readable sidecar to confirm the
// build completed.
func (c *Catalog) Resolve(basename string) (string, error) {
	dir := filepath.Join(c.datasetsDir(), basename)
	if _, ok := readSidecar(dir); !ok {
		return "", apperr.New(apperr.NotFound, "no completed dataset named %q", basename)
	}
	return dir, nil
}

// ResolveColumns implements the other half of plotsvc.DatasetResolver: when
// plot_from_dataset_tool is called with no dataset_path, it finds the
// newest completed dataset whose columns include both left and right, per
// spec.md §4.5 / §8 scenario 2.
func (c *Catalog) ResolveColumns(left, right string) (string, error) {
	all, err := c.listAll()
	if err != nil {
		return "", err
	}
	for _, e := range all {
		if hasColumn(e.Columns, left) && hasColumn(e.Columns, right) {
			return e.Dir, nil
		}
	}
	return "", apperr.New(apperr.UnknownColumn, "no dataset found with both columns %q and %q", left, right)
}

func hasColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

func readSidecar(dir string) (Entry, bool) {
	raw, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false
	}
	e.Dir = dir
	if abs, err := filepath.Abs(filepath.Join(dir, "data.csv")); err == nil {
		e.CSVPath = abs
	} else {
		e.CSVPath = filepath.Join(dir, "data.csv")
	}
	return e, true
}
