package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSidecarFixture(t *testing.T, root, basename string, createdAt time.Time) {
	t.Helper()
	writeSidecarFixtureWithColumns(t, root, basename, createdAt, nil, nil)
}

func writeSidecarFixtureWithColumns(t *testing.T, root, basename string, createdAt time.Time, columns []string, transformations map[string]string) {
	t.Helper()
	dir := filepath.Join(root, "datasets", basename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	e := Entry{Basename: basename, RowCount: 3, CreatedAt: createdAt, Columns: columns, Transformations: transformations}
	raw, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), raw, 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
}

func TestListRecentOrdersNewestFirst(t *testing.T) {
	root := t.TempDir()
	writeSidecarFixture(t, root, "FRED_dataset_A", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	writeSidecarFixture(t, root, "FRED_dataset_B", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	c := New(root, 10)
	entries, err := c.ListRecent(0)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Basename != "FRED_dataset_B" {
		t.Fatalf("expected newest dataset first, got %s", entries[0].Basename)
	}
}

func TestListRecentRespectsLimit(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		writeSidecarFixture(t, root, "FRED_dataset_"+string(rune('A'+i)), time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC))
	}
	c := New(root, 10)
	entries, err := c.ListRecent(2)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(entries))
	}
}

func TestListRecentSkipsDirectoriesWithoutSidecar(t *testing.T) {
	root := t.TempDir()
	incomplete := filepath.Join(root, "datasets", "FRED_dataset_incomplete")
	if err := os.MkdirAll(incomplete, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeSidecarFixture(t, root, "FRED_dataset_complete", time.Now())

	c := New(root, 10)
	entries, err := c.ListRecent(0)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Basename != "FRED_dataset_complete" {
		t.Fatalf("expected only the completed dataset, got %+v", entries)
	}
}

func TestListRecentMissingDatasetsDirIsEmpty(t *testing.T) {
	c := New(t.TempDir(), 10)
	entries, err := c.ListRecent(0)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestResolveReturnsDirForCompletedDataset(t *testing.T) {
	root := t.TempDir()
	writeSidecarFixture(t, root, "FRED_dataset_A", time.Now())

	c := New(root, 10)
	dir, err := c.Resolve("FRED_dataset_A")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := filepath.Join(root, "datasets", "FRED_dataset_A")
	if dir != want {
		t.Fatalf("got %s, want %s", dir, want)
	}
}

func TestResolveMissingDatasetIsNotFound(t *testing.T) {
	c := New(t.TempDir(), 10)
	if _, err := c.Resolve("NOPE"); err == nil {
		t.Fatalf("expected not_found error")
	}
}

func TestListRecentIncludesTransformationsAndAbsoluteCSVPath(t *testing.T) {
	root := t.TempDir()
	writeSidecarFixtureWithColumns(t, root, "FRED_dataset_UNRATE_CPIAUCSL", time.Now(),
		[]string{"UNRATE", "CPIAUCSL_YoY"}, map[string]string{"CPIAUCSL": "YoY"})

	c := New(root, 10)
	entries, err := c.ListRecent(0)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Transformations["CPIAUCSL"] != "YoY" {
		t.Fatalf("expected transformations map to survive the sidecar round trip, got %+v", e.Transformations)
	}
	want := filepath.Join(root, "datasets", "FRED_dataset_UNRATE_CPIAUCSL", "data.csv")
	if e.CSVPath != want {
		t.Fatalf("expected absolute csv path %s, got %s", want, e.CSVPath)
	}
	if !filepath.IsAbs(e.CSVPath) {
		t.Fatalf("expected csv path to be absolute, got %s", e.CSVPath)
	}
}

func TestListRecentRespectsLimitOverFullScan(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 15; i++ {
		writeSidecarFixture(t, root, "FRED_dataset_"+string(rune('A'+i)), time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC))
	}
	c := New(root, 10)
	entries, err := c.ListRecent(0)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("expected default limit of 10 applied after a full scan, got %d", len(entries))
	}
}

func TestResolveColumnsFindsNewestDatasetContainingBothColumns(t *testing.T) {
	root := t.TempDir()
	writeSidecarFixtureWithColumns(t, root, "FRED_dataset_old", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		[]string{"UNRATE", "CPIAUCSL_YoY"}, nil)
	writeSidecarFixtureWithColumns(t, root, "FRED_dataset_new", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		[]string{"UNRATE", "CPIAUCSL_YoY"}, nil)

	c := New(root, 10)
	dir, err := c.ResolveColumns("UNRATE", "CPIAUCSL_YoY")
	if err != nil {
		t.Fatalf("resolve columns: %v", err)
	}
	want := filepath.Join(root, "datasets", "FRED_dataset_new")
	if dir != want {
		t.Fatalf("expected newest matching dataset %s, got %s", want, dir)
	}
}

func TestResolveColumnsUnknownColumnError(t *testing.T) {
	root := t.TempDir()
	writeSidecarFixtureWithColumns(t, root, "FRED_dataset_A", time.Now(), []string{"UNRATE"}, nil)

	c := New(root, 10)
	if _, err := c.ResolveColumns("UNRATE", "CPIAUCSL_XYZ"); err == nil {
		t.Fatalf("expected unknown_column error")
	}
}
