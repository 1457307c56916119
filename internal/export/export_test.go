package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/tally/internal/store"
	"github.com/sadopc/tally/internal/tracker"
)

// sampleTrackers loads three trackers through an engine; the last one is
// left running.
func sampleTrackers(t *testing.T) []*tracker.Tracker {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	for _, r := range []store.Tracker{
		{Title: "Write Paper", TotalHours: 10, CompletedHours: 1},
		{Title: "Learn Go", TotalHours: 2.5, CompletedHours: 2.5},
		{Title: "Practice", TotalHours: 3, CompletedHours: 0.5},
	} {
		if _, err := s.InsertTracker(r); err != nil {
			t.Fatal(err)
		}
	}

	e := tracker.NewEngine(s)
	if err := e.Load(); err != nil {
		t.Fatal(err)
	}
	trackers := e.Trackers()
	if err := e.StartTimer(trackers[2]); err != nil {
		t.Fatal(err)
	}
	return trackers
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

func readJSON(t *testing.T, path string) jsonExport {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return result
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")
	if err := ToCSV(sampleTrackers(t), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}

	for i, h := range csvHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	want := []string{"1", "Write Paper", "10", "1.0000", "01:00:00", "10.00", "stopped"}
	for i, v := range want {
		if records[1][i] != v {
			t.Fatalf("row 1 col %d = %q, want %q", i, records[1][i], v)
		}
	}

	if records[2][5] != "100.00" {
		t.Fatalf("complete tracker progress = %q, want 100.00", records[2][5])
	}
	if records[2][2] != "2.5" {
		t.Fatalf("total hours = %q, want 2.5", records[2][2])
	}
	if records[3][6] != "running" {
		t.Fatalf("state = %q, want running", records[3][6])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	e := tracker.NewEngine(s)
	title := `Paper "Draft", v2`
	if _, err := e.CreateTracker(title, 1); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "special.csv")
	if err := ToCSV(e.Trackers(), path); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, path)
	if records[1][1] != title {
		t.Fatalf("title mangled: %q", records[1][1])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	if err := ToJSON(sampleTrackers(t), path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	result := readJSON(t, path)
	if result.Count != 3 || len(result.Trackers) != 3 {
		t.Fatalf("count = %d, trackers = %d, want 3", result.Count, len(result.Trackers))
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}

	first := result.Trackers[0]
	if first.ID != 1 || first.Title != "Write Paper" {
		t.Fatalf("first = %+v", first)
	}
	if first.TotalHours != 10 || first.CompletedHours != 1 {
		t.Fatalf("hours = %v/%v, want 1/10", first.CompletedHours, first.TotalHours)
	}
	if first.Completed != "01:00:00" {
		t.Fatalf("completed = %q, want 01:00:00", first.Completed)
	}
	if first.Progress != 10 {
		t.Fatalf("progress = %v, want 10", first.Progress)
	}
	if first.State != "stopped" || first.StartedAt != "" {
		t.Fatalf("stopped tracker: state=%q started_at=%q", first.State, first.StartedAt)
	}

	running := result.Trackers[2]
	if running.State != "running" {
		t.Fatalf("state = %q, want running", running.State)
	}
	if _, err := time.Parse(time.RFC3339, running.StartedAt); err != nil {
		t.Fatalf("started_at is not valid RFC3339: %q", running.StartedAt)
	}
	if running.Progress != 16.67 {
		t.Fatalf("progress = %v, want 16.67", running.Progress)
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := ToJSON(nil, path); err != nil {
		t.Fatal(err)
	}

	result := readJSON(t, path)
	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
	if result.Trackers != nil {
		t.Fatal("trackers should be nil/null for empty export")
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToJSONPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	if err := ToJSON(nil, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n  ") {
		t.Fatal("JSON should be indented")
	}
}
