package export

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/sadopc/tally/internal/tracker"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Trackers   []jsonTracker `json:"trackers"`
}

type jsonTracker struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	TotalHours     float64 `json:"total_hours"`
	CompletedHours float64 `json:"completed_hours"`
	Completed      string  `json:"completed"`
	Progress       float64 `json:"progress"`
	State          string  `json:"state"`
	StartedAt      string  `json:"started_at,omitempty"`
}

func ToJSON(trackers []*tracker.Tracker, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(trackers),
	}

	for _, t := range trackers {
		jt := jsonTracker{
			ID:             t.ID,
			Title:          t.Title,
			TotalHours:     t.TotalHours,
			CompletedHours: t.CompletedHours(),
			Completed:      t.FormattedElapsed(),
			Progress:       math.Round(t.Progress()*100) / 100,
			State:          state(t),
		}
		if at, ok := t.StartedAt(); ok {
			jt.StartedAt = at.Local().Format(time.RFC3339)
		}
		export.Trackers = append(export.Trackers, jt)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
