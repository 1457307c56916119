package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sadopc/tally/internal/tracker"
)

var csvHeader = []string{"ID", "Title", "Total Hours", "Completed Hours", "Completed", "Progress (%)", "State"}

func ToCSV(trackers []*tracker.Tracker, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, t := range trackers {
		row := []string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			tracker.FormatHours(t.TotalHours),
			strconv.FormatFloat(t.CompletedHours(), 'f', 4, 64),
			t.FormattedElapsed(),
			fmt.Sprintf("%.2f", t.Progress()),
			state(t),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func state(t *tracker.Tracker) string {
	if t.Running() {
		return "running"
	}
	return "stopped"
}
