// Package tracker holds the in-memory tracker handles and the engine that
// drives their Running/Stopped state machine.
package tracker

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/sadopc/tally/internal/store"
)

// Tracker is an in-memory handle on one tracker. Handles are owned by an
// Engine; read them freely but change state only through Engine methods.
type Tracker struct {
	ID         int64
	Title      string
	TotalHours float64

	completed time.Duration
	startedAt time.Time // zero while stopped

	notified bool // completion already signalled for the current crossing
	dirty    bool // last save failed; Engine.Flush retries it
}

func fromRecord(r store.Tracker) *Tracker {
	t := &Tracker{
		ID:         r.ID,
		Title:      r.Title,
		TotalHours: r.TotalHours,
		completed:  hoursToDuration(r.CompletedHours),
	}
	t.notified = t.Progress() >= 100
	return t
}

func (t *Tracker) record() store.Tracker {
	return store.Tracker{
		ID:             t.ID,
		Title:          t.Title,
		TotalHours:     t.TotalHours,
		CompletedHours: t.CompletedHours(),
	}
}

// hoursToDuration converts stored hours to a Duration, saturating at the
// largest Duration instead of wrapping.
func hoursToDuration(h float64) time.Duration {
	if h <= 0 || math.IsNaN(h) {
		return 0
	}
	ns := math.Round(h * float64(time.Hour))
	if ns >= float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// addDuration is a + b for non-negative b, saturating at the largest Duration.
func addDuration(a, b time.Duration) time.Duration {
	if a > time.Duration(math.MaxInt64)-b {
		return time.Duration(math.MaxInt64)
	}
	return a + b
}

func (t *Tracker) Running() bool { return !t.startedAt.IsZero() }

// StartedAt reports when the current interval began. ok is false while stopped.
func (t *Tracker) StartedAt() (at time.Time, ok bool) {
	return t.startedAt, t.Running()
}

// Completed is the accumulated time, excluding any interval still running.
func (t *Tracker) Completed() time.Duration { return t.completed }

func (t *Tracker) CompletedHours() float64 { return t.completed.Hours() }

// Dirty reports whether the last save of this tracker failed.
func (t *Tracker) Dirty() bool { return t.dirty }

// Progress is completed/total in percent. It is not clamped and may exceed 100.
func (t *Tracker) Progress() float64 {
	if t.TotalHours <= 0 {
		return 0
	}
	return t.CompletedHours() / t.TotalHours * 100
}

// ClampedProgress is Progress limited to [0, 100], for drawing bars.
func (t *Tracker) ClampedProgress() float64 {
	return math.Min(math.Max(t.Progress(), 0), 100)
}

// Remaining is the time left to reach the target, or zero once reached.
func (t *Tracker) Remaining() time.Duration {
	left := hoursToDuration(t.TotalHours) - t.completed
	if left < 0 {
		return 0
	}
	return left
}

func (t *Tracker) FormattedElapsed() string {
	return FormatElapsed(t.completed)
}

// FormatElapsed renders d as HH:MM:SS, truncated to whole seconds. Hours are
// never wrapped, so 100 hours renders as "100:00:00".
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Label is the one-line progress summary shown next to a tracker, e.g.
// "10.00% | 01:00:00/10 hours".
func (t *Tracker) Label() string {
	return fmt.Sprintf("%.2f%% | %s/%s hours", t.Progress(), t.FormattedElapsed(), FormatHours(t.TotalHours))
}

// FormatHours prints a target without trailing zeros: 10, 2.5, 0.25.
func FormatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
