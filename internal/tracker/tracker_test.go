package tracker

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/tally/internal/store"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:00:01"},
		{999 * time.Millisecond, "00:00:00"},
		{90 * time.Minute, "01:30:00"},
		{time.Hour + time.Minute + time.Second, "01:01:01"},
		{100 * time.Hour, "100:00:00"},
		{-time.Second, "00:00:00"},
	}
	for _, tt := range tests {
		got := FormatElapsed(tt.d)
		if got != tt.want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormattedElapsedFromHours(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0, "00:00:00"},
		{1.5, "01:30:00"},
		{0.25, "00:15:00"},
		{123.5, "123:30:00"},
	}
	for _, tt := range tests {
		tr := fromRecord(store.Tracker{ID: 1, Title: "x", TotalHours: 1000, CompletedHours: tt.hours})
		if got := tr.FormattedElapsed(); got != tt.want {
			t.Errorf("completed_hours=%v: FormattedElapsed() = %q, want %q", tt.hours, got, tt.want)
		}
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		total, completed float64
		want, clamped    float64
	}{
		{10, 0, 0, 0},
		{10, 1, 10, 10},
		{1, 1, 100, 100},
		{2, 3, 150, 100},
	}
	for _, tt := range tests {
		tr := fromRecord(store.Tracker{ID: 1, Title: "x", TotalHours: tt.total, CompletedHours: tt.completed})
		if got := tr.Progress(); got != tt.want {
			t.Errorf("Progress(%v/%v) = %v, want %v", tt.completed, tt.total, got, tt.want)
		}
		if got := tr.ClampedProgress(); got != tt.clamped {
			t.Errorf("ClampedProgress(%v/%v) = %v, want %v", tt.completed, tt.total, got, tt.clamped)
		}
	}
}

func TestProgressZeroTotal(t *testing.T) {
	tr := &Tracker{TotalHours: 0, completed: time.Hour}
	if tr.Progress() != 0 {
		t.Fatal("zero target must not divide by zero")
	}
}

func TestRemaining(t *testing.T) {
	tr := fromRecord(store.Tracker{ID: 1, Title: "x", TotalHours: 2, CompletedHours: 0.5})
	if tr.Remaining() != 90*time.Minute {
		t.Fatalf("Remaining() = %v, want 1h30m", tr.Remaining())
	}
	tr = fromRecord(store.Tracker{ID: 1, Title: "x", TotalHours: 2, CompletedHours: 3})
	if tr.Remaining() != 0 {
		t.Fatalf("Remaining() past target = %v, want 0", tr.Remaining())
	}
}

func TestHugeCompletedHoursSaturates(t *testing.T) {
	tr := fromRecord(store.Tracker{ID: 1, Title: "x", TotalHours: 1, CompletedHours: 3e6})
	if tr.Completed() != time.Duration(math.MaxInt64) {
		t.Fatalf("Completed() = %v, want the largest Duration", tr.Completed())
	}
	if tr.CompletedHours() <= 0 {
		t.Fatalf("CompletedHours() = %v, must stay positive", tr.CompletedHours())
	}
	if got := addDuration(tr.Completed(), time.Hour); got != time.Duration(math.MaxInt64) {
		t.Fatalf("addDuration past the limit = %v", got)
	}
}

func TestRemainingLargeTarget(t *testing.T) {
	tr := fromRecord(store.Tracker{ID: 1, Title: "x", TotalHours: 2e6})
	if got := FormatElapsed(tr.Remaining()); !strings.HasPrefix(got, "2000000:") {
		t.Fatalf("Remaining() = %s, want 2000000 hours", got)
	}
}

func TestLabel(t *testing.T) {
	tr := fromRecord(store.Tracker{ID: 1, Title: "Write Paper", TotalHours: 10, CompletedHours: 1})
	want := "10.00% | 01:00:00/10 hours"
	if got := tr.Label(); got != want {
		t.Fatalf("Label() = %q, want %q", got, want)
	}
}

func TestFromRecordCompletedCountsAsNotified(t *testing.T) {
	done := fromRecord(store.Tracker{ID: 1, Title: "x", TotalHours: 1, CompletedHours: 1})
	if !done.notified {
		t.Fatal("tracker loaded at 100% should already count as notified")
	}
	open := fromRecord(store.Tracker{ID: 2, Title: "y", TotalHours: 2, CompletedHours: 1})
	if open.notified {
		t.Fatal("tracker below 100% should not be notified")
	}
	if open.Running() {
		t.Fatal("loaded trackers start stopped")
	}
}

func TestParseHours(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"10", 10, false},
		{" 2.5 ", 2.5, false},
		{"0.25", 0.25, false},
		{"", 0, true},
		{"abc", 0, true},
		{"0", 0, true},
		{"-3", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"1e-320", 0, true},
		{"0.0002", 0, true}, // under one second
		{"0.001", 0.001, false},
		{"2562047", 2562047, false},
		{"2562048", 0, true}, // past the largest Duration
		{"1e7", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseHours(tt.in)
		if tt.wantErr {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("ParseHours(%q): expected *ValidationError, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHours(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHours(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateTitle(t *testing.T) {
	if err := ValidateTitle("Write Paper"); err != nil {
		t.Fatal(err)
	}
	for _, in := range []string{"", "   ", "\t\n"} {
		var ve *ValidationError
		if !errors.As(ValidateTitle(in), &ve) {
			t.Errorf("ValidateTitle(%q) should fail", in)
		} else if ve.Field != "title" {
			t.Errorf("Field = %q, want title", ve.Field)
		}
	}
}
