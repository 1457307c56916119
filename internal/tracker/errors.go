package tracker

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Targets must be at least one second and fit in a time.Duration.
var (
	minTotalHours = time.Second.Hours()
	maxTotalHours = time.Duration(math.MaxInt64).Hours()
)

// ErrAlreadyRunning is returned by StartTimer when the tracker is running.
var ErrAlreadyRunning = errors.New("tracker already running")

// ValidationError rejects user input before it reaches the engine or store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	return nil
}

func ValidateTotalHours(h float64) error {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return &ValidationError{Field: "total_hours", Message: "must be a finite number"}
	}
	if h <= 0 {
		return &ValidationError{Field: "total_hours", Message: "must be greater than zero"}
	}
	if h < minTotalHours {
		return &ValidationError{Field: "total_hours", Message: "must be at least one second"}
	}
	if h > maxTotalHours {
		return &ValidationError{Field: "total_hours", Message: fmt.Sprintf("must be at most %.0f", math.Floor(maxTotalHours))}
	}
	return nil
}

// ParseHours parses a user-typed target such as "10" or "2.5".
func ParseHours(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: "total_hours", Message: "must not be empty"}
	}
	h, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ValidationError{Field: "total_hours", Message: fmt.Sprintf("%q is not a number", s)}
	}
	if err := ValidateTotalHours(h); err != nil {
		return 0, err
	}
	return h, nil
}
