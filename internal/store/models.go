package store

import (
	"errors"
	"fmt"
)

// Tracker is the persisted form of a tracker. ID is zero until the row has
// been inserted.
type Tracker struct {
	ID             int64
	Title          string
	TotalHours     float64
	CompletedHours float64
}

type Setting struct {
	Key   string
	Value string
}

// ErrNotFound is returned (wrapped) when an operation names a tracker id that
// has no row.
var ErrNotFound = errors.New("tracker not found")

// PersistenceError reports a failure of the underlying database.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
