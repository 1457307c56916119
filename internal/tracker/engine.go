package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sadopc/tally/internal/store"
)

// Repository is the durable side of the engine. *store.Store implements it.
type Repository interface {
	InsertTracker(t store.Tracker) (int64, error)
	UpdateTracker(t store.Tracker) error
	DeleteTracker(id int64) error
	ListTrackers() ([]store.Tracker, error)
}

// Engine owns the tracker handles, runs their timers and writes every state
// change through to the Repository.
//
// Public methods are serialised by a mutex, so Refresh is atomic with respect
// to every other engine call. Completion callbacks run after the lock is
// released and may call back into the engine.
type Engine struct {
	mu       sync.Mutex
	repo     Repository
	now      func() time.Time
	logger   *slog.Logger
	trackers []*Tracker

	onComplete func(*Tracker)
}

type Option func(*Engine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func NewEngine(repo Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:   repo,
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnComplete registers the function called once each time a tracker reaches
// 100 %.
func (e *Engine) OnComplete(fn func(*Tracker)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onComplete = fn
}

// Load replaces the in-memory handles with the trackers in the repository.
// Every loaded tracker starts out stopped.
func (e *Engine) Load() error {
	records, err := e.repo.ListTrackers()
	if err != nil {
		return fmt.Errorf("load trackers: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.trackers = make([]*Tracker, 0, len(records))
	for _, r := range records {
		e.trackers = append(e.trackers, fromRecord(r))
	}
	e.logger.Debug("trackers loaded", "count", len(records))
	return nil
}

// Trackers returns the handles in id order.
func (e *Engine) Trackers() []*Tracker {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Tracker, len(e.trackers))
	copy(out, e.trackers)
	return out
}

// Tracker looks up a handle by id.
func (e *Engine) Tracker(id int64) (*Tracker, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.indexOf(id); i >= 0 {
		return e.trackers[i], nil
	}
	return nil, fmt.Errorf("tracker %d: %w", id, store.ErrNotFound)
}

func (e *Engine) indexOf(id int64) int {
	for i, t := range e.trackers {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) CreateTracker(title string, totalHours float64) (*Tracker, error) {
	title = strings.TrimSpace(title)
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}
	if err := ValidateTotalHours(totalHours); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t := &Tracker{Title: title, TotalHours: totalHours}
	id, err := e.repo.InsertTracker(t.record())
	if err != nil {
		return nil, fmt.Errorf("create tracker: %w", err)
	}
	t.ID = id
	e.trackers = append(e.trackers, t)
	e.logger.Info("tracker created", "id", id, "title", title, "total_hours", totalHours)
	return t, nil
}

// EditTracker changes title and target. Accumulated time and running state
// are left alone.
func (e *Engine) EditTracker(id int64, title string, totalHours float64) error {
	title = strings.TrimSpace(title)
	if err := ValidateTitle(title); err != nil {
		return err
	}
	if err := ValidateTotalHours(totalHours); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(id)
	if i < 0 {
		return fmt.Errorf("edit tracker %d: %w", id, store.ErrNotFound)
	}
	t := e.trackers[i]

	updated := t.record()
	updated.Title = title
	updated.TotalHours = totalHours
	if err := e.repo.UpdateTracker(updated); err != nil {
		return fmt.Errorf("edit tracker %d: %w", id, err)
	}
	t.Title = title
	t.TotalHours = totalHours
	t.dirty = false
	e.logger.Info("tracker edited", "id", id, "title", title, "total_hours", totalHours)
	return nil
}

// DeleteTracker removes the tracker from the repository and then from memory.
// A running interval is discarded.
func (e *Engine) DeleteTracker(id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.repo.DeleteTracker(id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete tracker %d: %w", id, err)
	}
	if i := e.indexOf(id); i >= 0 {
		e.trackers = append(e.trackers[:i], e.trackers[i+1:]...)
	}
	if err != nil {
		return fmt.Errorf("delete tracker %d: %w", id, err)
	}
	e.logger.Info("tracker deleted", "id", id)
	return nil
}
