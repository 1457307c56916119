package tracker

import (
	"errors"
	"fmt"
	"time"
)

// StartTimer moves t from Stopped to Running. A running tracker is left
// untouched and ErrAlreadyRunning is returned, so the start of the current
// interval is never lost.
func (e *Engine) StartTimer(t *Tracker) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.start(t)
}

// StopTimer moves t from Running to Stopped, adds the elapsed interval and
// saves the tracker. It is a no-op on a stopped tracker.
//
// When the save fails the in-memory stop is kept: the interval stays counted,
// the tracker is marked dirty and the error is returned. The next Tick (or an
// explicit Flush) saves it again.
func (e *Engine) StopTimer(t *Tracker) error {
	e.mu.Lock()
	err := e.stop(t)
	done := e.checkCompletion(t)
	e.mu.Unlock()

	e.notify(done)
	return err
}

// Refresh folds the running interval into the completed time and persists it
// without leaving the Running state: a stop immediately followed by a start,
// with nothing else interleaved. A stopped tracker is left alone.
func (e *Engine) Refresh(t *Tracker) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refresh(t)
}

// ToggleTimer starts a stopped tracker and stops a running one.
func (e *Engine) ToggleTimer(t *Tracker) error {
	e.mu.Lock()
	running := t.Running()
	e.mu.Unlock()

	if running {
		return e.StopTimer(t)
	}
	return e.StartTimer(t)
}

// Tick is called about once a second. It retries failed saves, refreshes
// every running tracker and stops any tracker that has reached its target,
// signalling completion once per crossing. Elapsed time always comes from the
// clock, so late or missed ticks do not cause drift.
func (e *Engine) Tick() error {
	e.mu.Lock()
	var errs []error
	var done []*Tracker
	for _, t := range e.trackers {
		if t.dirty && !t.Running() {
			if err := e.save(t); err != nil {
				errs = append(errs, err)
			}
		}
		if err := e.refresh(t); err != nil {
			errs = append(errs, err)
		}
		done = append(done, e.checkCompletion(t)...)
	}
	e.mu.Unlock()

	e.notify(done)
	return errors.Join(errs...)
}

// Flush saves every tracker whose last save failed.
func (e *Engine) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs []error
	for _, t := range e.trackers {
		if !t.dirty {
			continue
		}
		if err := e.save(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) start(t *Tracker) error {
	if t.Running() {
		return fmt.Errorf("start tracker %d: %w", t.ID, ErrAlreadyRunning)
	}
	t.startedAt = e.now()
	e.logger.Debug("timer started", "id", t.ID)
	return nil
}

func (e *Engine) stop(t *Tracker) error {
	if !t.Running() {
		return nil
	}
	elapsed := e.now().Sub(t.startedAt)
	if elapsed < 0 {
		// wall clock stepped backwards
		e.logger.Warn("negative interval ignored", "id", t.ID, "elapsed", elapsed)
		elapsed = 0
	}
	t.completed = addDuration(t.completed, elapsed)
	t.startedAt = time.Time{}
	e.logger.Debug("timer stopped", "id", t.ID, "elapsed", elapsed, "completed_hours", t.CompletedHours())
	return e.save(t)
}

func (e *Engine) refresh(t *Tracker) error {
	if !t.Running() {
		return nil
	}
	err := e.stop(t)
	// Restart even if the save failed so the timer keeps running; the tracker
	// is dirty and will be saved again.
	e.start(t)
	return err
}

func (e *Engine) save(t *Tracker) error {
	if err := e.repo.UpdateTracker(t.record()); err != nil {
		t.dirty = true
		e.logger.Error("save tracker", "id", t.ID, "error", err)
		return fmt.Errorf("save tracker %d: %w", t.ID, err)
	}
	t.dirty = false
	return nil
}

// checkCompletion stops t once it reaches 100 % and reports it for
// notification if this is a new crossing. Dropping below 100 % re-arms it.
func (e *Engine) checkCompletion(t *Tracker) []*Tracker {
	if t.Progress() < 100 {
		t.notified = false
		return nil
	}
	if t.Running() {
		// stop saves; a failure leaves t dirty for the next tick
		e.stop(t)
	}
	if t.notified {
		return nil
	}
	t.notified = true
	e.logger.Info("tracker completed", "id", t.ID, "title", t.Title, "completed_hours", t.CompletedHours())
	return []*Tracker{t}
}

func (e *Engine) notify(done []*Tracker) {
	if len(done) == 0 {
		return
	}
	e.mu.Lock()
	fn := e.onComplete
	e.mu.Unlock()
	if fn == nil {
		return
	}
	for _, t := range done {
		fn(t)
	}
}
