package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InsertTracker persists a tracker that has no id yet and returns the id the
// database assigned.
func (s *Store) InsertTracker(t Tracker) (int64, error) {
	if t.ID != 0 {
		return 0, &PersistenceError{Op: "insert tracker", Err: fmt.Errorf("tracker already has id %d", t.ID)}
	}
	var id int64
	err := s.withConn("insert tracker", func(ctx context.Context, conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			`INSERT INTO trackers (title, total_hours, completed_hours) VALUES (?, ?, ?)`,
			t.Title, t.TotalHours, t.CompletedHours,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) GetTracker(id int64) (*Tracker, error) {
	t := &Tracker{}
	err := s.withConn("get tracker", func(ctx context.Context, conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx,
			`SELECT id, title, total_hours, completed_hours FROM trackers WHERE id = ?`, id,
		).Scan(&t.ID, &t.Title, &t.TotalHours, &t.CompletedHours)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("get tracker %d: %w", id, ErrNotFound)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTrackers returns every tracker in insertion (id) order.
func (s *Store) ListTrackers() ([]Tracker, error) {
	var trackers []Tracker
	err := s.withConn("list trackers", func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT id, title, total_hours, completed_hours FROM trackers ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t Tracker
			if err := rows.Scan(&t.ID, &t.Title, &t.TotalHours, &t.CompletedHours); err != nil {
				return err
			}
			trackers = append(trackers, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return trackers, nil
}

// UpdateTracker overwrites every mutable column of the row with t.ID.
func (s *Store) UpdateTracker(t Tracker) error {
	return s.withConn("update tracker", func(ctx context.Context, conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			`UPDATE trackers SET title = ?, total_hours = ?, completed_hours = ? WHERE id = ?`,
			t.Title, t.TotalHours, t.CompletedHours, t.ID,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("update tracker %d: %w", t.ID, ErrNotFound)
		}
		return nil
	})
}

// DeleteTracker removes the row. Deleting an id that does not exist returns
// ErrNotFound, the same as UpdateTracker.
func (s *Store) DeleteTracker(id int64) error {
	return s.withConn("delete tracker", func(ctx context.Context, conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `DELETE FROM trackers WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("delete tracker %d: %w", id, ErrNotFound)
		}
		return nil
	})
}
