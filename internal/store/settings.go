package store

import (
	"context"
	"database/sql"
	"fmt"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.withConn("get setting", func(ctx context.Context, conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
		if err != nil {
			return fmt.Errorf("get setting %q: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	return s.withConn("set setting", func(ctx context.Context, conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value,
		)
		return err
	})
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	var settings []Setting
	err := s.withConn("list settings", func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
		if err != nil {
			return fmt.Errorf("list settings: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var st Setting
			if err := rows.Scan(&st.Key, &st.Value); err != nil {
				return err
			}
			settings = append(settings, st)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}
