package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = conn.Exec(`
		CREATE TABLE IF NOT EXISTS launches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mode TEXT NOT NULL,
			compose_file TEXT NOT NULL,
			args TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			duration_ms INTEGER NOT NULL,
			exit_code INTEGER NOT NULL,
			error TEXT
		)
	`)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Store{db: conn}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type LaunchRecord struct {
	ID          int64     `json:"id"`
	Mode        string    `json:"mode"`
	ComposeFile string    `json:"compose_file"`
	Args        []string  `json:"args"`
	StartedAt   time.Time `json:"started_at"`
	DurationMs  int64     `json:"duration_ms"`
	ExitCode    int       `json:"exit_code"`
	Error       string    `json:"error,omitempty"`
}

func (s *Store) LogLaunch(rec LaunchRecord) (int64, error) {
	args, err := json.Marshal(rec.Args)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(`
		INSERT INTO launches (mode, compose_file, args, started_at, duration_ms, exit_code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.Mode, rec.ComposeFile, string(args), rec.StartedAt.UTC(), rec.DurationMs, rec.ExitCode, rec.Error)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

// Recent returns up to limit launches, newest first.
func (s *Store) Recent(limit int) ([]LaunchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, mode, compose_file, args, started_at, duration_ms, exit_code, error
		FROM launches ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var launches []LaunchRecord
	for rows.Next() {
		var (
			r      LaunchRecord
			args   string
			errMsg sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Mode, &r.ComposeFile, &args, &r.StartedAt, &r.DurationMs, &r.ExitCode, &errMsg); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(args), &r.Args); err != nil {
			return nil, fmt.Errorf("launch %d args: %w", r.ID, err)
		}
		r.Error = errMsg.String
		launches = append(launches, r)
	}
	return launches, rows.Err()
}
