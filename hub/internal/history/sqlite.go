package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/doniyusdinar/scanfleet/pkg/models"
)

// SQLiteStore keeps scan and log history in a SQLite database file
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate creates the database schema
func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		status TEXT NOT NULL,
		threats_found INTEGER NOT NULL DEFAULT 0,
		timestamp INTEGER NOT NULL,
		details TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_scans_timestamp ON scans (timestamp);

	CREATE TABLE IF NOT EXISTS logs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON logs (timestamp);
	`

	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) AppendScan(ctx context.Context, rec models.ScanRecord) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO scans (id, agent_id, status, threats_found, timestamp, details)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.AgentID, rec.Status, rec.ThreatsFound, rec.Timestamp, rec.Details)
	if err != nil {
		return fmt.Errorf("failed to insert scan %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) AppendLog(ctx context.Context, rec models.LogRecord) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO logs (id, level, message, timestamp)
		VALUES (?, ?, ?, ?)
	`, rec.ID, rec.Level, rec.Message, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert log %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Scans(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, agent_id, status, threats_found, timestamp, details
		FROM scans ORDER BY timestamp DESC, seq DESC LIMIT ?
	`, sqlLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scans := []models.ScanRecord{}
	for rows.Next() {
		var rec models.ScanRecord
		var details sql.NullString
		if err := rows.Scan(&rec.ID, &rec.AgentID, &rec.Status, &rec.ThreatsFound, &rec.Timestamp, &details); err != nil {
			return nil, err
		}
		rec.Details = details.String
		scans = append(scans, rec)
	}

	return scans, rows.Err()
}

func (s *SQLiteStore) Logs(ctx context.Context, limit int) ([]models.LogRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, level, message, timestamp
		FROM logs ORDER BY timestamp DESC, seq DESC LIMIT ?
	`, sqlLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.LogRecord{}
	for rows.Next() {
		var rec models.LogRecord
		if err := rows.Scan(&rec.ID, &rec.Level, &rec.Message, &rec.Timestamp); err != nil {
			return nil, err
		}
		logs = append(logs, rec)
	}

	return logs, rows.Err()
}

// sqlLimit maps "no limit" to SQLite's LIMIT -1
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
