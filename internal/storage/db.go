package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"eurosom/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  source TEXT NOT NULL,
  fetchedAt TEXT NOT NULL,
  headersJson TEXT NOT NULL,
  rowsJson TEXT NOT NULL,
  rowCount INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_source ON snapshots(source, fetchedAt);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  source TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  error TEXT NOT NULL DEFAULT '',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// SaveSnapshot stores the table read from source and drops older snapshots
// of the same source: only the latest read is ever served.
func (d *DB) SaveSnapshot(source string, table internal.Table, fetchedAt time.Time) error {
	headersJSON, err := json.Marshal(table.Headers)
	if err != nil {
		return err
	}
	grid := make([][]any, 0, len(table.Rows))
	for _, row := range table.Rows {
		cells := make([]any, len(table.Headers))
		for i, h := range table.Headers {
			cells[i] = row[h]
		}
		grid = append(grid, cells)
	}
	rowsJSON, err := json.Marshal(grid)
	if err != nil {
		return fmt.Errorf("encode snapshot rows: %w", err)
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM snapshots WHERE source = ?`, source); err != nil {
		return err
	}
	if _, err := tx.Exec(`
INSERT INTO snapshots (source, fetchedAt, headersJson, rowsJson, rowCount)
VALUES (?, ?, ?, ?, ?)
`, source, fetchedAt.UTC().Format(time.RFC3339Nano), string(headersJSON), string(rowsJSON), len(table.Rows)); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) LatestSnapshot(source string) (*internal.Snapshot, error) {
	var fetchedAt, headersJSON, rowsJSON string
	err := d.conn.QueryRow(`
SELECT fetchedAt, headersJson, rowsJson FROM snapshots
WHERE source = ? ORDER BY fetchedAt DESC, id DESC LIMIT 1
`, source).Scan(&fetchedAt, &headersJSON, &rowsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("snapshot timestamp %q: %w", fetchedAt, err)
	}
	var headers []string
	if err := json.Unmarshal([]byte(headersJSON), &headers); err != nil {
		return nil, fmt.Errorf("decode snapshot headers: %w", err)
	}
	var grid [][]any
	if err := json.Unmarshal([]byte(rowsJSON), &grid); err != nil {
		return nil, fmt.Errorf("decode snapshot rows: %w", err)
	}

	table := internal.Table{Headers: headers, Rows: make([]internal.RawRow, 0, len(grid))}
	for _, cells := range grid {
		row := make(internal.RawRow, len(headers))
		for i, h := range headers {
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				row[h] = nil
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return &internal.Snapshot{Source: source, FetchedAt: ts, Table: table}, nil
}

func (d *DB) InvalidateSnapshots(source string) error {
	_, err := d.conn.Exec(`DELETE FROM snapshots WHERE source = ?`, source)
	return err
}

func (d *DB) InsertRun(traceID, source string, timings map[string]float64, counts map[string]int, runErr error) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, source, timingsJson, countsJson, error) VALUES (?, ?, ?, ?, ?)`,
		traceID, source, string(timingsJSON), string(countsJSON), errText)
	return err
}

func (d *DB) ListRuns(limit int) ([]internal.RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(`
SELECT id, traceId, source, timingsJson, countsJson, error, createdAt
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		var row internal.RunRow
		var timingsJSON, countsJSON string
		if err := rows.Scan(&row.ID, &row.TraceID, &row.Source, &timingsJSON, &countsJSON, &row.Error, &row.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(timingsJSON), &row.Timings)
		_ = json.Unmarshal([]byte(countsJSON), &row.Counts)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
