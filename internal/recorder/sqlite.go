package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists render pass history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets external readers query while the server writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS render_passes (
			pass_id     TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			duration_ms INTEGER,
			period      TEXT,
			ma_window   INTEGER,
			companies   TEXT,
			ok_count    INTEGER,
			fail_count  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_passes_ts ON render_passes(timestamp)`,

		`CREATE TABLE IF NOT EXISTS ticker_outcomes (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			pass_id  TEXT NOT NULL REFERENCES render_passes(pass_id),
			company  TEXT,
			symbol   TEXT,
			ok       INTEGER,
			error    TEXT,
			bars     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_pass ON ticker_outcomes(pass_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordPass stores the pass header and its per-ticker outcomes atomically.
func (r *SQLiteRecorder) RecordPass(rec *PassRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	failed := rec.Failed()
	if _, err := tx.Exec(`INSERT INTO render_passes
		(pass_id, timestamp, duration_ms, period, ma_window, companies, ok_count, fail_count)
		VALUES (?,?,?,?,?,?,?,?)`,
		rec.PassID, rec.StartedAt.Unix(), rec.Duration.Milliseconds(),
		rec.Period, rec.Window, strings.Join(rec.Companies, ","),
		len(rec.Outcomes)-failed, failed,
	); err != nil {
		return fmt.Errorf("insert pass: %w", err)
	}

	for _, o := range rec.Outcomes {
		if _, err := tx.Exec(`INSERT INTO ticker_outcomes
			(pass_id, company, symbol, ok, error, bars)
			VALUES (?,?,?,?,?,?)`,
			rec.PassID, o.Company, o.Symbol, o.OK, o.Error, o.Bars,
		); err != nil {
			return fmt.Errorf("insert outcome %s: %w", o.Company, err)
		}
	}
	return tx.Commit()
}

// PassCount returns the number of stored render passes.
func (r *SQLiteRecorder) PassCount() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM render_passes`).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
