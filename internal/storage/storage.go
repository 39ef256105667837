// Package storage provides SQLite-backed persistence for analysis cycles,
// the watchlist, dispatched alerts, and discovered tickers.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alphaseeker/alphaseeker/internal/models"
	_ "modernc.org/sqlite"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db        *sql.DB
	maxCycles int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/alphaseeker/data.db.
func New(dbPath string, maxCycles int) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "alphaseeker", "data.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if maxCycles <= 0 {
		maxCycles = 100
	}
	s := &Storage{db: db, maxCycles: maxCycles}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id              TEXT PRIMARY KEY,
			kind            TEXT NOT NULL,
			tickers         TEXT NOT NULL DEFAULT '[]',
			advisor_summary TEXT,
			maintained      TEXT NOT NULL DEFAULT '[]',
			removed         TEXT NOT NULL DEFAULT '[]',
			run_at          INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS watchlist (
			symbol     TEXT PRIMARY KEY,
			added_at   INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alerts_log (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol      TEXT NOT NULL,
			alert_type  TEXT NOT NULL,
			severity    TEXT NOT NULL,
			side        TEXT,
			value       REAL,
			message     TEXT,
			delivered   INTEGER NOT NULL DEFAULT 0,
			detected_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS discovered_tickers (
			symbol     TEXT PRIMARY KEY,
			source     TEXT,
			first_seen INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_kind_run_at ON cycles(kind, run_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_log_detected_at ON alerts_log(detected_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveCycle persists one analysis cycle and rotates old cycles beyond the cap.
func (s *Storage) SaveCycle(cycle *models.CycleSnapshot) error {
	tickersJSON, err := json.Marshal(cycle.Tickers)
	if err != nil {
		return fmt.Errorf("failed to marshal ticker snapshots: %w", err)
	}
	maintainedJSON, err := json.Marshal(cycle.Maintained)
	if err != nil {
		return fmt.Errorf("failed to marshal maintained list: %w", err)
	}
	removedJSON, err := json.Marshal(cycle.Removed)
	if err != nil {
		return fmt.Errorf("failed to marshal removed list: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO cycles (id, kind, tickers, advisor_summary, maintained, removed, run_at)
		VALUES (?,?,?,?,?,?,?)`,
		cycle.ID, string(cycle.Kind), string(tickersJSON), cycle.AdvisorSummary,
		string(maintainedJSON), string(removedJSON), cycle.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cycle: %w", err)
	}

	if _, err = tx.Exec(`
		DELETE FROM cycles WHERE id NOT IN (
			SELECT id FROM cycles ORDER BY run_at DESC LIMIT ?
		)`, s.maxCycles); err != nil {
		return fmt.Errorf("failed to enforce cycle cap: %w", err)
	}

	return tx.Commit()
}

// LoadLatestCycle returns the most recent cycle of the given kind, or nil
// when none has been recorded yet.
func (s *Storage) LoadLatestCycle(kind models.CycleKind) (*models.CycleSnapshot, error) {
	row := s.db.QueryRow(`
		SELECT id, kind, tickers, advisor_summary, maintained, removed, run_at
		FROM cycles WHERE kind = ? ORDER BY run_at DESC LIMIT 1`, string(kind))

	var c models.CycleSnapshot
	var kindStr, tickersJSON, maintainedJSON, removedJSON string
	var runAtNano int64

	err := row.Scan(&c.ID, &kindStr, &tickersJSON, &c.AdvisorSummary,
		&maintainedJSON, &removedJSON, &runAtNano)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cycle: %w", err)
	}

	if err := json.Unmarshal([]byte(tickersJSON), &c.Tickers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticker snapshots: %w", err)
	}
	if err := json.Unmarshal([]byte(maintainedJSON), &c.Maintained); err != nil {
		return nil, fmt.Errorf("failed to unmarshal maintained list: %w", err)
	}
	if err := json.Unmarshal([]byte(removedJSON), &c.Removed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal removed list: %w", err)
	}
	c.Kind = models.CycleKind(kindStr)
	c.Timestamp = time.Unix(0, runAtNano)
	return &c, nil
}

// ReplaceWatchlist swaps the persisted watchlist for the given symbols.
func (s *Storage) ReplaceWatchlist(symbols []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM watchlist`); err != nil {
		return fmt.Errorf("failed to clear watchlist: %w", err)
	}
	now := time.Now().UnixNano()
	for _, symbol := range symbols {
		if _, err := tx.Exec(`INSERT INTO watchlist (symbol, added_at) VALUES (?,?)`,
			symbol, now); err != nil {
			return fmt.Errorf("failed to insert watchlist symbol: %w", err)
		}
	}
	return tx.Commit()
}

// LoadWatchlist returns the persisted watchlist symbols.
func (s *Storage) LoadWatchlist() ([]string, error) {
	rows, err := s.db.Query(`SELECT symbol FROM watchlist ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

// RecordAlert logs one dispatched alert, delivered or not.
func (s *Storage) RecordAlert(alert models.Alert, delivered bool) error {
	_, err := s.db.Exec(`
		INSERT INTO alerts_log
			(symbol, alert_type, severity, side, value, message, delivered, detected_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		alert.Symbol, string(alert.Type), string(alert.Severity), string(alert.Side),
		alert.Value, alert.Message, boolToInt(delivered), alert.DetectedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// RecentAlerts returns up to limit alerts, newest first.
func (s *Storage) RecentAlerts(limit int) ([]models.Alert, error) {
	rows, err := s.db.Query(`
		SELECT symbol, alert_type, severity, side, value, message, detected_at
		FROM alerts_log ORDER BY detected_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		var alertType, severity, side string
		var detectedAtNano int64
		if err := rows.Scan(&a.Symbol, &alertType, &severity, &side,
			&a.Value, &a.Message, &detectedAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Type = models.AlertType(alertType)
		a.Severity = models.Severity(severity)
		a.Side = models.Side(side)
		a.DetectedAt = time.Unix(0, detectedAtNano)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// RememberTicker records a newly validated ticker. Re-discovering a known
// symbol is a no-op.
func (s *Storage) RememberTicker(symbol, source string) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO discovered_tickers (symbol, source, first_seen)
		VALUES (?,?,?)`, symbol, source, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert discovered ticker: %w", err)
	}
	return nil
}

// DiscoveredTickers returns all remembered tickers, newest first.
func (s *Storage) DiscoveredTickers() ([]string, error) {
	rows, err := s.db.Query(`SELECT symbol FROM discovered_tickers ORDER BY first_seen DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query discovered tickers: %w", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan discovered ticker: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
