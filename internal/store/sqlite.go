package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/georisk/georisk/internal/model"
)

// DB provides SQLite-based snapshot storage. Besides the latest baseline
// per source it keeps an append-only history of snapshots, which powers
// the `georisk history` command.
//
// Design decision: We use a single database file for all sources rather
// than one file per source. This simplifies history queries and
// backup/restore, and SQLite's single-writer model gives us the
// at-most-one-writer-per-source semantics the Store contract asks for.
type DB struct {
	db     *sql.DB
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the snapshot database in dbDir.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, "georisk.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, ErrUnavailable)
		} else if err != nil {
			return nil, fmt.Errorf("check database path: %w: %w", err, ErrUnavailable)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("create database directory: %w: %w", err, ErrUnavailable)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w: %w", err, ErrUnavailable)
	}

	// SQLite supports only one writer; a second connection buys nothing
	// for this workload.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &DB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w: %w", err, ErrUnavailable)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w: %w", err, ErrUnavailable)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *DB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *DB) createTables() error {
	schema := `
	-- Baselines hold the latest snapshot per source, replaced on save.
	CREATE TABLE IF NOT EXISTS baselines (
		source_id TEXT PRIMARY KEY,
		captured_at DATETIME NOT NULL,
		snapshot_json TEXT NOT NULL
	);

	-- History keeps every observed snapshot with the verdict of the
	-- detection run that produced it.
	CREATE TABLE IF NOT EXISTS snapshot_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id TEXT NOT NULL,
		captured_at DATETIME NOT NULL,
		verdict TEXT NOT NULL,
		snapshot_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_source ON snapshot_history(source_id);
	CREATE INDEX IF NOT EXISTS idx_history_captured ON snapshot_history(captured_at);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// Load returns the stored baseline for sourceID, or (nil, nil) when the
// source has never been snapshotted.
func (sdb *DB) Load(ctx context.Context, sourceID string) (*model.LayoutSnapshot, error) {
	query := `SELECT snapshot_json FROM baselines WHERE source_id = ?`

	var snapJSON string
	err := sdb.db.QueryRowContext(ctx, query, sourceID).Scan(&snapJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load baseline for %s: %w: %w", sourceID, err, ErrUnavailable)
	}

	var snap model.LayoutSnapshot
	if err := json.Unmarshal([]byte(snapJSON), &snap); err != nil {
		// A record we wrote but can no longer parse means schema drift in
		// the cache itself; treat as absent so the next save repairs it.
		return nil, nil
	}
	return &snap, nil
}

// Save replaces the baseline for the snapshot's source id. The UPSERT is a
// single statement, so readers never observe a partial record.
func (sdb *DB) Save(ctx context.Context, snapshot *model.LayoutSnapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("refusing to store invalid snapshot: %w", err)
	}

	snapJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("serialize snapshot for %s: %w", snapshot.SourceID, err)
	}

	query := `
	INSERT INTO baselines (source_id, captured_at, snapshot_json)
	VALUES (?, ?, ?)
	ON CONFLICT(source_id) DO UPDATE SET
		captured_at = excluded.captured_at,
		snapshot_json = excluded.snapshot_json
	`

	if _, err := sdb.db.ExecContext(ctx, query,
		snapshot.SourceID,
		snapshot.CapturedAt.UTC().Format(time.RFC3339),
		string(snapJSON),
	); err != nil {
		return fmt.Errorf("save baseline for %s: %w: %w", snapshot.SourceID, err, ErrUnavailable)
	}
	return nil
}

// AppendHistory records a snapshot and the verdict of its detection run in
// the append-only history.
func (sdb *DB) AppendHistory(ctx context.Context, snapshot *model.LayoutSnapshot, verdict model.Verdict) error {
	snapJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("serialize snapshot for %s: %w", snapshot.SourceID, err)
	}

	query := `
	INSERT INTO snapshot_history (source_id, captured_at, verdict, snapshot_json)
	VALUES (?, ?, ?, ?)
	`

	if _, err := sdb.db.ExecContext(ctx, query,
		snapshot.SourceID,
		snapshot.CapturedAt.UTC().Format(time.RFC3339),
		string(verdict),
		string(snapJSON),
	); err != nil {
		return fmt.Errorf("append history for %s: %w: %w", snapshot.SourceID, err, ErrUnavailable)
	}
	return nil
}

// HistoryEntry summarizes one recorded snapshot without the full payload.
type HistoryEntry struct {
	// ID is the history record's database id.
	ID int64

	// SourceID names the source the snapshot belongs to.
	SourceID string

	// CapturedAt is when the snapshot was taken.
	CapturedAt time.Time

	// Verdict is the detection verdict recorded with the snapshot.
	Verdict model.Verdict

	// TableCount and PDFLinkCount give the structural headline numbers.
	TableCount   int
	PDFLinkCount int
}

// History returns all recorded snapshots for a source, newest first.
func (sdb *DB) History(ctx context.Context, sourceID string) ([]HistoryEntry, error) {
	query := `
	SELECT id, source_id, captured_at, verdict, snapshot_json
	FROM snapshot_history
	WHERE source_id = ?
	ORDER BY id DESC
	`

	rows, err := sdb.db.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("query history for %s: %w: %w", sourceID, err, ErrUnavailable)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var captured, snapJSON string
		var verdict string

		if err := rows.Scan(&entry.ID, &entry.SourceID, &captured, &verdict, &snapJSON); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entry.CapturedAt = parseTimestamp(captured)
		entry.Verdict = model.Verdict(verdict)

		var snap model.LayoutSnapshot
		if err := json.Unmarshal([]byte(snapJSON), &snap); err == nil {
			entry.TableCount = snap.TableCount
			entry.PDFLinkCount = snap.PDFLinkCount
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// HistorySnapshot returns the full snapshot stored under a history id, or
// (nil, nil) when no such record exists.
func (sdb *DB) HistorySnapshot(ctx context.Context, id int64) (*model.LayoutSnapshot, error) {
	query := `SELECT snapshot_json FROM snapshot_history WHERE id = ?`

	var snapJSON string
	err := sdb.db.QueryRowContext(ctx, query, id).Scan(&snapJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history snapshot %d: %w: %w", id, err, ErrUnavailable)
	}

	var snap model.LayoutSnapshot
	if err := json.Unmarshal([]byte(snapJSON), &snap); err != nil {
		return nil, fmt.Errorf("parse history snapshot %d: %w", id, err)
	}
	return &snap, nil
}

// ListSources returns every source id present in the history, sorted.
func (sdb *DB) ListSources(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT source_id FROM snapshot_history ORDER BY source_id`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w: %w", err, ErrUnavailable)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan source id: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a timestamp string using multiple formats. SQLite
// may return timestamps in different formats depending on configuration.
// Returns zero time if nothing matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
