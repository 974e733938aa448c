package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/toggledoc/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "toggledoc.db"

// SnapshotDB stores assembled records per annotation kind and revision.
type SnapshotDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures SnapshotDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
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
func Open(dbDir string, opts Options) (*SnapshotDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run render with --snapshot first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SnapshotDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Path returns the database file path.
func (sdb *SnapshotDB) Path() string {
	return sdb.dbPath
}

// Close closes the database connection.
func (sdb *SnapshotDB) Close() error {
	return sdb.db.Close()
}

func (sdb *SnapshotDB) createTables() error {
	schema := `
	-- One row per (kind, revision); saving again replaces the snapshot
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		revision TEXT NOT NULL,
		source TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		record_count INTEGER NOT NULL DEFAULT 0,
		diagnostic_count INTEGER NOT NULL DEFAULT 0,
		error_count INTEGER NOT NULL DEFAULT 0,
		UNIQUE(kind, revision)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_kind ON snapshots(kind);
	CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON snapshots(timestamp);

	CREATE TABLE IF NOT EXISTS snapshot_records (
		snapshot_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		file TEXT NOT NULL,
		line INTEGER NOT NULL,
		values_json TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		PRIMARY KEY(snapshot_id, name)
	);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// Snapshot is a saved scan of one annotation kind at one revision.
type Snapshot struct {
	ID              int64
	Kind            string
	Revision        string
	Source          string
	Timestamp       time.Time
	RecordCount     int
	DiagnosticCount int
	ErrorCount      int

	// Records is only loaded by GetSnapshot.
	Records model.Records
}

// SaveSnapshot stores the records of result under (result.Kind, revision),
// replacing any snapshot saved earlier for the same pair.
func (sdb *SnapshotDB) SaveSnapshot(ctx context.Context, revision, source string, result *model.Result) (id int64, err error) {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var oldID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM snapshots WHERE kind = ? AND revision = ?`,
		result.Kind, revision,
	).Scan(&oldID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	case err != nil:
		return 0, fmt.Errorf("failed to look up snapshot: %w", err)
	default:
		if _, err = tx.ExecContext(ctx, `DELETE FROM snapshot_records WHERE snapshot_id = ?`, oldID); err != nil {
			return 0, fmt.Errorf("failed to delete old records: %w", err)
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, oldID); err != nil {
			return 0, fmt.Errorf("failed to delete old snapshot: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `
	INSERT INTO snapshots (kind, revision, source, record_count, diagnostic_count, error_count)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		result.Kind,
		revision,
		source,
		len(result.Records),
		len(result.Diagnostics),
		result.ErrorCount(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, fmt.Errorf("failed to get snapshot id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO snapshot_records (snapshot_id, name, file, line, values_json, fingerprint)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range result.Records.Sorted() {
		valuesJSON, jerr := json.Marshal(rec.Values)
		if jerr != nil {
			err = fmt.Errorf("failed to serialize %s: %w", rec.Name, jerr)
			return 0, err
		}
		if _, err = stmt.ExecContext(ctx,
			id,
			rec.Name,
			rec.Provenance.File,
			rec.Provenance.Line,
			string(valuesJSON),
			fingerprint(valuesJSON),
		); err != nil {
			return 0, fmt.Errorf("failed to insert record %s: %w", rec.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return id, nil
}

// GetSnapshot loads the snapshot of kind at revision with its records.
// It returns nil, nil when no such snapshot exists.
func (sdb *SnapshotDB) GetSnapshot(ctx context.Context, kind, revision string) (*Snapshot, error) {
	query := `
	SELECT id, kind, revision, source, timestamp, record_count, diagnostic_count, error_count
	FROM snapshots
	WHERE kind = ? AND revision = ?
	`

	snap, err := scanSnapshot(sdb.db.QueryRowContext(ctx, query, kind, revision))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	rows, err := sdb.db.QueryContext(ctx, `
	SELECT name, file, line, values_json
	FROM snapshot_records
	WHERE snapshot_id = ?
	ORDER BY name
	`, snap.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot records: %w", err)
	}
	defer rows.Close()

	snap.Records = make(model.Records)
	for rows.Next() {
		var (
			rec        model.Record
			valuesJSON string
		)
		if err := rows.Scan(&rec.Name, &rec.Provenance.File, &rec.Provenance.Line, &valuesJSON); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(valuesJSON), &rec.Values); err != nil {
			return nil, fmt.Errorf("failed to parse values of %s: %w", rec.Name, err)
		}
		if rec.Values == nil {
			rec.Values = make(map[string][]string)
		}
		snap.Records[rec.Name] = &rec
	}

	return snap, rows.Err()
}

// ListSnapshots returns the snapshots of kind, newest first, without records.
func (sdb *SnapshotDB) ListSnapshots(ctx context.Context, kind string) ([]Snapshot, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT id, kind, revision, source, timestamp, record_count, diagnostic_count, error_count
	FROM snapshots
	WHERE kind = ?
	ORDER BY timestamp DESC, id DESC
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, *snap)
	}

	return snapshots, rows.Err()
}

// ListKinds returns the annotation kinds that have snapshots.
func (sdb *SnapshotDB) ListKinds(ctx context.Context) ([]string, error) {
	rows, err := sdb.db.QueryContext(ctx, `SELECT DISTINCT kind FROM snapshots ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to list kinds: %w", err)
	}
	defer rows.Close()

	var kinds []string
	for rows.Next() {
		var kind string
		if err := rows.Scan(&kind); err != nil {
			return nil, fmt.Errorf("failed to scan kind: %w", err)
		}
		kinds = append(kinds, kind)
	}

	return kinds, rows.Err()
}

// DeleteSnapshot removes the snapshot of kind at revision.
// It reports whether a snapshot was deleted.
func (sdb *SnapshotDB) DeleteSnapshot(ctx context.Context, kind, revision string) (bool, error) {
	snap, err := sdb.GetSnapshot(ctx, kind, revision)
	if err != nil || snap == nil {
		return false, err
	}

	if _, err := sdb.db.ExecContext(ctx, `DELETE FROM snapshot_records WHERE snapshot_id = ?`, snap.ID); err != nil {
		return false, fmt.Errorf("failed to delete records: %w", err)
	}
	if _, err := sdb.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, snap.ID); err != nil {
		return false, fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var (
		snap      Snapshot
		source    sql.NullString
		timestamp string
	)
	if err := row.Scan(
		&snap.ID,
		&snap.Kind,
		&snap.Revision,
		&source,
		&timestamp,
		&snap.RecordCount,
		&snap.DiagnosticCount,
		&snap.ErrorCount,
	); err != nil {
		return nil, err
	}
	snap.Source = source.String
	snap.Timestamp = parseTimestamp(timestamp)
	return &snap, nil
}

// Fingerprint returns a stable hash of the record's values.
// Provenance is not part of the fingerprint, so a moved record keeps it.
func Fingerprint(rec *model.Record) string {
	data, err := json.Marshal(rec.Values)
	if err != nil {
		return ""
	}
	return fingerprint(data)
}

func fingerprint(valuesJSON []byte) string {
	sum := blake2b.Sum256(valuesJSON)
	return hex.EncodeToString(sum[:])
}

// timestampFormats lists the formats SQLite may return, most specific first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
