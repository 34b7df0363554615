package registry

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cropflow/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in PRAGMA user_version. Zero means a new database.
const schemaVersion = 1

// ErrSchemaMismatch indicates a registry database written by a different schema.
var ErrSchemaMismatch = errors.New("registry schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// PassRecord summarizes one detection pass saved to a SQLite registry.
type PassRecord struct {
	ID           int64     `json:"id"`
	RunID        string    `json:"run_id"`
	CreatedAt    time.Time `json:"created_at"`
	EntriesAdded int       `json:"entries_added"`
	MaxID        int       `json:"max_id"`
}

// SQLiteStore keeps the registry in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	runID  string
	logger *slog.Logger
}

// OpenSQLite initializes or connects to the registry database at path.
func OpenSQLite(path, runID string, logger *slog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create registry directory: %w", err)
	}
	// WAL lets registry readers run while a pass writes; busy_timeout covers
	// short write overlaps before retryOnBusy takes over.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db, path: path, runID: runID, logger: componentLogger(logger)}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns every entry in insertion order.
func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT object_id, position_x, position_y, size,
            rect_x, rect_y, rect_w, rect_h
        FROM registry_entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query registry: %w", err)
	}
	defer rows.Close()

	snapshot := Snapshot{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Position[0], &e.Position[1], &e.Size,
			&e.RectCoords[0], &e.RectCoords[1], &e.RectCoords[2], &e.RectCoords[3]); err != nil {
			return nil, fmt.Errorf("scan registry entry: %w", err)
		}
		snapshot = append(snapshot, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registry: %w", err)
	}
	return snapshot, nil
}

// Save inserts entries whose ids are not yet stored and records the pass.
// Stored entries are never updated.
func (s *SQLiteStore) Save(ctx context.Context, snapshot Snapshot) error {
	var added int
	err := retryOnBusy(ctx, func() error {
		var txErr error
		added, txErr = s.saveTx(ctx, snapshot)
		return txErr
	})
	if err != nil {
		return err
	}
	s.logger.Debug("saved registry",
		logging.Int(logging.FieldEntryCount, len(snapshot)),
		logging.Int("entries_added", added),
		logging.String(logging.FieldPath, s.path))
	return nil
}

func (s *SQLiteStore) saveTx(ctx context.Context, snapshot Snapshot) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin registry tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing := make(map[int]struct{})
	rows, err := tx.QueryContext(ctx, "SELECT object_id FROM registry_entries")
	if err != nil {
		return 0, fmt.Errorf("query registry ids: %w", err)
	}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("scan registry id: %w", err)
		}
		existing[id] = struct{}{}
	}
	if err := rows.Close(); err != nil {
		return 0, fmt.Errorf("close registry rows: %w", err)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	added := 0
	for _, e := range snapshot {
		if _, ok := existing[e.ID]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO registry_entries (
                object_id, position_x, position_y, size,
                rect_x, rect_y, rect_w, rect_h, created_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Position[0], e.Position[1], e.Size,
			e.RectCoords[0], e.RectCoords[1], e.RectCoords[2], e.RectCoords[3], timestamp,
		); err != nil {
			return 0, fmt.Errorf("insert registry entry %d: %w", e.ID, err)
		}
		existing[e.ID] = struct{}{}
		added++
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO passes (run_id, created_at, entries_added, max_id) VALUES (?, ?, ?, ?)",
		s.runID, timestamp, added, snapshot.MaxID(),
	); err != nil {
		return 0, fmt.Errorf("record pass: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit registry: %w", err)
	}
	return added, nil
}

// Passes returns the recorded detection passes, newest first.
func (s *SQLiteStore) Passes(ctx context.Context, limit int) ([]PassRecord, error) {
	query := "SELECT id, run_id, created_at, entries_added, max_id FROM passes ORDER BY id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	var passes []PassRecord
	for rows.Next() {
		var (
			p       PassRecord
			created string
		)
		if err := rows.Scan(&p.ID, &p.RunID, &created, &p.EntriesAdded, &p.MaxID); err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			p.CreatedAt = ts
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passes: %w", err)
	}
	return passes, nil
}

// initSchema creates the tables in a new database and rejects a database
// whose user_version is not schemaVersion.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch version {
	case schemaVersion:
		return nil
	case 0:
	default:
		return fmt.Errorf("%w: %s has version %d, expected %d",
			ErrSchemaMismatch, s.path, version, schemaVersion)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	s.logger.Debug("created registry schema", logging.String(logging.FieldPath, s.path))
	return nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs op until it succeeds, fails with a non-busy error, or
// busyRetryAttempts is exhausted. The delay doubles up to busyRetryMaxBackoff.
func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !isSQLiteBusy(err) || attempt == busyRetryAttempts {
			return err
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, busyRetryMaxBackoff)
	}
}
