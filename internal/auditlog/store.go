package auditlog

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"streampanel/internal/access"
	"streampanel/internal/config"
	"streampanel/internal/logging"
	"streampanel/internal/plextv"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; stale databases are rejected rather than migrated in place.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Entry is one recorded mutation outcome.
type Entry struct {
	ID         int64     `json:"id"`
	RecordedAt time.Time `json:"recorded_at"`
	Server     string    `json:"server"`
	ServerID   string    `json:"server_id"`
	Operation  string    `json:"operation"`
	User       string    `json:"user"`
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	Warnings   []string  `json:"warnings,omitempty"`
}

// Store persists mutation outcomes in a local SQLite database. It implements
// access.AuditRecorder.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open initializes or connects to the audit database in the configured audit
// directory.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.AuditDir, "audit.db"), logger)
}

// OpenPath initializes or connects to the audit database at the given path.
func OpenPath(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:     db,
		path:   dbPath,
		logger: logger.With(logging.String(logging.FieldComponent, "auditlog")),
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// RecordMutation stores one mutation outcome. Recording is best-effort:
// failures are logged and swallowed so a broken audit database never blocks
// the operation it describes.
func (s *Store) RecordMutation(ctx context.Context, server plextv.ServerConfig, operation, user string, outcome access.MutationOutcome) {
	var warningsJSON any
	if len(outcome.Warnings) > 0 {
		data, err := json.Marshal(outcome.Warnings)
		if err != nil {
			s.logger.Warn("marshal audit warnings", logging.Error(err))
		} else {
			warningsJSON = string(data)
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_entries (
            recorded_at, server, server_id, operation, user_identifier,
            success, message, warnings_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano),
		server.Name,
		server.ServerID,
		operation,
		user,
		boolToInt(outcome.Success),
		outcome.Message,
		warningsJSON,
	)
	if err != nil {
		s.logger.Warn("record mutation outcome", logging.Error(err))
	}
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recorded_at, server, server_id, operation, user_identifier,
            success, message, warnings_json
        FROM audit_entries
        ORDER BY id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry        Entry
			recordedAt   string
			success      int
			warningsJSON sql.NullString
		)
		if err := rows.Scan(&entry.ID, &recordedAt, &entry.Server, &entry.ServerID,
			&entry.Operation, &entry.User, &success, &entry.Message, &warningsJSON); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
			entry.RecordedAt = parsed
		}
		entry.Success = success != 0
		if warningsJSON.Valid && warningsJSON.String != "" {
			if err := json.Unmarshal([]byte(warningsJSON.String), &entry.Warnings); err != nil {
				s.logger.Warn("decode audit warnings", logging.Error(err))
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
