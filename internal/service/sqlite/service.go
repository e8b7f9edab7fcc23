// Package sqlite bootstraps the embedded database used for conversation
// records and checkpoint cursors.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"
)

type Service struct {
	root  string
	group singleflight.Group
}

func New(root string) *Service { return &Service{root: root} }

const (
	schemaVersionTable  = "schema_version"
	targetSchemaVersion = 1
)

// Ensure sets up a SQLite database under $ROOT/db/conversim.db when missing
// and ensures the schema is installed. It returns the DSN. Concurrent callers
// are collapsed into a single setup pass, so it is safe to invoke from every
// worker at process start.
func (s *Service) Ensure(ctx context.Context) (string, error) {
	value, err, _ := s.group.Do("ensure", func() (interface{}, error) {
		return s.ensure(ctx)
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

func (s *Service) ensure(ctx context.Context) (string, error) {
	base := s.root
	if strings.TrimSpace(base) == "" {
		wd, _ := os.Getwd()
		base = wd
	}
	dbDir := filepath.Join(base, "db")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create db dir: %w", err)
	}
	dbFile := filepath.Join(dbDir, "conversim.db")
	// SQLite URI with pragmas to improve concurrency and avoid SQLITE_BUSY
	dsn := "file:" + dbFile + "?cache=shared&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return "", fmt.Errorf("failed to open sqlite db: %w", err)
	}
	defer db.Close()

	if err := ensureSchema(ctx, db); err != nil {
		return "", err
	}
	return dsn, nil
}

// Open ensures the schema and returns a ready connection pool.
func (s *Service) Open(ctx context.Context) (*sql.DB, error) {
	dsn, err := s.Ensure(ctx)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	return db, nil
}

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS profile (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		tagline TEXT,
		persona TEXT,
		ingestion_status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS conversation (
		id TEXT PRIMARY KEY,
		participant_a TEXT NOT NULL,
		participant_b TEXT NOT NULL,
		transcript TEXT NOT NULL DEFAULT '[]',
		score INTEGER,
		takeaways TEXT,
		status TEXT NOT NULL DEFAULT 'running' CHECK (status IN ('running','completed','failed')),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE INDEX IF NOT EXISTS idx_conversation_participant_a ON conversation(participant_a);`,
	`CREATE INDEX IF NOT EXISTS idx_conversation_participant_b ON conversation(participant_b);`,
	`CREATE TABLE IF NOT EXISTS checkpoint (
		conversation_id TEXT PRIMARY KEY,
		cursor TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	version, err := currentVersion(ctx, db)
	if err != nil {
		return err
	}
	if version >= targetSchemaVersion {
		return nil
	}
	for _, stmt := range schemaDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM "+schemaVersionTable); err != nil {
		return fmt.Errorf("failed to reset schema version: %w", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO "+schemaVersionTable+" (version) VALUES (?)", targetSchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

func currentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRowContext(ctx, "SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?", schemaVersionTable).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect schema: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var version int
	err = db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM "+schemaVersionTable).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
