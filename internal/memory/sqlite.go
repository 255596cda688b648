// Package memory provides the SQLite implementation of the result store.
package memory

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/josephgoksu/CostWing/models"
	"github.com/josephgoksu/CostWing/store"
)

const defaultDBFile = "results.db"

// timeLayout is fixed width so created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements store.ResultStore on a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

var _ store.ResultStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates an unopened store; call Initialize next.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Initialize opens the database named by 'dataFile' (":memory:" is allowed)
// and creates the schema.
func (s *SQLiteStore) Initialize(config map[string]string) error {
	dbPath := config["dataFile"]
	if dbPath == "" {
		dbPath = defaultDBFile
	}
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return fmt.Errorf("set busy timeout: %w", err)
	}

	s.db = db
	s.dbPath = dbPath
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS run_results (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		kind TEXT NOT NULL,              -- level, smooth, optimize, scenarios
		objective TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL,           -- result as JSON
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_run_results_project ON run_results(project_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save implements store.ResultStore. The insert runs in its own transaction.
func (s *SQLiteStore) Save(rec models.Record) (models.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := models.ValidateStruct(rec); err != nil {
		return models.Record{}, fmt.Errorf("validation failed for record: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Record{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO run_results (id, project_id, kind, objective, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.ProjectID, string(rec.Kind), rec.Objective, rec.Payload, rec.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return models.Record{}, fmt.Errorf("insert record %s: %w", rec.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return models.Record{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.Record, error) {
	var (
		rec       models.Record
		kind      string
		createdAt string
	)
	if err := row.Scan(&rec.ID, &rec.ProjectID, &kind, &rec.Objective, &rec.Payload, &createdAt); err != nil {
		return models.Record{}, err
	}
	rec.Kind = models.RecordKind(kind)
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return models.Record{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	rec.CreatedAt = t
	return rec, nil
}

// List implements store.ResultStore.
func (s *SQLiteStore) List(projectID string) ([]models.Record, error) {
	rows, err := s.db.Query(`
		SELECT id, project_id, kind, objective, payload, created_at
		FROM run_results WHERE project_id = ?
		ORDER BY created_at ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// Latest implements store.ResultStore.
func (s *SQLiteStore) Latest(projectID string, kind models.RecordKind) (models.Record, error) {
	row := s.db.QueryRow(`
		SELECT id, project_id, kind, objective, payload, created_at
		FROM run_results
		WHERE project_id = ? AND (? = '' OR kind = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, projectID, string(kind), string(kind))

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Record{}, fmt.Errorf("project %s, kind %q: %w", projectID, kind, store.ErrNotFound)
	}
	if err != nil {
		return models.Record{}, fmt.Errorf("get latest record: %w", err)
	}
	return rec, nil
}

// DeleteProject implements store.ResultStore.
func (s *SQLiteStore) DeleteProject(projectID string) (int, error) {
	res, err := s.db.Exec(`DELETE FROM run_results WHERE project_id = ?`, projectID)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
