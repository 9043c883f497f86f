package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yumyai/pfamscan/pkg/hmmer"

	_ "modernc.org/sqlite"
)

var ErrScanNotFound = errors.New("scan not found")

// Fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
	CREATE TABLE IF NOT EXISTS scans (
		id         TEXT PRIMARY KEY,
		sequence   TEXT NOT NULL,
		status     TEXT NOT NULL,
		error      TEXT NOT NULL DEFAULT '',
		results    TEXT NOT NULL DEFAULT '[]',
		hit_count  INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS scans_created_at ON scans (created_at);
`

// ScanRecord is a scan as persisted once it has finished.
type ScanRecord struct {
	ID        string          `json:"id"`
	Sequence  string          `json:"sequence"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Results   []*hmmer.Result `json:"results"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ScanStore keeps finished scans in SQLite.
type ScanStore struct {
	db *sql.DB
}

func NewScanStore(db *sql.DB) *ScanStore {
	return &ScanStore{db: db}
}

// OpenScanStore opens (or creates) the SQLite file at path and makes sure the
// schema exists.
func OpenScanStore(ctx context.Context, path string) (*ScanStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open scan store %s: %w", path, err)
	}
	// SQLite allows a single writer; serialising here avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	store := NewScanStore(db)
	if err := store.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *ScanStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create scans schema: %w", err)
	}
	return nil
}

func (s *ScanStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ScanStore) Close() error {
	return s.db.Close()
}

// SaveScan inserts the record, replacing an earlier copy with the same id.
func (s *ScanStore) SaveScan(ctx context.Context, rec *ScanRecord) error {
	results := rec.Results
	if results == nil {
		results = []*hmmer.Result{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results for scan %s: %w", rec.ID, err)
	}

	const q = `
		INSERT INTO scans (id, sequence, status, error, results, hit_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sequence = excluded.sequence,
			status = excluded.status,
			error = excluded.error,
			results = excluded.results,
			hit_count = excluded.hit_count,
			updated_at = excluded.updated_at;
	`
	_, err = s.db.ExecContext(ctx, q,
		rec.ID, rec.Sequence, rec.Status, rec.Error, string(resultsJSON), len(results),
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save scan %s: %w", rec.ID, err)
	}
	return nil
}

func (s *ScanStore) GetScan(ctx context.Context, id string) (*ScanRecord, error) {
	const q = `
		SELECT id, sequence, status, error, results, created_at, updated_at
		FROM scans WHERE id = ?;
	`
	row := s.db.QueryRowContext(ctx, q, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrScanNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get scan %s: %w", id, err)
	}
	return rec, nil
}

// ListScans returns up to limit scans, newest first.
func (s *ScanStore) ListScans(ctx context.Context, limit int) ([]*ScanRecord, error) {
	const q = `
		SELECT id, sequence, status, error, results, created_at, updated_at
		FROM scans ORDER BY created_at DESC, id LIMIT ?;
	`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	records := make([]*ScanRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*ScanRecord, error) {
	var (
		rec                  ScanRecord
		resultsJSON          string
		createdAt, updatedAt string
	)
	if err := row.Scan(&rec.ID, &rec.Sequence, &rec.Status, &rec.Error, &resultsJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(resultsJSON), &rec.Results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal results: %w", err)
	}

	var err error
	if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	if rec.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("bad updated_at %q: %w", updatedAt, err)
	}
	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
