package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/prscore/internal/domain/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the ledger in a single SQLite file. Each award is
// one INSERT; seq preserves append order.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// OpenSQLite opens or creates the ledger database at path.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve ledger db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger db dir: %w", err)
	}

	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	for _, opt := range opts {
		opt(db)
	}

	s := &SQLiteStore{path: absPath, db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the absolute database path.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS pr_awards (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	cl_id TEXT NOT NULL,
	member_id TEXT NOT NULL DEFAULT '',
	event_id TEXT NOT NULL DEFAULT '',
	rule TEXT NOT NULL,
	round TEXT NOT NULL DEFAULT '',
	points INTEGER NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	awarded_by TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pr_awards_cl ON pr_awards(cl_id, seq);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create ledger schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec model.AwardRecord) error {
	r := toRow(rec)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO pr_awards (uid, cl_id, member_id, event_id, rule, round, points, description, awarded_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UID, r.CLID, r.MemberID, r.EventID, r.Rule, r.Round, r.Points, r.Description, r.AwardedBy,
		r.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert award %s: %w", r.UID, err)
	}
	return nil
}

func (s *SQLiteStore) ListByCL(ctx context.Context, clID string) ([]model.AwardRecord, error) {
	return s.query(ctx, `
SELECT uid, cl_id, member_id, event_id, rule, round, points, description, awarded_by, created_at
FROM pr_awards WHERE cl_id = ? ORDER BY seq ASC`, clID)
}

func (s *SQLiteStore) All(ctx context.Context) ([]model.AwardRecord, error) {
	return s.query(ctx, `
SELECT uid, cl_id, member_id, event_id, rule, round, points, description, awarded_by, created_at
FROM pr_awards ORDER BY seq ASC`)
}

func (s *SQLiteStore) Version(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pr_awards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count awards: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]model.AwardRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query awards: %w", err)
	}
	defer rows.Close()

	out := []model.AwardRecord{}
	for rows.Next() {
		var (
			r         row
			createdAt string
		)
		if err := rows.Scan(&r.UID, &r.CLID, &r.MemberID, &r.EventID, &r.Rule, &r.Round,
			&r.Points, &r.Description, &r.AwardedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("scan award: %w", err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: created_at: %w", ErrCorruptRecord, r.UID, err)
		}
		rec, err := r.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate awards: %w", err)
	}
	return out, nil
}
