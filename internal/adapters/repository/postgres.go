package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"github.com/okian/prscore/internal/adapters/repository/migrations"
	"github.com/okian/prscore/internal/domain/model"
)

// pgAward is the bun model for pr_awards.
type pgAward struct {
	bun.BaseModel `bun:"table:pr_awards,alias:a"`

	Seq         int64     `bun:"seq,pk,autoincrement"`
	UID         string    `bun:"uid,notnull,unique"`
	CLID        string    `bun:"cl_id,notnull"`
	MemberID    string    `bun:"member_id,notnull"`
	EventID     string    `bun:"event_id,notnull"`
	Rule        string    `bun:"rule,notnull"`
	Round       string    `bun:"round,notnull"`
	Points      int       `bun:"points,notnull"`
	Description string    `bun:"description,notnull"`
	AwardedBy   string    `bun:"awarded_by,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

func (a pgAward) row() row {
	return row{
		UID:         a.UID,
		CLID:        a.CLID,
		MemberID:    a.MemberID,
		EventID:     a.EventID,
		Rule:        a.Rule,
		Round:       a.Round,
		Points:      a.Points,
		Description: a.Description,
		AwardedBy:   a.AwardedBy,
		CreatedAt:   a.CreatedAt,
	}
}

// PostgresStore persists the ledger in Postgres through bun.
type PostgresStore struct {
	db *bun.DB
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	for _, opt := range opts {
		opt(sqldb)
	}
	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	db := bun.NewDB(sqldb, pgdialect.New())
	db.RegisterModel((*pgAward)(nil))
	return &PostgresStore{db: db}, nil
}

// DB exposes the bun handle for migrations and tests.
func (s *PostgresStore) DB() *bun.DB { return s.db }

// Close closes the connection pool.
func (s *PostgresStore) Close() error { return s.db.Close() }

// Migrate creates the migration tables if needed and applies pending
// migrations. It returns the applied group, which is empty when the schema
// was already current.
func (s *PostgresStore) Migrate(ctx context.Context) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(s.db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return group, nil
}

// Rollback reverts the last applied migration group.
func (s *PostgresStore) Rollback(ctx context.Context) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(s.db, migrations.Migrations)
	group, err := migrator.Rollback(ctx)
	if err != nil {
		return nil, fmt.Errorf("rollback ledger: %w", err)
	}
	return group, nil
}

func (s *PostgresStore) Append(ctx context.Context, rec model.AwardRecord) error {
	r := toRow(rec)
	award := &pgAward{
		UID:         r.UID,
		CLID:        r.CLID,
		MemberID:    r.MemberID,
		EventID:     r.EventID,
		Rule:        r.Rule,
		Round:       r.Round,
		Points:      r.Points,
		Description: r.Description,
		AwardedBy:   r.AwardedBy,
		CreatedAt:   r.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(award).Exec(ctx); err != nil {
		return fmt.Errorf("insert award %s: %w", r.UID, err)
	}
	return nil
}

func (s *PostgresStore) ListByCL(ctx context.Context, clID string) ([]model.AwardRecord, error) {
	var awards []pgAward
	err := s.db.NewSelect().
		Model(&awards).
		Where("cl_id = ?", clID).
		Order("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list awards for %s: %w", clID, err)
	}
	return decode(awards)
}

func (s *PostgresStore) All(ctx context.Context) ([]model.AwardRecord, error) {
	var awards []pgAward
	if err := s.db.NewSelect().Model(&awards).Order("seq ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list awards: %w", err)
	}
	return decode(awards)
}

func (s *PostgresStore) Version(ctx context.Context) (int64, error) {
	n, err := s.db.NewSelect().Model((*pgAward)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count awards: %w", err)
	}
	return int64(n), nil
}

func decode(awards []pgAward) ([]model.AwardRecord, error) {
	out := make([]model.AwardRecord, 0, len(awards))
	for _, a := range awards {
		rec, err := a.row().record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
