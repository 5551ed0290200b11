package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS pr_awards (
				seq BIGSERIAL PRIMARY KEY,
				uid TEXT NOT NULL UNIQUE,
				cl_id TEXT NOT NULL,
				member_id TEXT NOT NULL DEFAULT '',
				event_id TEXT NOT NULL DEFAULT '',
				rule TEXT NOT NULL,
				round TEXT NOT NULL DEFAULT '',
				points INTEGER NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				awarded_by TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_pr_awards_cl ON pr_awards (cl_id, seq);
		`)
		if err != nil {
			return fmt.Errorf("create pr_awards: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS pr_awards;`); err != nil {
			return fmt.Errorf("drop pr_awards: %w", err)
		}
		return nil
	})
}
