// Package migrations registers the Postgres ledger schema with bun/migrate.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the ledger migration set.
var Migrations = migrate.NewMigrations()

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
