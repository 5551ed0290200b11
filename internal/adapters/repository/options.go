package repository

import "database/sql"

// Option tunes the connection pool behind a SQL-backed store.
type Option func(*sql.DB)

// WithMaxOpenConns caps the number of open connections.
func WithMaxOpenConns(n int) Option {
	return func(db *sql.DB) {
		if n > 0 {
			db.SetMaxOpenConns(n)
		}
	}
}
