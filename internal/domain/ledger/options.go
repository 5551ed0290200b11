package ledger

import (
	"time"

	"github.com/okian/prscore/internal/domain/dedupe"
	"github.com/okian/prscore/internal/domain/rules"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCatalog sets the rule catalog used to resolve tiered points.
func WithCatalog(c *rules.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the record UID source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithDeduper enables the at-most-once guard on award tuples.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		s.guard = d
	}
}
