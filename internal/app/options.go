package service

import (
	"time"

	"github.com/okian/prscore/internal/domain/dedupe"
	"github.com/okian/prscore/internal/domain/facts"
	"github.com/okian/prscore/internal/domain/ledger"
	"github.com/okian/prscore/internal/domain/rules"
	"github.com/okian/prscore/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the ledger store.
func WithStore(store ledger.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDirectory sets the contingent and event registry.
func WithDirectory(dir ledger.Directory) Option {
	return func(s *Service) {
		if dir != nil {
			s.dir = dir
		}
	}
}

// WithCatalog sets the rule catalog.
func WithCatalog(c *rules.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithFactsProvider replaces the ledger-derived facts.
func WithFactsProvider(p facts.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.facts = p
		}
	}
}

// WithDeduper enables at-most-once awards per (CL, member, event, rule,
// round).
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		s.deduper = d
	}
}

// WithBus publishes appended awards.
func WithBus(b EventBus) Option {
	return func(s *Service) {
		s.bus = b
	}
}

// WithWorkerCount bounds concurrent report computations.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithClock overrides the award timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
