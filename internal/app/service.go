// Package service wires the rule catalog, award ledger, fact providers and
// ranker into the operations served by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/okian/prscore/internal/adapters/bus"
	"github.com/okian/prscore/internal/adapters/repository"
	"github.com/okian/prscore/internal/domain/dedupe"
	"github.com/okian/prscore/internal/domain/facts"
	"github.com/okian/prscore/internal/domain/ledger"
	"github.com/okian/prscore/internal/domain/model"
	"github.com/okian/prscore/internal/domain/ranking"
	"github.com/okian/prscore/internal/domain/rules"
	"github.com/okian/prscore/internal/domain/scoring"
	"github.com/okian/prscore/pkg/logger"
	"github.com/okian/prscore/pkg/metrics"
)

const tracerName = "github.com/okian/prscore/internal/app"

// EventBus publishes appended awards and delivers them to subscribers.
type EventBus interface {
	PublishAward(ctx context.Context, rec model.AwardRecord) error
	SubscribeAwards(ctx context.Context, h bus.AwardHandler) error
}

// reportKey identifies a report computed from a given ledger and fact state.
type reportKey struct {
	clID          string
	ledgerVersion int64
	factsVersion  int64
}

// Service implements the API dependencies for the PR scoring engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   ledger.Store
	dir     ledger.Directory
	catalog *rules.Catalog
	deduper dedupe.Deduper
	facts   facts.Provider
	bus     EventBus
	ledger  *ledger.Service

	// Configuration
	workerCount int
	now         func() time.Time

	// Report cache, one entry per CL.
	cacheMu   sync.Mutex
	cache     map[string]cachedReport
	cacheHits int64

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
	tracer trace.Tracer
}

type cachedReport struct {
	key    reportKey
	report scoring.ScoreReport
}

// New constructs a Service. Without options it runs on an in-memory ledger,
// an empty directory, the reference catalog and ledger-derived facts.
func New(opts ...Option) *Service {
	s := &Service{
		catalog:     rules.NewCatalog(),
		workerCount: runtime.NumCPU(),
		cache:       make(map[string]cachedReport),
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.dir == nil {
		s.dir, _ = repository.NewDirectory(nil, nil)
	}
	if s.facts == nil {
		s.facts = facts.NewLedgerProvider(s.store, s.dir)
	}

	ledgerOpts := []ledger.Option{ledger.WithCatalog(s.catalog)}
	if s.deduper != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithDeduper(s.deduper))
	}
	if s.now != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithClock(s.now))
	}
	s.ledger = ledger.New(s.store, s.dir, ledgerOpts...)
	return s
}

// Start primes the duplicate guard from the stored history and subscribes
// the audit trail to the bus.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting scoring service...")

	primed, err := s.ledger.Prime(ctx)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if s.bus != nil {
		if err := s.bus.SubscribeAwards(runCtx, s.auditAward); err != nil {
			cancel()
			return fmt.Errorf("start: %w", err)
		}
	}
	s.cancel = cancel

	s.refreshGauges(ctx)
	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Bool("unique_awards", s.deduper != nil),
		logger.Int("primed", primed),
	)
	return nil
}

// Stop releases the bus subscription.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping scoring service...")
	if s.cancel != nil {
		s.cancel()
	}
	s.started = false
	s.logger.Info(context.Background(), "scoring service stopped")
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l == nil {
		return logger.Get().Named("service")
	}
	return l
}

// auditAward is the bus subscriber that keeps a log trail of awards.
func (s *Service) auditAward(ctx context.Context, rec model.AwardRecord) error {
	s.log().Info(ctx, "award recorded",
		logger.String("uid", rec.UID),
		logger.String("cl_id", rec.CLID),
		logger.String("rule", rec.Rule.String()),
		logger.Int("points", rec.Points),
		logger.String("awarded_by", rec.AwardedBy),
	)
	return nil
}

// Award validates and appends one award, then announces it on the bus.
func (s *Service) Award(ctx context.Context, req ledger.Request) (model.AwardRecord, error) {
	ctx, span := s.tracer.Start(ctx, "service.Award", trace.WithAttributes(
		attribute.String("cl_id", req.CLID),
		attribute.String("rule", req.Rule.String()),
	))
	defer span.End()

	rec, err := s.ledger.Award(ctx, req)
	if err != nil {
		code := ledger.Code(err)
		metrics.RecordAwardRejection(code)
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		if code == "internal" {
			metrics.RecordErrorByComponent("ledger", "append")
			s.log().Error(ctx, "award append failed", logger.String("cl_id", req.CLID), logger.Error(err))
		} else {
			s.log().Debug(ctx, "award rejected", logger.String("cl_id", req.CLID), logger.String("code", code), logger.Error(err))
		}
		return model.AwardRecord{}, err
	}

	kind := "tiered"
	if rec.IsFreeForm() {
		kind = "free_form"
	}
	metrics.RecordAward(kind)
	span.SetAttributes(attribute.String("uid", rec.UID), attribute.Int("points", rec.Points))

	if s.bus != nil {
		if err := s.bus.PublishAward(ctx, rec); err != nil {
			// The append stands even when the event is lost.
			s.log().Warn(ctx, "award event not published", logger.String("uid", rec.UID), logger.Error(err))
		}
	}
	if v, err := s.store.Version(ctx); err == nil {
		metrics.UpdateLedgerRecords(v)
	}
	return rec, nil
}

// Report returns the score report for clID. Reports are memoised per CL
// and recomputed whenever the ledger or fact versions move. The returned
// report is shared and must not be modified.
func (s *Service) Report(ctx context.Context, clID string) (scoring.ScoreReport, error) {
	ctx, span := s.tracer.Start(ctx, "service.Report", trace.WithAttributes(attribute.String("cl_id", clID)))
	defer span.End()

	report, err := s.report(ctx, clID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "report failed")
		return scoring.ScoreReport{}, err
	}
	return report, nil
}

func (s *Service) report(ctx context.Context, clID string) (scoring.ScoreReport, error) {
	if _, err := s.dir.Contingent(ctx, clID); err != nil {
		return scoring.ScoreReport{}, fmt.Errorf("report %q: %w", clID, err)
	}

	key, err := s.reportKey(ctx, clID)
	if err != nil {
		return scoring.ScoreReport{}, err
	}

	s.cacheMu.Lock()
	if c, ok := s.cache[clID]; ok && c.key == key {
		s.cacheHits++
		s.cacheMu.Unlock()
		metrics.RecordReportCacheHit()
		return c.report, nil
	}
	s.cacheMu.Unlock()

	start := time.Now()
	f, err := s.facts.Facts(ctx, clID)
	if err != nil {
		return scoring.ScoreReport{}, fmt.Errorf("report %q: facts: %w", clID, err)
	}
	records, err := s.store.ListByCL(ctx, clID)
	if err != nil {
		return scoring.ScoreReport{}, fmt.Errorf("report %q: ledger: %w", clID, err)
	}
	report := scoring.Aggregate(clID, f, records, s.catalog.IsNegative)
	metrics.RecordReportComputed()
	metrics.RecordAggregationLatency(float64(time.Since(start).Microseconds()) / 1000)

	s.cacheMu.Lock()
	s.cache[clID] = cachedReport{key: key, report: report}
	s.cacheMu.Unlock()
	return report, nil
}

func (s *Service) reportKey(ctx context.Context, clID string) (reportKey, error) {
	lv, err := s.store.Version(ctx)
	if err != nil {
		return reportKey{}, fmt.Errorf("report %q: ledger version: %w", clID, err)
	}
	fv, err := s.facts.Version(ctx)
	if err != nil {
		return reportKey{}, fmt.Errorf("report %q: facts version: %w", clID, err)
	}
	return reportKey{clID: clID, ledgerVersion: lv, factsVersion: fv}, nil
}

// Leaderboard ranks every contingent by final score. limit <= 0 returns
// all entries.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]ranking.Entry, error) {
	ctx, span := s.tracer.Start(ctx, "service.Leaderboard", trace.WithAttributes(attribute.Int("limit", limit)))
	defer span.End()

	entries, err := s.rankAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "leaderboard failed")
		return nil, err
	}
	return ranking.Top(entries, limit), nil
}

// RankOf returns the leaderboard entry for one contingent.
func (s *Service) RankOf(ctx context.Context, clID string) (ranking.Entry, error) {
	ctx, span := s.tracer.Start(ctx, "service.RankOf", trace.WithAttributes(attribute.String("cl_id", clID)))
	defer span.End()

	entries, err := s.rankAll(ctx)
	if err != nil {
		span.RecordError(err)
		return ranking.Entry{}, err
	}
	e, ok := ranking.Find(entries, clID)
	if !ok {
		err := fmt.Errorf("rank %q: %w", clID, ledger.ErrUnknownSubject)
		span.RecordError(err)
		return ranking.Entry{}, err
	}
	return e, nil
}

// rankAll computes every CL's report with at most workerCount in flight and
// ranks the results.
func (s *Service) rankAll(ctx context.Context) ([]ranking.Entry, error) {
	start := time.Now()

	cls, err := s.dir.Contingents(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}

	candidates := make([]ranking.Candidate, len(cls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount)
	for i, cl := range cls {
		g.Go(func() error {
			report, err := s.report(gctx, cl.ID)
			if err != nil {
				return err
			}
			candidates[i] = ranking.Candidate{
				ID:          cl.ID,
				DisplayName: cl.DisplayName,
				Affiliation: cl.Affiliation,
				Alias:       cl.Alias,
				FinalScore:  report.Summary.FinalScore,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.RecordErrorByComponent("service", "leaderboard")
		return nil, fmt.Errorf("leaderboard: %w", err)
	}

	entries := ranking.Rank(candidates)
	metrics.RecordLeaderboardLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.UpdateLeaderboardSize(len(entries))
	metrics.UpdateContingents(len(cls))
	return entries, nil
}

// Awards returns the ledger records of one contingent in append order.
func (s *Service) Awards(ctx context.Context, clID string) ([]model.AwardRecord, error) {
	if _, err := s.dir.Contingent(ctx, clID); err != nil {
		return nil, fmt.Errorf("awards %q: %w", clID, err)
	}
	recs, err := s.store.ListByCL(ctx, clID)
	if err != nil {
		return nil, fmt.Errorf("awards %q: %w", clID, err)
	}
	return recs, nil
}

// Rules returns the catalog cells and negative free-form rule names.
func (s *Service) Rules() rules.Listing {
	return s.catalog.Listing()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	s.cacheMu.Lock()
	hits, cached := s.cacheHits, len(s.cache)
	s.cacheMu.Unlock()

	stats := map[string]interface{}{
		"started":           started,
		"worker_count":      s.workerCount,
		"unique_awards":     s.deduper != nil,
		"report_cache_hits": hits,
		"cached_reports":    cached,
	}
	if s.deduper != nil {
		stats["guard_size"] = s.deduper.Size()
	}
	if v, err := s.store.Version(ctx); err == nil {
		stats["ledger_records"] = v
		metrics.UpdateLedgerRecords(v)
	}
	if cls, err := s.dir.Contingents(ctx); err == nil {
		stats["contingents"] = len(cls)
		metrics.UpdateContingents(len(cls))
	}
	return stats
}

func (s *Service) refreshGauges(ctx context.Context) {
	if v, err := s.store.Version(ctx); err == nil {
		metrics.UpdateLedgerRecords(v)
	}
	if cls, err := s.dir.Contingents(ctx); err == nil {
		metrics.UpdateContingents(len(cls))
	}
}

// IsNotFound reports whether err names an unknown contingent or event.
func IsNotFound(err error) bool {
	return errors.Is(err, ledger.ErrUnknownSubject) || errors.Is(err, ledger.ErrUnknownEvent)
}
