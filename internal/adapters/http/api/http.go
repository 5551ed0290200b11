// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/okian/prscore/internal/domain/ledger"
	"github.com/okian/prscore/internal/domain/model"
	"github.com/okian/prscore/internal/domain/ranking"
	"github.com/okian/prscore/internal/domain/rules"
	"github.com/okian/prscore/internal/domain/scoring"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AwardDependencies
	ReportDependencies
	LeaderboardDependencies
	RankDependencies
	RulesProvider
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	awardsHandler      *AwardsHandler
	reportsHandler     *ReportsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	rulesHandler       *RulesHandler

	awardLimiter *IPRateLimiter
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := options{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		awardsHandler:      NewAwardsHandler(deps),
		reportsHandler:     NewReportsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, o.maxLimit),
		rankHandler:        NewRankHandler(deps),
		rulesHandler:       NewRulesHandler(deps),
	}
	if o.awardRate > 0 {
		s.awardLimiter = NewIPRateLimiter(rate.Limit(o.awardRate), o.awardBurst)
	}
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	// Grouped so the middleware stays scoped when r already carries routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recoverer)

		r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
		r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
		r.Get("/rules", MetricsMiddleware(s.rulesHandler.HandleGetRules, "rules"))

		r.Group(func(r chi.Router) {
			if s.awardLimiter != nil {
				r.Use(RateLimitMiddleware(s.awardLimiter))
			}
			r.Post("/awards", MetricsMiddleware(s.awardsHandler.HandlePostAward, "awards"))
		})
		r.Get("/awards/{cl_id}", MetricsMiddleware(s.awardsHandler.HandleListAwards, "awards"))
		r.Get("/reports/{cl_id}", MetricsMiddleware(s.reportsHandler.HandleGetReport, "reports"))
		r.Get("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
		r.Get("/leaderboard/{cl_id}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	})
}

// Handler returns a chi router with every route registered.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps ledger and catalog failures to HTTP statuses.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	code := ledger.Code(err)
	switch {
	case errors.Is(err, ledger.ErrUnknownSubject), errors.Is(err, ledger.ErrUnknownEvent):
		writeError(w, http.StatusNotFound, code, Wrap(op, err))
	case errors.Is(err, ledger.ErrDuplicateAward):
		writeError(w, http.StatusConflict, code, Wrap(op, err))
	case code != "internal":
		writeError(w, http.StatusUnprocessableEntity, code, Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// Contracts served by the handlers. Aliases keep the handler signatures
// short.
type (
	AwardRequest = ledger.Request
	AwardRecord  = model.AwardRecord
	ScoreReport  = scoring.ScoreReport
	Entry        = ranking.Entry
	RuleListing  = rules.Listing
)

// domainCode reports decode failures raised by domain text unmarshalers,
// such as a malformed rule key.
func domainCode(err error) string {
	if errors.Is(err, rules.ErrInvalidKey) {
		return ledger.Code(err)
	}
	return ""
}
