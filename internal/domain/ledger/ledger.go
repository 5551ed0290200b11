// Package ledger is the validated, append-only write path for PR awards.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/prscore/internal/domain/dedupe"
	"github.com/okian/prscore/internal/domain/model"
	"github.com/okian/prscore/internal/domain/rules"
)

// Store persists award records. Implementations must keep append order.
type Store interface {
	Append(ctx context.Context, rec model.AwardRecord) error
	ListByCL(ctx context.Context, clID string) ([]model.AwardRecord, error)
	All(ctx context.Context) ([]model.AwardRecord, error)
	// Version is the number of records ever appended.
	Version(ctx context.Context) (int64, error)
}

// Directory is the read-only registry of contingents, rosters and events
// owned by the surrounding application. Lookups of unknown ids return
// ErrUnknownSubject or ErrUnknownEvent.
type Directory interface {
	Contingent(ctx context.Context, clID string) (model.Contingent, error)
	Contingents(ctx context.Context) ([]model.Contingent, error)
	Event(ctx context.Context, eventID string) (model.Event, error)
}

// Request is a caller's award intent. Points is optional for tiered rules;
// when set on a tiered rule it must match the catalog unless Override is
// true.
type Request struct {
	CLID        string      `json:"cl_id"`
	Rule        rules.Key   `json:"rule"`
	Points      *int        `json:"points,omitempty"`
	Override    bool        `json:"override,omitempty"`
	MemberID    string      `json:"member_id,omitempty"`
	EventID     string      `json:"event_id,omitempty"`
	Round       model.Round `json:"round,omitempty"`
	Description string      `json:"description,omitempty"`
	AwardedBy   string      `json:"awarded_by"`
}

// Service validates award requests and appends them to the Store.
type Service struct {
	store   Store
	dir     Directory
	catalog *rules.Catalog
	guard   dedupe.Deduper
	now     func() time.Time
	newID   func() string
}

// New creates a ledger service over store and dir.
func New(store Store, dir Directory, opts ...Option) *Service {
	s := &Service{
		store:   store,
		dir:     dir,
		catalog: rules.NewCatalog(),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the catalog used to resolve points.
func (s *Service) Catalog() *rules.Catalog { return s.catalog }

// Prime loads every stored award into the guard so the at-most-once check
// survives restarts. It is a no-op when the guard is disabled.
func (s *Service) Prime(ctx context.Context) (int, error) {
	if s.guard == nil {
		return 0, nil
	}
	recs, err := s.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("prime guard: %w", err)
	}
	for _, rec := range recs {
		s.guard.SeenAndRecord(ctx, dedupe.KeyOf(rec))
	}
	return len(recs), nil
}

// Award validates req and appends exactly one record. Nothing is appended
// when any check fails.
func (s *Service) Award(ctx context.Context, req Request) (model.AwardRecord, error) {
	cl, err := s.dir.Contingent(ctx, req.CLID)
	if err != nil {
		return model.AwardRecord{}, fmt.Errorf("award: contingent %q: %w", req.CLID, err)
	}

	points, round, err := s.resolve(req)
	if err != nil {
		return model.AwardRecord{}, fmt.Errorf("award: %w", err)
	}

	if req.MemberID != "" {
		if _, ok := cl.Member(req.MemberID); !ok {
			return model.AwardRecord{}, fmt.Errorf("award: member %q of %q: %w", req.MemberID, req.CLID, ErrMemberNotInContingent)
		}
	}

	if req.EventID != "" {
		if _, err := s.dir.Event(ctx, req.EventID); err != nil {
			return model.AwardRecord{}, fmt.Errorf("award: event %q: %w", req.EventID, err)
		}
	}

	awardedBy := strings.TrimSpace(req.AwardedBy)
	if awardedBy == "" {
		return model.AwardRecord{}, fmt.Errorf("award: %w", ErrMissingAwarder)
	}

	rec := model.AwardRecord{
		UID:         s.newID(),
		CLID:        req.CLID,
		MemberID:    req.MemberID,
		EventID:     req.EventID,
		Rule:        req.Rule,
		Round:       round,
		Points:      points,
		Description: req.Description,
		AwardedBy:   awardedBy,
		CreatedAt:   s.now(),
	}

	if s.guard != nil {
		k := dedupe.KeyOf(rec)
		if s.guard.SeenAndRecord(ctx, k) {
			return model.AwardRecord{}, fmt.Errorf("award: %s for %q: %w", req.Rule, req.CLID, ErrDuplicateAward)
		}
		if err := s.store.Append(ctx, rec); err != nil {
			s.guard.Unrecord(ctx, k)
			return model.AwardRecord{}, fmt.Errorf("award: append: %w", err)
		}
		return rec, nil
	}

	if err := s.store.Append(ctx, rec); err != nil {
		return model.AwardRecord{}, fmt.Errorf("award: append: %w", err)
	}
	return rec, nil
}

// resolve settles the points and round for req.
func (s *Service) resolve(req Request) (int, model.Round, error) {
	if !req.Round.Valid() {
		return 0, "", fmt.Errorf("round %q: %w", req.Round, ErrInvalidRound)
	}

	if t, ok := req.Rule.Tiered(); ok {
		resolved, err := s.catalog.Resolve(t.Tier, t.Stage, t.Mode)
		if err != nil {
			return 0, "", fmt.Errorf("%s: %w", t, err)
		}

		round := req.Round
		switch {
		case t.Stage == rules.StageQualification && round == model.RoundNone:
			round = model.RoundOne
		case t.Stage != rules.StageQualification && round != model.RoundNone:
			return 0, "", fmt.Errorf("round %q on %s stage: %w", round, t.Stage, ErrInvalidRound)
		}

		if req.Points == nil {
			return resolved, round, nil
		}
		if *req.Points < 0 {
			return 0, "", fmt.Errorf("%d: %w", *req.Points, ErrInvalidPoints)
		}
		if !req.Override && *req.Points != resolved {
			return 0, "", fmt.Errorf("%s resolves to %d, got %d: %w", t, resolved, *req.Points, ErrInvalidRuleCombination)
		}
		return *req.Points, round, nil
	}

	if ff, ok := req.Rule.FreeForm(); ok {
		if strings.TrimSpace(ff.Name) == "" {
			return 0, "", fmt.Errorf("empty free-form name: %w", rules.ErrInvalidKey)
		}
		if req.Round != model.RoundNone {
			return 0, "", fmt.Errorf("round %q on free-form rule: %w", req.Round, ErrInvalidRound)
		}
		if req.Points == nil {
			return 0, "", fmt.Errorf("%s: %w", ff, ErrMissingPoints)
		}
		if *req.Points < 0 {
			return 0, "", fmt.Errorf("%s: %d: %w", ff, *req.Points, ErrInvalidPoints)
		}
		return *req.Points, model.RoundNone, nil
	}

	return 0, "", fmt.Errorf("missing rule: %w", rules.ErrInvalidKey)
}
