package facts

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/prscore/internal/domain/ledger"
	"github.com/okian/prscore/internal/domain/model"
	"github.com/okian/prscore/internal/domain/rules"
)

// LedgerProvider derives facts from a CL's tiered awards. Each record
// becomes exactly one participant entry, so repeated awards stay visible.
type LedgerProvider struct {
	store ledger.Store
	dir   ledger.Directory
}

// NewLedgerProvider builds facts from store, naming people and events
// through dir.
func NewLedgerProvider(store ledger.Store, dir ledger.Directory) *LedgerProvider {
	return &LedgerProvider{store: store, dir: dir}
}

func (p *LedgerProvider) Version(ctx context.Context) (int64, error) {
	return p.store.Version(ctx)
}

func (p *LedgerProvider) Facts(ctx context.Context, clID string) (map[string][]model.EventFacts, error) {
	cl, err := p.dir.Contingent(ctx, clID)
	if err != nil {
		return nil, fmt.Errorf("facts for %q: %w", clID, err)
	}
	records, err := p.store.ListByCL(ctx, clID)
	if err != nil {
		return nil, fmt.Errorf("facts for %q: %w", clID, err)
	}

	var b builder
	events := make(map[string]model.Event)
	for _, rec := range records {
		t, ok := rec.Rule.Tiered()
		if !ok {
			continue
		}

		ev, err := p.event(ctx, events, rec.EventID)
		if err != nil {
			return nil, err
		}
		dst := b.event(ev.Category, ev.ID, ev.Name)

		who := participant(cl, rec)
		switch t.Stage {
		case rules.StageParticipation:
			if t.Mode == rules.ModeOnline {
				dst.Registrations.Online = append(dst.Registrations.Online, who)
			} else {
				dst.Registrations.Offline = append(dst.Registrations.Offline, who)
			}
		case rules.StageQualification:
			switch rec.Round {
			case model.RoundTwo:
				dst.Rounds.Round2Qualified = append(dst.Rounds.Round2Qualified, who)
			case model.RoundRunnerUp:
				dst.Rounds.RunnerUps = append(dst.Rounds.RunnerUps, who)
			default:
				dst.Rounds.Round1Qualified = append(dst.Rounds.Round1Qualified, who)
			}
		default:
			who.Rank = string(t.Stage)
			dst.Ranks = append(dst.Ranks, who)
		}
	}
	return b.result(), nil
}

// event resolves and caches an event. Awards without an event, and events
// since removed from the directory, land in the general bucket.
func (p *LedgerProvider) event(ctx context.Context, cache map[string]model.Event, id string) (model.Event, error) {
	if id == "" {
		return model.Event{ID: General, Name: General, Category: General}, nil
	}
	if ev, ok := cache[id]; ok {
		return ev, nil
	}
	ev, err := p.dir.Event(ctx, id)
	switch {
	case errors.Is(err, ledger.ErrUnknownEvent):
		ev = model.Event{ID: id, Name: id, Category: General}
	case err != nil:
		return model.Event{}, fmt.Errorf("event %q: %w", id, err)
	}
	if ev.Category == "" {
		ev.Category = General
	}
	if ev.Name == "" {
		ev.Name = ev.ID
	}
	cache[id] = ev
	return ev, nil
}

// participant names the roster member, or the CL itself for CL-level awards.
func participant(cl model.Contingent, rec model.AwardRecord) model.Participant {
	out := model.Participant{Points: rec.Points, AwardUID: rec.UID}
	switch m, ok := cl.Member(rec.MemberID); {
	case rec.MemberID == "":
		out.ID, out.Name = cl.ID, cl.DisplayName
	case ok:
		out.ID, out.Name, out.Email, out.Avatar = m.ID, m.Name, m.Email, m.Avatar
	default:
		out.ID, out.Name = rec.MemberID, rec.MemberID
	}
	return out
}
