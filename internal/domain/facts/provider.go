// Package facts supplies per-event registrations, rounds and ranks to the
// score aggregator.
package facts

import (
	"context"
	"errors"

	"github.com/okian/prscore/internal/domain/model"
)

// General is the synthetic event and category for awards made without an
// event.
const General = "general"

// ErrInvalidFacts reports an unreadable or inconsistent facts source.
var ErrInvalidFacts = errors.New("invalid facts")

// Provider returns the event facts of one CL keyed by category.
type Provider interface {
	Facts(ctx context.Context, clID string) (map[string][]model.EventFacts, error)
	// Version changes whenever Facts could return something different.
	Version(ctx context.Context) (int64, error)
}

// Composite merges providers event by event. Participant lists of the same
// event are concatenated in provider order.
type Composite []Provider

func (c Composite) Facts(ctx context.Context, clID string) (map[string][]model.EventFacts, error) {
	var b builder
	for _, p := range c {
		got, err := p.Facts(ctx, clID)
		if err != nil {
			return nil, err
		}
		for category, events := range got {
			for _, ev := range events {
				b.merge(category, ev)
			}
		}
	}
	return b.result(), nil
}

func (c Composite) Version(ctx context.Context) (int64, error) {
	var sum int64
	for _, p := range c {
		v, err := p.Version(ctx)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}

// builder accumulates events per category, keeping first-seen order.
type builder struct {
	index map[string]map[string]int
	out   map[string][]model.EventFacts
}

func (b *builder) event(category, id, name string) *model.EventFacts {
	if b.out == nil {
		b.out = make(map[string][]model.EventFacts)
		b.index = make(map[string]map[string]int)
	}
	if b.index[category] == nil {
		b.index[category] = make(map[string]int)
	}
	i, ok := b.index[category][id]
	if !ok {
		i = len(b.out[category])
		b.index[category][id] = i
		b.out[category] = append(b.out[category], model.EventFacts{
			EventID:   id,
			EventName: name,
			Category:  category,
		})
	}
	return &b.out[category][i]
}

func (b *builder) merge(category string, ev model.EventFacts) {
	if category == "" {
		category = General
	}
	dst := b.event(category, ev.EventID, ev.EventName)
	dst.Registrations.Online = append(dst.Registrations.Online, ev.Registrations.Online...)
	dst.Registrations.Offline = append(dst.Registrations.Offline, ev.Registrations.Offline...)
	dst.Rounds.Round1Qualified = append(dst.Rounds.Round1Qualified, ev.Rounds.Round1Qualified...)
	dst.Rounds.Round2Qualified = append(dst.Rounds.Round2Qualified, ev.Rounds.Round2Qualified...)
	dst.Rounds.RunnerUps = append(dst.Rounds.RunnerUps, ev.Rounds.RunnerUps...)
	dst.Ranks = append(dst.Ranks, ev.Ranks...)
}

func (b *builder) result() map[string][]model.EventFacts {
	if b.out == nil {
		return map[string][]model.EventFacts{}
	}
	return b.out
}
