// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/prscore/internal/domain/rules"
)

// Round places a qualification award inside an event's round lists.
type Round string

const (
	RoundNone     Round = ""
	RoundOne      Round = "round_1"
	RoundTwo      Round = "round_2"
	RoundRunnerUp Round = "runner_up"
)

// Valid reports whether r is empty or one of the known rounds.
func (r Round) Valid() bool {
	switch r {
	case RoundNone, RoundOne, RoundTwo, RoundRunnerUp:
		return true
	default:
		return false
	}
}

// AwardRecord is one immutable ledger entry. Points are resolved when the
// record is written, so later catalog edits never change history.
type AwardRecord struct {
	UID         string    `json:"uid"`
	CLID        string    `json:"cl_id"`
	MemberID    string    `json:"member_id,omitempty"`
	EventID     string    `json:"event_id,omitempty"`
	Rule        rules.Key `json:"rule"`
	Round       Round     `json:"round,omitempty"`
	Points      int       `json:"points"`
	Description string    `json:"description,omitempty"`
	AwardedBy   string    `json:"awarded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsFreeForm reports whether the record carries a free-form rule.
func (r AwardRecord) IsFreeForm() bool {
	_, ok := r.Rule.FreeForm()
	return ok
}
