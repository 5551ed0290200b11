// Package repository holds the award ledger stores and the contingent
// directory adapters.
package repository

import (
	"fmt"
	"time"

	"github.com/okian/prscore/internal/domain/ledger"
	"github.com/okian/prscore/internal/domain/model"
	"github.com/okian/prscore/internal/domain/rules"
)

var (
	_ ledger.Store = (*MemoryStore)(nil)
	_ ledger.Store = (*SQLiteStore)(nil)
	_ ledger.Store = (*PostgresStore)(nil)

	_ ledger.Directory = (*Directory)(nil)
)

// row is the flat persisted shape shared by the SQL stores.
type row struct {
	UID         string
	CLID        string
	MemberID    string
	EventID     string
	Rule        string
	Round       string
	Points      int
	Description string
	AwardedBy   string
	CreatedAt   time.Time
}

func toRow(rec model.AwardRecord) row {
	return row{
		UID:         rec.UID,
		CLID:        rec.CLID,
		MemberID:    rec.MemberID,
		EventID:     rec.EventID,
		Rule:        rec.Rule.String(),
		Round:       string(rec.Round),
		Points:      rec.Points,
		Description: rec.Description,
		AwardedBy:   rec.AwardedBy,
		CreatedAt:   rec.CreatedAt.UTC(),
	}
}

func (r row) record() (model.AwardRecord, error) {
	key, err := rules.ParseKey(r.Rule)
	if err != nil {
		return model.AwardRecord{}, fmt.Errorf("%w: %s: %w", ErrCorruptRecord, r.UID, err)
	}
	round := model.Round(r.Round)
	if !round.Valid() {
		return model.AwardRecord{}, fmt.Errorf("%w: %s: round %q", ErrCorruptRecord, r.UID, r.Round)
	}
	return model.AwardRecord{
		UID:         r.UID,
		CLID:        r.CLID,
		MemberID:    r.MemberID,
		EventID:     r.EventID,
		Rule:        key,
		Round:       round,
		Points:      r.Points,
		Description: r.Description,
		AwardedBy:   r.AwardedBy,
		CreatedAt:   r.CreatedAt.UTC(),
	}, nil
}
