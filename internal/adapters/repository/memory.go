package repository

import (
	"context"
	"sync"

	"github.com/okian/prscore/internal/domain/model"
)

// MemoryStore keeps the ledger in a slice guarded by a RWMutex.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.AwardRecord
	byCL    map[string][]int
}

// NewMemoryStore returns an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byCL: make(map[string][]int)}
}

func (s *MemoryStore) Append(ctx context.Context, rec model.AwardRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byCL[rec.CLID] = append(s.byCL[rec.CLID], len(s.records))
	s.records = append(s.records, rec)
	return nil
}

func (s *MemoryStore) ListByCL(ctx context.Context, clID string) ([]model.AwardRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.byCL[clID]
	out := make([]model.AwardRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.records[i])
	}
	return out, nil
}

func (s *MemoryStore) All(ctx context.Context) ([]model.AwardRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AwardRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) Version(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// Close is a no-op kept for symmetry with the SQL stores.
func (s *MemoryStore) Close() error { return nil }
