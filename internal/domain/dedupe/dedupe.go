// Package dedupe guards the award ledger against repeated award tuples.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/prscore/internal/domain/model"
	"github.com/okian/prscore/internal/domain/rules"
)

// Key identifies an award for at-most-once purposes. Two awards with the
// same CL, member, event, rule and round are considered the same grant.
type Key struct {
	CLID     string
	MemberID string
	EventID  string
	Rule     rules.Key
	Round    model.Round
}

// KeyOf extracts the dedupe key from a ledger record.
func KeyOf(rec model.AwardRecord) Key {
	return Key{
		CLID:     rec.CLID,
		MemberID: rec.MemberID,
		EventID:  rec.EventID,
		Rule:     rec.Rule,
		Round:    rec.Round,
	}
}

// Deduper records seen award keys.
type Deduper interface {
	// SeenAndRecord atomically checks if k was seen and records it if not.
	// Returns true if k was already seen.
	SeenAndRecord(ctx context.Context, k Key) bool

	// Unrecord forgets k. Used when the append that followed a successful
	// SeenAndRecord failed.
	Unrecord(ctx context.Context, k Key)

	Size() int64
}

// inMemoryDeduper keeps keys in a map. In bounded mode (maxSize > 0) an
// insertion-ordered queue evicts the oldest key once the limit is hit.
// Unbounded mode (maxSize <= 0) never evicts.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[Key]uint64 // key -> insertion sequence
	order   []entry        // bounded mode only; may hold stale entries
	seq     uint64
	maxSize int
	size    atomic.Int64
}

type entry struct {
	key Key
	seq uint64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[Key]uint64)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, k Key) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[k]; exists {
		return true
	}

	d.seq++
	if d.maxSize > 0 {
		for len(d.seen) >= d.maxSize {
			d.evictOldest()
		}
		d.order = append(d.order, entry{key: k, seq: d.seq})
	}
	d.seen[k] = d.seq
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, k Key) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[k]; !exists {
		return
	}
	// The queue entry goes stale and is skipped by evictOldest.
	delete(d.seen, k)
	d.size.Add(-1)
}

// evictOldest drops the oldest live key. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	for len(d.order) > 0 {
		head := d.order[0]
		d.order = d.order[1:]
		if seq, ok := d.seen[head.key]; ok && seq == head.seq {
			delete(d.seen, head.key)
			d.size.Add(-1)
			return
		}
	}
}

// Size returns the current number of keys held.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
