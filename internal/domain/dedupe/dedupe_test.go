package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/prscore/internal/domain/dedupe"
	"github.com/okian/prscore/internal/domain/model"
	"github.com/okian/prscore/internal/domain/rules"
	. "github.com/smartystreets/goconvey/convey"
)

func key(cl string) dedupe.Key {
	return dedupe.Key{
		CLID:     cl,
		MemberID: "m1",
		EventID:  "ev1",
		Rule:     rules.TieredKey(rules.TierGold, rules.StageFirst, rules.ModeOnline),
	}
}

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it starts empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording award keys", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the key is new", func() {
				seen := d.SeenAndRecord(ctx, key("CL1"))

				Convey("Then it should return false and record the key", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the same tuple arrives again", func() {
				d.SeenAndRecord(ctx, key("CL1"))
				seen := d.SeenAndRecord(ctx, key("CL1"))

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And tuples differ only by round", func() {
				k1 := key("CL1")
				k1.Rule = rules.TieredKey(rules.TierGold, rules.StageQualification, rules.ModeOnline)
				k1.Round = model.RoundOne
				k2 := k1
				k2.Round = model.RoundTwo

				Convey("Then both are recorded", func() {
					So(d.SeenAndRecord(ctx, k1), ShouldBeFalse)
					So(d.SeenAndRecord(ctx, k2), ShouldBeFalse)
					So(d.Size(), ShouldEqual, 2)
				})
			})
		})

		Convey("When unrecording keys", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the key exists", func() {
				d.SeenAndRecord(ctx, key("CL1"))
				d.Unrecord(ctx, key("CL1"))

				Convey("Then it should be removed", func() {
					So(d.Size(), ShouldEqual, 0)
					So(d.SeenAndRecord(ctx, key("CL1")), ShouldBeFalse)
				})
			})

			Convey("And the key doesn't exist", func() {
				d.Unrecord(ctx, key("nope"))

				Convey("Then the size is unaffected", func() {
					So(d.Size(), ShouldEqual, 0)
				})
			})
		})

		Convey("When using bounded mode with eviction", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for _, cl := range []string{"CL1", "CL2", "CL3"} {
				So(d.SeenAndRecord(ctx, key(cl)), ShouldBeFalse)
			}

			Convey("And one more key is recorded", func() {
				So(d.SeenAndRecord(ctx, key("CL4")), ShouldBeFalse)

				Convey("Then the oldest key is evicted", func() {
					So(d.Size(), ShouldEqual, 3)
					So(d.SeenAndRecord(ctx, key("CL4")), ShouldBeTrue)
					So(d.SeenAndRecord(ctx, key("CL3")), ShouldBeTrue)
					So(d.SeenAndRecord(ctx, key("CL1")), ShouldBeFalse)
				})
			})

			Convey("And an unrecorded key is re-added before eviction", func() {
				d.Unrecord(ctx, key("CL1"))
				So(d.SeenAndRecord(ctx, key("CL1")), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, key("CL4")), ShouldBeFalse)

				Convey("Then the stale queue slot does not evict the fresh key", func() {
					So(d.Size(), ShouldEqual, 3)
					So(d.SeenAndRecord(ctx, key("CL1")), ShouldBeTrue)
					So(d.SeenAndRecord(ctx, key("CL2")), ShouldBeFalse)
				})
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			const n = 1000
			for i := 0; i < n; i++ {
				So(d.SeenAndRecord(ctx, key(fmt.Sprintf("CL%d", i))), ShouldBeFalse)
			}

			Convey("Then every key is kept", func() {
				So(d.Size(), ShouldEqual, int64(n))
				So(d.SeenAndRecord(ctx, key("CL0")), ShouldBeTrue)
			})
		})
	})
}

func TestKeyOf(t *testing.T) {
	Convey("Given an award record", t, func() {
		rec := model.AwardRecord{
			UID:       "u1",
			CLID:      "CL1",
			MemberID:  "m1",
			EventID:   "ev1",
			Rule:      rules.TieredKey(rules.TierGold, rules.StageFirst, rules.ModeOnline),
			Points:    800,
			AwardedBy: "admin",
		}

		Convey("Then its key ignores uid, points and awarder", func() {
			other := rec
			other.UID = "u2"
			other.Points = 1
			other.AwardedBy = "someone"
			So(dedupe.KeyOf(other), ShouldEqual, dedupe.KeyOf(rec))
			So(dedupe.KeyOf(rec), ShouldEqual, key("CL1"))
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		const goroutines = 10

		Convey("When every goroutine records the same key", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !d.SeenAndRecord(context.Background(), key("CL1")) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one of them wins", func() {
				So(fresh, ShouldEqual, 1)
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}
