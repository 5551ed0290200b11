package rules_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/prscore/internal/domain/rules"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTable_Resolve(t *testing.T) {
	Convey("Given the reference table", t, func() {
		table := rules.DefaultTable()

		Convey("Then every tier/stage/mode triple resolves", func() {
			So(table.Len(), ShouldEqual, len(rules.Tiers)*len(rules.Stages)*len(rules.Modes))
			for _, tier := range rules.Tiers {
				for _, stage := range rules.Stages {
					for _, mode := range rules.Modes {
						pts, err := table.Resolve(tier, stage, mode)
						So(err, ShouldBeNil)
						So(pts, ShouldBeGreaterThan, 0)
					}
				}
			}
		})

		Convey("And gold 1st online is worth 800", func() {
			pts, err := table.Resolve(rules.TierGold, rules.StageFirst, rules.ModeOnline)
			So(err, ShouldBeNil)
			So(pts, ShouldEqual, 800)
		})

		Convey("And online and offline legs always differ", func() {
			for _, tier := range rules.Tiers {
				for _, stage := range rules.Stages {
					on, _ := table.Resolve(tier, stage, rules.ModeOnline)
					off, _ := table.Resolve(tier, stage, rules.ModeOffline)
					So(on, ShouldNotEqual, off)
				}
			}
		})

		Convey("When resolving a triple outside the table", func() {
			cases := []struct {
				tier  rules.Tier
				stage rules.Stage
				mode  rules.Mode
			}{
				{"platinum", rules.StageFirst, rules.ModeOnline},
				{rules.TierGold, "4th", rules.ModeOnline},
				{rules.TierGold, rules.StageFirst, "hybrid"},
				{"", "", ""},
			}

			Convey("Then it always returns ErrRuleNotFound", func() {
				for _, c := range cases {
					pts, err := table.Resolve(c.tier, c.stage, c.mode)
					So(errors.Is(err, rules.ErrRuleNotFound), ShouldBeTrue)
					So(pts, ShouldEqual, 0)
				}
			})
		})
	})
}

func TestNewTable(t *testing.T) {
	Convey("Given a nested table configuration", t, func() {
		Convey("When it is the reference configuration", func() {
			table, err := rules.NewTable(rules.DefaultTableConfig())

			Convey("Then it matches the reference table cell for cell", func() {
				So(err, ShouldBeNil)
				So(table.Cells(), ShouldResemble, rules.DefaultTable().Cells())
			})
		})

		Convey("When a cell is missing", func() {
			table, err := rules.NewTable(map[string]map[string]map[string]int{
				"gold": {"1st": {"online": 900}},
			})

			Convey("Then the present cell resolves and the missing one does not", func() {
				So(err, ShouldBeNil)
				pts, err := table.Resolve(rules.TierGold, rules.StageFirst, rules.ModeOnline)
				So(err, ShouldBeNil)
				So(pts, ShouldEqual, 900)
				_, err = table.Resolve(rules.TierGold, rules.StageFirst, rules.ModeOffline)
				So(errors.Is(err, rules.ErrRuleNotFound), ShouldBeTrue)
			})
		})

		Convey("When names are unknown or values invalid", func() {
			bad := []map[string]map[string]map[string]int{
				{"platinum": {"1st": {"online": 1}}},
				{"gold": {"4th": {"online": 1}}},
				{"gold": {"1st": {"hybrid": 1}}},
				{"gold": {"1st": {"online": -5}}},
				{"gold": {"1st": {"online": 10, "offline": 10}}},
			}

			Convey("Then construction fails with ErrInvalidTable", func() {
				for _, cfg := range bad {
					_, err := rules.NewTable(cfg)
					So(errors.Is(err, rules.ErrInvalidTable), ShouldBeTrue)
				}
			})
		})
	})
}

func TestKey(t *testing.T) {
	Convey("Given rule keys", t, func() {
		tiered := rules.TieredKey(rules.TierSilver, rules.StageQualification, rules.ModeOffline)
		free := rules.FreeFormKey(rules.ExtraActivity)

		Convey("Then exactly one variant is set", func() {
			_, ok := tiered.Tiered()
			So(ok, ShouldBeTrue)
			_, ok = tiered.FreeForm()
			So(ok, ShouldBeFalse)
			_, ok = free.FreeForm()
			So(ok, ShouldBeTrue)
			So(rules.Key{}.IsZero(), ShouldBeTrue)
		})

		Convey("And the canonical form round-trips through ParseKey", func() {
			for _, k := range []rules.Key{tiered, free} {
				parsed, err := rules.ParseKey(k.String())
				So(err, ShouldBeNil)
				So(parsed == k, ShouldBeTrue)
			}
		})

		Convey("And keys encode as JSON strings", func() {
			b, err := json.Marshal(struct {
				Rule rules.Key `json:"rule"`
			}{Rule: tiered})
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"rule":"tiered:silver:qualification:offline"}`)
		})

		Convey("When parsing malformed keys", func() {
			for _, s := range []string{"", "tiered:gold:1st", "tiered:gold:1st:hybrid", "free:", "bogus"} {
				_, err := rules.ParseKey(s)
				So(errors.Is(err, rules.ErrInvalidKey), ShouldBeTrue)
			}
		})
	})
}

func TestCatalog(t *testing.T) {
	Convey("Given a default catalog", t, func() {
		c := rules.NewCatalog()

		Convey("Then only negative_activity is a penalty", func() {
			So(c.IsNegative(rules.NegativeActivity), ShouldBeTrue)
			So(c.IsNegative(rules.ExtraActivity), ShouldBeFalse)
			So(c.NegativeRules(), ShouldResemble, []string{rules.NegativeActivity})
		})

		Convey("And entries are ordered by tier, stage and mode", func() {
			entries := c.Entries()
			So(len(entries), ShouldEqual, 30)
			So(entries[0], ShouldResemble, rules.Cell{Tier: rules.TierGold, Stage: rules.StageParticipation, Mode: rules.ModeOnline, Points: 100})
			So(entries[29], ShouldResemble, rules.Cell{Tier: rules.TierBronze, Stage: rules.StageThird, Mode: rules.ModeOffline, Points: 100})
		})
	})

	Convey("Given a catalog with custom penalties", t, func() {
		c := rules.NewCatalog(rules.WithNegativeRules("late_checkin", rules.NegativeActivity))

		Convey("Then both names classify as negative", func() {
			So(c.IsNegative("late_checkin"), ShouldBeTrue)
			So(c.NegativeRules(), ShouldResemble, []string{"late_checkin", rules.NegativeActivity})
		})
	})
}
