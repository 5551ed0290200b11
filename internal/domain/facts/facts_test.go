package facts_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/prscore/internal/adapters/repository"
	"github.com/okian/prscore/internal/domain/facts"
	"github.com/okian/prscore/internal/domain/ledger"
	"github.com/okian/prscore/internal/domain/model"
	"github.com/okian/prscore/internal/domain/rules"
	"github.com/okian/prscore/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func intp(v int) *int { return &v }

func fixtures() (*repository.MemoryStore, *repository.Directory, *ledger.Service) {
	dir, err := repository.NewDirectory(
		[]model.Contingent{{
			ID: "CL1", DisplayName: "Ravi",
			Members: []model.Member{{ID: "m1", Name: "Anu", Email: "anu@example.com"}, {ID: "m2", Name: "Ben"}},
		}},
		[]model.Event{
			{ID: "ev-hack", Name: "Hackathon", Category: "technical", Tier: "gold"},
			{ID: "ev-dance", Name: "Dance", Category: "cultural", Tier: "bronze"},
		},
	)
	if err != nil {
		panic(err)
	}
	store := repository.NewMemoryStore()
	return store, dir, ledger.New(store, dir)
}

func TestLedgerProvider(t *testing.T) {
	ctx := context.Background()

	Convey("Given tiered and free-form awards in the ledger", t, func() {
		store, dir, svc := fixtures()
		award := func(req ledger.Request) model.AwardRecord {
			req.CLID, req.AwardedBy = "CL1", "admin"
			rec, err := svc.Award(ctx, req)
			So(err, ShouldBeNil)
			return rec
		}

		reg := award(ledger.Request{Rule: rules.TieredKey(rules.TierGold, rules.StageParticipation, rules.ModeOnline), MemberID: "m1", EventID: "ev-hack"})
		award(ledger.Request{Rule: rules.TieredKey(rules.TierGold, rules.StageParticipation, rules.ModeOffline), MemberID: "m2", EventID: "ev-hack"})
		award(ledger.Request{Rule: rules.TieredKey(rules.TierGold, rules.StageQualification, rules.ModeOnline), MemberID: "m1", EventID: "ev-hack"})
		award(ledger.Request{Rule: rules.TieredKey(rules.TierGold, rules.StageQualification, rules.ModeOnline), MemberID: "m1", EventID: "ev-hack", Round: model.RoundTwo})
		award(ledger.Request{Rule: rules.TieredKey(rules.TierGold, rules.StageQualification, rules.ModeOnline), MemberID: "m2", EventID: "ev-hack", Round: model.RoundRunnerUp})
		first := award(ledger.Request{Rule: rules.TieredKey(rules.TierGold, rules.StageFirst, rules.ModeOnline), MemberID: "m1", EventID: "ev-hack"})
		award(ledger.Request{Rule: rules.TieredKey(rules.TierBronze, rules.StageThird, rules.ModeOffline)})
		award(ledger.Request{Rule: rules.FreeFormKey(rules.ExtraActivity), Points: intp(30)})

		p := facts.NewLedgerProvider(store, dir)

		Convey("When building facts", func() {
			got, err := p.Facts(ctx, "CL1")
			So(err, ShouldBeNil)

			Convey("Then awards land in their event's category", func() {
				So(got, ShouldContainKey, "technical")
				So(got, ShouldContainKey, facts.General)
				So(got, ShouldNotContainKey, "cultural")
			})

			Convey("And stages map to registrations, rounds and ranks", func() {
				hack := got["technical"][0]
				So(hack.EventName, ShouldEqual, "Hackathon")
				So(hack.Registrations.Online, ShouldResemble, []model.Participant{{ID: "m1", Name: "Anu", Email: "anu@example.com", Points: 100, AwardUID: reg.UID}})
				So(len(hack.Registrations.Offline), ShouldEqual, 1)
				So(hack.Registrations.Offline[0].Points, ShouldEqual, 50)
				So(len(hack.Rounds.Round1Qualified), ShouldEqual, 1)
				So(len(hack.Rounds.Round2Qualified), ShouldEqual, 1)
				So(len(hack.Rounds.RunnerUps), ShouldEqual, 1)
				So(hack.Ranks, ShouldHaveLength, 1)
				So(hack.Ranks[0].Rank, ShouldEqual, "1st")
				So(hack.Ranks[0].AwardUID, ShouldEqual, first.UID)
			})

			Convey("And CL-level awards name the CL", func() {
				general := got[facts.General][0]
				So(general.EventID, ShouldEqual, facts.General)
				So(general.Ranks[0].ID, ShouldEqual, "CL1")
				So(general.Ranks[0].Name, ShouldEqual, "Ravi")
				So(general.Ranks[0].Points, ShouldEqual, 100)
			})

			Convey("And the aggregated category total includes the 800 point win", func() {
				records, _ := store.ListByCL(ctx, "CL1")
				report := scoring.Aggregate("CL1", got, records, rules.NewCatalog().IsNegative)
				So(report.Summary.CategoryTotals["technical"], ShouldEqual, 100+50+200+200+200+800)
				So(report.Summary.ExtraActivitiesScore, ShouldEqual, 30)
				So(scoring.Verify(report), ShouldBeNil)
			})
		})

		Convey("When the same placement is awarded again", func() {
			award(ledger.Request{Rule: rules.TieredKey(rules.TierGold, rules.StageFirst, rules.ModeOnline), MemberID: "m1", EventID: "ev-hack"})
			got, err := p.Facts(ctx, "CL1")
			So(err, ShouldBeNil)

			Convey("Then both records are listed", func() {
				So(got["technical"][0].Ranks, ShouldHaveLength, 2)
			})
		})

		Convey("Then the version tracks the ledger", func() {
			v, err := p.Version(ctx)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 8)
		})

		Convey("Then an unknown CL is rejected", func() {
			_, err := p.Facts(ctx, "CL9")
			So(errors.Is(err, ledger.ErrUnknownSubject), ShouldBeTrue)
		})
	})

	Convey("Given a CL without awards", t, func() {
		store, dir, _ := fixtures()

		Convey("Then the facts are empty but not nil", func() {
			got, err := facts.NewLedgerProvider(store, dir).Facts(ctx, "CL1")
			So(err, ShouldBeNil)
			So(got, ShouldNotBeNil)
			So(got, ShouldBeEmpty)
		})
	})
}

const factsYAML = `
CL1:
  - event_id: ev-quiz
    event_name: Quiz
    category: literary
    registrations:
      online:
        - {id: m1, name: Anu, points: 75}
      offline: []
    ranks:
      - {id: m1, name: Anu, points: 300, rank: 2nd}
  - event_id: ev-talk
    event_name: Talk
    registrations:
      offline:
        - {id: m2, name: Ben, points: 25}
`

func TestFileProvider(t *testing.T) {
	ctx := context.Background()

	Convey("Given a facts file", t, func() {
		path := filepath.Join(t.TempDir(), "facts.yaml")
		So(os.WriteFile(path, []byte(factsYAML), 0o600), ShouldBeNil)

		p, err := facts.LoadFileProvider(path)
		So(err, ShouldBeNil)

		Convey("Then facts are grouped by category", func() {
			got, err := p.Facts(ctx, "CL1")
			So(err, ShouldBeNil)
			So(got["literary"][0].Ranks[0].Rank, ShouldEqual, "2nd")
			So(got[facts.General][0].EventID, ShouldEqual, "ev-talk")
		})

		Convey("Then other CLs have no facts", func() {
			got, err := p.Facts(ctx, "CL2")
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("Then the version is fixed", func() {
			v, err := p.Version(ctx)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 0)
		})
	})

	Convey("Given a facts file with a missing event id", t, func() {
		path := filepath.Join(t.TempDir(), "facts.yaml")
		So(os.WriteFile(path, []byte("CL1:\n  - event_name: x\n"), 0o600), ShouldBeNil)

		Convey("Then loading fails", func() {
			_, err := facts.LoadFileProvider(path)
			So(errors.Is(err, facts.ErrInvalidFacts), ShouldBeTrue)
		})
	})
}

func TestComposite(t *testing.T) {
	ctx := context.Background()

	Convey("Given two providers with an overlapping event", t, func() {
		a := facts.NewFileProvider(map[string][]model.EventFacts{
			"CL1": {{EventID: "e1", EventName: "One", Category: "c", Registrations: model.Registrations{Online: []model.Participant{{ID: "a", Points: 1}}}}},
		})
		b := facts.NewFileProvider(map[string][]model.EventFacts{
			"CL1": {
				{EventID: "e1", EventName: "One", Category: "c", Registrations: model.Registrations{Online: []model.Participant{{ID: "b", Points: 2}}}},
				{EventID: "e2", EventName: "Two", Category: "c"},
			},
		})
		store, dir, svc := fixtures()
		_, err := svc.Award(ctx, ledger.Request{CLID: "CL1", Rule: rules.TieredKey(rules.TierBronze, rules.StageFirst, rules.ModeOnline), AwardedBy: "x"})
		So(err, ShouldBeNil)

		c := facts.Composite{a, b, facts.NewLedgerProvider(store, dir)}

		Convey("Then participant lists are concatenated in provider order", func() {
			got, err := c.Facts(ctx, "CL1")
			So(err, ShouldBeNil)
			So(got["c"], ShouldHaveLength, 2)
			So(got["c"][0].Registrations.Online, ShouldResemble, []model.Participant{{ID: "a", Points: 1}, {ID: "b", Points: 2}})
			So(got[facts.General][0].Ranks[0].Points, ShouldEqual, 400)
		})

		Convey("Then the version sums its members", func() {
			v, err := c.Version(ctx)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 1)
		})
	})
}
