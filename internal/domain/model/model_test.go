package model_test

import (
	"encoding/json"
	"testing"
	"time"

	model "github.com/okian/prscore/internal/domain/model"
	"github.com/okian/prscore/internal/domain/rules"
	"github.com/smartystreets/goconvey/convey"
)

func TestRound(t *testing.T) {
	convey.Convey("Given round hints", t, func() {
		convey.Convey("Then the known values are valid", func() {
			for _, r := range []model.Round{model.RoundNone, model.RoundOne, model.RoundTwo, model.RoundRunnerUp} {
				convey.So(r.Valid(), convey.ShouldBeTrue)
			}
		})

		convey.Convey("And anything else is not", func() {
			convey.So(model.Round("round_3").Valid(), convey.ShouldBeFalse)
		})
	})
}

func TestAwardRecord(t *testing.T) {
	convey.Convey("Given an award record", t, func() {
		rec := model.AwardRecord{
			UID:       "a-1",
			CLID:      "CL1",
			Rule:      rules.FreeFormKey(rules.ExtraActivity),
			Points:    30,
			AwardedBy: "admin",
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}

		convey.Convey("Then it is classified as free-form", func() {
			convey.So(rec.IsFreeForm(), convey.ShouldBeTrue)
		})

		convey.Convey("And optional fields are omitted from JSON", func() {
			b, err := json.Marshal(rec)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldNotContainSubstring, "member_id")
			convey.So(string(b), convey.ShouldNotContainSubstring, "event_id")
			convey.So(string(b), convey.ShouldContainSubstring, `"rule":"free:extra_activity"`)

			var back model.AwardRecord
			convey.So(json.Unmarshal(b, &back), convey.ShouldBeNil)
			convey.So(back, convey.ShouldResemble, rec)
		})
	})
}

func TestContingent_Member(t *testing.T) {
	convey.Convey("Given a contingent with a roster", t, func() {
		c := model.Contingent{ID: "CL1", Members: []model.Member{{ID: "m1", Name: "Asha"}}}

		convey.Convey("Then roster members are found", func() {
			m, ok := c.Member("m1")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(m.Name, convey.ShouldEqual, "Asha")
		})

		convey.Convey("And outsiders are not", func() {
			_, ok := c.Member("m9")
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}
