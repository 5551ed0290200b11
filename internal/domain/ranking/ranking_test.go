package ranking_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/okian/prscore/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func ranksOf(entries []ranking.Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Rank
	}
	return out
}

func idsOf(entries []ranking.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestRank(t *testing.T) {
	Convey("Given scores 500, 500, 300, 100", t, func() {
		in := []ranking.Candidate{
			{ID: "cl-c", FinalScore: 300},
			{ID: "cl-b", FinalScore: 500},
			{ID: "cl-d", FinalScore: 100},
			{ID: "cl-a", FinalScore: 500},
		}

		Convey("When ranking", func() {
			out := ranking.Rank(in)

			Convey("Then ties share a rank and the next rank skips", func() {
				So(ranksOf(out), ShouldResemble, []int{1, 1, 3, 4})
			})

			Convey("And ties are ordered by id", func() {
				So(idsOf(out), ShouldResemble, []string{"cl-a", "cl-b", "cl-c", "cl-d"})
			})

			Convey("And the input is left untouched", func() {
				So(in[0].ID, ShouldEqual, "cl-c")
			})
		})
	})

	Convey("Given a three-way tie below the leader", t, func() {
		in := []ranking.Candidate{
			{ID: "a", FinalScore: 90},
			{ID: "b", FinalScore: 70},
			{ID: "c", FinalScore: 70},
			{ID: "d", FinalScore: 70},
			{ID: "e", FinalScore: 10},
		}

		Convey("Then ranks follow competition ranking, not dense ranking", func() {
			So(ranksOf(ranking.Rank(in)), ShouldResemble, []int{1, 2, 2, 2, 5})
		})
	})

	Convey("Given negative and zero scores", t, func() {
		in := []ranking.Candidate{
			{ID: "x", FinalScore: -20},
			{ID: "y", FinalScore: 0},
			{ID: "z", FinalScore: 0},
		}

		Convey("Then negative scores rank last", func() {
			out := ranking.Rank(in)
			So(idsOf(out), ShouldResemble, []string{"y", "z", "x"})
			So(ranksOf(out), ShouldResemble, []int{1, 1, 3})
		})
	})

	Convey("Given no candidates", t, func() {
		Convey("Then the result is empty", func() {
			So(ranking.Rank(nil), ShouldBeEmpty)
		})
	})

	Convey("Given metadata on candidates", t, func() {
		out := ranking.Rank([]ranking.Candidate{{ID: "cl1", DisplayName: "Ravi", Affiliation: "NIT", Alias: "rv", FinalScore: 42}})

		Convey("Then it is carried onto the entry", func() {
			So(out[0], ShouldResemble, ranking.Entry{Rank: 1, ID: "cl1", DisplayName: "Ravi", Affiliation: "NIT", Alias: "rv", Points: 42})
		})
	})
}

func TestRank_Determinism(t *testing.T) {
	Convey("Given a large shuffled field with many ties", t, func() {
		faker := gofakeit.New(7)
		in := make([]ranking.Candidate, 200)
		for i := range in {
			in[i] = ranking.Candidate{
				ID:         faker.UUID(),
				FinalScore: faker.IntRange(0, 20) * 50,
			}
		}

		Convey("When ranking twice, once over a reshuffled copy", func() {
			first := ranking.Rank(in)
			shuffled := make([]ranking.Candidate, len(in))
			copy(shuffled, in)
			faker.ShuffleAnySlice(shuffled)
			second := ranking.Rank(shuffled)

			Convey("Then both sequences are identical", func() {
				So(second, ShouldResemble, first)
			})

			Convey("And every rank equals one plus the count of strictly higher scores", func() {
				for _, e := range first {
					higher := 0
					for _, c := range in {
						if c.FinalScore > e.Points {
							higher++
						}
					}
					So(e.Rank, ShouldEqual, higher+1)
				}
			})
		})
	})
}

func TestFindAndTop(t *testing.T) {
	Convey("Given a ranked list", t, func() {
		entries := ranking.Rank([]ranking.Candidate{
			{ID: "a", FinalScore: 3},
			{ID: "b", FinalScore: 2},
			{ID: "c", FinalScore: 1},
		})

		Convey("Then Find locates an entry by id", func() {
			e, ok := ranking.Find(entries, "b")
			So(ok, ShouldBeTrue)
			So(e.Rank, ShouldEqual, 2)
			_, ok = ranking.Find(entries, "zz")
			So(ok, ShouldBeFalse)
		})

		Convey("And Top truncates only for a positive limit below the length", func() {
			So(len(ranking.Top(entries, 2)), ShouldEqual, 2)
			So(len(ranking.Top(entries, 0)), ShouldEqual, 3)
			So(len(ranking.Top(entries, 10)), ShouldEqual, 3)
		})
	})
}
