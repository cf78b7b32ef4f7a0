package seed_test

import (
	"testing"

	"github.com/nvara/tally/internal/domain/model"
	"github.com/nvara/tally/internal/seed"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		g := seed.NewGenerator(42)

		Convey("When generating a roster", func() {
			roster := g.Roster(50)
			So(roster, ShouldHaveLength, 50)

			Convey("Then every entity has an identity", func() {
				ids := make(map[string]bool, len(roster))
				for _, e := range roster {
					So(e.ID, ShouldNotBeEmpty)
					So(e.Name, ShouldNotBeEmpty)
					So(e.Program, ShouldNotBeEmpty)
					So(ids[e.ID], ShouldBeFalse)
					ids[e.ID] = true
				}
			})

			Convey("And when generating submissions over it", func() {
				subs := g.Submissions(roster, model.PeriodMidterm)
				So(subs, ShouldNotBeEmpty)

				for _, s := range subs {
					So(s.Period, ShouldEqual, model.PeriodMidterm)
				}
			})
		})

		Convey("When regenerating with the same seed", func() {
			a := seed.NewGenerator(7)
			b := seed.NewGenerator(7)

			rosterA := a.Roster(20)
			rosterB := b.Roster(20)
			So(rosterB, ShouldResemble, rosterA)

			So(b.Submissions(rosterB, model.PeriodFinal),
				ShouldResemble, a.Submissions(rosterA, model.PeriodFinal))
		})

		Convey("When regenerating with a different seed", func() {
			a := seed.NewGenerator(1).Roster(20)
			b := seed.NewGenerator(2).Roster(20)
			So(b, ShouldNotResemble, a)
		})
	})
}
