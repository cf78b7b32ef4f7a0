package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nvara/tally/internal/adapters/feed"
	service "github.com/nvara/tally/internal/app"
	"github.com/nvara/tally/internal/domain/model"
	"github.com/nvara/tally/internal/domain/ranking"
	"github.com/nvara/tally/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	_ = logger.SetLevelString("error")
	m.Run()
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

type fixture struct {
	roster  *feed.MemoryFeed[model.Entity]
	midterm *feed.MemoryFeed[model.RawSubmission]
	final   *feed.MemoryFeed[model.RawSubmission]
	svc     *service.Service
}

func newFixture(opts ...service.Option) *fixture {
	f := &fixture{
		roster:  feed.NewMemoryFeed[model.Entity](),
		midterm: feed.NewMemoryFeed[model.RawSubmission](),
		final:   feed.NewMemoryFeed[model.RawSubmission](),
	}
	f.svc = service.New(service.Feeds{
		Roster:  f.roster,
		Midterm: f.midterm,
		Final:   f.final,
	}, opts...)
	return f
}

func (f *fixture) passSeq() uint64 {
	seq, _ := f.svc.Stats()["pass_seq"].(uint64)
	return seq
}

func (f *fixture) loading() bool {
	loading, _ := f.svc.Stats()["loading"].(bool)
	return loading
}

func testRoster() []model.Entity {
	return []model.Entity{
		{ID: "e1", Name: "Alice Reyes", Section: "S1", Program: "BSIT"},
		{ID: "e2", Name: "Bob Santos", Section: "S2", Program: "BSCS"},
		{ID: "e3", Name: "Carol Cruz", Section: "S1", Program: "BSIT"},
	}
}

func totalsSub(name, section string, period model.Period, total float64) model.RawSubmission {
	return model.RawSubmission{
		Name:             name,
		Section:          section,
		Period:           period,
		TotalScore:       total,
		MaxPossibleScore: 35,
	}
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given an unstarted coordinator", t, func() {
		f := newFixture()

		Convey("When querying before Start", func() {
			_, err := f.svc.GetRanking(ctx, service.Query{})
			So(err, ShouldEqual, service.ErrNotStarted)
		})

		Convey("When started and stopped", func() {
			So(f.svc.Start(ctx), ShouldBeNil)

			Convey("Then a second Start is a no-op", func() {
				So(f.svc.Start(ctx), ShouldBeNil)
				f.svc.Stop()
			})

			Convey("Then Stop tears it down and later queries fail", func() {
				f.svc.Stop()
				_, err := f.svc.GetRanking(ctx, service.Query{})
				So(err, ShouldEqual, service.ErrNotStarted)

				So(f.svc.Stop, ShouldNotPanic)
			})
		})
	})
}

func TestServiceRecompute(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started coordinator", t, func() {
		f := newFixture()
		So(f.svc.Start(ctx), ShouldBeNil)
		defer f.svc.Stop()

		Convey("When no feed has emitted yet", func() {
			res, err := f.svc.GetRanking(ctx, service.Query{})
			So(err, ShouldBeNil)
			So(res.Loading, ShouldBeTrue)
			So(res.Groups, ShouldBeEmpty)
		})

		Convey("When only the roster has emitted", func() {
			So(f.roster.Publish(ctx, testRoster()), ShouldBeNil)
			So(waitFor(func() bool { return f.passSeq() >= 1 }), ShouldBeTrue)

			res, err := f.svc.GetRanking(ctx, service.Query{})
			So(err, ShouldBeNil)
			So(res.Loading, ShouldBeTrue) // submission feeds still pending
			So(res.Groups, ShouldHaveLength, 1)
			So(res.Groups[0].PageItems, ShouldBeEmpty) // nobody scoreable yet
		})

		Convey("When every feed has emitted", func() {
			So(f.roster.Publish(ctx, testRoster()), ShouldBeNil)
			So(f.midterm.Publish(ctx, []model.RawSubmission{
				totalsSub("Alice Reyes", "S1", model.PeriodMidterm, 28), // 8.0
				totalsSub("Bob Santos", "S2", model.PeriodMidterm, 21),  // 6.0
			}), ShouldBeNil)
			So(f.final.Publish(ctx, []model.RawSubmission{
				totalsSub("Alice Reyes", "S1", model.PeriodFinal, 35), // 10.0
			}), ShouldBeNil)

			So(waitFor(func() bool { return !f.loading() }), ShouldBeTrue)
			So(waitFor(func() bool { return f.passSeq() >= 3 }), ShouldBeTrue)

			res, err := f.svc.GetRanking(ctx, service.Query{})
			So(err, ShouldBeNil)
			So(res.Loading, ShouldBeFalse)
			So(res.Error, ShouldBeEmpty)
			So(res.Groups, ShouldHaveLength, 1)

			items := res.Groups[0].PageItems
			So(items, ShouldHaveLength, 2) // Carol has no submissions
			So(items[0].ID, ShouldEqual, "e1")
			So(items[0].Combined.Score, ShouldEqual, 9.0)
			So(items[0].Rank, ShouldEqual, 1)
			So(items[1].ID, ShouldEqual, "e2")
			So(items[1].Combined.Score, ShouldEqual, 6.0)
			So(items[1].Rank, ShouldEqual, 2)

			Convey("Then repeated queries are identical", func() {
				again, err := f.svc.GetRanking(ctx, service.Query{})
				So(err, ShouldBeNil)
				So(again, ShouldResemble, res)
			})

			Convey("Then single entities resolve from the same pass", func() {
				e, err := f.svc.Entity(ctx, "e1")
				So(err, ShouldBeNil)
				So(e.Midterm.Score, ShouldEqual, 8.0)
				So(e.Final.Score, ShouldEqual, 10.0)

				_, err = f.svc.Entity(ctx, "e3") // scoreless, not in the pass
				So(err, ShouldNotBeNil)
			})

			Convey("Then diagnostics describe the pass", func() {
				d := f.svc.Diagnostics()
				So(d.SubmissionsSeen, ShouldEqual, 3)
				So(d.SubmissionsMatched, ShouldEqual, 3)
				So(d.EntitiesScored, ShouldEqual, 2)
				So(d.EntitiesScoreless, ShouldEqual, 1)
			})

			Convey("And when a feed redelivers an identical snapshot", func() {
				before := f.passSeq()
				So(f.midterm.Publish(ctx, []model.RawSubmission{
					totalsSub("Alice Reyes", "S1", model.PeriodMidterm, 28),
					totalsSub("Bob Santos", "S2", model.PeriodMidterm, 21),
				}), ShouldBeNil)
				// A later, changed snapshot proves the identical one was
				// handled first without triggering a pass.
				So(f.final.Publish(ctx, []model.RawSubmission{
					totalsSub("Alice Reyes", "S1", model.PeriodFinal, 28),
				}), ShouldBeNil)

				So(waitFor(func() bool { return f.passSeq() == before+1 }), ShouldBeTrue)

				e, err := f.svc.Entity(ctx, "e1")
				So(err, ShouldBeNil)
				So(e.Final.Score, ShouldEqual, 8.0)
			})

			Convey("And when one feed updates, the others' snapshots persist", func() {
				before := f.passSeq()
				So(f.midterm.Publish(ctx, []model.RawSubmission{
					totalsSub("Carol Cruz", "S1", model.PeriodMidterm, 14), // 4.0
				}), ShouldBeNil)
				So(waitFor(func() bool { return f.passSeq() > before }), ShouldBeTrue)

				e, err := f.svc.Entity(ctx, "e3")
				So(err, ShouldBeNil)
				So(e.Midterm.Score, ShouldEqual, 4.0)

				// Alice keeps her final-period score from the unchanged feed.
				alice, err := f.svc.Entity(ctx, "e1")
				So(err, ShouldBeNil)
				So(alice.Final.Score, ShouldEqual, 10.0)
				So(alice.Midterm, ShouldBeNil) // her midterm submission is gone
			})
		})
	})
}

func TestServiceFeedErrors(t *testing.T) {
	ctx := context.Background()

	Convey("Given a coordinator with consistent results", t, func() {
		f := newFixture()
		So(f.svc.Start(ctx), ShouldBeNil)
		defer f.svc.Stop()

		So(f.roster.Publish(ctx, testRoster()), ShouldBeNil)
		So(f.midterm.Publish(ctx, []model.RawSubmission{
			totalsSub("Alice Reyes", "S1", model.PeriodMidterm, 28),
		}), ShouldBeNil)
		So(f.final.Publish(ctx, nil), ShouldBeNil)
		So(waitFor(func() bool { return !f.loading() }), ShouldBeTrue)

		Convey("When a submission feed fails", func() {
			f.midterm.Fail(errors.New("change stream torn down"))

			So(waitFor(func() bool {
				res, err := f.svc.GetRanking(ctx, service.Query{})
				return err == nil && res.Error != ""
			}), ShouldBeTrue)

			res, err := f.svc.GetRanking(ctx, service.Query{})
			So(err, ShouldBeNil)
			So(res.Error, ShouldContainSubstring, "midterm")

			Convey("Then the last consistent pass stays queryable", func() {
				So(res.Groups, ShouldHaveLength, 1)
				So(res.Groups[0].PageItems, ShouldHaveLength, 1)
				So(res.Groups[0].PageItems[0].ID, ShouldEqual, "e1")
			})

			Convey("Then a fresh update from the feed clears the error", func() {
				So(f.midterm.Publish(ctx, []model.RawSubmission{
					totalsSub("Alice Reyes", "S1", model.PeriodMidterm, 21),
				}), ShouldBeNil)

				So(waitFor(func() bool {
					res, err := f.svc.GetRanking(ctx, service.Query{})
					return err == nil && res.Error == ""
				}), ShouldBeTrue)
			})
		})
	})
}

func TestServiceQueries(t *testing.T) {
	ctx := context.Background()

	Convey("Given a coordinator with a ranked pass", t, func() {
		f := newFixture(service.WithDefaultPageSize(2))
		So(f.svc.Start(ctx), ShouldBeNil)
		defer f.svc.Stop()

		So(f.roster.Publish(ctx, testRoster()), ShouldBeNil)
		So(f.midterm.Publish(ctx, []model.RawSubmission{
			totalsSub("Alice Reyes", "S1", model.PeriodMidterm, 28),  // 8.0
			totalsSub("Bob Santos", "S2", model.PeriodMidterm, 35),   // 10.0
			totalsSub("Carol Cruz", "S1", model.PeriodMidterm, 17.5), // 5.0
		}), ShouldBeNil)
		So(f.final.Publish(ctx, nil), ShouldBeNil)
		So(waitFor(func() bool { return !f.loading() }), ShouldBeTrue)

		Convey("When querying with invalid options", func() {
			_, err := f.svc.GetRanking(ctx, service.Query{Selector: "weekly"})
			So(err, ShouldEqual, service.ErrBadSelector)

			_, err = f.svc.GetRanking(ctx, service.Query{GroupBy: "section"})
			So(err, ShouldEqual, service.ErrBadGrouping)

			_, err = f.svc.GetRanking(ctx, service.Query{PageSize: -1})
			So(err, ShouldEqual, service.ErrBadPageSize)
		})

		Convey("When grouping by program", func() {
			res, err := f.svc.GetRanking(ctx, service.Query{GroupBy: ranking.GroupProgram})
			So(err, ShouldBeNil)
			So(res.Groups, ShouldHaveLength, 2)
			So(res.Groups[0].Key, ShouldEqual, "BSCS") // Bob ranks first overall
			So(res.Groups[1].Key, ShouldEqual, "BSIT")
			So(res.Groups[1].PageItems[0].ID, ShouldEqual, "e1")
		})

		Convey("When filtering", func() {
			res, err := f.svc.GetRanking(ctx, service.Query{
				Filters: ranking.Filters{Program: "bsit"},
			})
			So(err, ShouldBeNil)
			So(res.Groups[0].TotalCount, ShouldEqual, 2)
			So(res.Groups[0].PageItems[0].Rank, ShouldEqual, 1)
		})

		Convey("When paginating with the default page size", func() {
			res, err := f.svc.GetRanking(ctx, service.Query{})
			So(err, ShouldBeNil)
			So(res.Groups[0].TotalCount, ShouldEqual, 3)
			So(res.Groups[0].PageItems, ShouldHaveLength, 2)

			Convey("And when repositioning to the second page", func() {
				res, err := f.svc.GetRanking(ctx, service.Query{Page: 2})
				So(err, ShouldBeNil)
				So(res.Groups[0].Page, ShouldEqual, 2)
				So(res.Groups[0].PageItems, ShouldHaveLength, 1)
				So(res.Groups[0].PageItems[0].ID, ShouldEqual, "e3")

				Convey("Then the position sticks for later queries", func() {
					res, err := f.svc.GetRanking(ctx, service.Query{})
					So(err, ShouldBeNil)
					So(res.Groups[0].Page, ShouldEqual, 2)
				})
			})
		})

		Convey("When overriding the page size per query", func() {
			res, err := f.svc.GetRanking(ctx, service.Query{PageSize: 1})
			So(err, ShouldBeNil)
			So(res.Groups[0].PageItems, ShouldHaveLength, 1)
			So(res.Groups[0].PageItems[0].ID, ShouldEqual, "e2")
		})

		Convey("When repositioning one group, others keep their page", func() {
			_, err := f.svc.GetRanking(ctx, service.Query{
				GroupBy:  ranking.GroupProgram,
				GroupKey: "BSIT",
				Page:     2,
			})
			So(err, ShouldBeNil)

			res, err := f.svc.GetRanking(ctx, service.Query{GroupBy: ranking.GroupProgram})
			So(err, ShouldBeNil)
			So(res.Groups[0].Page, ShouldEqual, 1) // BSCS untouched
			So(res.Groups[1].Page, ShouldEqual, 2)
		})
	})
}

func TestServiceSectionFilter(t *testing.T) {
	ctx := context.Background()

	Convey("Given a coordinator aggregating every section", t, func() {
		f := newFixture()
		So(f.svc.Start(ctx), ShouldBeNil)
		defer f.svc.Stop()

		So(f.roster.Publish(ctx, testRoster()), ShouldBeNil)
		So(f.midterm.Publish(ctx, []model.RawSubmission{
			totalsSub("Alice Reyes", "S1", model.PeriodMidterm, 28),
			totalsSub("Bob Santos", "S2", model.PeriodMidterm, 21),
		}), ShouldBeNil)
		So(f.final.Publish(ctx, nil), ShouldBeNil)
		So(waitFor(func() bool { return !f.loading() }), ShouldBeTrue)

		res, err := f.svc.GetRanking(ctx, service.Query{})
		So(err, ShouldBeNil)
		So(res.Groups[0].PageItems, ShouldHaveLength, 2)

		Convey("When the section filter changes", func() {
			seqBefore := f.passSeq()
			So(f.svc.SetSectionFilter(ctx, "S1"), ShouldBeNil)

			// The feeds redeliver their current snapshots to the new
			// subscriptions, one pass each, so the coordinator converges
			// on its own.
			So(waitFor(func() bool { return f.passSeq() >= seqBefore+2 }), ShouldBeTrue)
			So(waitFor(func() bool { return !f.loading() }), ShouldBeTrue)

			res, err := f.svc.GetRanking(ctx, service.Query{})
			So(err, ShouldBeNil)
			So(res.Groups[0].PageItems, ShouldHaveLength, 1)
			So(res.Groups[0].PageItems[0].ID, ShouldEqual, "e1")

			Convey("Then setting the same filter again is a no-op", func() {
				before := f.passSeq()
				So(f.svc.SetSectionFilter(ctx, "s1"), ShouldBeNil)
				So(f.passSeq(), ShouldEqual, before)
			})
		})

		Convey("When the filter changes before Start on a fresh coordinator", func() {
			fresh := newFixture()
			So(fresh.svc.SetSectionFilter(ctx, "S9"), ShouldBeNil)
			So(fresh.svc.Start(ctx), ShouldBeNil)
			fresh.svc.Stop()
		})
	})
}
