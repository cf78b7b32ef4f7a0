package resultstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/nvara/tally/internal/adapters/resultstore"
	"github.com/nvara/tally/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty result store", t, func() {
		s := resultstore.NewMemoryStore()

		Convey("When no pass has been stored yet", func() {
			_, ok := s.Latest(ctx)
			So(ok, ShouldBeFalse)
			So(s.Count(ctx), ShouldEqual, 0)

			_, err := s.Entity(ctx, "e1")
			So(err, ShouldEqual, resultstore.ErrNotFound)
		})

		Convey("When a pass is stored", func() {
			entries := []model.RankedEntity{
				{Entity: model.Entity{ID: "e1", Name: "Alice"}},
				{Entity: model.Entity{ID: "e2", Name: "Bob"}},
			}
			s.Replace(ctx, resultstore.Pass{Entries: entries, Seq: 1, ComputedAt: time.Now()})

			pass, ok := s.Latest(ctx)
			So(ok, ShouldBeTrue)
			So(pass.Seq, ShouldEqual, 1)
			So(pass.Entries, ShouldHaveLength, 2)
			So(s.Count(ctx), ShouldEqual, 2)

			Convey("Then entities are retrievable by id", func() {
				e, err := s.Entity(ctx, "e2")
				So(err, ShouldBeNil)
				So(e.Name, ShouldEqual, "Bob")

				_, err = s.Entity(ctx, "missing")
				So(err, ShouldEqual, resultstore.ErrNotFound)
			})

			Convey("Then mutating the caller's slice does not affect the store", func() {
				entries[0].Name = "Mallory"
				e, err := s.Entity(ctx, "e1")
				So(err, ShouldBeNil)
				So(e.Name, ShouldEqual, "Alice")
			})

			Convey("And when a later pass replaces it wholesale", func() {
				s.Replace(ctx, resultstore.Pass{
					Entries: []model.RankedEntity{{Entity: model.Entity{ID: "e3"}}},
					Seq:     2,
				})

				pass, ok := s.Latest(ctx)
				So(ok, ShouldBeTrue)
				So(pass.Seq, ShouldEqual, 2)
				So(s.Count(ctx), ShouldEqual, 1)

				_, err := s.Entity(ctx, "e1")
				So(err, ShouldEqual, resultstore.ErrNotFound)

				_, err = s.Entity(ctx, "e3")
				So(err, ShouldBeNil)
			})
		})

		Convey("When an empty pass is stored", func() {
			s.Replace(ctx, resultstore.Pass{Seq: 1})

			_, ok := s.Latest(ctx)
			So(ok, ShouldBeTrue) // empty but consistent, not missing
			So(s.Count(ctx), ShouldEqual, 0)
		})
	})
}
