package ranking_test

import (
	"fmt"
	"testing"

	"github.com/nvara/tally/internal/domain/model"
	"github.com/nvara/tally/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func groupOf(key string, n int) ranking.Group {
	g := ranking.Group{Key: key}
	for i := 0; i < n; i++ {
		g.Entries = append(g.Entries, model.RankedEntity{
			Entity: model.Entity{ID: fmt.Sprintf("%s-%d", key, i+1)},
			Rank:   i + 1,
		})
	}
	return g
}

func TestPager(t *testing.T) {
	Convey("Given a pager with a page size of 3", t, func() {
		p := ranking.NewPager(ranking.WithPageSize(3))
		g := groupOf("BSIT", 7)

		Convey("When slicing an unvisited group", func() {
			page := p.Slice(g)
			So(page.Key, ShouldEqual, "BSIT")
			So(page.Page, ShouldEqual, 1)
			So(page.TotalCount, ShouldEqual, 7)
			So(page.PageItems, ShouldHaveLength, 3)
			So(page.PageItems[0].ID, ShouldEqual, "BSIT-1")
		})

		Convey("When positioned on an interior page", func() {
			p.SetPage("BSIT", 2)
			page := p.Slice(g)
			So(page.Page, ShouldEqual, 2)
			So(page.PageItems, ShouldHaveLength, 3)
			So(page.PageItems[0].ID, ShouldEqual, "BSIT-4")
		})

		Convey("When positioned on the last, partial page", func() {
			p.SetPage("BSIT", 3)
			page := p.Slice(g)
			So(page.PageItems, ShouldHaveLength, 1)
			So(page.PageItems[0].ID, ShouldEqual, "BSIT-7")
		})

		Convey("When positioned beyond the end", func() {
			p.SetPage("BSIT", 9)
			page := p.Slice(g)
			So(page.Page, ShouldEqual, 9)
			So(page.PageItems, ShouldBeEmpty)
			So(page.TotalCount, ShouldEqual, 7)
		})

		Convey("When setting a page below 1", func() {
			p.SetPage("BSIT", 0)
			So(p.Page("BSIT"), ShouldEqual, 1)
			p.SetPage("BSIT", -5)
			So(p.Page("BSIT"), ShouldEqual, 1)
		})

		Convey("When paging one group, other groups keep their position", func() {
			other := groupOf("BSCS", 5)
			p.SetPage("BSIT", 3)

			So(p.Slice(other).Page, ShouldEqual, 1)
			So(p.Slice(g).Page, ShouldEqual, 3)
		})

		Convey("When the group shrinks, page position survives", func() {
			p.SetPage("BSIT", 3)
			shrunk := groupOf("BSIT", 2)
			page := p.Slice(shrunk)
			So(page.Page, ShouldEqual, 3)
			So(page.PageItems, ShouldBeEmpty)
			So(page.TotalCount, ShouldEqual, 2)
		})

		Convey("When resetting, every group returns to the first page", func() {
			p.SetPage("BSIT", 3)
			p.SetPage("BSCS", 2)
			p.Reset()
			So(p.Page("BSIT"), ShouldEqual, 1)
			So(p.Page("BSCS"), ShouldEqual, 1)
		})

		Convey("When overriding the page size per call", func() {
			page := p.SliceN(g, 5)
			So(page.PageItems, ShouldHaveLength, 5)

			Convey("Then a non-positive override falls back to the default", func() {
				So(p.SliceN(g, 0).PageItems, ShouldHaveLength, 3)
				So(p.SliceN(g, -1).PageItems, ShouldHaveLength, 3)
			})
		})
	})

	Convey("Given a pager with no options", t, func() {
		p := ranking.NewPager()

		Convey("When reading its page size", func() {
			So(p.PageSize(), ShouldEqual, 20)
		})

		Convey("When slicing an empty group", func() {
			page := p.Slice(ranking.Group{Key: "empty"})
			So(page.TotalCount, ShouldEqual, 0)
			So(page.PageItems, ShouldBeEmpty)
			So(page.Page, ShouldEqual, 1)
		})
	})
}
