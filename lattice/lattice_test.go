package lattice

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLattice(t *testing.T) {
	Convey("Given a lattice of size 4", t, func() {
		lat := New(4)

		Convey("When checking bounds", func() {
			So(lat.InBounds(Coord{0, 0, 0}), ShouldBeTrue)
			So(lat.InBounds(Coord{3, 3, 3}), ShouldBeTrue)
			So(lat.InBounds(Coord{-1, 0, 0}), ShouldBeFalse)
			So(lat.InBounds(Coord{0, 4, 0}), ShouldBeFalse)
			// the historical inclusive bound is not honored
			So(lat.InBounds(Coord{0, 0, 4}), ShouldBeFalse)
		})

		Convey("When a cell is claimed and released", func() {
			c := Coord{1, 2, 3}
			So(lat.IsOccupied(c), ShouldBeFalse)
			lat.Claim(c)
			So(lat.IsOccupied(c), ShouldBeTrue)
			So(lat.Count(), ShouldEqual, 1)
			lat.Claim(c)
			So(lat.Count(), ShouldEqual, 1)
			lat.Release(c)
			So(lat.IsOccupied(c), ShouldBeFalse)
			So(lat.Count(), ShouldEqual, 0)
		})

		Convey("When cells are enumerated", func() {
			lat.Claim(Coord{2, 0, 1})
			lat.Claim(Coord{0, 3, 1})
			lat.Claim(Coord{0, 0, 3})
			So(lat.Occupied(), ShouldResemble, []Coord{{0, 0, 3}, {0, 3, 1}, {2, 0, 1}})
			So(lat.ZCounts(), ShouldResemble, []int{0, 2, 0, 1})
		})

		Convey("When accessing outside the grid", func() {
			So(func() { lat.Claim(Coord{4, 0, 0}) }, ShouldPanic)
			So(func() { lat.IsOccupied(Coord{0, -1, 0}) }, ShouldPanic)
			So(func() { lat.Release(Coord{0, 0, 4}) }, ShouldPanic)
		})

		Convey("The center uses integer division", func() {
			So(lat.Center(), ShouldResemble, Coord{2, 2, 2})
			So(New(5).Center(), ShouldResemble, Coord{2, 2, 2})
		})
	})
}

func TestState(t *testing.T) {
	Convey("Given a new state", t, func() {
		st := NewState(5)

		Convey("Only the center is occupied, by the single walker", func() {
			So(st.Walkers, ShouldResemble, []Coord{{2, 2, 2}})
			So(st.Grid.Count(), ShouldEqual, 1)
			So(st.Grid.IsOccupied(Coord{2, 2, 2}), ShouldBeTrue)
			So(st.Positions, ShouldBeEmpty)
		})

		Convey("The oxygen profile rises from 0 to 1 along z", func() {
			So(st.Oxygen, ShouldResemble, []float64{0, 0.25, 0.5, 0.75, 1})
			So(st.OxygenAt(Coord{0, 0, 4}), ShouldEqual, 1.0)
		})

		Convey("The log pops most recent first", func() {
			_, ok := st.PopLog()
			So(ok, ShouldBeFalse)
			st.Log(Coord{1, 1, 1})
			st.Log(Coord{3, 3, 3})
			c, ok := st.PopLog()
			So(ok, ShouldBeTrue)
			So(c, ShouldResemble, Coord{3, 3, 3})
			So(st.Positions, ShouldResemble, []Coord{{1, 1, 1}})
		})

		Convey("MeanZ averages the walkers", func() {
			st.Walkers = append(st.Walkers, Coord{0, 0, 4})
			So(st.MeanZ(), ShouldEqual, 3.0)
			st.Walkers = nil
			So(st.MeanZ(), ShouldEqual, 0.0)
		})
	})

	Convey("Linspace of a single point is the start", t, func() {
		So(Linspace(0, 1, 1), ShouldResemble, []float64{0})
		So(Linspace(0, 1, 2), ShouldResemble, []float64{0, 1})
	})
}
