package grid_world

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeighbors4(t *testing.T) {
	g := New(DefaultWidth, DefaultHeight)

	cases := []struct {
		name  string
		at    Coord
		count int
	}{
		{"top left corner", Coord{0, 0}, 2},
		{"bottom right corner", Coord{39, 39}, 2},
		{"top edge", Coord{5, 0}, 3},
		{"left edge", Coord{0, 17}, 3},
		{"interior", Coord{20, 20}, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			neighbors := g.Neighbors4(tc.at)
			assert.Len(t, neighbors, tc.count)
			for _, n := range neighbors {
				assert.True(t, g.InBounds(n), "%v out of bounds", n)
				assert.NotEqual(t, tc.at, n)
				assert.Equal(t, 1, tc.at.Manhattan(n))
			}
		})
	}

	// Every cell, not just the samples above.
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			n := len(g.Neighbors4(Coord{x, y}))
			require.True(t, n >= 2 && n <= 4, "(%d,%d) has %d neighbors", x, y, n)
		}
	}
}

func TestNeighborOrder(t *testing.T) {
	g := New(3, 3)
	assert.Equal(t,
		[]Coord{{0, 1}, {2, 1}, {1, 0}, {1, 2}},
		g.Neighbors4(Coord{1, 1}),
		"left, right, up, down")
}

func TestOutOfBoundsPanics(t *testing.T) {
	g := New(4, 4)
	for _, c := range []Coord{{-1, 0}, {0, -1}, {4, 0}, {0, 4}} {
		func() {
			defer func() {
				r := recover()
				require.NotNil(t, r, "expected panic for %v", c)
				err, ok := r.(error)
				require.True(t, ok)
				assert.True(t, errors.Is(err, ErrOutOfBounds))
			}()
			g.At(c)
		}()
	}
}

func TestRoles(t *testing.T) {
	Convey("Given a fresh grid", t, func() {
		g := New(5, 5)

		Convey("All cells start Empty", func() {
			g.Visit(func(cv CellView) {
				So(cv.Role, ShouldEqual, Empty)
				So(cv.Cost, ShouldEqual, -1)
			})
		})

		Convey("Only one start may be placed", func() {
			So(g.SetRole(Coord{0, 0}, Start), ShouldBeTrue)
			So(g.SetRole(Coord{1, 0}, Start), ShouldBeFalse)
			start, ok := g.Start()
			So(ok, ShouldBeTrue)
			So(start, ShouldResemble, Coord{0, 0})
		})

		Convey("Walls, start and end are never overwritten", func() {
			So(g.SetRole(Coord{1, 1}, Wall), ShouldBeTrue)
			So(g.SetRole(Coord{2, 2}, Start), ShouldBeTrue)
			So(g.SetRole(Coord{3, 3}, End), ShouldBeTrue)
			for _, c := range []Coord{{1, 1}, {2, 2}, {3, 3}} {
				for _, r := range []Role{Empty, Wall, Start, End, Expanded, Explored, Path} {
					before := g.Role(c)
					So(g.SetRole(c, r), ShouldBeFalse)
					So(g.Role(c), ShouldEqual, before)
				}
			}
		})

		Convey("Discovered cells progress toward the path", func() {
			c := Coord{4, 4}
			So(g.SetRole(c, Expanded), ShouldBeFalse)
			So(g.SetRole(c, Explored), ShouldBeTrue)
			So(g.SetRole(c, Expanded), ShouldBeTrue)
			So(g.SetRole(c, Explored), ShouldBeFalse)
			So(g.SetRole(c, Path), ShouldBeTrue)
		})

		Convey("The search may only reach cells that are neither wall nor start", func() {
			for role := Role(0); role < numRoles; role++ {
				So(role.Relaxable(), ShouldEqual, role != Wall && role != Start)
			}
		})
	})
}

func TestCost(t *testing.T) {
	Convey("Given a start and a chain of parents", t, func() {
		g := New(5, 1)
		So(g.SetRole(Coord{0, 0}, Start), ShouldBeTrue)
		for x := 1; x < 4; x++ {
			g.SetParent(Coord{x, 0}, Coord{x - 1, 0})
		}

		Convey("Start costs nothing and each hop costs one", func() {
			for x := 0; x < 4; x++ {
				So(g.Cost(Coord{x, 0}), ShouldEqual, x)
			}
		})

		Convey("A cell without a parent is unreached", func() {
			So(g.Cost(Coord{4, 0}), ShouldEqual, g.Unreached())
			So(g.Unreached(), ShouldBeGreaterThan, g.Area())
			So(g.PathTo(Coord{4, 0}), ShouldBeNil)
		})

		Convey("Visit reports the same costs", func() {
			costs := map[Coord]int{}
			g.Visit(func(cv CellView) { costs[Coord{cv.X, cv.Y}] = cv.Cost })
			So(costs, ShouldResemble, map[Coord]int{
				{0, 0}: 0, {1, 0}: 1, {2, 0}: 2, {3, 0}: 3, {4, 0}: -1,
			})
		})

		Convey("PathTo walks back to start", func() {
			So(g.PathTo(Coord{3, 0}), ShouldResemble, []Coord{{0, 0}, {1, 0}, {2, 0}, {3, 0}})
		})

		Convey("A cycle is detected", func() {
			g.SetParent(Coord{4, 0}, Coord{4, 0})
			So(func() { g.Cost(Coord{4, 0}) }, ShouldPanic)
		})
	})
}

func TestString(t *testing.T) {
	g := New(3, 2)
	require.True(t, g.SetRole(Coord{0, 0}, Start))
	require.True(t, g.SetRole(Coord{2, 1}, End))
	require.True(t, g.SetRole(Coord{1, 0}, Wall))
	require.True(t, g.SetRole(Coord{1, 1}, Explored))
	assert.Equal(t, "SW.\n.oE", g.String())
}
