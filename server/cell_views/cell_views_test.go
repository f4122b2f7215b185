package cell_views

import (
	"html/template"
	"strings"
	"testing"

	"pathfinder/grid_world"
	"pathfinder/server/fastview"
	"pathfinder/session"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(x, y int) grid_world.Coord { return grid_world.Coord{X: x, Y: y} }

// searched returns the snapshots of a 3x1 straight-line session, before and
// after the search.
func searched(t *testing.T) (before, after session.Snapshot) {
	cfg := session.DefaultConfig()
	cfg.Width, cfg.Height = 3, 1
	cfg.ClickCooldown = 0
	s, err := session.New(cfg)
	require.NoError(t, err)

	s.Apply(session.PlaceAt(at(0, 0)))
	s.Apply(session.PlaceAt(at(2, 0)))
	before = s.Snapshot()
	s.Apply(session.Event{Kind: session.Search})
	for i := 0; i < 20 && !s.Phase().Terminal(); i++ {
		s.Tick(session.NoInput, nil)
	}
	return before, s.Snapshot()
}

func TestConvert(t *testing.T) {
	_, after := searched(t)
	board := NewConverter("abc", 20)(after)

	assert.Equal(t, "abc", board.Session)
	assert.Equal(t, "done", board.Phase)
	assert.Equal(t, 3, board.PathLength)
	require.Len(t, board.Cells, 3)
	assert.Equal(t, Cell{X: 0, Y: 0, Fill: "#0000ff", Cost: "0"}, board.Cells[0])
	assert.Equal(t, Cell{X: 1, Y: 0, Fill: "#ff7300", Cost: "1"}, board.Cells[1])
	assert.Equal(t, Cell{X: 2, Y: 0, Fill: "#ffff00", Cost: "2"}, board.Cells[2])

	empty := EmptyBoard(4, 2, 10)
	assert.Len(t, empty.Cells, 8)
	assert.Equal(t, "idle", empty.Phase)
	assert.Equal(t, "", empty.Cells[5].Cost)
	assert.Equal(t, "#ffffff", empty.Cells[5].Fill)
}

func TestGridView(t *testing.T) {
	Convey("Given a grid view", t, func() {
		done := make(chan struct{})
		defer close(done)
		boards := make(chan Board)
		gv := NewGridView(done, boards)
		convert := NewConverter("", 20)
		before, after := searched(t)

		Convey("The first board updates every cell", func() {
			boards <- convert(before)
			updates := <-gv.Updates()
			So(len(updates), ShouldEqual, 6)

			Convey("Later boards update only what changed", func() {
				boards <- convert(after)
				updates = <-gv.Updates()
				ids := []string{}
				for _, u := range updates {
					ids = append(ids, u.EleId)
				}
				So(ids, ShouldResemble, []string{"cell-1-0", "cost-1-0", "cost-2-0"})
			})
		})

		Convey("It renders one rect and cost text per cell", func() {
			tmpl := template.New("test").Funcs(template.FuncMap{
				"add":  func(i, j int) int { return i + j },
				"sub":  func(i, j int) int { return i - j },
				"mult": func(i, j int) int { return i * j },
				"div":  func(i, j int) int { return i / j },
				"max": func(i, j int) int {
					if i > j {
						return i
					}
					return j
				},
			})
			name, err := gv.Parse(tmpl)
			So(err, ShouldBeNil)
			var sb strings.Builder
			So(tmpl.ExecuteTemplate(&sb, name, convert(after)), ShouldBeNil)
			So(strings.Count(sb.String(), "<rect"), ShouldEqual, 3)
			So(sb.String(), ShouldContainSubstring, `id="cost-2-0"`)
			So(sb.String(), ShouldContainSubstring, `fill="#ff7300"`)
		})
	})
}

func TestStatusView(t *testing.T) {
	Convey("Given a status view", t, func() {
		done := make(chan struct{})
		defer close(done)
		boards := make(chan Board)
		sv := NewStatusView(done, boards)

		boards <- Board{Session: "abc", Phase: "idle"}
		first := <-sv.Updates()
		So(len(first), ShouldEqual, len(statusKeys))

		Convey("Only changed fields are sent again", func() {
			boards <- Board{Session: "abc", Phase: "searching", Tick: 1}
			So(<-sv.Updates(), ShouldResemble, []fastview.EleUpdate{
				{EleId: "status-phase", Ops: []fastview.Op{{Key: fastview.TextContent, Value: "searching"}}},
				{EleId: "status-tick", Ops: []fastview.Op{{Key: fastview.TextContent, Value: "1"}}},
			})
		})
	})
}
