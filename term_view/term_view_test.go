package term_view

import (
	"strings"
	"testing"

	"pathfinder/grid_world"
	"pathfinder/session"

	"github.com/gdamore/tcell/v2"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter int

func (c *counter) Play() { *c++ }

func newScreen(t *testing.T) tcell.SimulationScreen {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 24)
	return screen
}

func background(screen tcell.Screen, x, y int) tcell.Color {
	_, _, style, _ := screen.GetContent(x, y)
	_, bg, _ := style.Decompose()
	return bg
}

func line(screen tcell.Screen, y, width int) string {
	var sb strings.Builder
	for x := 0; x < width; x++ {
		ch, _, _, _ := screen.GetContent(x, y)
		sb.WriteRune(ch)
	}
	return sb.String()
}

func TestRenderer(t *testing.T) {
	screen := newScreen(t)
	chimes := counter(0)
	renderer := NewRenderer(screen, &chimes)

	cfg := session.DefaultConfig()
	cfg.Width, cfg.Height = 3, 1
	cfg.ClickCooldown = 0
	s, err := session.New(cfg)
	require.NoError(t, err)
	s.Apply(session.PlaceAt(grid_world.Coord{X: 0, Y: 0}))
	s.Apply(session.PlaceAt(grid_world.Coord{X: 2, Y: 0}))
	s.Apply(session.Event{Kind: session.Search})
	for i := 0; i < 20 && !s.Phase().Terminal(); i++ {
		s.Tick(session.NoInput, renderer)
	}

	// each cell is two columns wide
	assert.Equal(t, tcell.GetColor(grid_world.Start.Color()), background(screen, 0, 0))
	assert.Equal(t, tcell.GetColor(grid_world.Start.Color()), background(screen, 1, 0))
	assert.Equal(t, tcell.GetColor(grid_world.Path.Color()), background(screen, 2, 0))
	assert.Equal(t, tcell.GetColor(grid_world.End.Color()), background(screen, 5, 0))
	assert.True(t, strings.HasPrefix(line(screen, 1, 80), "done"))

	assert.Equal(t, counter(1), chimes)
	renderer.Observe(s.Snapshot())
	assert.Equal(t, counter(1), chimes, "the chime plays once per completed path")
}

func TestInput(t *testing.T) {
	Convey("Given terminal input for a 10x5 board", t, func() {
		screen := newScreen(t)
		in := NewInput(screen, 10, 5)
		poll := func() []session.Event { return in.Source().Poll(0) }
		press := func(x, y int) {
			in.Handle(tcell.NewEventMouse(x, y, tcell.Button1, tcell.ModNone))
		}

		Convey("A click places on the cell under the mouse", func() {
			press(5, 1)
			So(poll(), ShouldResemble, []session.Event{session.PlaceAt(grid_world.Coord{X: 2, Y: 1})})
		})

		Convey("Dragging places once per cell crossed", func() {
			press(4, 1)
			press(5, 1)
			press(6, 1)
			in.Handle(tcell.NewEventMouse(6, 1, tcell.ButtonNone, tcell.ModNone))
			press(6, 1)
			So(poll(), ShouldResemble, []session.Event{
				session.PlaceAt(grid_world.Coord{X: 2, Y: 1}),
				session.PlaceAt(grid_world.Coord{X: 3, Y: 1}),
				session.PlaceAt(grid_world.Coord{X: 3, Y: 1}),
			})
		})

		Convey("Clicks outside the board are ignored", func() {
			press(20, 1)
			press(3, 5)
			So(poll(), ShouldBeEmpty)
		})

		Convey("Keys request search and reset, and quit", func() {
			in.Handle(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
			in.Handle(tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone))
			So(poll(), ShouldResemble, []session.Event{{Kind: session.Search}, {Kind: session.Reset}})

			in.Handle(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone))
			in.Handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))
			_, open := <-in.Quit()
			So(open, ShouldBeFalse)
		})
	})
}
