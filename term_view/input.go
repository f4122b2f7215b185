package term_view

import (
	"sync"

	"pathfinder/grid_world"
	"pathfinder/session"

	"github.com/gdamore/tcell/v2"
)

// Input events buffered between the terminal and the session.
const inputBuffer = 256

// Input converts terminal events into session events. Mouse cells are
// resolved here, so only board coordinates reach the session.
type Input struct {
	screen        tcell.Screen
	width, height int
	events        chan session.Event
	quit          chan struct{}
	quitOnce      sync.Once

	// drag state: the cell last placed while the button is held
	held bool
	last grid_world.Coord
}

// NewInput reads events from screen for a width x height board.
func NewInput(screen tcell.Screen, width, height int) *Input {
	return &Input{
		screen: screen,
		width:  width,
		height: height,
		events: make(chan session.Event, inputBuffer),
		quit:   make(chan struct{}),
	}
}

// Source is the session's view of the input.
func (in *Input) Source() session.PlacementSource {
	return session.ChanSource(in.events)
}

// Quit is closed when the user asks to quit.
func (in *Input) Quit() <-chan struct{} {
	return in.quit
}

// Run polls the screen until it is finalized.
func (in *Input) Run() {
	for {
		ev := in.screen.PollEvent()
		if ev == nil {
			return
		}
		in.Handle(ev)
	}
}

// Handle processes one terminal event.
func (in *Input) Handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		in.handleKey(ev)
	case *tcell.EventMouse:
		in.handleMouse(ev)
	case *tcell.EventResize:
		in.screen.Sync()
	}
}

func (in *Input) handleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		in.quitOnce.Do(func() { close(in.quit) })
	case tcell.KeyRune:
		switch ev.Rune() {
		case ' ':
			in.emit(session.Event{Kind: session.Search})
		case 'r', 'R':
			in.emit(session.Event{Kind: session.Reset})
		case 'q', 'Q':
			in.quitOnce.Do(func() { close(in.quit) })
		}
	}
}

func (in *Input) handleMouse(ev *tcell.EventMouse) {
	if ev.Buttons()&tcell.Button1 == 0 {
		in.held = false
		return
	}

	x, y := ev.Position()
	c := grid_world.Coord{X: x / CellWidth, Y: y}
	if c.X >= in.width || c.Y >= in.height || c.X < 0 || c.Y < 0 {
		return
	}
	if in.held && c == in.last {
		return
	}
	in.held = true
	in.last = c
	in.emit(session.PlaceAt(c))
}

func (in *Input) emit(ev session.Event) {
	select {
	case in.events <- ev:
	default:
		log.WithField("event", ev.String()).Warn("input buffer full, dropping event")
	}
}
