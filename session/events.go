package session

import (
	"fmt"

	"pathfinder/grid_world"
	"pathfinder/search"
)

// Kind is the type of a user input event.
type Kind string

const (
	// Place marks start, end or a wall, per the placement policy.
	Place Kind = "place"
	// Search requests the search to begin.
	Search Kind = "search"
	// Reset discards the grid and the search and starts over.
	Reset Kind = "reset"
)

// Event is one input, already resolved to grid coordinates by whichever
// front-end produced it. X and Y are meaningful for Place only.
type Event struct {
	Kind Kind `json:"kind" yaml:"kind"`
	X    int  `json:"x,omitempty" yaml:"x,omitempty"`
	Y    int  `json:"y,omitempty" yaml:"y,omitempty"`
}

func (ev Event) String() string {
	if ev.Kind == Place {
		return fmt.Sprintf("%s(%d,%d)", ev.Kind, ev.X, ev.Y)
	}
	return string(ev.Kind)
}

// PlaceAt is shorthand for a placement event.
func PlaceAt(c grid_world.Coord) Event {
	return Event{Kind: Place, X: c.X, Y: c.Y}
}

// PlacementSource yields the input events to apply at the start of a tick.
type PlacementSource interface {
	Poll(tick int) []Event
}

// CellObserver consumes a snapshot of the board after a tick changed it.
type CellObserver interface {
	Observe(Snapshot)
}

// ObserverFunc adapts a function to CellObserver.
type ObserverFunc func(Snapshot)

func (fn ObserverFunc) Observe(s Snapshot) { fn(s) }

// ChanSource adapts a channel of events to PlacementSource. Poll never
// blocks: it drains whatever has arrived since the previous tick.
type ChanSource <-chan Event

func (src ChanSource) Poll(int) (events []Event) {
	for {
		select {
		case ev, ok := <-src:
			if !ok {
				return
			}
			events = append(events, ev)
		default:
			return
		}
	}
}

// NoInput is a PlacementSource that never yields anything.
var NoInput PlacementSource = ChanSource(nil)

// Snapshot is a copy of the board and search progress, safe to hand to
// another goroutine.
type Snapshot struct {
	Width, Height int
	// Cells is row-major: the cell (x, y) is at index y*Width + x.
	Cells      []grid_world.CellView
	Phase      search.Phase
	Tick       int
	Expansions int
	Frontier   int
	// PathLength counts the cells from start to end inclusive, once found.
	PathLength int
}

// At returns the cell view at (x, y).
func (s Snapshot) At(x, y int) grid_world.CellView {
	return s.Cells[y*s.Width+x]
}
