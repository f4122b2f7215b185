// cell_views contains views derived from the Board view-model.
package cell_views

import (
	"strconv"

	"pathfinder/grid_world"
	"pathfinder/session"
)

// Cell is a grid cell reduced to what the svg needs. As a rule of thumb,
// Cell fields should be immediately usable as view parameters.
type Cell struct {
	X, Y int
	Fill string
	// Cost is the g-cost text, empty for unreached cells.
	Cost string
}

// Board is the view-model of one session snapshot.
type Board struct {
	Session    string
	Width      int
	Height     int
	CellSize   int
	Cells      []Cell // row-major
	Phase      string
	Tick       int
	Expansions int
	Frontier   int
	PathLength int
}

// NewConverter returns the function converting snapshots of the identified
// session into Boards of cellSize pixel cells.
func NewConverter(sessionID string, cellSize int) func(session.Snapshot) Board {
	return func(snap session.Snapshot) Board {
		board := Board{
			Session:    sessionID,
			Width:      snap.Width,
			Height:     snap.Height,
			CellSize:   cellSize,
			Cells:      make([]Cell, len(snap.Cells)),
			Phase:      snap.Phase.String(),
			Tick:       snap.Tick,
			Expansions: snap.Expansions,
			Frontier:   snap.Frontier,
			PathLength: snap.PathLength,
		}
		for i, cv := range snap.Cells {
			board.Cells[i] = Cell{
				X:    cv.X,
				Y:    cv.Y,
				Fill: cv.Role.Color(),
				Cost: costText(cv),
			}
		}
		return board
	}
}

// EmptyBoard is the board a new session starts from, for the initial page.
func EmptyBoard(width, height, cellSize int) Board {
	g := grid_world.New(width, height)
	snap := session.Snapshot{Width: width, Height: height}
	g.Visit(func(cv grid_world.CellView) {
		snap.Cells = append(snap.Cells, cv)
	})
	return NewConverter("", cellSize)(snap)
}

// Only cells the search has reached show a cost; start shows 0.
func costText(cv grid_world.CellView) string {
	switch cv.Role {
	case grid_world.Empty, grid_world.Wall:
		return ""
	}
	if cv.Cost < 0 {
		return ""
	}
	return strconv.Itoa(cv.Cost)
}
