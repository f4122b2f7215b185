package search

/*
Incremental A* over a grid_world.Grid, advanced one node per Step so that a
caller ticking it from a game loop can draw every intermediate state.

The engine never allocates per-node search structures: g is derived from the
grid's parent links (cost 1 per hop, 0 at Start), h is the Manhattan distance
to End stored on the cell, and the frontier is a set of arena indices. Best-f
selection is a linear scan. The board is at most a few thousand cells and one
expansion happens per frame, so a heap buys nothing, and the scan keeps
re-parented frontier nodes correct without any decrease-key bookkeeping.
*/

import (
	"sort"

	"pathfinder/grid_world"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger replaces the package logger, e.g. to share the application's.
func SetLogger(logger *logrus.Logger) {
	log = logger
}

// Phase is the search state machine:
//
//	Idle -> Searching -> Tracing -> Done
//	            \-> Exhausted
type Phase uint8

const (
	Idle Phase = iota
	Searching
	Tracing
	Done
	Exhausted
)

var phaseNames = [...]string{
	Idle:      "idle",
	Searching: "searching",
	Tracing:   "tracing",
	Done:      "done",
	Exhausted: "exhausted",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Terminal reports whether no further Step can change the grid.
func (p Phase) Terminal() bool {
	return p == Done || p == Exhausted
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

const noTrace = -1

// Engine holds the frontier and cursors of one search over one grid.
// It is not safe for concurrent use; the owner calls Step once per tick.
type Engine struct {
	grid       *grid_world.Grid
	frontier   map[int]struct{}
	trace      int
	phase      Phase
	expansions int
}

// NewEngine returns an idle engine over g.
func NewEngine(g *grid_world.Grid) *Engine {
	return &Engine{
		grid:     g,
		frontier: make(map[int]struct{}),
		trace:    noTrace,
		phase:    Idle,
	}
}

// Seed adds c, normally the Start cell, to the frontier.
func (e *Engine) Seed(c grid_world.Coord) {
	e.frontier[e.grid.Index(c)] = struct{}{}
}

// RequestSearch begins the search if both Start and End are placed and the
// engine is idle. Otherwise the request is ignored and false is returned.
func (e *Engine) RequestSearch() bool {
	if e.phase != Idle {
		return false
	}
	if _, ok := e.grid.Start(); !ok {
		return false
	}
	if _, ok := e.grid.End(); !ok {
		return false
	}
	e.setPhase(Searching)
	return true
}

// Step advances the search by one unit of work: either one trace-back cell
// or one node expansion. Trace-back always takes priority, and no expansion
// happens once the end has been found. Step is a no-op in Idle, Done and
// Exhausted.
func (e *Engine) Step() Phase {
	switch e.phase {
	case Tracing:
		e.traceStep()
	case Searching:
		e.expand()
	}
	return e.phase
}

// traceStep marks the cursor cell as path and moves the cursor to its parent.
func (e *Engine) traceStep() {
	c := e.grid.CoordOf(e.trace)
	if e.grid.Role(c) != grid_world.Start {
		e.grid.SetRole(c, grid_world.Path)
	}

	if parent, ok := e.grid.Parent(c); ok {
		e.trace = e.grid.Index(parent)
		return
	}
	e.trace = noTrace
	e.setPhase(Done)
}

// expand pops the best frontier node and relaxes its neighbors.
func (e *Engine) expand() {
	if len(e.frontier) == 0 {
		e.setPhase(Exhausted)
		return
	}
	// RequestSearch guarantees both points exist.
	end, _ := e.grid.End()

	current := e.popBest()
	e.expansions++
	if e.grid.Role(current) != grid_world.Start {
		e.grid.SetRole(current, grid_world.Expanded)
	}

	cost := e.grid.Cost(current) + 1
	for _, n := range e.grid.Neighbors4(current) {
		role := e.grid.Role(n)
		if !role.Relaxable() {
			continue
		}

		if cost < e.grid.Cost(n) {
			e.grid.SetParent(n, current)
		}
		e.grid.SetHeuristic(n, n.Manhattan(end))

		switch role {
		case grid_world.Empty:
			e.grid.SetRole(n, grid_world.Explored)
			e.frontier[e.grid.Index(n)] = struct{}{}
		case grid_world.End:
			e.trace = e.grid.Index(current)
			e.setPhase(Tracing)
		}
	}
}

// popBest removes and returns the frontier node with the lowest f = g + h,
// breaking ties by coordinate order so runs are reproducible.
func (e *Engine) popBest() grid_world.Coord {
	var (
		best      grid_world.Coord
		bestIndex = -1
		bestF     int
	)
	for i := range e.frontier {
		c := e.grid.CoordOf(i)
		f := e.grid.Cost(c) + e.grid.Heuristic(c)
		if bestIndex == -1 || f < bestF || (f == bestF && c.Less(best)) {
			best, bestIndex, bestF = c, i, f
		}
	}
	delete(e.frontier, bestIndex)
	return best
}

func (e *Engine) setPhase(p Phase) {
	if p == e.phase {
		return
	}
	log.WithFields(logrus.Fields{
		"from":       e.phase,
		"to":         p,
		"expansions": e.expansions,
		"frontier":   len(e.frontier),
	}).Debug("search phase")
	e.phase = p
}

// Phase returns the current state of the search.
func (e *Engine) Phase() Phase { return e.phase }

// Expansions returns the number of nodes expanded so far.
func (e *Engine) Expansions() int { return e.expansions }

// FrontierSize returns the number of nodes awaiting expansion.
func (e *Engine) FrontierSize() int { return len(e.frontier) }

// Frontier returns the nodes awaiting expansion in coordinate order.
func (e *Engine) Frontier() []grid_world.Coord {
	coords := make([]grid_world.Coord, 0, len(e.frontier))
	for i := range e.frontier {
		coords = append(coords, e.grid.CoordOf(i))
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].Less(coords[j]) })
	return coords
}

// Trace returns the cell the trace-back will mark next, if tracing.
func (e *Engine) Trace() (grid_world.Coord, bool) {
	if e.trace == noTrace {
		return grid_world.Coord{}, false
	}
	return e.grid.CoordOf(e.trace), true
}

// Path returns the found path from Start to End inclusive, once the search
// is Done; nil otherwise.
func (e *Engine) Path() []grid_world.Coord {
	if e.phase != Done {
		return nil
	}
	end, _ := e.grid.End()
	return e.grid.PathTo(end)
}
