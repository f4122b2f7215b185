// grid_world contains the cell grid searched by the pathfinder: coordinates,
// cell roles, parent links and the cost/heuristic bookkeeping the search needs.
package grid_world

import (
	"errors"
	"fmt"
	"strings"
)

// Defaults for the classic visualizer: a 40x40 board of 20px cells.
const (
	DefaultWidth    = 40
	DefaultHeight   = 40
	DefaultCellSize = 20
)

// ErrOutOfBounds is the panic value (wrapped) for accesses outside the grid.
// Callers are expected to validate coordinates with InBounds first.
var ErrOutOfBounds = errors.New("coordinate out of bounds")

// Coord is a cell position; x grows to the right, y grows downward.
type Coord struct {
	X, Y int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Less orders coordinates by x, then y. This is the tie-break order of the frontier.
func (c Coord) Less(other Coord) bool {
	if c.X != other.X {
		return c.X < other.X
	}
	return c.Y < other.Y
}

// Manhattan returns the 4-directional distance to another coordinate.
func (c Coord) Manhattan(other Coord) int {
	return abs(c.X-other.X) + abs(c.Y-other.Y)
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

const none = -1

// Cell is one square of the grid. Coordinates are fixed at construction;
// the role, heuristic and parent link change as the user places points and
// the search progresses. Parent is an index into the owning grid, never a pointer.
type Cell struct {
	X, Y   int
	role   Role
	h      int
	parent int
}

// CellView is a read-only copy of a cell for renderers.
type CellView struct {
	X, Y int
	Role Role
	// Cost is the known path cost from Start, or -1 when not yet reached.
	Cost int
}

// Grid owns a fixed width x height arena of cells stored row-major.
type Grid struct {
	width, height int
	cells         []Cell
	start, end    int
}

// New returns a grid of Empty cells. Dimensions must be positive.
func New(width, height int) *Grid {
	if width <= 0 || height <= 0 {
		panic(fmt.Errorf("grid dimensions must be positive, got %dx%d", width, height))
	}

	g := &Grid{
		width:  width,
		height: height,
		cells:  make([]Cell, 0, width*height),
		start:  none,
		end:    none,
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.cells = append(g.cells, Cell{X: x, Y: y, role: Empty, parent: none})
		}
	}
	return g
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }
func (g *Grid) Area() int   { return g.width * g.height }

// InBounds reports whether c lies on the grid.
func (g *Grid) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < g.width && c.Y >= 0 && c.Y < g.height
}

// Index returns the arena index of c. It panics if c is out of bounds.
func (g *Grid) Index(c Coord) int {
	if !g.InBounds(c) {
		panic(fmt.Errorf("%w: %v on %dx%d grid", ErrOutOfBounds, c, g.width, g.height))
	}
	return c.Y*g.width + c.X
}

// CoordOf is the inverse of Index.
func (g *Grid) CoordOf(index int) Coord {
	return Coord{X: index % g.width, Y: index / g.width}
}

// At returns the mutable cell at c. It panics if c is out of bounds.
func (g *Grid) At(c Coord) *Cell {
	return &g.cells[g.Index(c)]
}

// Role returns the role of the cell at c.
func (g *Grid) Role(c Coord) Role {
	return g.At(c).role
}

// SetRole changes the role at c if the transition table allows it, and
// reports whether the change was applied.
func (g *Grid) SetRole(c Coord, role Role) bool {
	i := g.Index(c)
	cell := &g.cells[i]
	if !CanTransition(cell.role, role) {
		return false
	}

	switch {
	case role == Start && g.start != none:
		return false
	case role == End && g.end != none:
		return false
	}

	cell.role = role
	switch role {
	case Start:
		g.start = i
	case End:
		g.end = i
	}
	return true
}

// Start returns the start coordinate, if placed.
func (g *Grid) Start() (Coord, bool) {
	if g.start == none {
		return Coord{}, false
	}
	return g.CoordOf(g.start), true
}

// End returns the end coordinate, if placed.
func (g *Grid) End() (Coord, bool) {
	if g.end == none {
		return Coord{}, false
	}
	return g.CoordOf(g.end), true
}

// Neighbors4 returns the in-bounds cells left, right, above and below c, in that order.
// c itself must be in bounds.
func (g *Grid) Neighbors4(c Coord) []Coord {
	g.Index(c)

	neighbors := make([]Coord, 0, 4)
	if c.X > 0 {
		neighbors = append(neighbors, Coord{c.X - 1, c.Y})
	}
	if c.X < g.width-1 {
		neighbors = append(neighbors, Coord{c.X + 1, c.Y})
	}
	if c.Y > 0 {
		neighbors = append(neighbors, Coord{c.X, c.Y - 1})
	}
	if c.Y < g.height-1 {
		neighbors = append(neighbors, Coord{c.X, c.Y + 1})
	}
	return neighbors
}

// SetParent links c to its predecessor p on the best known path.
func (g *Grid) SetParent(c, p Coord) {
	g.At(c).parent = g.Index(p)
}

// Parent returns the predecessor of c, if any.
func (g *Grid) Parent(c Coord) (Coord, bool) {
	cell := g.At(c)
	if cell.parent == none {
		return Coord{}, false
	}
	return g.CoordOf(cell.parent), true
}

func (g *Grid) SetHeuristic(c Coord, h int) { g.At(c).h = h }
func (g *Grid) Heuristic(c Coord) int       { return g.At(c).h }

// Unreached is the cost of a cell with no parent. It exceeds any real path cost.
func (g *Grid) Unreached() int {
	return g.Area() * g.Area()
}

// Cost returns the path cost from Start to c, walking the parent chain one
// hop per unit of cost. Start costs 0; a cell without a parent is Unreached.
// A parent chain longer than the grid is a broken invariant and panics.
func (g *Grid) Cost(c Coord) int {
	i := g.Index(c)
	for hops := 0; hops <= len(g.cells); hops++ {
		if i == g.start {
			return hops
		}
		parent := g.cells[i].parent
		if parent == none {
			return g.Unreached()
		}
		i = parent
	}
	panic(fmt.Errorf("parent chain from %v does not terminate", c))
}

// PathTo returns the cells from Start to c along the parent chain, or nil
// if c is not connected to Start.
func (g *Grid) PathTo(c Coord) []Coord {
	if g.Cost(c) >= g.Unreached() {
		return nil
	}

	path := []Coord{c}
	for i := g.Index(c); i != g.start; {
		i = g.cells[i].parent
		path = append(path, g.CoordOf(i))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Visit calls fn for every cell in row-major order.
func (g *Grid) Visit(fn func(CellView)) {
	costs := g.costs()
	for i := range g.cells {
		cell := &g.cells[i]
		fn(CellView{X: cell.X, Y: cell.Y, Role: cell.role, Cost: costs[i]})
	}
}

// costs memoizes Cost for every cell; unreached cells get -1.
func (g *Grid) costs() []int {
	const unknown = -2
	costs := make([]int, len(g.cells))
	for i := range costs {
		costs[i] = unknown
	}

	chain := make([]int, 0, 16)
	for i := range g.cells {
		chain = chain[:0]
		j := i
		base := -1
		for {
			if costs[j] != unknown {
				base = costs[j]
				break
			}
			if j == g.start {
				base = 0
				costs[j] = 0
				break
			}
			if g.cells[j].parent == none {
				base = -1
				costs[j] = -1
				break
			}
			chain = append(chain, j)
			if len(chain) > len(g.cells) {
				panic(fmt.Errorf("parent chain from %v does not terminate", g.CoordOf(i)))
			}
			j = g.cells[j].parent
		}
		for k := len(chain) - 1; k >= 0; k-- {
			if base >= 0 {
				base++
			}
			costs[chain[k]] = base
		}
	}
	return costs
}

// String renders the grid one rune per cell, one row per line.
func (g *Grid) String() string {
	var sb strings.Builder
	sb.Grow(len(g.cells) + g.height)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			sb.WriteRune(g.cells[y*g.width+x].role.Rune())
		}
		if y < g.height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
