package grid_world

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrBadLayout wraps every layout parsing failure.
var ErrBadLayout = errors.New("bad layout")

// Layout is a parsed board: optional start and end points and a wall set.
// It is applied to a grid as ordinary placements, so it obeys the same rules
// as clicks do.
type Layout struct {
	Width, Height int
	Start, End    *Coord
	Walls         []Coord
}

// ParseLayout converts console rows ('.' empty, 'W' wall, 'S' start, 'E' end)
// into a Layout. Row 0 is the top of the board. Rows must have equal length.
func ParseLayout(rows []string) (layout Layout, err error) {
	layout.Height = len(rows)
	for y, row := range rows {
		runes := []rune(row)
		if y == 0 {
			layout.Width = len(runes)
		} else if len(runes) != layout.Width {
			return Layout{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrBadLayout, y, len(runes), layout.Width)
		}

		for x, r := range runes {
			c := Coord{x, y}
			switch r {
			case EMPTY:
			case WALL:
				layout.Walls = append(layout.Walls, c)
			case START:
				if layout.Start != nil {
					return Layout{}, fmt.Errorf("%w: second start at %v", ErrBadLayout, c)
				}
				layout.Start = &c
			case END:
				if layout.End != nil {
					return Layout{}, fmt.Errorf("%w: second end at %v", ErrBadLayout, c)
				}
				layout.End = &c
			default:
				return Layout{}, fmt.Errorf("%w: unknown cell %q at %v", ErrBadLayout, r, c)
			}
		}
	}
	return
}

// Placements returns the layout's points in the order a user would click
// them: start, end, then walls.
func (l Layout) Placements() []Coord {
	placements := make([]Coord, 0, len(l.Walls)+2)
	if l.Start != nil {
		placements = append(placements, *l.Start)
	}
	if l.End != nil {
		placements = append(placements, *l.End)
	}
	return append(placements, l.Walls...)
}

// The built-in boards, sized to the grid they are loaded into.
var layoutBuilders = map[string]func(width, height int) []string{
	"empty":    emptyLayout,
	"column":   columnLayout,
	"enclosed": enclosedLayout,
	"maze":     mazeLayout,
}

// LayoutNames returns the names of the built-in layouts, sorted.
func LayoutNames() []string {
	names := make([]string, 0, len(layoutBuilders))
	for name := range layoutBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NamedLayout builds and parses a built-in layout for a width x height grid.
func NamedLayout(name string, width, height int) (Layout, error) {
	build, ok := layoutBuilders[name]
	if !ok {
		return Layout{}, fmt.Errorf("%w: no layout named %q (have %s)", ErrBadLayout, name, strings.Join(LayoutNames(), ", "))
	}
	return ParseLayout(build(width, height))
}

func blankRows(width, height int) [][]rune {
	rows := make([][]rune, height)
	for y := range rows {
		rows[y] = []rune(strings.Repeat(string(EMPTY), width))
	}
	return rows
}

func joinRows(rows [][]rune) []string {
	out := make([]string, len(rows))
	for y, row := range rows {
		out[y] = string(row)
	}
	return out
}

func emptyLayout(width, height int) []string {
	return joinRows(blankRows(width, height))
}

// columnLayout is a wall down column 1 with a single gap at row 2,
// start at the top left and end just past the gap.
func columnLayout(width, height int) []string {
	rows := blankRows(width, height)
	if width < 3 || height < 3 {
		return joinRows(rows)
	}
	for y := 0; y < height; y++ {
		if y != 2 {
			rows[y][1] = WALL
		}
	}
	rows[0][0] = START
	rows[2][2] = END
	return joinRows(rows)
}

// enclosedLayout walls the end point in completely, so it cannot be reached.
func enclosedLayout(width, height int) []string {
	rows := blankRows(width, height)
	if width < 5 || height < 5 {
		return joinRows(rows)
	}
	cx, cy := width/2, height/2
	for y := cy - 1; y <= cy+1; y++ {
		for x := cx - 1; x <= cx+1; x++ {
			rows[y][x] = WALL
		}
	}
	rows[cy][cx] = END
	rows[0][0] = START
	return joinRows(rows)
}

// mazeLayout draws alternating walls with gaps at opposite ends, forcing
// the path to snake from the top left to the bottom right.
func mazeLayout(width, height int) []string {
	rows := blankRows(width, height)
	if width < 3 || height < 3 {
		return joinRows(rows)
	}
	for x, n := 1, 0; x < width-1; x, n = x+2, n+1 {
		for y := 0; y < height; y++ {
			rows[y][x] = WALL
		}
		if n%2 == 0 {
			rows[height-1][x] = EMPTY
		} else {
			rows[0][x] = EMPTY
		}
	}
	rows[0][0] = START
	rows[height-1][width-1] = END
	return joinRows(rows)
}
