package grid_world

import "fmt"

// Role is the single, mutually exclusive kind of a cell. The set is closed;
// transitions between roles are governed by CanTransition.
type Role uint8

const (
	Empty Role = iota
	Wall
	Start
	End
	Expanded
	Explored
	Path
	numRoles
)

var roleNames = [numRoles]string{
	Empty:    "empty",
	Wall:     "wall",
	Start:    "start",
	End:      "end",
	Expanded: "expanded",
	Explored: "explored",
	Path:     "path",
}

// Console runes, shared by String() and ParseLayout.
const (
	EMPTY    = '.'
	WALL     = 'W'
	START    = 'S'
	END      = 'E'
	EXPANDED = 'x'
	EXPLORED = 'o'
	PATH     = '*'
)

var roleRunes = [numRoles]rune{
	Empty:    EMPTY,
	Wall:     WALL,
	Start:    START,
	End:      END,
	Expanded: EXPANDED,
	Explored: EXPLORED,
	Path:     PATH,
}

// Display colors as rgb hex, matching the classic visualizer palette:
// blue start, yellow end, black walls, green expanded, red explored, orange path.
var roleColors = [numRoles]string{
	Empty:    "#ffffff",
	Wall:     "#000000",
	Start:    "#0000ff",
	End:      "#ffff00",
	Expanded: "#00ff00",
	Explored: "#ff0000",
	Path:     "#ff7300",
}

func (r Role) String() string {
	if r >= numRoles {
		return fmt.Sprintf("role(%d)", uint8(r))
	}
	return roleNames[r]
}

// Rune returns the single-character console form of the role.
func (r Role) Rune() rune {
	if r >= numRoles {
		return '?'
	}
	return roleRunes[r]
}

// Color returns the display color of the role as an rgb hex string.
func (r Role) Color() string {
	if r >= numRoles {
		return roleColors[Empty]
	}
	return roleColors[r]
}

// MarshalText encodes the role by name, for json and yaml.
func (r Role) MarshalText() ([]byte, error) {
	if r >= numRoles {
		return nil, fmt.Errorf("unknown role %d", uint8(r))
	}
	return []byte(roleNames[r]), nil
}

// UnmarshalText decodes a role name.
func (r *Role) UnmarshalText(text []byte) error {
	for i, name := range roleNames {
		if name == string(text) {
			*r = Role(i)
			return nil
		}
	}
	return fmt.Errorf("unknown role %q", text)
}

// transitions[from][to] lists every legal role change. Start, End and Wall
// are placed only on Empty cells and are never overwritten by the search;
// only Empty cells are discovered; only discovered cells join the path, so
// Start keeps its own role and color once the path is drawn.
var transitions = [numRoles][numRoles]bool{
	Empty: {
		Wall:     true,
		Start:    true,
		End:      true,
		Explored: true,
	},
	Explored: {
		Expanded: true,
		Path:     true,
	},
	Expanded: {
		Path: true,
	},
}

// CanTransition reports whether a cell holding role from may be changed to role to.
func CanTransition(from, to Role) bool {
	if from >= numRoles || to >= numRoles {
		return false
	}
	return transitions[from][to]
}

// Relaxable reports whether the search may reach a neighbor holding this
// role. Walls block it, and Start is the root of every parent chain.
func (r Role) Relaxable() bool {
	return r != Wall && r != Start
}
