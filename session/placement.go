package session

import (
	"pathfinder/grid_world"
)

// Outcome is the result of a placement click.
type Outcome uint8

const (
	Rejected Outcome = iota
	StartPlaced
	EndPlaced
	WallPlaced
)

func (o Outcome) String() string {
	switch o {
	case StartPlaced:
		return "start"
	case EndPlaced:
		return "end"
	case WallPlaced:
		return "wall"
	}
	return "rejected"
}

// Place applies the placement policy at c. Only Empty cells accept a
// placement: the first becomes Start and seeds the frontier, the second
// becomes End, and every later one becomes a Wall. Walls are never removed.
func (s *Session) Place(c grid_world.Coord) Outcome {
	if !s.grid.InBounds(c) || s.grid.Role(c) != grid_world.Empty {
		return Rejected
	}

	if _, ok := s.grid.Start(); !ok {
		s.grid.SetRole(c, grid_world.Start)
		s.engine.Seed(c)
		return StartPlaced
	}
	if _, ok := s.grid.End(); !ok {
		s.grid.SetRole(c, grid_world.End)
		return EndPlaced
	}
	s.grid.SetRole(c, grid_world.Wall)
	return WallPlaced
}
