// session drives one interactive board: it applies user input through the
// placement policy, steps the search once per tick and hands snapshots of
// the board to whatever renders it.
package session

import (
	"context"
	"fmt"
	"time"

	"pathfinder/grid_world"
	"pathfinder/search"

	channerics "github.com/niceyeti/channerics/channels"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger replaces the package logger.
func SetLogger(logger *logrus.Logger) {
	log = logger
}

// Config holds the board and timing parameters of a session.
type Config struct {
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	CellSize int `yaml:"cellsize"`
	// TickInterval is the period of Run's loop; one search step per tick.
	TickInterval time.Duration `yaml:"tickinterval"`
	// ClickCooldown ignores placements arriving too close together while the
	// end point is unplaced, so one click cannot place both start and end.
	ClickCooldown time.Duration `yaml:"clickcooldown"`
	// Layout optionally names a built-in board to load on creation.
	Layout string `yaml:"layout"`
}

// DefaultConfig is a 40x40 board of 20px cells ticking at about 60Hz.
func DefaultConfig() Config {
	return Config{
		Width:         grid_world.DefaultWidth,
		Height:        grid_world.DefaultHeight,
		CellSize:      grid_world.DefaultCellSize,
		TickInterval:  16 * time.Millisecond,
		ClickCooldown: 100 * time.Millisecond,
	}
}

// Validate reports configuration values the session cannot run with.
func (cfg Config) Validate() error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid board size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.CellSize <= 0 {
		return fmt.Errorf("invalid cell size %d", cfg.CellSize)
	}
	if cfg.TickInterval <= 0 {
		return fmt.Errorf("invalid tick interval %v", cfg.TickInterval)
	}
	if cfg.ClickCooldown < 0 {
		return fmt.Errorf("invalid click cooldown %v", cfg.ClickCooldown)
	}
	if cfg.Layout != "" {
		if _, err := grid_world.NamedLayout(cfg.Layout, cfg.Width, cfg.Height); err != nil {
			return err
		}
	}
	return nil
}

// Session owns a grid and the search over it. It is not safe for concurrent
// use: Run's goroutine is the only one that may touch it while running.
type Session struct {
	cfg    Config
	grid   *grid_world.Grid
	engine *search.Engine

	tick      int
	dirty     bool
	lastPlace time.Time
	now       func() time.Time
	hooks     []func(tick int, ev Event)
}

// New creates a session and loads the configured layout, if any.
func New(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg: cfg,
		now: time.Now,
	}
	s.reset()

	if cfg.Layout != "" {
		layout, err := grid_world.NamedLayout(cfg.Layout, cfg.Width, cfg.Height)
		if err != nil {
			return nil, err
		}
		if err = s.Load(layout); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// reset replaces the grid and the engine; nothing of the old search survives.
func (s *Session) reset() {
	s.grid = grid_world.New(s.cfg.Width, s.cfg.Height)
	s.engine = search.NewEngine(s.grid)
	s.lastPlace = time.Time{}
	s.dirty = true
}

// Load applies a layout as placements: start, end, then walls. The layout
// must fit on the board, and a session with points already placed will
// turn the layout's start and end into walls, like any other click would.
func (s *Session) Load(layout grid_world.Layout) error {
	if layout.Width > s.cfg.Width || layout.Height > s.cfg.Height {
		return fmt.Errorf("%w: %dx%d layout does not fit a %dx%d board",
			grid_world.ErrBadLayout, layout.Width, layout.Height, s.cfg.Width, s.cfg.Height)
	}
	for _, c := range layout.Placements() {
		s.Place(c)
	}
	s.dirty = true
	return nil
}

// OnEvent registers fn to be called with every accepted event.
func (s *Session) OnEvent(fn func(tick int, ev Event)) {
	s.hooks = append(s.hooks, fn)
}

func (s *Session) Config() Config                { return s.cfg }
func (s *Session) Grid() *grid_world.Grid        { return s.grid }
func (s *Session) Engine() *search.Engine        { return s.engine }
func (s *Session) Phase() search.Phase           { return s.engine.Phase() }
func (s *Session) Ticks() int                    { return s.tick }
func (s *Session) SetClock(now func() time.Time) { s.now = now }

// Apply handles one input event and reports whether it changed anything.
// Invalid input (out-of-bounds or occupied cells, early search requests,
// debounced clicks) is ignored.
func (s *Session) Apply(ev Event) (accepted bool) {
	switch ev.Kind {
	case Place:
		accepted = s.applyPlace(grid_world.Coord{X: ev.X, Y: ev.Y})
	case Search:
		accepted = s.engine.RequestSearch()
	case Reset:
		s.reset()
		accepted = true
	default:
		log.WithField("kind", ev.Kind).Debug("unknown event kind")
	}

	if !accepted {
		return
	}
	s.dirty = true
	log.WithFields(logrus.Fields{"tick": s.tick, "event": ev.String()}).Debug("event applied")
	for _, hook := range s.hooks {
		hook(s.tick, ev)
	}
	return
}

func (s *Session) applyPlace(c grid_world.Coord) bool {
	if !s.grid.InBounds(c) {
		return false
	}

	now := s.now()
	if _, hasEnd := s.grid.End(); !hasEnd && now.Sub(s.lastPlace) < s.cfg.ClickCooldown {
		return false
	}
	if s.Place(c) == Rejected {
		return false
	}
	s.lastPlace = now
	return true
}

// Tick runs one frame: apply the input polled from src, advance the search
// one step, and publish a snapshot to obs if the board changed.
func (s *Session) Tick(src PlacementSource, obs CellObserver) {
	for _, ev := range src.Poll(s.tick) {
		s.Apply(ev)
	}

	before := s.engine.Phase()
	if before == search.Searching || before == search.Tracing {
		after := s.engine.Step()
		s.dirty = true
		if after != before && after.Terminal() {
			s.logResult()
		}
	}
	s.tick++

	if s.dirty && obs != nil {
		s.dirty = false
		obs.Observe(s.Snapshot())
	}
}

func (s *Session) logResult() {
	entry := log.WithFields(logrus.Fields{
		"phase":      s.engine.Phase(),
		"tick":       s.tick,
		"expansions": s.engine.Expansions(),
		"path":       len(s.engine.Path()),
	})
	entry.Info("search finished")
	if log.IsLevelEnabled(logrus.DebugLevel) {
		entry.Debug("\n" + s.grid.String())
	}
}

// Run ticks the session every TickInterval until ctx is done.
func (s *Session) Run(ctx context.Context, src PlacementSource, obs CellObserver) error {
	ticks := channerics.NewTicker(ctx.Done(), s.cfg.TickInterval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			s.Tick(src, obs)
		}
	}
}

// Snapshot copies the board and search counters.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Width:      s.grid.Width(),
		Height:     s.grid.Height(),
		Cells:      make([]grid_world.CellView, 0, s.grid.Area()),
		Phase:      s.engine.Phase(),
		Tick:       s.tick,
		Expansions: s.engine.Expansions(),
		Frontier:   s.engine.FrontierSize(),
		PathLength: len(s.engine.Path()),
	}
	s.grid.Visit(func(cv grid_world.CellView) {
		snap.Cells = append(snap.Cells, cv)
	})
	return snap
}
