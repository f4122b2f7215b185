// replay records the accepted input of a session so it can be stored and
// played back. The search is deterministic, so the input alone reproduces
// the board exactly.
package replay

import (
	"context"
	"errors"
	"sync"
	"time"

	"pathfinder/search"
	"pathfinder/session"

	"github.com/google/uuid"
)

// ErrNotFound is returned by stores when no replay has the requested id.
var ErrNotFound = errors.New("replay not found")

// Entry is one accepted event and the tick on which it was applied.
type Entry struct {
	Tick  int           `json:"tick"`
	Event session.Event `json:"event"`
}

// Replay is the stored form of a session.
type Replay struct {
	ID      uuid.UUID `json:"id"`
	Created time.Time `json:"created"`
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	// Layout is the built-in board the session started from, if any.
	Layout  string  `json:"layout,omitempty"`
	Entries []Entry `json:"entries"`
}

// Store persists replays.
type Store interface {
	Save(ctx context.Context, r *Replay) error
	Load(ctx context.Context, id uuid.UUID) (*Replay, error)
}

// Recorder collects the events a session accepts. Record is called from the
// session goroutine and Replay from whoever saves it, hence the lock.
type Recorder struct {
	mu     sync.Mutex
	replay Replay
}

// NewRecorder starts a recording for a session created with cfg, and hooks
// it into s if s is not nil.
func NewRecorder(id uuid.UUID, cfg session.Config, s *session.Session) *Recorder {
	rec := &Recorder{
		replay: Replay{
			ID:      id,
			Created: time.Now().UTC(),
			Width:   cfg.Width,
			Height:  cfg.Height,
			Layout:  cfg.Layout,
		},
	}
	if s != nil {
		s.OnEvent(rec.Record)
	}
	return rec
}

// Record appends an entry. Its signature matches session.Session.OnEvent.
func (rec *Recorder) Record(tick int, ev session.Event) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.replay.Entries = append(rec.replay.Entries, Entry{Tick: tick, Event: ev})
}

// Replay returns a copy of the recording so far.
func (rec *Recorder) Replay() *Replay {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	r := rec.replay
	r.Entries = append([]Entry(nil), rec.replay.Entries...)
	return &r
}

// Source yields a replay's events on the ticks they were recorded on.
type Source struct {
	byTick map[int][]session.Event
	last   int
}

// NewSource indexes the replay's entries by tick.
func NewSource(r *Replay) *Source {
	src := &Source{byTick: map[int][]session.Event{}, last: -1}
	for _, e := range r.Entries {
		src.byTick[e.Tick] = append(src.byTick[e.Tick], e.Event)
		if e.Tick > src.last {
			src.last = e.Tick
		}
	}
	return src
}

func (src *Source) Poll(tick int) []session.Event {
	return src.byTick[tick]
}

// Finished reports whether every entry has been yielded by tick.
func (src *Source) Finished(tick int) bool {
	return tick > src.last
}

// Config returns the session configuration to play r back with. Debouncing
// is disabled: the recording only holds clicks that already passed it.
func Config(r *Replay, base session.Config) session.Config {
	cfg := base
	cfg.Width = r.Width
	cfg.Height = r.Height
	cfg.Layout = r.Layout
	cfg.ClickCooldown = 0
	return cfg
}

// Play runs a replay headless: every entry is applied on its tick, then the
// session ticks until the search settles or maxTicks is reached.
func Play(r *Replay, base session.Config, maxTicks int) (*session.Session, error) {
	s, err := session.New(Config(r, base))
	if err != nil {
		return nil, err
	}

	src := NewSource(r)
	for s.Ticks() < maxTicks {
		if src.Finished(s.Ticks()) {
			if phase := s.Phase(); phase.Terminal() || phase == search.Idle {
				break
			}
		}
		s.Tick(src, nil)
	}
	return s, nil
}
