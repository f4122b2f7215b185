package term_view

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Chime plays a short rising two-tone chime through the speaker.
type Chime struct {
	mu    sync.Mutex
	ready bool
}

// NewChime initializes the speaker. Audio is optional: on failure the
// chime stays silent and the error is only logged.
func NewChime() *Chime {
	chime := &Chime{}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		log.WithError(err).Warn("audio unavailable, chime disabled")
		return chime
	}
	chime.ready = true
	return chime
}

// Play starts the chime without waiting for it to finish.
func (c *Chime) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return
	}

	streamer, err := chimeStreamer()
	if err != nil {
		log.WithError(err).Warn("chime")
		return
	}
	speaker.Play(streamer)
}

// Close releases the speaker.
func (c *Chime) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		speaker.Close()
		c.ready = false
	}
}

func chimeStreamer() (beep.Streamer, error) {
	var notes []beep.Streamer
	for _, note := range []struct {
		freq     float64
		duration time.Duration
	}{
		{660, 120 * time.Millisecond},
		{880, 220 * time.Millisecond},
	} {
		tone, err := generators.SineTone(sampleRate, note.freq)
		if err != nil {
			return nil, err
		}
		notes = append(notes, beep.Take(sampleRate.N(note.duration), tone))
	}
	return &effects.Volume{
		Streamer: beep.Seq(notes...),
		Base:     2,
		Volume:   -2,
	}, nil
}
