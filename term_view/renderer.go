// term_view draws sessions on a terminal and turns mouse and key events into
// session input.
package term_view

import (
	"fmt"

	"pathfinder/search"
	"pathfinder/session"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger replaces the package logger.
func SetLogger(logger *logrus.Logger) {
	log = logger
}

// CellWidth is the number of terminal columns per grid cell, so cells look square.
const CellWidth = 2

const help = "click: start, end, walls | space: search | r: reset | q: quit"

// Player plays a notification; Chime is the audible one.
type Player interface {
	Play()
}

// Renderer is a session.CellObserver drawing each snapshot to a screen.
type Renderer struct {
	screen tcell.Screen
	done   Player
	styles map[string]tcell.Style
	phase  search.Phase
}

// NewRenderer draws to screen and plays done, if not nil, once a path is complete.
func NewRenderer(screen tcell.Screen, done Player) *Renderer {
	return &Renderer{
		screen: screen,
		done:   done,
		styles: map[string]tcell.Style{},
	}
}

func (r *Renderer) style(color string) tcell.Style {
	style, ok := r.styles[color]
	if !ok {
		style = tcell.StyleDefault.Background(tcell.GetColor(color))
		r.styles[color] = style
	}
	return style
}

// Observe draws the board and the status line under it.
func (r *Renderer) Observe(snap session.Snapshot) {
	for _, cv := range snap.Cells {
		style := r.style(cv.Role.Color())
		for col := 0; col < CellWidth; col++ {
			r.screen.SetContent(cv.X*CellWidth+col, cv.Y, ' ', nil, style)
		}
	}

	status := fmt.Sprintf("%-9s tick %-6d expanded %-5d frontier %-5d path %-4d  %s",
		snap.Phase, snap.Tick, snap.Expansions, snap.Frontier, snap.PathLength, help)
	r.drawText(0, snap.Height, status)
	r.screen.Show()

	if snap.Phase == search.Done && r.phase != search.Done && r.done != nil {
		r.done.Play()
	}
	r.phase = snap.Phase
}

func (r *Renderer) drawText(x, y int, text string) {
	width, _ := r.screen.Size()
	for _, ch := range text {
		if x >= width {
			break
		}
		r.screen.SetContent(x, y, ch, nil, tcell.StyleDefault)
		x++
	}
	// clear the rest of a previously longer line
	for ; x < width; x++ {
		r.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault)
	}
}
