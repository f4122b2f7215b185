package cell_views

import (
	"fmt"
	"html/template"

	"pathfinder/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// GridView draws the board as an svg of one rect per cell, filled by role,
// with the g-cost of reached cells written on top.
type GridView struct {
	id      string
	updates <-chan []fastview.EleUpdate
	// last is only touched by the Convert goroutine.
	last []Cell
}

func NewGridView(
	done <-chan struct{},
	boards <-chan Board,
) (gv *GridView) {
	gv = &GridView{id: "grid"}
	gv.updates = channerics.Convert(done, boards, gv.onUpdate)
	return
}

func (gv *GridView) Updates() <-chan []fastview.EleUpdate {
	return gv.updates
}

func rectId(c Cell) string { return fmt.Sprintf("cell-%d-%d", c.X, c.Y) }
func costId(c Cell) string { return fmt.Sprintf("cost-%d-%d", c.X, c.Y) }

// onUpdate returns the updates for the cells that changed since the last
// board; everything on the first board or after a resize.
func (gv *GridView) onUpdate(board Board) (ops []fastview.EleUpdate) {
	full := len(gv.last) != len(board.Cells)
	for i, cell := range board.Cells {
		var prev Cell
		if !full {
			prev = gv.last[i]
		}
		if full || prev.Fill != cell.Fill {
			ops = append(ops, fastview.EleUpdate{
				EleId: rectId(cell),
				Ops:   []fastview.Op{{Key: "fill", Value: cell.Fill}},
			})
		}
		if full || prev.Cost != cell.Cost {
			ops = append(ops, fastview.EleUpdate{
				EleId: costId(cell),
				Ops:   []fastview.Op{{Key: fastview.TextContent, Value: cell.Cost}},
			})
		}
	}
	gv.last = append(gv.last[:0], board.Cells...)
	return
}

// Parse defines the grid's svg. The template expects a Board.
func (gv *GridView) Parse(
	t *template.Template,
) (name string, err error) {
	name = gv.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<div id="` + gv.id + `-container" style="padding:10px;">
			{{ $size := .CellSize }}
			{{ $half := div $size 2 }}
			<svg id="` + gv.id + `" xmlns='http://www.w3.org/2000/svg'
				data-cell-size="{{ $size }}"
				width="{{ mult .Width $size }}px"
				height="{{ mult .Height $size }}px"
				style="shape-rendering: crispEdges; user-select: none;">
				{{ range $cell := .Cells }}
				<rect id="cell-{{$cell.X}}-{{$cell.Y}}"
					x="{{ mult $cell.X $size }}"
					y="{{ mult $cell.Y $size }}"
					width="{{ $size }}"
					height="{{ $size }}"
					fill="{{ $cell.Fill }}"
					stroke="lightgrey"
					stroke-width="1"/>
				<text id="cost-{{$cell.X}}-{{$cell.Y}}"
					x="{{ add (mult $cell.X $size) $half }}"
					y="{{ add (mult $cell.Y $size) $half }}"
					font-size="{{ max 8 (sub $half 2) }}"
					dominant-baseline="central" text-anchor="middle"
					pointer-events="none"
					>{{ $cell.Cost }}</text>
				{{ end }}
			</svg>
		</div>
		{{ end }}`)
	return
}
