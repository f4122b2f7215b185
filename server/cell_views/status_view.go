package cell_views

import (
	"html/template"
	"strconv"

	"pathfinder/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// StatusView is a one-line summary of the session and its search.
type StatusView struct {
	id      string
	updates <-chan []fastview.EleUpdate
	last    map[string]string
}

func NewStatusView(
	done <-chan struct{},
	boards <-chan Board,
) (sv *StatusView) {
	sv = &StatusView{id: "status"}
	sv.updates = channerics.Convert(done, boards, sv.onUpdate)
	return
}

func (sv *StatusView) Updates() <-chan []fastview.EleUpdate {
	return sv.updates
}

func statusFields(board Board) map[string]string {
	return map[string]string{
		"session":    board.Session,
		"phase":      board.Phase,
		"tick":       strconv.Itoa(board.Tick),
		"expansions": strconv.Itoa(board.Expansions),
		"frontier":   strconv.Itoa(board.Frontier),
		"path":       strconv.Itoa(board.PathLength),
	}
}

// statusKeys fixes the order of the emitted updates.
var statusKeys = []string{"session", "phase", "tick", "expansions", "frontier", "path"}

func (sv *StatusView) onUpdate(board Board) (ops []fastview.EleUpdate) {
	fields := statusFields(board)
	for _, key := range statusKeys {
		if last, ok := sv.last[key]; ok && last == fields[key] {
			continue
		}
		ops = append(ops, fastview.EleUpdate{
			EleId: sv.id + "-" + key,
			Ops:   []fastview.Op{{Key: fastview.TextContent, Value: fields[key]}},
		})
	}
	sv.last = fields
	return
}

func (sv *StatusView) Parse(
	t *template.Template,
) (name string, err error) {
	name = sv.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<div id="` + sv.id + `" style="padding:10px; font-family:monospace;">
			session <span id="` + sv.id + `-session">{{ .Session }}</span>
			| phase <span id="` + sv.id + `-phase">{{ .Phase }}</span>
			| tick <span id="` + sv.id + `-tick">{{ .Tick }}</span>
			| expanded <span id="` + sv.id + `-expansions">{{ .Expansions }}</span>
			| frontier <span id="` + sv.id + `-frontier">{{ .Frontier }}</span>
			| path <span id="` + sv.id + `-path">{{ .PathLength }}</span>
		</div>
		{{ end }}`)
	return
}
