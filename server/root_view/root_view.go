package root_view

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"pathfinder/server/cell_views"
	"pathfinder/server/fastview"
	"pathfinder/session"

	channerics "github.com/niceyeti/channerics/channels"
)

// RootView is the main page's index.html, which is the container for all the
// view components, the wiring for their channels, and the websocket bootstrap.
// Each websocket connection gets its own RootView over its own session.
type RootView struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// NewRootView builds the page's views over the snapshots of one session.
// Updates are coalesced and flushed every fastview.PubResolution.
func NewRootView(
	ctx context.Context,
	sessionID string,
	cellSize int,
	snapshots <-chan session.Snapshot,
) (*RootView, error) {
	views, err := fastview.NewViewBuilder[session.Snapshot, cell_views.Board]().
		WithContext(ctx).
		WithModel(snapshots, cell_views.NewConverter(sessionID, cellSize)).
		WithView(
			func(done <-chan struct{}, boards <-chan cell_views.Board) fastview.ViewComponent {
				return cell_views.NewGridView(done, boards)
			},
			func(done <-chan struct{}, boards <-chan cell_views.Board) fastview.ViewComponent {
				return cell_views.NewStatusView(done, boards)
			}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build views: %w", err)
	}

	return &RootView{
		views:   views,
		updates: fanIn(ctx.Done(), views, fastview.PubResolution),
	}, nil
}

// Updates returns the main ele-update channel for all the views.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse builds the main page's template, with websocket bootstrap code, and returns its name.
// It also sets up the func-map that the child components depend on.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	rt := parent.Funcs(
		template.FuncMap{
			"add":  func(i, j int) int { return i + j },
			"sub":  func(i, j int) int { return i - j },
			"mult": func(i, j int) int { return i * j },
			"div":  func(i, j int) int { return i / j },
			"max": func(i, j int) int {
				if i > j {
					return i
				}
				return j
			},
		})

	viewTemplates := []string{}
	for _, vc := range rv.views {
		tname, parseErr := vc.Parse(rt)
		if parseErr != nil {
			err = parseErr
			return
		}
		viewTemplates = append(viewTemplates, tname)
	}

	var bodySpec string
	for _, tname := range viewTemplates {
		bodySpec += (`{{ template "` + tname + `" . }}`)
	}

	// The main template bootstraps the rest: the websocket, applying pushed
	// ele-updates, and sending clicks and keys back as session events.
	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<link rel="icon" href="data:,">
			<title>pathfinder</title>
		</head>
		<body>
		<p style="font-family:monospace;">
			click: start, end, then walls (drag to paint) | space: search | r: reset
		</p>
		` + bodySpec + `
		<script>
			const ws = new WebSocket("ws://" + location.host + "/ws" + location.search);
			ws.onopen = function (event) {
				console.log("Web socket opened")
			};
			ws.onerror = function (event) {
				console.log('WebSocket error: ', event);
			};

			// When the server pushes view updates, find these eles and update them.
			ws.onmessage = function (event) {
				const items = JSON.parse(event.data)
				for (const update of items) {
					const ele = document.getElementById(update.EleId)
					if (ele === null) {
						continue
					}
					for (const op of update.Ops) {
						if (op.Key === "textContent") {
							ele.textContent = op.Value;
						} else {
							ele.setAttribute(op.Key, op.Value)
						}
					}
				}
			}

			function send(msg) {
				if (ws.readyState === WebSocket.OPEN) {
					ws.send(JSON.stringify(msg))
				}
			}

			const grid = document.getElementById("grid")
			const cellSize = parseInt(grid.dataset.cellSize)
			let painting = false
			let lastCell = ""
			function place(event) {
				const rect = grid.getBoundingClientRect()
				const x = Math.floor((event.clientX - rect.left) / cellSize)
				const y = Math.floor((event.clientY - rect.top) / cellSize)
				const key = x + "," + y
				if (key === lastCell) {
					return
				}
				lastCell = key
				send({kind: "place", x: x, y: y})
			}
			grid.addEventListener("mousedown", function (event) {
				painting = true
				lastCell = ""
				place(event)
			})
			grid.addEventListener("mousemove", function (event) {
				if (painting) {
					place(event)
				}
			})
			window.addEventListener("mouseup", function () {
				painting = false
			})
			window.addEventListener("keydown", function (event) {
				if (event.key === " ") {
					event.preventDefault()
					send({kind: "search"})
				} else if (event.key === "r") {
					send({kind: "reset"})
				}
			})
		</script>
		</body></html>
	{{ end }}
	`

	_, err = rt.Parse(indexTemplate)
	return
}

// fanIn aggregates the views' ele-update channels into a single channel,
// batched at the passed rate.
func fanIn(
	done <-chan struct{},
	views []fastview.ViewComponent,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return batchify(
		done,
		channerics.Merge(done, inputs...),
		rate)
}

// batchify collects updates and sends them once per rate tick, merging
// updates for the same ele-id so that only the latest value of each
// attribute is sent. Nothing is dropped: a pending batch waits for the
// next tick, and the remainder is flushed when the source closes.
func batchify(
	done <-chan struct{},
	source <-chan []fastview.EleUpdate,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	output := make(chan []fastview.EleUpdate)

	go func() {
		defer close(output)

		pending := newBatch()
		flush := func() bool {
			if pending.empty() {
				return true
			}
			select {
			case output <- pending.updates():
				pending = newBatch()
				return true
			case <-done:
				return false
			}
		}

		ticker := channerics.NewTicker(done, rate)
		for {
			select {
			case <-done:
				return
			case updates, ok := <-source:
				if !ok {
					flush()
					return
				}
				pending.add(updates)
			case <-ticker:
				if !flush() {
					return
				}
			}
		}
	}()

	return output
}

// batch merges ele-updates by id, and ops by key, in first-seen order.
type batch struct {
	order []string
	byId  map[string]*fastview.EleUpdate
}

func newBatch() *batch {
	return &batch{byId: map[string]*fastview.EleUpdate{}}
}

func (b *batch) empty() bool {
	return len(b.order) == 0
}

func (b *batch) add(updates []fastview.EleUpdate) {
	for _, update := range updates {
		merged, ok := b.byId[update.EleId]
		if !ok {
			b.order = append(b.order, update.EleId)
			merged = &fastview.EleUpdate{EleId: update.EleId}
			b.byId[update.EleId] = merged
		}
	ops:
		for _, op := range update.Ops {
			for i := range merged.Ops {
				if merged.Ops[i].Key == op.Key {
					merged.Ops[i].Value = op.Value
					continue ops
				}
			}
			merged.Ops = append(merged.Ops, op)
		}
	}
}

func (b *batch) updates() []fastview.EleUpdate {
	sliced := make([]fastview.EleUpdate, 0, len(b.order))
	for _, id := range b.order {
		sliced = append(sliced, *b.byId[id])
	}
	return sliced
}
