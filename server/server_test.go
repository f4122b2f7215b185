package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pathfinder/config"
	"pathfinder/grid_world"
	"pathfinder/replay"
	"pathfinder/server/fastview"
	"pathfinder/session"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) (*httptest.Server, *replay.MemoryStore) {
	cfg := config.Default()
	cfg.Session.Width = 8
	cfg.Session.Height = 6
	cfg.Session.TickInterval = time.Millisecond
	cfg.Session.ClickCooldown = 0

	store := replay.NewMemoryStore()
	ts := httptest.NewServer(NewServer(cfg, store).Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

// page accumulates the element state the browser would hold.
type page map[string]string

func (p page) apply(updates []fastview.EleUpdate) {
	for _, update := range updates {
		for _, op := range update.Ops {
			p[update.EleId+"."+op.Key] = op.Value
		}
	}
}

// readUntil reads updates until cond holds for the accumulated page.
func readUntil(t *testing.T, conn *websocket.Conn, p page, cond func(page) bool) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for !cond(p) {
		var updates []fastview.EleUpdate
		require.NoError(t, conn.ReadJSON(&updates))
		p.apply(updates)
	}
}

func phaseIs(phase string) func(page) bool {
	return func(p page) bool {
		return p["status-phase."+fastview.TextContent] == phase
	}
}

func TestIndex(t *testing.T) {
	ts, _ := testServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `id="grid"`)
	assert.Contains(t, string(body), `id="cell-7-5"`)
	assert.NotContains(t, string(body), `id="cell-8-5"`)
	assert.Contains(t, string(body), `id="status-phase"`)

	resp, err = http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReplayRoute(t *testing.T) {
	ts, store := testServer(t)

	Convey("Given a stored replay", t, func() {
		r := &replay.Replay{
			ID:      uuid.New(),
			Width:   8,
			Height:  6,
			Entries: []replay.Entry{{Tick: 0, Event: session.PlaceAt(at(1, 1))}},
		}
		So(store.Save(context.Background(), r), ShouldBeNil)

		Convey("It is served as json", func() {
			resp, err := http.Get(ts.URL + "/replays/" + r.ID.String())
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldEqual, "application/json")
			body, _ := io.ReadAll(resp.Body)
			So(string(body), ShouldContainSubstring, r.ID.String())
		})

		Convey("Unknown and malformed ids are rejected", func() {
			resp, err := http.Get(ts.URL + "/replays/" + uuid.NewString())
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)

			resp, err = http.Get(ts.URL + "/replays/not-a-uuid")
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestWebsocketSession(t *testing.T) {
	ts, store := testServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws"), nil)
	require.NoError(t, err)

	p := page{}
	readUntil(t, conn, p, phaseIs("idle"))
	id := p["status-session."+fastview.TextContent]
	_, err = uuid.Parse(id)
	require.NoError(t, err, "the status line names the session")

	for _, ev := range []session.Event{
		session.PlaceAt(at(0, 0)),
		session.PlaceAt(at(4, 0)),
		session.PlaceAt(at(2, 0)),
		{Kind: session.Search},
	} {
		require.NoError(t, conn.WriteJSON(ev))
	}
	// A malformed message is skipped, not fatal.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))

	readUntil(t, conn, p, phaseIs("done"))
	assert.Equal(t, "#0000ff", p["cell-0-0.fill"])
	assert.Equal(t, "#000000", p["cell-2-0.fill"])
	assert.Equal(t, "7", p["status-path."+fastview.TextContent], "detour around the wall")
	assert.Equal(t, "6", p["cost-4-0."+fastview.TextContent])

	require.NoError(t, conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	// The replay is saved once the server sees the close.
	var saved *replay.Replay
	require.Eventually(t, func() bool {
		saved, err = store.Load(context.Background(), uuid.MustParse(id))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	assert.Len(t, saved.Entries, 4)
	assert.Equal(t, session.Search, saved.Entries[3].Event.Kind)
}

func TestWebsocketReplay(t *testing.T) {
	ts, store := testServer(t)

	Convey("Given a stored session", t, func() {
		r := &replay.Replay{
			ID:     uuid.New(),
			Width:  3,
			Height: 3,
			Layout: "column",
			Entries: []replay.Entry{
				{Tick: 2, Event: session.Event{Kind: session.Search}},
			},
		}
		So(store.Save(context.Background(), r), ShouldBeNil)

		Convey("Connecting with its id plays it back", func() {
			conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws?replay="+r.ID.String()), nil)
			So(err, ShouldBeNil)
			defer conn.Close()

			// Input is ignored during playback.
			So(conn.WriteJSON(session.PlaceAt(at(2, 0))), ShouldBeNil)

			p := page{}
			readUntil(t, conn, p, phaseIs("done"))
			So(p["status-path."+fastview.TextContent], ShouldEqual, "5")
			So(p["cell-2-0.fill"], ShouldEqual, "#ffffff")
		})

		Convey("An unknown replay fails the handshake", func() {
			_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws?replay="+uuid.NewString()), nil)
			So(err, ShouldEqual, websocket.ErrBadHandshake)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServe(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	server := NewServer(cfg, replay.NewMemoryStore())

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- server.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func at(x, y int) grid_world.Coord { return grid_world.Coord{X: x, Y: y} }
