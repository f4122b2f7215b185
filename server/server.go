// server serves the browser front-end: an index page whose views are kept in
// sync over a websocket with a session running on the server, one session
// per connection, and the stored replays of finished sessions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"time"

	"pathfinder/config"
	"pathfinder/replay"
	"pathfinder/server/cell_views"
	"pathfinder/server/fastview"
	"pathfinder/server/root_view"
	"pathfinder/session"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger replaces the package logger.
func SetLogger(logger *logrus.Logger) {
	log = logger
}

const (
	shutdownGracePeriod = 5 * time.Second
	// Bound on the context used to save a replay after its socket closes.
	saveTimeout = 5 * time.Second
)

// Server serves the index page, the per-connection session websockets and
// the replays of past sessions.
type Server struct {
	addr   string
	cfg    session.Config
	store  replay.Store
	router *mux.Router
}

// NewServer returns a server for the passed configuration, saving replays to store.
func NewServer(cfg *config.Config, store replay.Store) *Server {
	server := &Server{
		addr:  cfg.Server.Addr(),
		cfg:   cfg.Session,
		store: store,
	}

	router := mux.NewRouter()
	router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket).Methods(http.MethodGet)
	router.HandleFunc("/replays/{id}", server.serveReplay).Methods(http.MethodGet)
	server.router = router
	return server
}

// Handler returns the server's routes, e.g. for httptest.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Serve listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (server *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    server.addr,
		Handler: server.router,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errs := make(chan error, 1)
	go func() {
		log.WithField("addr", server.addr).Info("serving")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// serveIndex renders the main page with an empty board.
func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The page's views are only needed for their templates here.
	none := make(chan session.Snapshot)
	close(none)
	rootView, err := root_view.NewRootView(ctx, "", server.cfg.CellSize, none)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	board := cell_views.EmptyBoard(server.cfg.Width, server.cfg.Height, server.cfg.CellSize)
	if err = renderTemplate(w, rootView, board); err != nil {
		log.WithError(err).Error("render index")
		_, _ = w.Write([]byte(err.Error()))
	}
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}

// serveWebsocket runs a session for the connection: client messages are the
// session's input, and its snapshots are pushed back as view updates. With
// ?replay=<id> the stored session is played back instead and input is ignored.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	cfg := server.cfg
	var playback *replay.Replay
	if param := r.URL.Query().Get("replay"); param != "" {
		var status int
		if playback, status = server.loadReplay(r.Context(), param); playback == nil {
			http.Error(w, http.StatusText(status), status)
			return
		}
		cfg = replay.Config(playback, cfg)
	}

	sess, err := session.New(cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	id := uuid.New()
	logger := log.WithField("session", id)

	var recorder *replay.Recorder
	if playback == nil {
		recorder = replay.NewRecorder(id, cfg, sess)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snapshots := make(chan session.Snapshot, 1)
	rootView, err := root_view.NewRootView(ctx, id.String(), cfg.CellSize, snapshots)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	client, err := fastview.NewClient[[]fastview.EleUpdate, session.Event](rootView.Updates(), w, r)
	if err != nil {
		logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer client.Close()

	var src session.PlacementSource = session.ChanSource(client.Messages())
	if playback != nil {
		src = replay.NewSource(playback)
		go drain(client.Messages())
	}

	logger.Info("session started")
	runErr := make(chan error, 1)
	go func() {
		runErr <- sess.Run(ctx, src, latest(snapshots))
	}()

	if err = client.Sync(ctx); err != nil {
		logger.WithError(err).Info("websocket closed")
	}
	cancel()
	if err = <-runErr; err != nil {
		logger.WithError(err).Warn("session stopped")
	}
	logger.WithFields(logrus.Fields{
		"tick":  sess.Ticks(),
		"phase": sess.Phase(),
	}).Info("session ended")

	if recorder != nil {
		server.saveReplay(logger, recorder.Replay())
	}
}

func (server *Server) loadReplay(ctx context.Context, param string) (*replay.Replay, int) {
	id, err := uuid.Parse(param)
	if err != nil {
		return nil, http.StatusBadRequest
	}
	r, err := server.store.Load(ctx, id)
	switch {
	case errors.Is(err, replay.ErrNotFound):
		return nil, http.StatusNotFound
	case err != nil:
		log.WithError(err).WithField("replay", id).Error("load replay")
		return nil, http.StatusInternalServerError
	}
	return r, http.StatusOK
}

// Sessions nobody interacted with are not worth keeping.
func (server *Server) saveReplay(logger *logrus.Entry, r *replay.Replay) {
	if len(r.Entries) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := server.store.Save(ctx, r); err != nil {
		logger.WithError(err).Error("save replay")
		return
	}
	logger.WithField("entries", len(r.Entries)).Info("replay saved")
}

// serveReplay returns a stored replay as json.
func (server *Server) serveReplay(w http.ResponseWriter, r *http.Request) {
	playback, status := server.loadReplay(r.Context(), mux.Vars(r)["id"])
	if playback == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(playback); err != nil {
		log.WithError(err).Warn("write replay")
	}
}

// latest returns an observer that keeps only the newest snapshot in ch, so a
// slow page never stalls the session. The views diff against what they last
// rendered, so a skipped snapshot loses nothing.
func latest(ch chan session.Snapshot) session.CellObserver {
	return session.ObserverFunc(func(snap session.Snapshot) {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	})
}

func drain[T any](ch <-chan T) {
	for range ch {
	}
}
