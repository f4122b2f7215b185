// pathfinder-tui runs the A* visualizer in a terminal: each cell is two
// columns wide, the mouse places the start, the end and then walls, space
// starts the search, r resets and q quits. Logs go to a file since the
// screen owns the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pathfinder/config"
	"pathfinder/replay"
	"pathfinder/search"
	"pathfinder/session"
	"pathfinder/term_view"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

var (
	configPath = flag.String("config", "config.yaml", "path to the config file")
	dbg        = flag.Bool("debug", false, "debug logging")
	layout     = flag.String("layout", "", "built-in board to start from: empty, column, enclosed, maze")
	logPath    = flag.String("log", "pathfinder-tui.log", "log file")
	quiet      = flag.Bool("quiet", false, "no chime when a path is found")
)

func newLogger(path string, debug bool) (*logrus.Logger, *os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(file)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	config.SetLogger(logger)
	session.SetLogger(logger)
	search.SetLogger(logger)
	term_view.SetLogger(logger)
	return logger, file, nil
}

// saveReplay keeps the session in redis when one is configured, so it can be
// played back in the browser.
func saveReplay(cfg config.ReplayConfig, r *replay.Replay, logger *logrus.Logger) {
	if cfg.RedisAddr == "" || len(r.Entries) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := replay.NewRedisStore(redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}), cfg.TTL)
	if err := store.Save(ctx, r); err != nil {
		logger.WithError(err).Error("save replay")
		return
	}
	fmt.Printf("replay saved: %s\n", r.ID)
}

func runApp() (err error) {
	var cfg *config.Config
	if cfg, err = config.Load(*configPath); err != nil {
		return
	}
	if flag.CommandLine.Changed("debug") {
		cfg.Debug = *dbg
	}
	if *layout != "" {
		cfg.Session.Layout = *layout
	}
	if err = cfg.Validate(); err != nil {
		return
	}

	logger, logFile, err := newLogger(*logPath, cfg.Debug)
	if err != nil {
		return
	}
	defer logFile.Close()

	sess, err := session.New(cfg.Session)
	if err != nil {
		return
	}
	recorder := replay.NewRecorder(uuid.New(), cfg.Session, sess)

	screen, err := tcell.NewScreen()
	if err != nil {
		return
	}
	if err = screen.Init(); err != nil {
		return
	}
	screen.EnableMouse(tcell.MouseButtonEvents | tcell.MouseDragEvents)
	screen.Clear()

	var chime term_view.Player
	if !*quiet {
		c := term_view.NewChime()
		defer c.Close()
		chime = c
	}

	input := term_view.NewInput(screen, cfg.Session.Width, cfg.Session.Height)
	go input.Run()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-input.Quit():
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.WithField("layout", cfg.Session.Layout).Info("session started")
	err = sess.Run(ctx, input.Source(), term_view.NewRenderer(screen, chime))
	screen.Fini()
	logger.WithFields(logrus.Fields{
		"tick":  sess.Ticks(),
		"phase": sess.Phase(),
	}).Info("session ended")

	saveReplay(cfg.Replay, recorder.Replay(), logger)
	return
}

func main() {
	flag.Parse()
	if err := runApp(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
