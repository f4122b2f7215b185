/*
Pathfinder is an interactive A* visualizer. Each browser connection gets its
own board: click to place the start, the end, then walls, and press space to
watch the search expand one cell per tick and trace the path back. Finished
sessions are saved as replays (in memory, or in redis when configured) and
can be played back with /?replay=<id>.

The terminal version lives in cmd/pathfinder-tui.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pathfinder/config"
	"pathfinder/replay"
	"pathfinder/search"
	"pathfinder/server"
	"pathfinder/server/fastview"
	"pathfinder/session"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

var (
	configPath = flag.String("config", "config.yaml", "path to the config file")
	dbg        = flag.Bool("debug", false, "debug logging")
	host       = flag.String("host", "", "the host ip, overrides the config")
	port       = flag.String("port", "", "the host port, overrides the config")
	layout     = flag.String("layout", "", "built-in board to start from: empty, column, enclosed, maze")
)

func newLogger(debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	config.SetLogger(logger)
	session.SetLogger(logger)
	search.SetLogger(logger)
	server.SetLogger(logger)
	fastview.SetLogger(logger)
	return logger
}

// applyFlags overrides the loaded configuration with explicitly set flags.
func applyFlags(cfg *config.Config) {
	if flag.CommandLine.Changed("debug") {
		cfg.Debug = *dbg
	}
	if flag.CommandLine.Changed("host") {
		cfg.Server.Host = *host
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *layout != "" {
		cfg.Session.Layout = *layout
	}
}

// newStore returns the redis store when an address is configured, else an
// in-memory store.
func newStore(ctx context.Context, cfg config.ReplayConfig) (replay.Store, error) {
	if cfg.RedisAddr == "" {
		return replay.NewMemoryStore(), nil
	}

	store := replay.NewRedisStore(redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}), cfg.TTL)
	if err := store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
	}
	return store, nil
}

func runApp(ctx context.Context) (err error) {
	var cfg *config.Config
	if cfg, err = config.Load(*configPath); err != nil {
		return
	}
	applyFlags(cfg)
	if err = cfg.Validate(); err != nil {
		return
	}

	logger := newLogger(cfg.Debug)

	var store replay.Store
	if store, err = newStore(ctx, cfg.Replay); err != nil {
		return
	}
	logger.WithFields(logrus.Fields{
		"board":  fmt.Sprintf("%dx%d", cfg.Session.Width, cfg.Session.Height),
		"layout": cfg.Session.Layout,
		"redis":  cfg.Replay.RedisAddr != "",
	}).Info("starting")

	return server.NewServer(cfg, store).Serve(ctx)
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags]\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "environment: %v\n", config.Environ())
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runApp(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
