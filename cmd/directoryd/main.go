// Command directoryd runs the trap-the-mouse directory: the well-known
// entry point clients Connect to, and the registry that spawns a fresh
// lobby sub-server per CreateLobby call.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/trapthemouse/server/internal/directory"
	"github.com/trapthemouse/server/internal/identity"
)

func main() {
	cfg := &Config{}
	cmd := newCmd(cfg)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config) error {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.logLevel, err)
	}
	log.SetLevel(level)
	if cfg.logFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	store, err := identity.Open(ctx, cfg.dsn)
	if err != nil {
		return fmt.Errorf("opening identity store: %w", err)
	}
	defer store.Close()

	dir, err := directory.New(cfg.bind, store, log)
	if err != nil {
		return fmt.Errorf("starting directory on %s: %w", cfg.bind, err)
	}
	if cfg.workers > 0 {
		dir.Workers = cfg.workers
	}

	errc := make(chan error, 1)
	go func() {
		dir.Start(dir.Dispatcher())
		errc <- nil
	}()

	log.WithField("addr", dir.Addr()).Info("directoryd listening")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case sig := <-sigs:
		log.WithField("signal", sig).Info("directoryd shutting down")
		dir.Shutdown()
		return nil
	}
}
