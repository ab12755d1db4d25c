// Command celtd serves CELT encode and decode streams over WebSocket.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"golang.org/x/sync/errgroup"

	"github.com/thesyncim/gocelt/internal/config"
	log "github.com/thesyncim/gocelt/internal/logger"
)

var CLI struct {
	Config string `help:"YAML configuration file." type:"existingfile" env:"CELTD_CONFIG"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("celtd"),
		kong.Description("Serve CELT encode and decode streams over WebSocket."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		log.Fatal("failed to load configuration", "err", err)
	}
	log.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	handler, _ := newHandler(cfg)
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("celtd listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatal("Server failed", "err", err)
	}
	log.Info("celtd stopped")
}
