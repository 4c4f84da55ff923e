package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/dice-duel-backend/internal/config"
	"github.com/DoyleJ11/dice-duel-backend/internal/httpapi"
	"github.com/DoyleJ11/dice-duel-backend/internal/hub"
	"github.com/DoyleJ11/dice-duel-backend/internal/logging"
	"github.com/DoyleJ11/dice-duel-backend/internal/match"
	"github.com/DoyleJ11/dice-duel-backend/internal/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := match.Options{
		Rules:     cfg.Rules(),
		Timing:    cfg.Timing(),
		ReadyGate: cfg.ReadyGate,
		Logger:    log.Named("match"),
	}
	deps := httpapi.Deps{Logger: log.Named("http")}

	if cfg.DBDriver != "" {
		store, openErr := storage.Open(cfg.DBDriver, cfg.DBDSN)
		if openErr != nil {
			return openErr
		}
		defer func() { err = multierr.Append(err, store.Close()) }()
		opts.Recorder = store
		deps.History = store
		log.Info("round history enabled", zap.String("driver", cfg.DBDriver))
	}

	h := hub.NewHub(ctx, opts)
	deps.Hub = h

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.SetupRoutes(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Closing rooms first closes every outbox, which ends the ws handlers.
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		case <-h.Done():
		}
		select {
		case <-h.Done():
		case <-shutdownCtx.Done():
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
