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

	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/mailer"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/pkg/database"
)

const shutdownTimeout = 5 * time.Second

func runServe(parent context.Context, configPath string) error {
	if parent == nil {
		parent = context.Background()
	}
	lg, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()
	sugar := lg.Sugar()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	sugar.Infow("starting "+appName, "version", Version, "addr", cfg.Addr())

	dbCfg := database.ConfigFromEnv()
	db, err := database.Connect(dbCfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db, sugar); err != nil {
		return err
	}

	mailCfg := mailer.ConfigFromEnv()
	sender, err := mailer.New(mailCfg, sugar)
	if err != nil {
		return err
	}
	sugar.Infow("mailer ready", "driver", mailCfg.Driver)

	handler, err := router.RegisterRoutes(sugar, router.Options{DB: db, Mailer: sender, Config: cfg})
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	sugar.Infow("listening", "addr", cfg.Addr(), "driver", dbCfg.Driver)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	sugar.Info("shutting down")
	doneCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnw("http server shutdown failed", "err", err)
	}
	sugar.Info("goodbye")
	return nil
}
