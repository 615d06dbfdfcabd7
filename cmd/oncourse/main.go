package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/oncoursesbros-sketch/oncourse/pkg/api"
	"github.com/oncoursesbros-sketch/oncourse/pkg/auth"
	"github.com/oncoursesbros-sketch/oncourse/pkg/config"
	"github.com/oncoursesbros-sketch/oncourse/pkg/mailer"
	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
	"github.com/oncoursesbros-sketch/oncourse/pkg/storage"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, os.Stdout)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		logger.WithError(err).Error("failed to open database")
		os.Exit(1)
	}
	defer db.Close()

	if err := storage.EnsureSchema(ctx, db); err != nil {
		logger.WithError(err).Error("failed to ensure schema")
		os.Exit(1)
	}

	var resetMailer auth.ResetMailer
	if cfg.SMTP.Host != "" {
		m, err := mailer.NewMailer(cfg.SMTP, logger)
		if err != nil {
			logger.WithError(err).Error("failed to configure mailer")
			os.Exit(1)
		}
		resetMailer = m
	} else {
		logger.Warn("SMTP not configured, reset links are logged instead of mailed")
		resetMailer = mailer.NewLogOnlyMailer(logger)
	}

	server := api.NewServer(cfg, db, resetMailer, logger, metrics)

	sweeper := storage.NewExpiredSweeper(server.ResetService().SweepExpired, logger, cfg.Auth.ResetSweepInterval)
	if err := sweeper.Start(); err != nil {
		logger.WithError(err).Error("failed to start sweeper")
		os.Exit(1)
	}
	defer sweeper.Stop()

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.WithField("addr", httpServer.Addr).Info("server listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.WithError(err).Error("server failed")
		os.Exit(1)
	}

	logger.Info("server stopped")
}
