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

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/bulkdrop/api/internal/config"
	"github.com/bulkdrop/api/internal/database"
	"github.com/bulkdrop/api/internal/logger"
	"github.com/bulkdrop/api/internal/notify"
	"github.com/bulkdrop/api/internal/router"
	"github.com/bulkdrop/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}

func run() error {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	log.Info("connected to database")

	hub := ws.NewHub(logger.Module(log, "ws"))
	go hub.Run(ctx)

	notifier, err := newNotifier(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, database.New(pool), pool, hub, notifier, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := notifier.Wait(shutdownCtx); err != nil {
		log.WithError(err).Warn("pending notifications dropped")
	}
	return nil
}

// newNotifier sends email through SES when a sender address is configured
// and falls back to logging otherwise.
func newNotifier(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*notify.Background, error) {
	notifyLog := logger.Module(log, "notify")

	if !cfg.NotifyEmail || cfg.SESFromEmail == "" {
		notifyLog.Info("email notifications disabled, logging only")
		return notify.NewBackground(notify.NewLogNotifier(notifyLog), notifyLog), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	notifyLog.WithField("from", cfg.SESFromEmail).Info("sending email via SES")
	return notify.NewBackground(notify.NewSESNotifier(awsCfg, cfg.SESFromEmail), notifyLog), nil
}
