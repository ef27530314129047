// Package main запускает HTTP-сервер интернет-магазина одежды.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/fashion-store/internal/config"
	"github.com/mmeshcher/fashion-store/internal/handler"
	"github.com/mmeshcher/fashion-store/internal/mailer"
	"github.com/mmeshcher/fashion-store/internal/middleware"
	"github.com/mmeshcher/fashion-store/internal/queue"
	"github.com/mmeshcher/fashion-store/internal/repository"
	"github.com/mmeshcher/fashion-store/internal/service"
	"github.com/mmeshcher/fashion-store/internal/storage"
	"github.com/mmeshcher/fashion-store/internal/telemetry"
)

const (
	serviceName     = "fashion-store"
	mailQueueKey    = "fashion-store:mail"
	memoryQueueSize = 1000
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	shutdownTracing, err := telemetry.Setup(serviceName, cfg.TraceStdout)
	if err != nil {
		sugar.Fatalw("tracing initialization error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var mailQueue queue.Queue
	if cfg.RedisURL != "" {
		mailQueue, err = queue.NewRedisQueue(ctx, cfg.RedisURL, mailQueueKey)
		if err != nil {
			sugar.Fatalw("mail queue initialization error", "error", err.Error())
		}
	} else {
		sugar.Warn("REDIS_URL is not set, using in-memory mail queue")
		mailQueue = queue.NewMemoryQueue(memoryQueueSize)
	}

	var sender service.Sender
	if cfg.MailAPIAddress != "" {
		sender = mailer.NewClient(cfg.MailAPIAddress, cfg.MailFrom)
	} else {
		sender = mailer.NewLogSender(logger)
	}

	svc := service.NewService(repo, mailQueue, sender, logger)
	defer svc.Close()

	if err := svc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		sugar.Fatalw("admin bootstrap error", "error", err.Error())
	}

	uploader, err := storage.NewLocal(cfg.UploadDir, "/uploads")
	if err != nil {
		sugar.Fatalw("upload storage initialization error", "error", err.Error())
	}

	if cfg.AuthSecret == "" {
		sugar.Warn("AUTH_SECRET is not set, tokens will not survive a restart")
	}
	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret, cfg.TokenTTL)
	h := handler.NewHandler(svc, logger, authMiddleware, uploader, cfg.UploadMaxBytes)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Доставка писем из очереди
	g.Go(func() error {
		return svc.StartMailDelivery(ctx)
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting fashion store server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	waitErr := g.Wait()

	if err := mailQueue.Close(); err != nil {
		sugar.Errorw("mail queue close error", "error", err.Error())
	}
	tracingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := shutdownTracing(tracingCtx); err != nil {
		sugar.Errorw("tracer shutdown error", "error", err.Error())
	}
	cancel()

	if waitErr != nil {
		sugar.Fatalw("application terminated with error", "error", waitErr)
	}
}
