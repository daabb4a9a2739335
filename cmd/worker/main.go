package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/app"
	"github.com/xavierca1/recupa-ai/internal/config"
	"github.com/xavierca1/recupa-ai/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.InMemory() {
		lg.Fatal("worker separado precisa de DATABASE_URL; com store em memória use EMBEDDED_WORKER na API")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("falha ao iniciar dependências", zap.Error(err))
	}
	defer a.Close()

	lg.Info("worker de recuperação iniciado", zap.String("queue", cfg.QueueBackend), zap.Int("concurrency", cfg.WorkerConcurrency))

	if err := a.RunWorker(ctx); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error("worker parou", zap.Error(err))
	}
	lg.Info("worker encerrado")
}
