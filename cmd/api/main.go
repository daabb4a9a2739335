package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/app"
	"github.com/xavierca1/recupa-ai/internal/config"
	"github.com/xavierca1/recupa-ai/internal/infra/http/handlers"
	"github.com/xavierca1/recupa-ai/internal/infra/http/middleware"
	"github.com/xavierca1/recupa-ai/internal/usecase"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("falha ao iniciar dependências", zap.Error(err))
	}
	defer a.Close()

	// 1. Rate limit
	var counters middleware.CounterStore
	if cfg.RateLimitBackend == "redis" {
		counters = middleware.NewRedisCounterStore(a.RedisClient())
	} else {
		mem := middleware.NewMemoryCounterStore()
		go mem.Cleanup(ctx, cfg.RateLimitWindow)
		counters = mem
	}

	// 2. UseCases
	registry := usecase.NewProductRegistry(a.Products)
	webhookUC := usecase.NewProcessWebhookUseCase(registry, a.LeadStore, a.Scheduler, lg)
	conversationUC := usecase.NewConversationUseCase(a.LeadStore, a.Products, a.Instances, a.Engine, a.Channel, lg)
	instanceUC := usecase.NewInstanceUseCase(a.Instances, a.Channel, lg)
	updateStatusUC := usecase.NewUpdateLeadStatusUseCase(a.LeadStore, a.Notifier, lg)

	// 3. Router
	router := handlers.NewRouter(handlers.RouterConfig{
		Webhook:         handlers.NewWebhookHandler(webhookUC, lg),
		WhatsApp:        handlers.NewWhatsAppHandler(conversationUC, instanceUC, lg),
		Leads:           handlers.NewLeadHandler(updateStatusUC, lg),
		Health:          handlers.NewHealthHandler(a.Database, a.QueueCheck),
		RateLimitStore:  counters,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
		WebhookSecret:   cfg.WebhookSecret,
		CORSOrigin:      cfg.CORSOrigin,
		Logger:          lg,
	})

	// 4. Worker embutido (obrigatório com store em memória: o worker separado não enxergaria os leads)
	if cfg.EmbeddedWorker || cfg.InMemory() {
		go func() {
			if err := a.RunWorker(ctx); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error("worker embutido parou", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("API rodando", zap.String("addr", cfg.HTTPAddr), zap.String("queue", cfg.QueueBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("servidor HTTP parou", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info("encerrando API")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("erro no shutdown", zap.Error(err))
	}
}
