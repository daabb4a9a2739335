// Package app monta as dependências compartilhadas pela API e pelo worker.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	r "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/agent"
	"github.com/xavierca1/recupa-ai/internal/config"
	"github.com/xavierca1/recupa-ai/internal/entity"
	"github.com/xavierca1/recupa-ai/internal/infra/database"
	"github.com/xavierca1/recupa-ai/internal/infra/database/memory"
	"github.com/xavierca1/recupa-ai/internal/infra/http/handlers"
	"github.com/xavierca1/recupa-ai/internal/infra/integration/openai"
	"github.com/xavierca1/recupa-ai/internal/infra/integration/uazapi"
	"github.com/xavierca1/recupa-ai/internal/infra/mail"
	"github.com/xavierca1/recupa-ai/internal/infra/queue"
	"github.com/xavierca1/recupa-ai/internal/infra/worker"
	"github.com/xavierca1/recupa-ai/internal/usecase"
)

type App struct {
	Config config.Config
	Logger *zap.Logger

	DB        *sql.DB
	Leads     entity.LeadRepositoryInterface
	Products  entity.ProductRepositoryInterface
	Instances entity.InstanceRepositoryInterface
	Expirer   worker.StaleLeadExpirer
	Database  handlers.Checker

	RabbitMQ   *queue.RabbitMQ
	Redis      *r.Client
	RedisQueue *queue.RedisQueue
	Queue      usecase.JobQueue
	QueueCheck handlers.Checker

	Channel  *uazapi.Client
	Engine   *agent.Engine
	Notifier usecase.OperatorNotifier

	LeadStore *usecase.LeadStore
	Scheduler *usecase.RecoveryScheduler
	Runner    *usecase.RecoveryRunner
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openQueue(); err != nil {
		a.Close()
		return nil, err
	}

	a.Channel = uazapi.NewClient(cfg.UazapiBaseURL, cfg.UazapiAPIKey, logger)
	a.Engine = agent.NewEngine(openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel), logger)
	if cfg.MailConfigured() {
		a.Notifier = mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom, cfg.OperatorEmail)
	} else {
		logger.Warn("MAIL_HOST/OPERATOR_EMAIL não configurados, alertas ao operador desligados")
	}

	a.LeadStore = usecase.NewLeadStore(a.Leads)
	a.Scheduler = usecase.NewRecoveryScheduler(a.Queue)
	recoverer := usecase.NewRecoverLeadUseCase(a.LeadStore, a.Products, a.Instances, a.Engine, a.Channel, logger)
	a.Runner = usecase.NewRecoveryRunner(recoverer, a.Scheduler, a.LeadStore, a.Notifier, logger)

	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	if a.Config.InMemory() {
		a.Logger.Warn("DATABASE_URL vazio, usando store em memória")
		store := memory.NewStore()
		demo := store.AddProduct(entity.Product{
			ClientID:          "demo-client",
			Platform:          entity.PlatformHotmart,
			ExternalProductID: "demo-product",
			Name:              "Produto Demo",
			DelayMinutes:      entity.MinDelayMinutes,
			IsActive:          true,
		})
		a.Logger.Info("produto demo cadastrado", zap.String("client_id", demo.ClientID), zap.String("external_product_id", demo.ExternalProductID))
		a.Leads, a.Products, a.Instances = store.Leads(), store.Products(), store.Instances()
		a.Expirer = store.Leads()
		a.Database = store
		return nil
	}

	db, err := database.NewDBConnection(a.Config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("falha ao conectar no Postgres: %w", err)
	}
	a.DB = db
	if err := database.EnsureSchema(ctx, db); err != nil {
		return err
	}

	leads := database.NewLeadRepository(db)
	a.Leads, a.Expirer = leads, leads
	a.Products = database.NewProductRepository(db)
	a.Instances = database.NewInstanceRepository(db)
	a.Database = handlers.CheckerFunc(db.PingContext)
	return nil
}

func (a *App) openQueue() error {
	switch a.Config.QueueBackend {
	case "redis":
		a.Redis = a.RedisClient()
		a.RedisQueue = queue.NewRedisQueue(a.Redis)
		a.Queue = a.RedisQueue
		a.QueueCheck = a.RedisQueue
	default:
		rmq, err := queue.NewRabbitMQ(a.Config.RabbitMQURL)
		if err != nil {
			return err
		}
		a.RabbitMQ = rmq
		a.Queue = queue.NewProducer(rmq.Ch)
		a.QueueCheck = handlers.CheckerFunc(func(context.Context) error {
			if !rmq.Healthy() {
				return errors.New("rabbitmq connection closed")
			}
			return nil
		})
	}
	return nil
}

// RedisClient reaproveita o cliente da fila quando existir.
func (a *App) RedisClient() *r.Client {
	if a.Redis != nil {
		return a.Redis
	}
	a.Redis = r.NewClient(&r.Options{
		Addr:     a.Config.RedisAddr,
		Password: a.Config.RedisPassword,
		DB:       a.Config.RedisDB,
	})
	return a.Redis
}

// RunWorker consome a fila configurada e roda a varredura de leads parados até o ctx acabar.
func (a *App) RunWorker(ctx context.Context) error {
	go worker.NewStaleLeadWorker(a.Expirer, a.Config.StaleLeadAfter, a.Logger).Start(ctx)

	if a.RedisQueue != nil {
		return queue.NewRedisWorker(a.RedisQueue, a.Runner, a.Config.WorkerConcurrency, a.Logger).Start(ctx)
	}

	// canal próprio para o consumo; o canal da conexão fica com o producer
	ch, err := a.RabbitMQ.Conn.Channel()
	if err != nil {
		return fmt.Errorf("falha ao abrir canal de consumo: %w", err)
	}
	defer ch.Close()
	return queue.NewWorker(ch, a.Runner, a.Config.WorkerConcurrency, a.Logger).Start(ctx)
}

func (a *App) Close() {
	if a.RabbitMQ != nil {
		if err := a.RabbitMQ.Close(); err != nil {
			a.Logger.Warn("erro ao fechar RabbitMQ", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
	a.Logger.Sync()
}
