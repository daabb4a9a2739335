package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/entity"
	"github.com/xavierca1/recupa-ai/internal/infra/http/middleware"
	"github.com/xavierca1/recupa-ai/internal/usecase"
)

// JobTimeout limita um job em andamento. O job roda desligado do ctx do worker:
// shutdown para o consumo, mas não cancela o que já começou.
const JobTimeout = 2 * time.Minute

// JobRunner executa um job e decide a retentativa (usecase.RecoveryRunner).
type JobRunner interface {
	Run(ctx context.Context, job entity.RecoveryJob) usecase.RunResult
}

type Worker struct {
	Channel     *amqp.Channel
	Runner      JobRunner
	Logger      *zap.Logger
	Concurrency int
}

func NewWorker(ch *amqp.Channel, runner JobRunner, concurrency int, logger *zap.Logger) *Worker {
	return &Worker{
		Channel:     ch,
		Runner:      runner,
		Logger:      logger,
		Concurrency: concurrency,
	}
}

// Start consome q.recovery com Concurrency goroutines até o ctx ser cancelado.
// Retentativas são republicadas pelo runner; a mensagem atual sempre recebe Ack,
// exceto payload inválido ou falha ao republicar, que vão para a DLQ.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.Channel.Qos(w.Concurrency, 0, false); err != nil {
		return fmt.Errorf("falha ao configurar prefetch: %w", err)
	}

	msgs, err := w.Channel.ConsumeWithContext(ctx,
		QueueName, // fila
		"",        // consumer
		false,     // auto-ack (manual)
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	w.Logger.Info("worker aguardando na fila", zap.String("queue", QueueName), zap.Int("concurrency", w.Concurrency))

	var wg sync.WaitGroup
	for i := 0; i < w.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range msgs {
				w.handle(ctx, d)
			}
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var job entity.RecoveryJob
	if err := json.Unmarshal(d.Body, &job); err != nil || job.LeadID == "" {
		// mensagem podre: rejeita sem requeue para não travar a fila
		w.Logger.Error("payload inválido, enviando para DLQ", zap.ByteString("body", d.Body), zap.Error(err))
		d.Nack(false, false)
		return
	}

	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), JobTimeout)
	defer cancel()

	result := w.Runner.Run(jobCtx, job)
	middleware.RecordJobOutcome("rabbitmq", string(result.Outcome))

	if result.Err != nil {
		d.Nack(false, false)
		return
	}
	d.Ack(false)
}
