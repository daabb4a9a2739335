package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

// publisher é o subconjunto de *amqp.Channel usado pelo producer.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	mu  sync.Mutex
	Ch  publisher
	now func() time.Time
}

func NewProducer(ch publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch, now: time.Now}
}

// Enqueue publica o job no exchange atrasado; o atraso vai em milissegundos no x-delay.
func (p *RabbitMQProducer) Enqueue(ctx context.Context, job entity.RecoveryJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("erro ao converter payload: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent, // Mensagem salva no disco
		MessageId:    job.ID,
		Timestamp:    p.now(),
		Headers: amqp.Table{
			"x-delay": delayMillis(job.RunAt, p.now()),
		},
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.Ch.PublishWithContext(ctx, ExchangeName, RoutingKey, false, false, msg); err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %w", err)
	}
	return nil
}

func delayMillis(runAt, now time.Time) int64 {
	d := runAt.Sub(now).Milliseconds()
	if d < 0 {
		return 0
	}
	return d
}
