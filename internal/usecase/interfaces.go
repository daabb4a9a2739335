package usecase

import (
	"context"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

// MessageSender entrega uma mensagem de texto pelo WhatsApp (UAZAPI).
type MessageSender interface {
	SendText(ctx context.Context, instanceKey, phone, text string) error
}

type ChannelProvider interface {
	InitInstance(ctx context.Context, instanceKey string) error
	Connect(ctx context.Context, instanceKey string) (string, error)
	Status(ctx context.Context, instanceKey string) (entity.InstanceStatus, error)
}

// JobQueue agenda um job para rodar em job.RunAt (RabbitMQ ou Redis).
type JobQueue interface {
	Enqueue(ctx context.Context, job entity.RecoveryJob) error
}

type ConversationEngine interface {
	Opening(ctx context.Context, product *entity.Product, lead *entity.Lead) string
	Reply(ctx context.Context, product *entity.Product, lead *entity.Lead, incoming string) (string, []entity.ConversationEntry)
}

// OperatorNotifier avisa a equipe quando um lead sai das mãos da IA.
type OperatorNotifier interface {
	NotifyLeadFailed(ctx context.Context, lead *entity.Lead, reason string) error
	NotifyLeadEscalated(ctx context.Context, lead *entity.Lead) error
}
