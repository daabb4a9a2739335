package agent

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

// HistoryWindow é o número de entradas do log enviadas ao modelo em cada turno.
const HistoryWindow = 6

const openingInstruction = "Start the conversation with a recovery message."

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Generator é o backend generativo (OpenAI em produção).
type Generator interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type Engine struct {
	gen    Generator
	logger *zap.Logger
	now    func() time.Time
}

func NewEngine(gen Generator, logger *zap.Logger) *Engine {
	return &Engine{gen: gen, logger: logger, now: time.Now}
}

// Opening gera a primeira mensagem de recuperação. Nunca devolve string vazia.
func (e *Engine) Opening(ctx context.Context, product *entity.Product, lead *entity.Lead) string {
	messages := []Message{
		{Role: RoleSystem, Content: BuildSystemPrompt(NewPromptConfig(product, lead))},
		{Role: RoleUser, Content: openingInstruction},
	}
	return e.complete(ctx, messages, product, lead)
}

// Reply anexa a mensagem do usuário ao log e gera a resposta usando só as últimas
// HistoryWindow entradas. O log devolvido inclui a entrada do usuário, não a resposta.
func (e *Engine) Reply(ctx context.Context, product *entity.Product, lead *entity.Lead, incoming string) (string, []entity.ConversationEntry) {
	log := make([]entity.ConversationEntry, 0, len(lead.ConversationLog)+1)
	log = append(log, lead.ConversationLog...)
	log = append(log, entity.ConversationEntry{
		Role:      entity.RoleUser,
		Content:   incoming,
		Timestamp: e.now().UTC(),
	})

	messages := BuildContext(BuildSystemPrompt(NewPromptConfig(product, lead)), log)
	return e.complete(ctx, messages, product, lead), log
}

// BuildContext monta system prompt + janela final do histórico.
func BuildContext(systemPrompt string, log []entity.ConversationEntry) []Message {
	window := log
	if len(window) > HistoryWindow {
		window = window[len(window)-HistoryWindow:]
	}

	messages := make([]Message, 0, len(window)+1)
	messages = append(messages, Message{Role: RoleSystem, Content: systemPrompt})
	for _, entry := range window {
		role := RoleUser
		if entry.Role == entity.RoleAssistant {
			role = RoleAssistant
		}
		messages = append(messages, Message{Role: role, Content: entry.Content})
	}
	return messages
}

func (e *Engine) complete(ctx context.Context, messages []Message, product *entity.Product, lead *entity.Lead) string {
	fallback := FallbackMessage(lead.Name, product.Name)
	if e.gen == nil {
		return fallback
	}

	reply, err := e.gen.Complete(ctx, messages)
	if err != nil {
		e.logger.Warn("falha no backend generativo, usando fallback",
			zap.String("lead_id", lead.ID),
			zap.Error(err),
		)
		return fallback
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		e.logger.Warn("backend generativo devolveu conteúdo vazio, usando fallback",
			zap.String("lead_id", lead.ID),
		)
		return fallback
	}
	return reply
}
