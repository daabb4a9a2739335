package entity

import (
	"context"
	"time"
)

type LeadStatus string

const (
	StatusPendingRecovery      LeadStatus = "pending_recovery"
	StatusQueued               LeadStatus = "queued"
	StatusContacted            LeadStatus = "contacted"
	StatusInConversation       LeadStatus = "in_conversation"
	StatusConvertedOrganically LeadStatus = "converted_organically"
	StatusRecoveredByAI        LeadStatus = "recovered_by_ai"
	StatusFailed               LeadStatus = "failed"
	StatusEscalated            LeadStatus = "escalated"
	StatusDoNotContact         LeadStatus = "do_not_contact"
)

// TerminalStatuses nunca recebem nova mensagem (kill switch).
var TerminalStatuses = []LeadStatus{
	StatusConvertedOrganically,
	StatusRecoveredByAI,
	StatusFailed,
	StatusDoNotContact,
}

func (s LeadStatus) IsTerminal() bool {
	for _, t := range TerminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}

func (s LeadStatus) IsValid() bool {
	switch s {
	case StatusPendingRecovery, StatusQueued, StatusContacted, StatusInConversation,
		StatusConvertedOrganically, StatusRecoveredByAI, StatusFailed, StatusEscalated, StatusDoNotContact:
		return true
	}
	return false
}

// Awaiting indica que o lead ainda espera o primeiro contato do job de recuperação.
func (s LeadStatus) Awaiting() bool {
	return s == StatusPendingRecovery || s == StatusQueued
}

// CanTransition aplica a máquina de estados do lead. Reaplicar o mesmo status é permitido
// (no-op); nenhum status terminal sai do lugar.
func CanTransition(from, to LeadStatus) bool {
	if !to.IsValid() {
		return false
	}
	if from == to {
		return true
	}
	if from.IsTerminal() {
		return false
	}

	switch to {
	case StatusPendingRecovery:
		return false
	case StatusQueued:
		return from == StatusPendingRecovery
	case StatusContacted:
		return from.Awaiting()
	case StatusInConversation:
		return from == StatusContacted
	default:
		// converted_organically, recovered_by_ai, failed, do_not_contact, escalated
		return true
	}
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ConversationEntry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Lead struct {
	ID              string              `json:"id"`
	ClientID        string              `json:"client_id"`
	ProductID       string              `json:"product_id"`
	Name            string              `json:"name,omitempty"`
	Email           string              `json:"email"`
	Phone           string              `json:"phone,omitempty"`
	PhoneNormalized string              `json:"phone_normalized,omitempty"`
	Value           *float64            `json:"value,omitempty"` // nil = não informado
	CheckoutURL     string              `json:"checkout_url,omitempty"`
	Status          LeadStatus          `json:"status"`
	ConversationLog []ConversationEntry `json:"conversation_log"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	// FindActive busca o lead não terminal mais recente de (client, product, email).
	FindActive(ctx context.Context, clientID, productID, email string) (*Lead, error)
	// FindLatestByPhone busca pelo telefone normalizado; clientID vazio ignora o escopo.
	FindLatestByPhone(ctx context.Context, clientID, phoneNormalized string) (*Lead, error)
	// UpdateStatus grava o status apenas se o lead não estiver em estado terminal.
	UpdateStatus(ctx context.Context, id string, status LeadStatus) error
	// ConvertActive é o kill switch: move todos os leads não terminais do trio para converted_organically.
	ConvertActive(ctx context.Context, clientID, productID, email string) (int64, error)
	// SaveConversation grava log + status numa única escrita, com a mesma guarda terminal.
	SaveConversation(ctx context.Context, id string, log []ConversationEntry, status LeadStatus) error
}
