package usecase

import "github.com/xavierca1/recupa-ai/internal/entity"

type CaptureAbandonmentInput struct {
	ClientID  string
	ProductID string
	Name      string
	Email     string
	Phone     string
	// só dígitos, usado para casar respostas do WhatsApp
	PhoneNormalized string
	Value           *float64
	CheckoutURL     string
}

// Status do webhook de plataforma.
const (
	WebhookQueued  = "queued"
	WebhookSuccess = "success"
	WebhookIgnored = "ignored"

	ActionKillSwitch = "kill_switch"

	ReasonProductNotConfigured = "product_not_configured"
)

type WebhookOutput struct {
	Status string `json:"status"`
	LeadID string `json:"lead_id,omitempty"`
	Action string `json:"action,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type InboundMessageInput struct {
	InstanceName string
	Phone        string
	Text         string
}

// Resultado de um turno de conversa iniciado pelo usuário.
const (
	TurnReplied         = "replied"
	TurnOptedOut        = "opted_out"
	TurnEscalated       = "escalated"
	TurnLeadFinal       = "lead_finalized"
	TurnLeadNotFound    = "lead_not_found"
	TurnProductNotFound = "product_not_found"
)

type ConversationOutput struct {
	Outcome string
	LeadID  string
	Status  entity.LeadStatus
}

type ConnectInstanceOutput struct {
	ClientID     string                `json:"client_id"`
	InstanceKey  string                `json:"instance_key"`
	Status       entity.InstanceStatus `json:"status"`
	QRCodeBase64 string                `json:"qr_code_base64"`
	Mock         bool                  `json:"mock,omitempty"`
}

type InstanceStatusOutput struct {
	InstanceKey string                `json:"instance_key,omitempty"`
	Status      entity.InstanceStatus `json:"status"`
}

type UpdateLeadStatusInput struct {
	LeadID string            `json:"-"`
	Status entity.LeadStatus `json:"status"`
}

type UpdateLeadStatusOutput struct {
	LeadID string            `json:"lead_id"`
	Status entity.LeadStatus `json:"status"`
}
