package entity

import (
	"context"
	"time"
)

type Platform string

const (
	PlatformHotmart Platform = "hotmart"
	PlatformKiwify  Platform = "kiwify"
	PlatformEduzz   Platform = "eduzz"
)

const (
	MinDelayMinutes = 15
	MaxDelayMinutes = 1440
)

type Product struct {
	ID                string     `json:"id"`
	ClientID          string     `json:"client_id"`
	Platform          Platform   `json:"platform"`
	ExternalProductID string     `json:"external_product_id"`
	Name              string     `json:"name"`
	AgentPersona      string     `json:"agent_persona,omitempty"`
	ObjectionHandling string     `json:"objection_handling,omitempty"`
	DownsellLink      string     `json:"downsell_link,omitempty"`
	DelayMinutes      int        `json:"delay_minutes"`
	IsActive          bool       `json:"is_active"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
}

// RecoveryDelay limita o atraso configurado ao intervalo aceito (15 min a 24 h).
func (p *Product) RecoveryDelay() int {
	switch {
	case p.DelayMinutes < MinDelayMinutes:
		return MinDelayMinutes
	case p.DelayMinutes > MaxDelayMinutes:
		return MaxDelayMinutes
	default:
		return p.DelayMinutes
	}
}

type ProductRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	// FindByExternalID compara o id externo como string, sempre no escopo do cliente.
	FindByExternalID(ctx context.Context, clientID string, platform Platform, externalProductID string) (*Product, error)
}
