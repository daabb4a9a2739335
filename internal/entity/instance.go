package entity

import (
	"context"
	"time"
)

type InstanceStatus string

const (
	InstanceDisconnected InstanceStatus = "disconnected"
	InstanceConnecting   InstanceStatus = "connecting"
	InstanceConnected    InstanceStatus = "connected"
)

// Instance é a sessão do WhatsApp (UAZAPI) de um cliente.
type Instance struct {
	ID           string         `json:"id"`
	ClientID     string         `json:"client_id"`
	InstanceKey  string         `json:"instance_key"`
	Status       InstanceStatus `json:"status"`
	QRCodeBase64 string         `json:"qr_code_base64,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func InstanceKeyFor(clientID string) string {
	return "instance_" + clientID
}

type InstanceRepositoryInterface interface {
	FindConnectedByClient(ctx context.Context, clientID string) (*Instance, error)
	FindByClient(ctx context.Context, clientID string) (*Instance, error)
	FindByKey(ctx context.Context, instanceKey string) (*Instance, error)
	Upsert(ctx context.Context, instance *Instance) error
	UpdateStatus(ctx context.Context, instanceKey string, status InstanceStatus) error
}
