package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

// QR de 1x1 devolvido quando a UAZAPI não responde (dev sem internet/API).
const MockQRCode = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

type InstanceUseCase struct {
	Repo     entity.InstanceRepositoryInterface
	Provider ChannelProvider
	Logger   *zap.Logger
}

func NewInstanceUseCase(repo entity.InstanceRepositoryInterface, provider ChannelProvider, logger *zap.Logger) *InstanceUseCase {
	return &InstanceUseCase{Repo: repo, Provider: provider, Logger: logger}
}

// Connect inicia a sessão e devolve o QR code. Falha da UAZAPI nunca vira erro
// para o painel: o retorno é um QR fictício marcado com Mock.
func (uc *InstanceUseCase) Connect(ctx context.Context, clientID string) (*ConnectInstanceOutput, error) {
	key := entity.InstanceKeyFor(clientID)
	log := uc.Logger.With(zap.String("client_id", clientID), zap.String("instance", key))

	if err := uc.Provider.InitInstance(ctx, key); err != nil {
		// a instância pode já existir; o connect decide
		log.Warn("falha ao iniciar instância", zap.Error(err))
	}

	qr, err := uc.Provider.Connect(ctx, key)
	if err != nil {
		log.Warn("uazapi indisponível, devolvendo QR mock", zap.Error(err))
		return &ConnectInstanceOutput{
			ClientID:     clientID,
			InstanceKey:  key,
			Status:       entity.InstanceConnecting,
			QRCodeBase64: MockQRCode,
			Mock:         true,
		}, nil
	}

	instance := &entity.Instance{
		ClientID:     clientID,
		InstanceKey:  key,
		Status:       entity.InstanceConnecting,
		QRCodeBase64: qr,
	}
	if err := uc.Repo.Upsert(ctx, instance); err != nil {
		return nil, &TechnicalError{Code: CodeDBError, Message: "instance upsert failed", Err: err}
	}

	return &ConnectInstanceOutput{
		ClientID:     clientID,
		InstanceKey:  key,
		Status:       instance.Status,
		QRCodeBase64: qr,
	}, nil
}

// Status consulta a UAZAPI (fonte da verdade) e atualiza a cópia local. Se a
// UAZAPI falhar, devolve o último estado gravado, ou disconnected.
func (uc *InstanceUseCase) Status(ctx context.Context, clientID string) (*InstanceStatusOutput, error) {
	key := entity.InstanceKeyFor(clientID)
	log := uc.Logger.With(zap.String("client_id", clientID), zap.String("instance", key))

	status, err := uc.Provider.Status(ctx, key)
	if err == nil {
		if uerr := uc.Repo.UpdateStatus(ctx, key, status); uerr != nil && !errors.Is(uerr, entity.ErrInstanceNotFound) {
			log.Warn("falha ao gravar status da instância", zap.Error(uerr))
		}
		return &InstanceStatusOutput{InstanceKey: key, Status: status}, nil
	}
	log.Warn("uazapi indisponível, usando status gravado", zap.Error(err))

	stored, err := uc.Repo.FindByClient(ctx, clientID)
	if err != nil {
		if !errors.Is(err, entity.ErrInstanceNotFound) {
			log.Warn("falha ao ler instância gravada", zap.Error(err))
		}
		return &InstanceStatusOutput{Status: entity.InstanceDisconnected}, nil
	}
	return &InstanceStatusOutput{InstanceKey: stored.InstanceKey, Status: stored.Status}, nil
}
