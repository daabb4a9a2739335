package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

// RecoverLeadUseCase executa um job de recuperação: relê o lead, gera a mensagem de
// abertura e envia. Desfechos terminais voltam com erro nil; erro não nil é transitório.
type RecoverLeadUseCase struct {
	Leads     *LeadStore
	Products  entity.ProductRepositoryInterface
	Instances entity.InstanceRepositoryInterface
	Engine    ConversationEngine
	Sender    MessageSender
	Logger    *zap.Logger
	now       func() time.Time
}

func NewRecoverLeadUseCase(
	leads *LeadStore,
	products entity.ProductRepositoryInterface,
	instances entity.InstanceRepositoryInterface,
	engine ConversationEngine,
	sender MessageSender,
	logger *zap.Logger,
) *RecoverLeadUseCase {
	return &RecoverLeadUseCase{
		Leads:     leads,
		Products:  products,
		Instances: instances,
		Engine:    engine,
		Sender:    sender,
		Logger:    logger,
		now:       time.Now,
	}
}

func (uc *RecoverLeadUseCase) Execute(ctx context.Context, job entity.RecoveryJob) (entity.JobOutcome, error) {
	log := uc.Logger.With(zap.String("lead_id", job.LeadID), zap.Int("attempt", job.Attempt))

	// 1-2. status relido do banco; só pending_recovery/queued seguem
	lead, outcome, err := uc.awaitingLead(ctx, job.LeadID)
	if err != nil || outcome != "" {
		return outcome, err
	}

	// 3. produto
	product, err := uc.Products.FindByID(ctx, lead.ProductID)
	if err != nil {
		if errors.Is(err, entity.ErrProductNotFound) {
			log.Info("produto não encontrado")
			return entity.OutcomeProductNotFound, nil
		}
		return "", fmt.Errorf("busca de produto: %w", err)
	}

	// 4. instância conectada do cliente
	instance, err := uc.Instances.FindConnectedByClient(ctx, lead.ClientID)
	if err != nil {
		if errors.Is(err, entity.ErrInstanceNotFound) {
			log.Info("nenhuma instância WhatsApp conectada", zap.String("client_id", lead.ClientID))
			return entity.OutcomeNoWhatsAppInstance, nil
		}
		return "", fmt.Errorf("busca de instância: %w", err)
	}

	phone := lead.PhoneNormalized
	if phone == "" {
		log.Warn("lead sem telefone, impossível contatar")
		if _, err := uc.Leads.Transition(ctx, lead.ID, entity.StatusFailed); err != nil && !errors.Is(err, entity.ErrLeadFinalized) {
			return "", err
		}
		return entity.OutcomeFailed, nil
	}

	// 5. mensagem de abertura (nunca vazia: cai no fallback)
	message := uc.Engine.Opening(ctx, product, lead)

	// a geração pode demorar; confere o kill switch de novo antes de enviar
	lead, outcome, err = uc.awaitingLead(ctx, job.LeadID)
	if err != nil || outcome != "" {
		return outcome, err
	}

	// 6. envio
	if err := uc.Sender.SendText(ctx, instance.InstanceKey, phone, message); err != nil {
		return "", fmt.Errorf("envio whatsapp: %w", err)
	}

	// 7. log + contacted na mesma escrita
	entry := entity.ConversationEntry{Role: entity.RoleAssistant, Content: message, Timestamp: uc.now()}
	if err := uc.Leads.RecordTurn(ctx, lead, []entity.ConversationEntry{entry}, entity.StatusContacted); err != nil {
		// mensagem já saiu: retentar mandaria de novo
		log.Error("mensagem enviada mas falha ao gravar o lead", zap.Error(err))
	}

	log.Info("mensagem de recuperação enviada", zap.String("instance", instance.InstanceKey))
	return entity.OutcomeSuccessSent, nil
}

func (uc *RecoverLeadUseCase) awaitingLead(ctx context.Context, leadID string) (*entity.Lead, entity.JobOutcome, error) {
	lead, err := uc.Leads.Repo.FindByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			uc.Logger.Info("lead não encontrado", zap.String("lead_id", leadID))
			return nil, entity.OutcomeLeadNotFound, nil
		}
		return nil, "", fmt.Errorf("busca de lead: %w", err)
	}
	if !lead.Status.Awaiting() {
		uc.Logger.Info("kill switch: lead não está mais aguardando",
			zap.String("lead_id", leadID), zap.String("status", string(lead.Status)))
		return nil, entity.OutcomeAbortedKillSwitch, nil
	}
	return lead, "", nil
}
