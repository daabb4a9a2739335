package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/entity"
	"github.com/xavierca1/recupa-ai/internal/platform"
)

// Palavras que, sozinhas na mensagem, tiram o lead da régua.
var optOutKeywords = map[string]struct{}{
	"stop":     {},
	"parar":    {},
	"sair":     {},
	"cancelar": {},
}

func IsOptOut(text string) bool {
	normalized := strings.ToLower(strings.Trim(strings.TrimSpace(text), ".!"))
	_, ok := optOutKeywords[normalized]
	return ok
}

// ConversationUseCase processa uma resposta do cliente recebida pelo WhatsApp.
type ConversationUseCase struct {
	Leads     *LeadStore
	Products  entity.ProductRepositoryInterface
	Instances entity.InstanceRepositoryInterface
	Engine    ConversationEngine
	Sender    MessageSender
	Logger    *zap.Logger
	now       func() time.Time
}

func NewConversationUseCase(
	leads *LeadStore,
	products entity.ProductRepositoryInterface,
	instances entity.InstanceRepositoryInterface,
	engine ConversationEngine,
	sender MessageSender,
	logger *zap.Logger,
) *ConversationUseCase {
	return &ConversationUseCase{
		Leads:     leads,
		Products:  products,
		Instances: instances,
		Engine:    engine,
		Sender:    sender,
		Logger:    logger,
		now:       time.Now,
	}
}

func (uc *ConversationUseCase) Execute(ctx context.Context, input InboundMessageInput) (*ConversationOutput, error) {
	phone := platform.CleanPhoneNumber(input.Phone)
	log := uc.Logger.With(zap.String("instance", input.InstanceName), zap.String("phone", phone))

	// o cliente dono da instância delimita a busca do lead; sem instância conhecida a busca é global
	clientID := ""
	instanceKey := input.InstanceName
	if inst, err := uc.Instances.FindByKey(ctx, input.InstanceName); err == nil {
		clientID = inst.ClientID
		instanceKey = inst.InstanceKey
	} else if !errors.Is(err, entity.ErrInstanceNotFound) {
		return nil, fmt.Errorf("busca de instância: %w", err)
	} else {
		log.Warn("instância desconhecida, buscando lead sem escopo de cliente")
	}

	lead, err := uc.Leads.Repo.FindLatestByPhone(ctx, clientID, phone)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			log.Info("lead não encontrado para o telefone")
			return &ConversationOutput{Outcome: TurnLeadNotFound}, nil
		}
		return nil, fmt.Errorf("busca de lead: %w", err)
	}
	log = log.With(zap.String("lead_id", lead.ID))

	if lead.Status.IsTerminal() {
		log.Info("lead finalizado, sem resposta", zap.String("status", string(lead.Status)))
		return &ConversationOutput{Outcome: TurnLeadFinal, LeadID: lead.ID, Status: lead.Status}, nil
	}

	userEntry := entity.ConversationEntry{Role: entity.RoleUser, Content: input.Text, Timestamp: uc.now()}

	if IsOptOut(input.Text) {
		if err := uc.Leads.RecordTurn(ctx, lead, []entity.ConversationEntry{userEntry}, entity.StatusDoNotContact); err != nil {
			return nil, err
		}
		log.Info("opt-out do cliente")
		return &ConversationOutput{Outcome: TurnOptedOut, LeadID: lead.ID, Status: entity.StatusDoNotContact}, nil
	}

	if lead.Status == entity.StatusEscalated {
		if err := uc.Leads.RecordTurn(ctx, lead, []entity.ConversationEntry{userEntry}, entity.StatusEscalated); err != nil {
			return nil, err
		}
		log.Info("lead com atendimento humano, mensagem apenas registrada")
		return &ConversationOutput{Outcome: TurnEscalated, LeadID: lead.ID, Status: lead.Status}, nil
	}

	product, err := uc.Products.FindByID(ctx, lead.ProductID)
	if err != nil {
		if errors.Is(err, entity.ErrProductNotFound) {
			log.Info("produto do lead não encontrado")
			return &ConversationOutput{Outcome: TurnProductNotFound, LeadID: lead.ID, Status: lead.Status}, nil
		}
		return nil, fmt.Errorf("busca de produto: %w", err)
	}

	reply, history := uc.Engine.Reply(ctx, product, lead, input.Text)
	userEntry = history[len(history)-1]

	// kill switch: status relido logo antes do envio
	fresh, err := uc.Leads.Repo.FindByID(ctx, lead.ID)
	if err != nil {
		return nil, fmt.Errorf("releitura do lead: %w", err)
	}
	if fresh.Status.IsTerminal() || fresh.Status == entity.StatusEscalated {
		log.Info("lead mudou de status durante a geração, resposta descartada", zap.String("status", string(fresh.Status)))
		return &ConversationOutput{Outcome: TurnLeadFinal, LeadID: lead.ID, Status: fresh.Status}, nil
	}
	lead = fresh

	if err := uc.Sender.SendText(ctx, instanceKey, phone, reply); err != nil {
		// sem resposta enviada, a mensagem do cliente ainda fica no histórico
		if rerr := uc.Leads.RecordTurn(ctx, lead, []entity.ConversationEntry{userEntry}, lead.Status); rerr != nil {
			log.Error("falha ao registrar mensagem do cliente", zap.Error(rerr))
		}
		return nil, fmt.Errorf("envio whatsapp: %w", err)
	}

	next := entity.StatusContacted
	if lead.Status == entity.StatusContacted || lead.Status == entity.StatusInConversation {
		next = entity.StatusInConversation
	}
	assistant := entity.ConversationEntry{Role: entity.RoleAssistant, Content: reply, Timestamp: uc.now()}
	if err := uc.Leads.RecordTurn(ctx, lead, []entity.ConversationEntry{userEntry, assistant}, next); err != nil {
		return nil, err
	}

	log.Info("resposta enviada", zap.String("status", string(next)))
	return &ConversationOutput{Outcome: TurnReplied, LeadID: lead.ID, Status: next}, nil
}
