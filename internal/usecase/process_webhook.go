package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/entity"
	"github.com/xavierca1/recupa-ai/internal/platform"
)

// ProcessWebhookUseCase trata o webhook de uma plataforma de checkout para um cliente.
type ProcessWebhookUseCase struct {
	Registry  *ProductRegistry
	Leads     *LeadStore
	Scheduler *RecoveryScheduler
	Logger    *zap.Logger
}

func NewProcessWebhookUseCase(registry *ProductRegistry, leads *LeadStore, scheduler *RecoveryScheduler, logger *zap.Logger) *ProcessWebhookUseCase {
	return &ProcessWebhookUseCase{
		Registry:  registry,
		Leads:     leads,
		Scheduler: scheduler,
		Logger:    logger,
	}
}

func (uc *ProcessWebhookUseCase) Execute(ctx context.Context, clientID string, body []byte) (*WebhookOutput, error) {
	payload, err := platform.Decode(body)
	if err != nil {
		return nil, &DomainError{Code: CodeMalformedBody, Message: "body is not a JSON object"}
	}

	event, err := platform.Normalize(payload)
	if err != nil {
		uc.Logger.Info("webhook não reconhecido", zap.String("client_id", clientID), zap.Error(err))
		return nil, &DomainError{Code: CodeUnknownPlatform, Message: err.Error()}
	}

	log := uc.Logger.With(
		zap.String("client_id", clientID),
		zap.String("platform", string(event.Platform)),
		zap.String("external_product_id", event.ExternalProductID),
		zap.String("event", event.RawEvent),
	)

	product, err := uc.Registry.Resolve(ctx, clientID, event.Platform, event.ExternalProductID)
	if err != nil {
		if errors.Is(err, entity.ErrProductNotConfigured) {
			log.Info("produto não configurado, ignorando")
			return &WebhookOutput{Status: WebhookIgnored, Reason: ReasonProductNotConfigured}, nil
		}
		return nil, &TechnicalError{Code: CodeDBError, Message: "product lookup failed", Err: err}
	}

	switch event.Kind {
	case platform.EventConversion:
		return uc.killSwitch(ctx, log, clientID, product, event)
	case platform.EventAbandonment:
		return uc.capture(ctx, log, clientID, product, event)
	default:
		log.Info("evento ignorado")
		return &WebhookOutput{Status: WebhookIgnored, Reason: "unknown_event_" + event.RawEvent}, nil
	}
}

func (uc *ProcessWebhookUseCase) killSwitch(ctx context.Context, log *zap.Logger, clientID string, product *entity.Product, event platform.Event) (*WebhookOutput, error) {
	affected, err := uc.Leads.KillSwitch(ctx, clientID, product.ID, event.Email)
	if err != nil {
		return nil, &TechnicalError{Code: CodeDBError, Message: "kill switch failed", Err: err}
	}
	log.Info("kill switch aplicado", zap.Int64("leads", affected))
	return &WebhookOutput{Status: WebhookSuccess, Action: ActionKillSwitch}, nil
}

func (uc *ProcessWebhookUseCase) capture(ctx context.Context, log *zap.Logger, clientID string, product *entity.Product, event platform.Event) (*WebhookOutput, error) {
	input := CaptureAbandonmentInput{
		ClientID:        clientID,
		ProductID:       product.ID,
		Name:            event.DisplayName,
		Email:           event.Email,
		Phone:           event.Phone,
		PhoneNormalized: platform.CleanPhoneNumber(event.Phone),
		Value:           event.Amount,
		CheckoutURL:     event.CheckoutURL,
	}
	if errs := ValidateAbandonment(input); len(errs) > 0 {
		return nil, &DomainError{Code: CodeInvalidLead, Message: joinValidation(errs)}
	}

	var lead *entity.Lead
	var created bool

	// lead novo + job na fila; se a fila falhar o lead vira failed para não ficar órfão
	txn := NewTransaction(log)
	txn.AddStep("capture_lead",
		func(ctx context.Context) error {
			var err error
			lead, created, err = uc.Leads.CaptureAbandonment(ctx, input)
			return err
		},
		func(ctx context.Context) error {
			if !created {
				return nil
			}
			_, err := uc.Leads.Transition(ctx, lead.ID, entity.StatusFailed)
			return err
		},
	)
	txn.AddStep("schedule_recovery",
		func(ctx context.Context) error {
			if !created {
				return nil
			}
			_, err := uc.Scheduler.Schedule(ctx, lead.ID, product.RecoveryDelay())
			return err
		},
		nil,
	)

	if err := txn.Execute(ctx); err != nil {
		if lead == nil {
			return nil, &TechnicalError{Code: CodeDBError, Message: "lead creation failed", Err: err}
		}
		return nil, &TechnicalError{Code: CodeQueueError, Message: "recovery scheduling failed", Err: err}
	}

	if created {
		log.Info("lead capturado", zap.String("lead_id", lead.ID), zap.Int("delay_minutes", product.RecoveryDelay()))
	} else {
		log.Info("lead já ativo, sem novo agendamento", zap.String("lead_id", lead.ID), zap.String("status", string(lead.Status)))
	}
	return &WebhookOutput{Status: WebhookQueued, LeadID: lead.ID}, nil
}
