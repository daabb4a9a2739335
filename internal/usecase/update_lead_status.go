package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

// UpdateLeadStatusUseCase atende as ações manuais do painel ("marcar como...").
type UpdateLeadStatusUseCase struct {
	Leads    *LeadStore
	Notifier OperatorNotifier
	Logger   *zap.Logger
}

func NewUpdateLeadStatusUseCase(leads *LeadStore, notifier OperatorNotifier, logger *zap.Logger) *UpdateLeadStatusUseCase {
	return &UpdateLeadStatusUseCase{Leads: leads, Notifier: notifier, Logger: logger}
}

func (uc *UpdateLeadStatusUseCase) Execute(ctx context.Context, input UpdateLeadStatusInput) (*UpdateLeadStatusOutput, error) {
	if err := ValidateOperatorStatus(input.Status); err != nil {
		return nil, err
	}

	lead, err := uc.Leads.Transition(ctx, input.LeadID, input.Status)
	switch {
	case errors.Is(err, entity.ErrLeadNotFound):
		return nil, &DomainError{Code: CodeLeadNotFound, Message: "lead not found"}
	case errors.Is(err, entity.ErrLeadFinalized):
		return nil, &DomainError{Code: CodeLeadFinalized, Message: "lead is in a terminal status: " + string(lead.Status)}
	case errors.Is(err, entity.ErrInvalidTransition):
		return nil, &DomainError{Code: CodeInvalidStatus, Message: err.Error()}
	case err != nil:
		return nil, &TechnicalError{Code: CodeDBError, Message: "status update failed", Err: err}
	}

	uc.Logger.Info("status alterado pelo operador", zap.String("lead_id", lead.ID), zap.String("status", string(lead.Status)))

	if uc.Notifier != nil {
		var nerr error
		switch input.Status {
		case entity.StatusEscalated:
			nerr = uc.Notifier.NotifyLeadEscalated(ctx, lead)
		case entity.StatusFailed:
			nerr = uc.Notifier.NotifyLeadFailed(ctx, lead, "marcado pelo operador")
		}
		if nerr != nil {
			uc.Logger.Warn("falha ao avisar operador", zap.String("lead_id", lead.ID), zap.Error(nerr))
		}
	}

	return &UpdateLeadStatusOutput{LeadID: lead.ID, Status: lead.Status}, nil
}
