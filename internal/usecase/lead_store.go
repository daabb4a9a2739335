package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

// LeadStore concentra toda escrita de status de lead. O repositório garante a
// guarda terminal na própria escrita; aqui validamos a transição antes.
type LeadStore struct {
	Repo entity.LeadRepositoryInterface
	now  func() time.Time
}

func NewLeadStore(repo entity.LeadRepositoryInterface) *LeadStore {
	return &LeadStore{Repo: repo, now: time.Now}
}

// Transition é idempotente: reaplicar o status atual não escreve nada.
func (s *LeadStore) Transition(ctx context.Context, leadID string, to entity.LeadStatus) (*entity.Lead, error) {
	lead, err := s.Repo.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status == to {
		return lead, nil
	}
	if lead.Status.IsTerminal() {
		return lead, entity.ErrLeadFinalized
	}
	if !entity.CanTransition(lead.Status, to) {
		return lead, fmt.Errorf("%w: %s -> %s", entity.ErrInvalidTransition, lead.Status, to)
	}

	if err := s.Repo.UpdateStatus(ctx, leadID, to); err != nil {
		return lead, err
	}
	lead.Status = to
	lead.UpdatedAt = s.now()
	return lead, nil
}

// CaptureAbandonment cria o lead em pending_recovery, ou devolve o lead ativo já
// existente para (client, product, email) com created=false.
func (s *LeadStore) CaptureAbandonment(ctx context.Context, input CaptureAbandonmentInput) (*entity.Lead, bool, error) {
	existing, err := s.Repo.FindActive(ctx, input.ClientID, input.ProductID, input.Email)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, entity.ErrLeadNotFound):
		return nil, false, err
	}

	now := s.now()
	lead := &entity.Lead{
		ID:              uuid.New().String(),
		ClientID:        input.ClientID,
		ProductID:       input.ProductID,
		Name:            input.Name,
		Email:           input.Email,
		Phone:           input.Phone,
		PhoneNormalized: input.PhoneNormalized,
		Value:           input.Value,
		CheckoutURL:     input.CheckoutURL,
		Status:          entity.StatusPendingRecovery,
		ConversationLog: []entity.ConversationEntry{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.Create(ctx, lead); err != nil {
		// outra requisição criou o mesmo lead entre a busca e o insert
		if errors.Is(err, entity.ErrActiveLeadExists) {
			existing, ferr := s.Repo.FindActive(ctx, input.ClientID, input.ProductID, input.Email)
			if ferr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return lead, true, nil
}

// KillSwitch move para converted_organically todo lead não terminal do trio.
// Nunca cria lead; zero afetados não é erro.
func (s *LeadStore) KillSwitch(ctx context.Context, clientID, productID, email string) (int64, error) {
	return s.Repo.ConvertActive(ctx, clientID, productID, email)
}

// RecordTurn grava as novas entradas do log junto com o status, numa escrita só.
func (s *LeadStore) RecordTurn(ctx context.Context, lead *entity.Lead, entries []entity.ConversationEntry, status entity.LeadStatus) error {
	if lead.Status.IsTerminal() {
		return entity.ErrLeadFinalized
	}
	if !entity.CanTransition(lead.Status, status) {
		return fmt.Errorf("%w: %s -> %s", entity.ErrInvalidTransition, lead.Status, status)
	}

	log := make([]entity.ConversationEntry, 0, len(lead.ConversationLog)+len(entries))
	log = append(log, lead.ConversationLog...)
	log = append(log, entries...)

	if err := s.Repo.SaveConversation(ctx, lead.ID, log, status); err != nil {
		return err
	}
	lead.ConversationLog = log
	lead.Status = status
	lead.UpdatedAt = s.now()
	return nil
}
