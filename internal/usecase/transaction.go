package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Transaction é uma saga simples: se uma operação falha, as compensações das
// operações anteriores rodam em ordem reversa.
type Transaction struct {
	steps  []step
	logger *zap.Logger
}

type step struct {
	name       string
	fn         func(context.Context) error
	compensate func(context.Context) error
}

func NewTransaction(logger *zap.Logger) *Transaction {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transaction{logger: logger}
}

// AddStep registra uma operação e, opcionalmente, a compensação dela.
func (t *Transaction) AddStep(name string, fn, compensate func(context.Context) error) {
	t.steps = append(t.steps, step{name: name, fn: fn, compensate: compensate})
}

// Execute devolve o erro da operação que falhou, envolvido com o nome do passo.
func (t *Transaction) Execute(ctx context.Context) error {
	for i, s := range t.steps {
		if err := s.fn(ctx); err != nil {
			t.rollback(ctx, i)
			return fmt.Errorf("operation '%s' failed: %w (rolled back %d operations)", s.name, err, i)
		}
	}
	return nil
}

func (t *Transaction) rollback(ctx context.Context, failedAt int) {
	for i := failedAt - 1; i >= 0; i-- {
		s := t.steps[i]
		if s.compensate == nil {
			continue
		}
		if err := s.compensate(ctx); err != nil {
			t.logger.Warn("compensação falhou, risco de inconsistência",
				zap.String("step", s.name), zap.Error(err))
		}
	}
}
