package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

type leadRecoverer interface {
	Execute(ctx context.Context, job entity.RecoveryJob) (entity.JobOutcome, error)
}

type RunResult struct {
	Outcome    entity.JobOutcome
	Retry      bool
	RetryAfter time.Duration
	// Err só é preenchido quando o job não pôde ser reagendado; o consumidor
	// manda a mensagem para a DLQ.
	Err error
}

// RecoveryRunner aplica a política de retentativa sobre RecoverLeadUseCase.
// É o único ponto chamado pelos consumidores de fila (RabbitMQ ou Redis).
type RecoveryRunner struct {
	Recover   leadRecoverer
	Scheduler *RecoveryScheduler
	Leads     *LeadStore
	Notifier  OperatorNotifier
	Logger    *zap.Logger
}

func NewRecoveryRunner(recoverer leadRecoverer, scheduler *RecoveryScheduler, leads *LeadStore, notifier OperatorNotifier, logger *zap.Logger) *RecoveryRunner {
	return &RecoveryRunner{
		Recover:   recoverer,
		Scheduler: scheduler,
		Leads:     leads,
		Notifier:  notifier,
		Logger:    logger,
	}
}

func (r *RecoveryRunner) Run(ctx context.Context, job entity.RecoveryJob) RunResult {
	log := r.Logger.With(zap.String("job_id", job.ID), zap.String("lead_id", job.LeadID), zap.Int("attempt", job.Attempt))

	outcome, err := r.Recover.Execute(ctx, job)
	if err == nil {
		log.Info("job finalizado", zap.String("outcome", string(outcome)))
		return RunResult{Outcome: outcome}
	}

	if job.CanRetry() {
		next, qerr := r.Scheduler.Retry(ctx, job)
		if qerr != nil {
			log.Error("falha ao reagendar job", zap.Error(err), zap.NamedError("queue_error", qerr))
			return RunResult{Outcome: entity.OutcomeFailed, Err: qerr}
		}
		log.Warn("falha transitória, nova tentativa agendada",
			zap.Error(err), zap.Int("next_attempt", next.Attempt), zap.Duration("retry_after", job.Backoff()))
		return RunResult{Outcome: entity.OutcomeRetryScheduled, Retry: true, RetryAfter: job.Backoff()}
	}

	log.Error("tentativas esgotadas, lead marcado como failed", zap.Error(err))
	r.fail(ctx, job.LeadID, err.Error())
	return RunResult{Outcome: entity.OutcomeFailed}
}

func (r *RecoveryRunner) fail(ctx context.Context, leadID, reason string) {
	lead, err := r.Leads.Transition(ctx, leadID, entity.StatusFailed)
	if err != nil {
		// kill switch ganhou a corrida: lead já terminal, nada a avisar
		if !errors.Is(err, entity.ErrLeadFinalized) {
			r.Logger.Error("falha ao marcar lead como failed", zap.String("lead_id", leadID), zap.Error(err))
		}
		return
	}
	if r.Notifier == nil {
		return
	}
	if err := r.Notifier.NotifyLeadFailed(ctx, lead, reason); err != nil {
		r.Logger.Warn("falha ao avisar operador", zap.String("lead_id", leadID), zap.Error(err))
	}
}
