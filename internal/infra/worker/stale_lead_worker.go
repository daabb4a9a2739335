package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StaleLeadExpirer é implementado pelos repositórios de lead (Postgres e memória).
type StaleLeadExpirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time) ([]string, error)
}

// StaleLeadWorker varre leads que ficaram em pending_recovery/queued além do
// prazo máximo de agendamento e os marca como failed.
type StaleLeadWorker struct {
	repo         StaleLeadExpirer
	maxAge       time.Duration
	tickInterval time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

func NewStaleLeadWorker(repo StaleLeadExpirer, maxAge time.Duration, logger *zap.Logger) *StaleLeadWorker {
	return &StaleLeadWorker{
		repo:         repo,
		maxAge:       maxAge,
		tickInterval: 10 * time.Minute,
		logger:       logger,
		now:          time.Now,
	}
}

func (w *StaleLeadWorker) Start(ctx context.Context) {
	w.logger.Info("stale lead worker iniciado", zap.Duration("max_age", w.maxAge))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.expire(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stale lead worker encerrado")
			return
		case <-ticker.C:
			w.expire(ctx)
		}
	}
}

func (w *StaleLeadWorker) expire(ctx context.Context) {
	ids, err := w.repo.ExpireStale(ctx, w.now().Add(-w.maxAge))
	if err != nil {
		w.logger.Error("falha ao expirar leads parados", zap.Error(err))
		return
	}
	if len(ids) > 0 {
		w.logger.Warn("leads parados marcados como failed", zap.Int("count", len(ids)), zap.Strings("lead_ids", ids))
	}
}
