package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

type RecoveryScheduler struct {
	Queue       JobQueue
	MaxAttempts int
	now         func() time.Time
}

func NewRecoveryScheduler(queue JobQueue) *RecoveryScheduler {
	return &RecoveryScheduler{Queue: queue, MaxAttempts: entity.DefaultMaxAttempts, now: time.Now}
}

// Schedule enfileira exatamente um job para now + delayMinutes.
func (s *RecoveryScheduler) Schedule(ctx context.Context, leadID string, delayMinutes int) (entity.RecoveryJob, error) {
	now := s.now()
	job := entity.RecoveryJob{
		ID:          uuid.New().String(),
		LeadID:      leadID,
		Attempt:     1,
		MaxAttempts: s.MaxAttempts,
		RunAt:       now.Add(time.Duration(delayMinutes) * time.Minute),
		EnqueuedAt:  now,
	}
	if err := s.Queue.Enqueue(ctx, job); err != nil {
		return entity.RecoveryJob{}, err
	}
	return job, nil
}

// Retry reenfileira a próxima tentativa com o backoff da tentativa atual.
func (s *RecoveryScheduler) Retry(ctx context.Context, job entity.RecoveryJob) (entity.RecoveryJob, error) {
	next := job.Next(s.now())
	next.EnqueuedAt = s.now()
	if err := s.Queue.Enqueue(ctx, next); err != nil {
		return entity.RecoveryJob{}, err
	}
	return next, nil
}
