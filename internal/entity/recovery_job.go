package entity

import "time"

const (
	DefaultMaxAttempts = 3
	BaseBackoff        = 60 * time.Second
)

type JobOutcome string

const (
	OutcomeSuccessSent        JobOutcome = "success_sent"
	OutcomeAbortedKillSwitch  JobOutcome = "aborted_kill_switch"
	OutcomeLeadNotFound       JobOutcome = "lead_not_found"
	OutcomeProductNotFound    JobOutcome = "product_not_found"
	OutcomeNoWhatsAppInstance JobOutcome = "no_whatsapp_instance"
	OutcomeRetryScheduled     JobOutcome = "retry_scheduled"
	OutcomeFailed             JobOutcome = "failed"
)

// RecoveryJob é o payload que trafega na fila. Não carrega status do lead:
// o status sempre é relido na execução.
type RecoveryJob struct {
	ID          string    `json:"id"`
	LeadID      string    `json:"lead_id"`
	Attempt     int       `json:"attempt"`
	MaxAttempts int       `json:"max_attempts"`
	RunAt       time.Time `json:"run_at"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

func (j RecoveryJob) CanRetry() bool {
	max := j.MaxAttempts
	if max <= 0 {
		max = DefaultMaxAttempts
	}
	return j.Attempt < max
}

// Backoff exponencial: 60s, 120s, 240s...
func (j RecoveryJob) Backoff() time.Duration {
	attempt := j.Attempt
	if attempt < 1 {
		attempt = 1
	}
	return BaseBackoff << (attempt - 1)
}

// Next devolve a próxima tentativa, agendada a partir de now.
func (j RecoveryJob) Next(now time.Time) RecoveryJob {
	next := j
	next.RunAt = now.Add(j.Backoff())
	next.Attempt = j.Attempt + 1
	return next
}
