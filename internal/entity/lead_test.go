package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to LeadStatus
		allowed  bool
	}{
		{StatusPendingRecovery, StatusQueued, true},
		{StatusPendingRecovery, StatusContacted, true},
		{StatusQueued, StatusContacted, true},
		{StatusContacted, StatusInConversation, true},
		{StatusInConversation, StatusInConversation, true},
		{StatusPendingRecovery, StatusConvertedOrganically, true},
		{StatusInConversation, StatusRecoveredByAI, true},
		{StatusContacted, StatusFailed, true},
		{StatusQueued, StatusDoNotContact, true},
		{StatusInConversation, StatusEscalated, true},
		{StatusEscalated, StatusRecoveredByAI, true},

		{StatusPendingRecovery, StatusInConversation, false},
		{StatusContacted, StatusQueued, false},
		{StatusContacted, StatusPendingRecovery, false},
		{StatusEscalated, StatusContacted, false},
		{StatusConvertedOrganically, StatusContacted, false},
		{StatusRecoveredByAI, StatusFailed, false},
		{StatusFailed, StatusPendingRecovery, false},
		{StatusDoNotContact, StatusInConversation, false},
		{StatusPendingRecovery, LeadStatus("archived"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTerminalStatusesAreSticky(t *testing.T) {
	for _, terminal := range TerminalStatuses {
		assert.True(t, terminal.IsTerminal())
		assert.True(t, CanTransition(terminal, terminal), "re-aplicar %s é no-op", terminal)
		for _, to := range []LeadStatus{StatusPendingRecovery, StatusContacted, StatusInConversation, StatusEscalated} {
			assert.False(t, CanTransition(terminal, to))
		}
	}
	assert.False(t, StatusEscalated.IsTerminal())
}

func TestRecoveryJobBackoff(t *testing.T) {
	job := RecoveryJob{LeadID: "lead-1", Attempt: 1, MaxAttempts: 3}
	now := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, 60*time.Second, job.Backoff())
	assert.True(t, job.CanRetry())

	second := job.Next(now)
	assert.Equal(t, 2, second.Attempt)
	assert.Equal(t, now.Add(60*time.Second), second.RunAt)
	assert.Equal(t, 120*time.Second, second.Backoff())
	assert.True(t, second.CanRetry())

	third := second.Next(now)
	assert.Equal(t, 3, third.Attempt)
	assert.Equal(t, now.Add(120*time.Second), third.RunAt)
	assert.False(t, third.CanRetry())
}

func TestRecoveryJobDefaultsMaxAttempts(t *testing.T) {
	assert.True(t, RecoveryJob{Attempt: 2}.CanRetry())
	assert.False(t, RecoveryJob{Attempt: DefaultMaxAttempts}.CanRetry())
	assert.Equal(t, BaseBackoff, RecoveryJob{}.Backoff())
}

func TestProductRecoveryDelayIsClamped(t *testing.T) {
	assert.Equal(t, MinDelayMinutes, (&Product{DelayMinutes: 0}).RecoveryDelay())
	assert.Equal(t, 30, (&Product{DelayMinutes: 30}).RecoveryDelay())
	assert.Equal(t, MaxDelayMinutes, (&Product{DelayMinutes: 5000}).RecoveryDelay())
}
