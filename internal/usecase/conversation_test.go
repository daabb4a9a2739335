package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

func newConversationUseCase(f *fixture, engine *MockEngine, sender *MockSender) *ConversationUseCase {
	return NewConversationUseCase(f.leads, f.store.Products(), f.store.Instances(), engine, sender, f.logger)
}

func inbound(text string) InboundMessageInput {
	return InboundMessageInput{InstanceName: entity.InstanceKeyFor(testClientID), Phone: "5511999999999", Text: text}
}

func TestConversationReplyMovesToInConversation(t *testing.T) {
	f := newFixture()
	f.connectInstance()
	lead := f.seedLead(entity.StatusContacted)

	engine := new(MockEngine)
	engine.On("Reply", mock.Anything, mock.Anything, mock.Anything, "Tem desconto?").Return("Temos parcelamento em 12x!")
	sender := new(MockSender)
	sender.On("SendText", mock.Anything, "instance_client-001", "5511999999999", "Temos parcelamento em 12x!").Return(nil).Once()

	out, err := newConversationUseCase(f, engine, sender).Execute(context.Background(), inbound("Tem desconto?"))
	require.NoError(t, err)
	assert.Equal(t, TurnReplied, out.Outcome)
	assert.Equal(t, entity.StatusInConversation, out.Status)

	stored := f.lead(lead.ID)
	assert.Equal(t, entity.StatusInConversation, stored.Status)
	require.Len(t, stored.ConversationLog, 2)
	assert.Equal(t, entity.RoleUser, stored.ConversationLog[0].Role)
	assert.Equal(t, "Tem desconto?", stored.ConversationLog[0].Content)
	assert.Equal(t, entity.RoleAssistant, stored.ConversationLog[1].Role)
	sender.AssertExpectations(t)
}

func TestConversationFirstTurnBeforeRecoveryIsContacted(t *testing.T) {
	f := newFixture()
	f.connectInstance()
	lead := f.seedLead(entity.StatusPendingRecovery)

	engine := new(MockEngine)
	engine.On("Reply", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("Olá!")
	sender := new(MockSender)
	sender.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	out, err := newConversationUseCase(f, engine, sender).Execute(context.Background(), inbound("oi"))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusContacted, out.Status)
	assert.Equal(t, entity.StatusContacted, f.lead(lead.ID).Status)
}

func TestConversationIgnoresTerminalLead(t *testing.T) {
	f := newFixture()
	f.connectInstance()
	lead := f.seedLead(entity.StatusRecoveredByAI)
	engine := new(MockEngine)
	sender := new(MockSender)

	out, err := newConversationUseCase(f, engine, sender).Execute(context.Background(), inbound("oi"))
	require.NoError(t, err)
	assert.Equal(t, TurnLeadFinal, out.Outcome)
	assert.Empty(t, f.lead(lead.ID).ConversationLog)
	engine.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	sender.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConversationOptOut(t *testing.T) {
	for _, text := range []string{"PARAR", "stop", " sair. ", "Cancelar!"} {
		t.Run(text, func(t *testing.T) {
			f := newFixture()
			f.connectInstance()
			lead := f.seedLead(entity.StatusContacted)
			sender := new(MockSender)

			out, err := newConversationUseCase(f, new(MockEngine), sender).Execute(context.Background(), inbound(text))
			require.NoError(t, err)
			assert.Equal(t, TurnOptedOut, out.Outcome)

			stored := f.lead(lead.ID)
			assert.Equal(t, entity.StatusDoNotContact, stored.Status)
			require.Len(t, stored.ConversationLog, 1)
			sender.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}

	assert.False(t, IsOptOut("quero parar de pagar caro"))
}

func TestConversationEscalatedLeadOnlyLogs(t *testing.T) {
	f := newFixture()
	f.connectInstance()
	lead := f.seedLead(entity.StatusEscalated)
	engine := new(MockEngine)
	sender := new(MockSender)

	out, err := newConversationUseCase(f, engine, sender).Execute(context.Background(), inbound("quero falar com alguém"))
	require.NoError(t, err)
	assert.Equal(t, TurnEscalated, out.Outcome)

	stored := f.lead(lead.ID)
	assert.Equal(t, entity.StatusEscalated, stored.Status)
	require.Len(t, stored.ConversationLog, 1)
	engine.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConversationUnknownPhone(t *testing.T) {
	f := newFixture()
	f.connectInstance()

	out, err := newConversationUseCase(f, new(MockEngine), new(MockSender)).Execute(context.Background(), inbound("oi"))
	require.NoError(t, err)
	assert.Equal(t, TurnLeadNotFound, out.Outcome)
}

func TestConversationSendFailureKeepsUserMessage(t *testing.T) {
	f := newFixture()
	f.connectInstance()
	lead := f.seedLead(entity.StatusContacted)

	engine := new(MockEngine)
	engine.On("Reply", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("resposta")
	sender := new(MockSender)
	sender.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("uazapi: status 500"))

	_, err := newConversationUseCase(f, engine, sender).Execute(context.Background(), inbound("oi"))
	assert.Error(t, err)

	stored := f.lead(lead.ID)
	assert.Equal(t, entity.StatusContacted, stored.Status)
	require.Len(t, stored.ConversationLog, 1)
	assert.Equal(t, entity.RoleUser, stored.ConversationLog[0].Role)
}
