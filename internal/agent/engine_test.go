package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Complete(ctx context.Context, messages []Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

func fixtures() (*entity.Product, *entity.Lead) {
	price := 297.0
	product := &entity.Product{
		ID:                "prod-uuid-001",
		Name:              "Curso Python Pro",
		ExternalProductID: "python-pro-01",
		AgentPersona:      "Especialista amigável em tecnologia.",
	}
	lead := &entity.Lead{
		ID:    "lead-uuid-001",
		Name:  "Carlos Silva",
		Value: &price,
	}
	return product, lead
}

func TestBuildSystemPrompt(t *testing.T) {
	product, lead := fixtures()
	prompt := BuildSystemPrompt(NewPromptConfig(product, lead))

	assert.Contains(t, prompt, "Curso Python Pro")
	assert.Contains(t, prompt, "Carlos Silva")
	assert.Contains(t, prompt, "Product price: 297\n")
	assert.Contains(t, prompt, "Especialista amigável em tecnologia.")
	assert.Contains(t, prompt, DefaultObjectionHandling)
	assert.Contains(t, prompt, DefaultDownsell)
	// sem checkout_url no lead, cai no id externo
	assert.Contains(t, prompt, "Checkout link: python-pro-01")
	assert.NotContains(t, prompt, "{")
}

func TestBuildSystemPromptDefaults(t *testing.T) {
	prompt := BuildSystemPrompt(PromptConfig{})

	assert.Contains(t, prompt, "Product price: "+PriceNotInformed)
	assert.Contains(t, prompt, "Persona: "+DefaultPersona)
	assert.Contains(t, prompt, "The customer "+DefaultLeadName)
}

func TestBuildSystemPromptIsSinglePass(t *testing.T) {
	prompt := BuildSystemPrompt(PromptConfig{
		Persona:  "Always greet {lead_name} by name",
		LeadName: "Ana",
	})

	assert.Contains(t, prompt, "Always greet {lead_name} by name")
}

func TestBuildContextKeepsLastSixEntries(t *testing.T) {
	for _, total := range []int{0, 3, 6, 7, 20} {
		t.Run(fmt.Sprintf("log_%d", total), func(t *testing.T) {
			log := make([]entity.ConversationEntry, total)
			for i := range log {
				log[i] = entity.ConversationEntry{Role: entity.RoleUser, Content: fmt.Sprintf("msg-%d", i)}
			}

			messages := BuildContext("system", log)

			expected := total
			if expected > HistoryWindow {
				expected = HistoryWindow
			}
			require.Len(t, messages, expected+1)
			assert.Equal(t, RoleSystem, messages[0].Role)
			if total > 0 {
				assert.Equal(t, fmt.Sprintf("msg-%d", total-1), messages[len(messages)-1].Content)
				assert.Equal(t, fmt.Sprintf("msg-%d", total-expected), messages[1].Content)
			}
		})
	}
}

func TestOpeningSendsSingleInstruction(t *testing.T) {
	product, lead := fixtures()
	gen := new(MockGenerator)
	gen.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []Message) bool {
		return len(msgs) == 2 && msgs[0].Role == RoleSystem && msgs[1].Role == RoleUser
	})).Return("  Oi Carlos! Posso ajudar?  ", nil)

	engine := NewEngine(gen, zap.NewNop())
	msg := engine.Opening(context.Background(), product, lead)

	assert.Equal(t, "Oi Carlos! Posso ajudar?", msg)
	gen.AssertExpectations(t)
}

func TestOpeningFallback(t *testing.T) {
	product, lead := fixtures()
	expected := "Hello Carlos Silva, I noticed you didn't complete the purchase of Curso Python Pro."

	t.Run("backend error", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("timeout"))

		msg := NewEngine(gen, zap.NewNop()).Opening(context.Background(), product, lead)
		assert.Equal(t, expected, msg)
	})

	t.Run("empty content", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Complete", mock.Anything, mock.Anything).Return("   ", nil)

		msg := NewEngine(gen, zap.NewNop()).Opening(context.Background(), product, lead)
		assert.Equal(t, expected, msg)
	})

	t.Run("no backend", func(t *testing.T) {
		msg := NewEngine(nil, zap.NewNop()).Opening(context.Background(), product, lead)
		assert.Equal(t, expected, msg)
	})
}

func TestReplyAppendsUserMessageAndBoundsContext(t *testing.T) {
	product, lead := fixtures()
	for i := 0; i < 10; i++ {
		role := entity.RoleAssistant
		if i%2 == 1 {
			role = entity.RoleUser
		}
		lead.ConversationLog = append(lead.ConversationLog, entity.ConversationEntry{Role: role, Content: fmt.Sprintf("old-%d", i)})
	}

	var captured []Message
	gen := new(MockGenerator)
	gen.On("Complete", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).([]Message) }).
		Return("Temos parcelamento!", nil)

	engine := NewEngine(gen, zap.NewNop())
	engine.now = func() time.Time { return time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC) }

	reply, log := engine.Reply(context.Background(), product, lead, "Qual o desconto?")

	assert.Equal(t, "Temos parcelamento!", reply)
	require.Len(t, log, 11)
	assert.Equal(t, entity.RoleUser, log[10].Role)
	assert.Equal(t, "Qual o desconto?", log[10].Content)
	assert.Equal(t, 2024, log[10].Timestamp.Year())
	// o lead original não é alterado
	assert.Len(t, lead.ConversationLog, 10)

	require.Len(t, captured, HistoryWindow+1)
	assert.True(t, strings.Contains(captured[0].Content, "Curso Python Pro"))
	assert.Equal(t, "old-5", captured[1].Content)
	assert.Equal(t, "Qual o desconto?", captured[6].Content)
}

func TestFallbackMessageDefaultsMissingNames(t *testing.T) {
	assert.Equal(t, "Hello Ana, I noticed you didn't complete the purchase of Curso Go.", FallbackMessage("Ana", "Curso Go"))
	assert.Equal(t, "Hello Customer, I noticed you didn't complete the purchase of Product.", FallbackMessage("", ""))
}
