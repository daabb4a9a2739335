package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/infra/http/middleware"
	"github.com/xavierca1/recupa-ai/internal/infra/integration/uazapi"
	"github.com/xavierca1/recupa-ai/internal/usecase"
)

// turnTimeout limita um turno em background (modelo + envio).
const turnTimeout = 60 * time.Second

type ConversationProcessor interface {
	Execute(ctx context.Context, input usecase.InboundMessageInput) (*usecase.ConversationOutput, error)
}

type InstanceManager interface {
	Connect(ctx context.Context, clientID string) (*usecase.ConnectInstanceOutput, error)
	Status(ctx context.Context, clientID string) (*usecase.InstanceStatusOutput, error)
}

type WhatsAppHandler struct {
	Conversation ConversationProcessor
	Instances    InstanceManager
	Logger       *zap.Logger
	// dispatch roda o turno fora da requisição; testes trocam por execução síncrona
	dispatch func(func())
}

func NewWhatsAppHandler(conversation ConversationProcessor, instances InstanceManager, logger *zap.Logger) *WhatsAppHandler {
	return &WhatsAppHandler{
		Conversation: conversation,
		Instances:    instances,
		Logger:       logger,
		dispatch:     func(f func()) { go f() },
	}
}

type receiveResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Receive (POST /api/whatsapp/webhook) responde na hora; o turno roda em background.
func (h *WhatsAppHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var payload uazapi.InboundWebhook
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Reason: usecase.CodeMalformedBody})
		return
	}

	msg := payload.Message
	switch {
	case msg == nil:
		writeJSON(w, http.StatusOK, receiveResponse{Status: "ignored", Reason: "no_message_data"})
		return
	case msg.Key.FromMe:
		writeJSON(w, http.StatusOK, receiveResponse{Status: "ignored", Reason: "from_me"})
		return
	case msg.Text() == "":
		writeJSON(w, http.StatusOK, receiveResponse{Status: "ignored", Reason: "no_text_content"})
		return
	}

	input := usecase.InboundMessageInput{
		InstanceName: payload.InstanceName,
		Phone:        msg.Phone(),
		Text:         msg.Text(),
	}
	ctx := context.WithoutCancel(r.Context())

	h.dispatch(func() {
		ctx, cancel := context.WithTimeout(ctx, turnTimeout)
		defer cancel()

		out, err := h.Conversation.Execute(ctx, input)
		if err != nil {
			middleware.RecordConversationTurn("error")
			h.Logger.Error("falha no turno de conversa", zap.String("instance", input.InstanceName), zap.Error(err))
			return
		}
		middleware.RecordConversationTurn(out.Outcome)
	})

	writeJSON(w, http.StatusOK, receiveResponse{Status: "processing"})
}

// Connect (POST /api/whatsapp/connect/{clientId})
func (h *WhatsAppHandler) Connect(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientId")

	out, err := h.Instances.Connect(r.Context(), clientID)
	if err != nil {
		h.Logger.Error("falha ao conectar instância", zap.String("client_id", clientID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: usecase.CodeDBError})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Status (GET /api/whatsapp/status/{clientId})
func (h *WhatsAppHandler) Status(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientId")

	out, err := h.Instances.Status(r.Context(), clientID)
	if err != nil {
		h.Logger.Error("falha ao consultar instância", zap.String("client_id", clientID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: usecase.CodeDBError})
		return
	}
	writeJSON(w, http.StatusOK, out)
}
