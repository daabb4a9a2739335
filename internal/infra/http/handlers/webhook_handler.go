package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/infra/http/middleware"
	"github.com/xavierca1/recupa-ai/internal/usecase"
)

const maxBodyBytes = 1 << 20

type WebhookProcessor interface {
	Execute(ctx context.Context, clientID string, body []byte) (*usecase.WebhookOutput, error)
}

// WebhookHandler recebe os webhooks de Hotmart, Kiwify e Eduzz de um cliente.
type WebhookHandler struct {
	UseCase WebhookProcessor
	Logger  *zap.Logger
}

func NewWebhookHandler(uc WebhookProcessor, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{UseCase: uc, Logger: logger}
}

// Handle (POST /api/webhooks/{clientId})
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientId")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		middleware.RecordWebhookEvent(usecase.CodeMalformedBody)
		writeJSON(w, http.StatusBadRequest, errorResponse{Reason: usecase.CodeMalformedBody})
		return
	}

	out, err := h.UseCase.Execute(r.Context(), clientID, body)
	if err != nil {
		h.writeError(w, clientID, err)
		return
	}

	middleware.RecordWebhookEvent(out.Status)
	writeJSON(w, http.StatusOK, out)
}

func (h *WebhookHandler) writeError(w http.ResponseWriter, clientID string, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		middleware.RecordWebhookEvent(de.Code)
		writeJSON(w, http.StatusBadRequest, errorResponse{Reason: de.Code, Message: de.Message})
		return
	}

	code := "internal_error"
	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		code = te.Code
	}
	h.Logger.Error("falha ao processar webhook", zap.String("client_id", clientID), zap.Error(err))
	middleware.RecordWebhookEvent(code)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: code})
}
