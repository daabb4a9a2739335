package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/usecase"
)

type LeadStatusUpdater interface {
	Execute(ctx context.Context, input usecase.UpdateLeadStatusInput) (*usecase.UpdateLeadStatusOutput, error)
}

type LeadHandler struct {
	UpdateStatusUC LeadStatusUpdater
	Logger         *zap.Logger
}

func NewLeadHandler(uc LeadStatusUpdater, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{UpdateStatusUC: uc, Logger: logger}
}

// UpdateStatus (PATCH /api/leads/{leadId}/status)
func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateLeadStatusInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Reason: usecase.CodeMalformedBody})
		return
	}
	input.LeadID = chi.URLParam(r, "leadId")

	out, err := h.UpdateStatusUC.Execute(r.Context(), input)
	if err != nil {
		h.writeError(w, input.LeadID, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LeadHandler) writeError(w http.ResponseWriter, leadID string, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		status := http.StatusBadRequest
		switch de.Code {
		case usecase.CodeLeadNotFound:
			status = http.StatusNotFound
		case usecase.CodeLeadFinalized:
			status = http.StatusConflict
		}
		writeJSON(w, status, errorResponse{Reason: de.Code, Message: de.Message})
		return
	}

	h.Logger.Error("falha ao atualizar lead", zap.String("lead_id", leadID), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: usecase.CodeDBError})
}
