package usecase

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateAbandonment checa o mínimo para dedupe (email) e contato (telefone).
func ValidateAbandonment(input CaptureAbandonmentInput) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(input.Email) == "" {
		errs = append(errs, ValidationError{"email", "is required"})
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		errs = append(errs, ValidationError{"email", "is invalid"})
	}

	if input.Phone != "" && !isValidPhoneNumber(input.PhoneNormalized) {
		errs = append(errs, ValidationError{"phone", "must be a valid phone number"})
	}

	return errs
}

// Telefone com DDI/DDD: 10 a 13 dígitos.
func isValidPhoneNumber(digits string) bool {
	return len(digits) >= 10 && len(digits) <= 13
}

// ValidateOperatorStatus restringe o que o painel pode aplicar manualmente.
func ValidateOperatorStatus(status entity.LeadStatus) error {
	switch status {
	case entity.StatusDoNotContact, entity.StatusEscalated, entity.StatusRecoveredByAI, entity.StatusFailed:
		return nil
	}
	return &DomainError{Code: CodeInvalidStatus, Message: fmt.Sprintf("status %q não pode ser aplicado pelo operador", status)}
}

func joinValidation(errs []ValidationError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Field+" ("+e.Message+")")
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
