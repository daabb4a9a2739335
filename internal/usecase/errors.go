package usecase

import "errors"

// Códigos devolvidos ao chamador do webhook (campo reason / error).
const (
	CodeUnknownPlatform = "unknown_platform_or_product"
	CodeMalformedBody   = "malformed_body"
	CodeInvalidLead     = "invalid_lead"
	CodeInvalidStatus   = "invalid_status"
	CodeLeadFinalized   = "lead_finalized"
	CodeLeadNotFound    = "lead_not_found"
	CodeDBError         = "db_error"
	CodeQueueError      = "queue_error"
)

// DomainError é erro de entrada/regra: vira 4xx e nunca é retentado.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError é falha de infraestrutura (banco, fila): vira 5xx.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}
