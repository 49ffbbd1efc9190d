package services

import (
	"errors"

	"github.com/arcbank/funds-engine/src/internal/domain"
)

const (
	msgServiceUnavailable = "The service is temporarily unavailable. Please try again later."
	msgUnexpected         = "An unexpected error occurred. Please try again."
)

// UserMessage turns err into the text shown to the customer. Remote
// rejections carrying a known reason code are translated through catalog;
// transport faults never expose their details.
func UserMessage(err error, catalog *ReasonCatalog) string {
	if err == nil {
		return ""
	}

	var validationErr *domain.ValidationError
	var businessErr *domain.BusinessRuleError
	var rejectionErr *domain.RemoteRejectionError

	switch {
	case errors.Is(err, domain.ErrOperationInFlight):
		return "An operation is already in progress. Please wait for it to finish."
	case errors.Is(err, domain.ErrWorkflowClosed):
		return "This transfer is already closed."
	case errors.Is(err, domain.ErrAccountNotFound):
		return "The account was not found. Check the number and try again."
	case errors.As(err, &businessErr):
		return businessErr.Error()
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.As(err, &rejectionErr):
		if catalog == nil {
			return rejectionErr.Message
		}
		return catalog.Translate(rejectionErr.Message)
	case domain.KindOf(err) == domain.KindTransport:
		return msgServiceUnavailable
	case domain.KindOf(err) == domain.KindBusinessRule:
		return err.Error()
	default:
		return msgUnexpected
	}
}
