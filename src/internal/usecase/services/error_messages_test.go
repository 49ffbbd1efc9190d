package services_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/usecase/services"
)

func TestUserMessage(t *testing.T) {
	catalog := services.NewReasonCatalog(nil)

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", domain.NewValidationError("amount is required", "name is required"), "amount is required; name is required"},
		{"business", domain.NewBusinessRuleError(domain.ErrSameAccount, "cannot transfer to the same account"), "cannot transfer to the same account"},
		{"not found", fmt.Errorf("resolve: %w", domain.ErrAccountNotFound), "The account was not found. Check the number and try again."},
		{"known code", &domain.RemoteRejectionError{Operation: "x", Code: "AC04", Message: "AC04 cuenta cerrada"}, "Destination account is closed (AC04)"},
		{"unknown code", &domain.RemoteRejectionError{Operation: "x", Message: "Limite diario excedido"}, "Limite diario excedido"},
		{"transport", &domain.TransportError{Operation: "x", StatusCode: 503, Err: errors.New("unavailable")}, "The service is temporarily unavailable. Please try again later."},
		{"in flight", domain.ErrOperationInFlight, "An operation is already in progress. Please wait for it to finish."},
		{"unknown", errors.New("boom"), "An unexpected error occurred. Please try again."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, services.UserMessage(tc.err, catalog))
		})
	}
}
