package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/usecase/services"
)

func TestReasonCatalogFallsBackOnFailure(t *testing.T) {
	gateway := newGatewayStub()
	gateway.reasonsErr = &domain.TransportError{Operation: "reversal_reasons", Err: errors.New("down")}
	catalog := services.NewReasonCatalog(gateway)

	reasons := catalog.Load(context.Background())
	require.NotEmpty(t, reasons)
	require.Equal(t, "AM04", reasons[0].Code)

	catalog.Load(context.Background())
	require.Equal(t, 2, gateway.reasonsCalls)
}

func TestReasonCatalogFallsBackOnEmptyList(t *testing.T) {
	catalog := services.NewReasonCatalog(newGatewayStub())

	reasons := catalog.Load(context.Background())
	require.True(t, containsCode(reasons, "AM04"))
}

func TestReasonCatalogCachesRemoteList(t *testing.T) {
	gateway := newGatewayStub()
	gateway.reasons = []domain.ReasonCode{
		{Code: "AM04", Description: "Saldo insuficiente"},
		{Code: "FRAD"},
	}
	catalog := services.NewReasonCatalog(gateway)

	first := catalog.Load(context.Background())
	second := catalog.Load(context.Background())
	require.Equal(t, first, second)
	require.Equal(t, 1, gateway.reasonsCalls)

	require.Equal(t, "Saldo insuficiente", catalog.Describe("am04"))
	require.Equal(t, "FRAD", catalog.Describe("FRAD"))
	require.Equal(t, "Destination account is closed", catalog.Describe("AC04"))
	require.True(t, catalog.Known("FRAD"))
}

func TestReasonCatalogTranslate(t *testing.T) {
	catalog := services.NewReasonCatalog(nil)

	require.Equal(t, "Insufficient funds in the account (AM04)", catalog.Translate("AM04 - Fondos insuficientes"))
	require.Equal(t, "Transfer was already processed (duplicate) (DUPL)", catalog.Translate("rechazo: DUPL"))
	require.Equal(t, "ZZ99 algo raro", catalog.Translate("ZZ99 algo raro"))
	require.Equal(t, "timeout", catalog.Translate("timeout"))
}

func TestReasonCatalogTranslateSkipsForwardedHTTPWords(t *testing.T) {
	catalog := services.NewReasonCatalog(nil)
	message := "[422] during [POST] to [http://switch/api/transfers]: AM04 - Fondos insuficientes"

	require.Equal(t, "Insufficient funds in the account (AM04)", catalog.Translate(message))

	err := &domain.RemoteRejectionError{Operation: "execute_transaction", StatusCode: 422, Message: message}
	require.Equal(t, "Insufficient funds in the account (AM04)", services.UserMessage(err, catalog))
}

func containsCode(reasons []domain.ReasonCode, code string) bool {
	for _, reason := range reasons {
		if reason.Code == code {
			return true
		}
	}
	return false
}
