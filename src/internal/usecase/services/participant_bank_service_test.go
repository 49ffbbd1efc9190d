package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/usecase/service_interfaces"
	"github.com/arcbank/funds-engine/src/internal/usecase/services"
)

var _ service_interfaces.ParticipantBankService = (*services.ParticipantBankService)(nil)

func TestParticipantBankServiceGetParticipantBanksExcludesOwnBank(t *testing.T) {
	svc := services.NewParticipantBankService(testBanks, "arcbank")

	banks, err := svc.GetParticipantBanks(context.Background())
	require.NoError(t, err)
	require.Len(t, banks, 2)
	for _, bank := range banks {
		require.NotEqual(t, "ARCBANK", bank.BankCode)
	}
}

func TestParticipantBankServiceGetParticipantBanksFailure(t *testing.T) {
	svc := services.NewParticipantBankService(participantBankRepoStub{err: errors.New("registry unreadable")}, "ARCBANK")

	_, err := svc.GetParticipantBanks(context.Background())
	require.Error(t, err)
}

func TestParticipantBankServiceLookup(t *testing.T) {
	svc := services.NewParticipantBankService(testBanks, "ARCBANK")

	bank, err := svc.Lookup(context.Background(), " 0017 ")
	require.NoError(t, err)
	require.Equal(t, "BANCO GUAYAQUIL", bank.BankName)

	_, err = svc.Lookup(context.Background(), "")
	require.Equal(t, domain.KindInputValidation, domain.KindOf(err))

	_, err = svc.Lookup(context.Background(), "9999")
	require.Equal(t, domain.KindInputValidation, domain.KindOf(err))
	require.NotContains(t, err.Error(), "did you mean")
}

func TestParticipantBankServiceSuggestByName(t *testing.T) {
	svc := services.NewParticipantBankService(testBanks, "ARCBANK")

	bank, ok := svc.Suggest(context.Background(), "banco guayaqil")
	require.True(t, ok)
	require.Equal(t, "0017", bank.BankCode)

	_, ok = svc.Suggest(context.Background(), "zzzzzzzzzzzz")
	require.False(t, ok)
}
