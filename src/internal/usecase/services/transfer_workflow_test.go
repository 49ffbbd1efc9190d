package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/usecase/service_interfaces"
	"github.com/arcbank/funds-engine/src/internal/usecase/services"
)

var _ service_interfaces.TransferService = (*services.TransferService)(nil)
var _ service_interfaces.TransferWorkflow = (*services.TransferWorkflow)(nil)

func internalDestination(number string) services.DestinationInput {
	return services.DestinationInput{
		Kind:            services.DestinationInternal,
		BeneficiaryName: "Luis Vera",
		Identifier:      number,
	}
}

func TestTransferRejectsAmountAboveSourceBalance(t *testing.T) {
	e := newEngine(newGatewayStub())
	w, err := e.transfers.Begin(session, savings.ID)
	require.NoError(t, err)

	require.NoError(t, w.SubmitDestination(context.Background(), internalDestination(payee.DisplayNumber)))

	err = w.SubmitAmount(services.AmountInput{Amount: "100.00"})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	require.Equal(t, domain.KindBusinessRule, domain.KindOf(err))
	require.Equal(t, services.StateCollectAmount, w.Snapshot().State)
	require.Zero(t, e.gateway.executedCount())
}

func TestTransferRejectsSameAccountDestination(t *testing.T) {
	e := newEngine(newGatewayStub())
	w, err := e.transfers.Begin(session, savings.ID)
	require.NoError(t, err)

	err = w.SubmitDestination(context.Background(), internalDestination(savings.DisplayNumber))
	require.ErrorIs(t, err, domain.ErrSameAccount)
	require.Equal(t, domain.KindBusinessRule, domain.KindOf(err))
	require.Equal(t, services.StateCollectDestination, w.Snapshot().State)
}

func TestTransferSourceSwitchIsRecheckedAgainstDestination(t *testing.T) {
	e := newEngine(newGatewayStub())
	w, err := e.transfers.Begin(session, savings.ID)
	require.NoError(t, err)

	require.NoError(t, w.SubmitDestination(context.Background(), internalDestination(checking.DisplayNumber)))

	err = w.SubmitAmount(services.AmountInput{Amount: "10", SourceAccountID: checking.ID})
	require.ErrorIs(t, err, domain.ErrSameAccount)
}

func TestTransferAppliesServerBalanceWithoutRefresh(t *testing.T) {
	gateway := newGatewayStub()
	gateway.executeFn = func(_ context.Context, req domain.ExecutionRequest) (domain.ExecutionResult, error) {
		return domain.ExecutionResult{
			TransactionID:    "9001",
			Reference:        req.Reference,
			ResultingBalance: decimal.NewNullDecimal(decimal.RequireFromString("875.50")),
		}, nil
	}
	e := newEngine(gateway)

	w, err := e.transfers.Begin(session, checking.ID)
	require.NoError(t, err)
	require.NoError(t, w.SubmitDestination(context.Background(), internalDestination(payee.DisplayNumber)))
	require.NoError(t, w.SubmitAmount(services.AmountInput{Amount: "124.50"}))

	receipt, err := w.Confirm(context.Background())
	require.NoError(t, err)
	require.Equal(t, "9001", receipt.TransactionID)
	require.Equal(t, services.StateSuccess, w.Snapshot().State)

	account, ok := e.book.Get(checking.ID)
	require.True(t, ok)
	require.True(t, decimal.RequireFromString("875.50").Equal(account.Balance))
	require.Zero(t, gateway.listCount())

	require.Len(t, gateway.executed, 1)
	sent := gateway.executed[0]
	require.Equal(t, domain.ExecutionInternalTransfer, sent.Type)
	require.Equal(t, checking.ID, sent.SourceAccountID)
	require.Equal(t, payee.ID, sent.Destination.Internal.AccountID)
	require.Equal(t, "CAJERO", sent.Channel)
	require.Equal(t, "3", sent.BranchID)
	require.Equal(t, "Transferencia a Luis Vera", sent.Description)
	require.NotEmpty(t, sent.Reference)
}

func TestTransferWithoutServerBalanceRefreshesOnce(t *testing.T) {
	gateway := newGatewayStub()
	refreshed := checking
	refreshed.Balance = decimal.RequireFromString("900.00")
	gateway.accountsByClient["7"] = []domain.Account{savings, refreshed}
	e := newEngine(gateway)

	w, err := e.transfers.Begin(session, checking.ID)
	require.NoError(t, err)
	require.NoError(t, w.SubmitDestination(context.Background(), internalDestination(payee.DisplayNumber)))
	require.NoError(t, w.SubmitAmount(services.AmountInput{Amount: "100"}))

	_, err = w.Confirm(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, gateway.listCount())
	account, _ := e.book.Get(checking.ID)
	require.True(t, decimal.RequireFromString("900.00").Equal(account.Balance))
}

func TestTransferFailureIsTranslatedAndReenterable(t *testing.T) {
	gateway := newGatewayStub()
	attempts := 0
	gateway.executeFn = func(_ context.Context, req domain.ExecutionRequest) (domain.ExecutionResult, error) {
		attempts++
		if attempts == 1 {
			return domain.ExecutionResult{}, &domain.RemoteRejectionError{
				Operation:  "execute_transaction",
				StatusCode: 422,
				Code:       "AM04",
				Message:    "AM04 - Fondos insuficientes",
			}
		}
		return domain.ExecutionResult{TransactionID: "2", Reference: req.Reference}, nil
	}
	e := newEngine(gateway)

	w, err := e.transfers.Begin(session, checking.ID)
	require.NoError(t, err)
	require.NoError(t, w.SubmitDestination(context.Background(), internalDestination(payee.DisplayNumber)))
	require.NoError(t, w.SubmitAmount(services.AmountInput{Amount: "10"}))

	_, err = w.Confirm(context.Background())
	require.Error(t, err)
	snap := w.Snapshot()
	require.Equal(t, services.StateFailed, snap.State)
	require.Equal(t, "Insufficient funds in the account (AM04)", services.UserMessage(snap.LastError, e.catalog))

	_, err = w.Confirm(context.Background())
	require.NoError(t, err)
	require.Equal(t, services.StateSuccess, w.Snapshot().State)
	require.Len(t, gateway.executed, 2)
	require.Equal(t, gateway.executed[0].Reference, gateway.executed[1].Reference)
}

func TestConcurrentConfirmSendsOneRequest(t *testing.T) {
	gateway := newGatewayStub()
	started := make(chan struct{})
	release := make(chan struct{})
	gateway.executeFn = func(_ context.Context, req domain.ExecutionRequest) (domain.ExecutionResult, error) {
		close(started)
		<-release
		return domain.ExecutionResult{TransactionID: "3", Reference: req.Reference}, nil
	}
	e := newEngine(gateway)

	w, err := e.transfers.Begin(session, checking.ID)
	require.NoError(t, err)
	require.NoError(t, w.SubmitDestination(context.Background(), internalDestination(payee.DisplayNumber)))
	require.NoError(t, w.SubmitAmount(services.AmountInput{Amount: "10"}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = w.Confirm(context.Background())
	}()
	<-started

	_, err = w.Confirm(context.Background())
	require.ErrorIs(t, err, domain.ErrOperationInFlight)
	require.ErrorIs(t, w.Back(), domain.ErrOperationInFlight)
	require.Equal(t, services.StateExecuting, w.Snapshot().State)

	close(release)
	wg.Wait()

	require.Equal(t, 1, gateway.executedCount())
	require.Equal(t, services.StateSuccess, w.Snapshot().State)
}

func TestAbandonDropsLateResult(t *testing.T) {
	gateway := newGatewayStub()
	started := make(chan struct{})
	release := make(chan struct{})
	gateway.executeFn = func(_ context.Context, req domain.ExecutionRequest) (domain.ExecutionResult, error) {
		close(started)
		<-release
		return domain.ExecutionResult{
			TransactionID:    "4",
			ResultingBalance: decimal.NewNullDecimal(decimal.NewFromInt(1)),
		}, nil
	}
	e := newEngine(gateway)

	w, err := e.transfers.Begin(session, checking.ID)
	require.NoError(t, err)
	require.NoError(t, w.SubmitDestination(context.Background(), internalDestination(payee.DisplayNumber)))
	require.NoError(t, w.SubmitAmount(services.AmountInput{Amount: "10"}))

	done := make(chan error, 1)
	go func() {
		_, err := w.Confirm(context.Background())
		done <- err
	}()
	<-started

	require.NoError(t, w.Abandon())
	close(release)

	select {
	case err := <-done:
		require.ErrorIs(t, err, domain.ErrWorkflowClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("confirm did not return")
	}

	require.Equal(t, services.StateAbandoned, w.Snapshot().State)
	account, _ := e.book.Get(checking.ID)
	require.True(t, checking.Balance.Equal(account.Balance))
	require.Zero(t, gateway.listCount())
	require.ErrorIs(t, w.Abandon(), domain.ErrWorkflowClosed)
}

func TestInterbankDestinationUsesRegistryOnly(t *testing.T) {
	gateway := newGatewayStub()
	gateway.numberErr = errors.New("must not be called")
	e := newEngine(gateway)

	w, err := e.transfers.Begin(session, checking.ID)
	require.NoError(t, err)

	err = w.SubmitDestination(context.Background(), services.DestinationInput{
		Kind:            services.DestinationInterbank,
		BeneficiaryName: "Maria Paz",
		Identifier:      "2100-44",
		BankCode:        "0010",
	})
	require.Equal(t, domain.KindInputValidation, domain.KindOf(err))

	err = w.SubmitDestination(context.Background(), services.DestinationInput{
		Kind:            services.DestinationInterbank,
		BeneficiaryName: "Maria Paz",
		Identifier:      "2100-445566",
		BankCode:        "0011",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "did you mean 0010")

	require.NoError(t, w.SubmitDestination(context.Background(), services.DestinationInput{
		Kind:            services.DestinationInterbank,
		BeneficiaryName: "Maria Paz",
		Identifier:      "2100-445566",
		BankCode:        "0010",
	}))
	require.NoError(t, w.SubmitAmount(services.AmountInput{Amount: "25.5"}))

	receipt, err := w.Confirm(context.Background())
	require.NoError(t, err)
	require.Equal(t, "BANCO PICHINCHA 2100-445566", receipt.Destination)

	sent := gateway.executed[0]
	require.Equal(t, domain.ExecutionInterbankTransfer, sent.Type)
	require.Equal(t, "RED EXTERNA: BANCO PICHINCHA - Maria Paz", sent.Description)
	require.True(t, decimal.RequireFromString("25.5").Equal(sent.Amount))
}

func TestInterbankRejectsOwnBankCode(t *testing.T) {
	e := newEngine(newGatewayStub())
	w, err := e.transfers.Begin(session, checking.ID)
	require.NoError(t, err)

	err = w.SubmitDestination(context.Background(), services.DestinationInput{
		Kind:            services.DestinationInterbank,
		BeneficiaryName: "Maria Paz",
		Identifier:      "2100445566",
		BankCode:        "arcbank",
	})
	require.Equal(t, domain.KindInputValidation, domain.KindOf(err))
}

func TestAmountFormatValidation(t *testing.T) {
	cases := map[string]bool{
		"10":     true,
		"10.5":   true,
		"10.50":  true,
		"10.":    true,
		".5":     true,
		"0":      false,
		"0.00":   false,
		"-5":     false,
		"10.505": false,
		"1e3":    false,
		"":       false,
	}

	for input, ok := range cases {
		t.Run(input, func(t *testing.T) {
			e := newEngine(newGatewayStub())
			w, err := e.transfers.Begin(session, checking.ID)
			require.NoError(t, err)
			require.NoError(t, w.SubmitDestination(context.Background(), internalDestination(payee.DisplayNumber)))

			err = w.SubmitAmount(services.AmountInput{Amount: input})
			if ok {
				require.NoError(t, err)
				return
			}
			require.Equal(t, domain.KindInputValidation, domain.KindOf(err))
		})
	}
}

func TestBackWalksOneStep(t *testing.T) {
	e := newEngine(newGatewayStub())
	w, err := e.transfers.Begin(session, checking.ID)
	require.NoError(t, err)

	require.ErrorIs(t, w.Back(), domain.ErrInvalidTransition)

	require.NoError(t, w.SubmitDestination(context.Background(), internalDestination(payee.DisplayNumber)))
	require.NoError(t, w.SubmitAmount(services.AmountInput{Amount: "10", Description: "rent"}))
	require.Equal(t, services.StateConfirm, w.Snapshot().State)

	require.NoError(t, w.Back())
	require.Equal(t, services.StateCollectAmount, w.Snapshot().State)

	require.NoError(t, w.Back())
	snap := w.Snapshot()
	require.Equal(t, services.StateCollectDestination, snap.State)
	require.True(t, snap.Intent.Destination.IsZero())

	_, err = w.Confirm(context.Background())
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestDestinationRequiresNameAndIdentifier(t *testing.T) {
	e := newEngine(newGatewayStub())
	w, err := e.transfers.Begin(session, checking.ID)
	require.NoError(t, err)

	err = w.SubmitDestination(context.Background(), services.DestinationInput{Kind: services.DestinationInternal})

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Problems, 2)
	require.Equal(t, validationErr, w.Snapshot().LastError)
}

func TestBeginRequiresKnownSourceAccount(t *testing.T) {
	e := newEngine(newGatewayStub())

	_, err := e.transfers.Begin(session, "999")
	require.Equal(t, domain.KindInputValidation, domain.KindOf(err))
}

func TestReceiptText(t *testing.T) {
	receipt := domain.Receipt{
		TransactionID:       "9001",
		Reference:           "ref-1",
		Amount:              decimal.RequireFromString("124.5"),
		SourceDisplayNumber: "2200000011",
		Destination:         "2200000020",
		BeneficiaryName:     "Luis Vera",
	}

	text := receipt.Text()
	require.Contains(t, text, "TRANSFER RECEIPT")
	require.Contains(t, text, "Transaction: 9001")
	require.Contains(t, text, "Amount:      $124.50")
	require.NotContains(t, text, "Date:")
}
