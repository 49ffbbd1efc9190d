package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/logger"
)

// BalanceReconciler keeps the account book in line with the gateway after a
// successful transaction. A balance echoed by the gateway is applied as is;
// otherwise the principal's account list is fetched once and replaces every
// balance. Balances are never computed locally.
type BalanceReconciler struct {
	directory domain.AccountDirectory
	book      domain.AccountBook
	group     singleflight.Group
}

func NewBalanceReconciler(directory domain.AccountDirectory, book domain.AccountBook) *BalanceReconciler {
	return &BalanceReconciler{directory: directory, book: book}
}

func (r *BalanceReconciler) ApplyResult(ctx context.Context, session domain.SessionContext, accountID string, result domain.ExecutionResult) error {
	if result.ResultingBalance.Valid && r.book.SetBalance(accountID, result.ResultingBalance.Decimal) {
		logger.Info("balance reconciler applied server balance", logger.Fields{
			"accountId": accountID,
			"balance":   result.ResultingBalance.Decimal.StringFixed(2),
		})
		return nil
	}
	return r.Refresh(ctx, session)
}

// Refresh replaces the book with the principal's current accounts. Calls that
// overlap for the same client share one remote request.
func (r *BalanceReconciler) Refresh(ctx context.Context, session domain.SessionContext) error {
	clientID := session.PrincipalClientID
	if clientID == "" {
		return domain.NewValidationError("session has no principal client")
	}

	_, err, shared := r.group.Do(clientID, func() (any, error) {
		accounts, err := r.directory.ListAccountsByClient(ctx, clientID)
		if err != nil {
			return nil, err
		}
		r.book.ReplaceAll(accounts)
		return nil, nil
	})
	if err != nil {
		logger.Error("balance reconciler refresh failed", err, logger.Fields{"clientId": clientID})
		return fmt.Errorf("refresh accounts: %w", err)
	}

	logger.Info("balance reconciler refreshed accounts", logger.Fields{
		"clientId": clientID,
		"shared":   shared,
	})
	return nil
}
