package services

import (
	"context"
	"strings"

	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/logger"
)

// AccountService identifies the customer being served and keeps their
// accounts in the book.
type AccountService struct {
	directory  domain.AccountDirectory
	book       domain.AccountBook
	reconciler *BalanceReconciler
}

func NewAccountService(directory domain.AccountDirectory, book domain.AccountBook, reconciler *BalanceReconciler) *AccountService {
	return &AccountService{directory: directory, book: book, reconciler: reconciler}
}

// OpenSession looks the customer up by national identification and loads
// their accounts. The returned session carries workstation as given.
func (s *AccountService) OpenSession(ctx context.Context, identification string, workstation domain.SessionContext) (domain.SessionContext, []domain.Account, error) {
	logger.Info("account service open session request", logger.Fields{
		"cashierId": workstation.CashierID,
		"branchId":  workstation.BranchID,
	})

	identification = strings.TrimSpace(identification)
	if identification == "" {
		return domain.SessionContext{}, nil, domain.NewValidationError("identification is required")
	}

	client, err := s.directory.GetClientByIdentification(ctx, identification)
	if err != nil {
		logger.Error("account service client lookup failed", err, nil)
		return domain.SessionContext{}, nil, err
	}

	session := workstation
	session.PrincipalClientID = client.ID

	if err := s.reconciler.Refresh(ctx, session); err != nil {
		return domain.SessionContext{}, nil, err
	}

	accounts := s.book.List()
	logger.Info("account service open session success", logger.Fields{
		"clientId": client.ID,
		"accounts": len(accounts),
	})
	return session, accounts, nil
}

// Refresh reloads the session's accounts from the gateway.
func (s *AccountService) Refresh(ctx context.Context, session domain.SessionContext) ([]domain.Account, error) {
	if err := s.reconciler.Refresh(ctx, session); err != nil {
		return nil, err
	}
	return s.book.List(), nil
}

func (s *AccountService) GetAccount(accountID string) (domain.Account, error) {
	account, ok := s.book.Get(strings.TrimSpace(accountID))
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (s *AccountService) Accounts() []domain.Account {
	return s.book.List()
}
