package services

import (
	"context"
	"errors"
	"strings"

	"github.com/arcbank/funds-engine/src/internal/domain"
	"github.com/arcbank/funds-engine/src/internal/logger"
)

// AccountResolver turns what a customer types as a destination into a
// concrete internal account. It tries the account number first and the
// holder's national identification second.
type AccountResolver struct {
	directory domain.AccountDirectory
}

func NewAccountResolver(directory domain.AccountDirectory) *AccountResolver {
	return &AccountResolver{directory: directory}
}

// ResolveByIdentifier reports domain.ErrAccountNotFound only when every path
// answered cleanly. If a path failed in transit and no other path matched,
// the transport error is returned instead: a missing account cannot be
// distinguished from an unreachable service.
func (r *AccountResolver) ResolveByIdentifier(ctx context.Context, term string) (domain.Account, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return domain.Account{}, domain.NewValidationError("account number or identification is required")
	}

	var transportErr error

	account, err := r.directory.GetByAccountNumber(ctx, term)
	switch {
	case err == nil:
		logger.Info("account resolver matched account number", logger.Fields{"accountId": account.ID})
		return account, nil
	case isTransport(err):
		transportErr = err
	case !errors.Is(err, domain.ErrAccountNotFound):
		logger.Warn("account resolver account number path rejected", logger.Fields{"error": err.Error()})
	}

	account, err = r.resolveByIdentification(ctx, term)
	switch {
	case err == nil:
		logger.Info("account resolver matched identification", logger.Fields{"accountId": account.ID})
		return account, nil
	case isTransport(err):
		if transportErr == nil {
			transportErr = err
		}
	case !errors.Is(err, domain.ErrAccountNotFound):
		logger.Warn("account resolver identification path rejected", logger.Fields{"error": err.Error()})
	}

	if transportErr != nil {
		return domain.Account{}, transportErr
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

// ResolveByAccountNumber resolves number and rejects it when it is the
// source account itself.
func (r *AccountResolver) ResolveByAccountNumber(ctx context.Context, number string, sourceAccountID string) (domain.Account, error) {
	account, err := r.ResolveByIdentifier(ctx, number)
	if err != nil {
		return domain.Account{}, err
	}
	if sourceAccountID != "" && account.ID == sourceAccountID {
		return domain.Account{}, domain.NewBusinessRuleError(domain.ErrSameAccount, "cannot transfer to the same account")
	}
	return account, nil
}

func (r *AccountResolver) resolveByIdentification(ctx context.Context, identification string) (domain.Account, error) {
	client, err := r.directory.GetClientByIdentification(ctx, identification)
	if err != nil {
		return domain.Account{}, err
	}

	accounts, err := r.directory.ListAccountsByClient(ctx, client.ID)
	if err != nil {
		return domain.Account{}, err
	}
	if len(accounts) == 0 {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	account := accounts[0]
	if account.OwnerName == "" {
		account.OwnerName = client.FullName
	}
	return account, nil
}

func isTransport(err error) bool {
	return domain.KindOf(err) == domain.KindTransport
}
