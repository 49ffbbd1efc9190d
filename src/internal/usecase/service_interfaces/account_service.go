package service_interfaces

import (
	"context"

	"github.com/arcbank/funds-engine/src/internal/domain"
)

type AccountService interface {
	OpenSession(ctx context.Context, identification string, workstation domain.SessionContext) (domain.SessionContext, []domain.Account, error)
	Refresh(ctx context.Context, session domain.SessionContext) ([]domain.Account, error)
	GetAccount(accountID string) (domain.Account, error)
	Accounts() []domain.Account
}
