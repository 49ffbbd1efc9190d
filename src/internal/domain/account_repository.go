package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// AccountDirectory is the remote lookup surface used by the account resolver.
type AccountDirectory interface {
	GetByAccountNumber(ctx context.Context, accountNumber string) (Account, error)
	GetClientByIdentification(ctx context.Context, identification string) (Client, error)
	ListAccountsByClient(ctx context.Context, clientID string) ([]Account, error)
}

// AccountBook holds the principal's accounts as last confirmed by the gateway.
type AccountBook interface {
	Get(accountID string) (Account, bool)
	List() []Account
	SetBalance(accountID string, balance decimal.Decimal) bool
	ReplaceAll(accounts []Account)
}

type Client struct {
	ID             string
	Identification string
	FullName       string
}
