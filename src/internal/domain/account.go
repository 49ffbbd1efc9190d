package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeChecking AccountType = "CHECKING"
)

// ParseAccountType maps the gateway's account type labels onto AccountType.
// Unknown labels default to savings, which is the only product the web
// channel opens.
func ParseAccountType(raw string) AccountType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CHECKING", "CORRIENTE", "CUENTA_CORRIENTE":
		return AccountTypeChecking
	default:
		return AccountTypeSavings
	}
}

type Account struct {
	ID            string
	ClientID      string
	DisplayNumber string
	OwnerName     string
	Type          AccountType
	Balance       decimal.Decimal
}

// AccountRef identifies an internal destination account after resolution.
type AccountRef struct {
	AccountID     string
	DisplayNumber string
	OwnerName     string
}

func (a Account) Ref() AccountRef {
	return AccountRef{
		AccountID:     a.ID,
		DisplayNumber: a.DisplayNumber,
		OwnerName:     a.OwnerName,
	}
}
