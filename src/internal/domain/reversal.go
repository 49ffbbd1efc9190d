package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReasonCode struct {
	Code        string
	Description string
}

type ReversalRequest struct {
	ID            string
	TransactionID string
	ReasonCode    string
	RequestedAt   time.Time
}

type ReversalAck struct {
	Request          ReversalRequest
	Message          string
	ResultingBalance decimal.NullDecimal
	// RefreshRequired tells the caller to re-fetch the transaction history;
	// the reversal is not reflected in any previously loaded list.
	RefreshRequired bool
}
